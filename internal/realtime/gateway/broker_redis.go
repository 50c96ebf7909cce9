package gateway

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisBroker 基于 redis pub/sub，已经有 redis 的部署不用再起 nats
type RedisBroker struct {
	rdb *redis.Client
}

func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	return b.rdb.Publish(ctx, topic, payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, topics []string) (<-chan Message, error) {
	ps := b.rdb.Subscribe(ctx, topics...)
	// 等订阅确认，连不上直接报错
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan Message, 4096)
	in := ps.Channel()
	go func() {
		defer close(out)
		defer ps.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- Message{Topic: m.Channel, Payload: []byte(m.Payload)}:
				default:
				}
			}
		}
	}()
	return out, nil
}

// Close client 由调用方管理
func (b *RedisBroker) Close() error { return nil }
