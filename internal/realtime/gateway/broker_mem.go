package gateway

import (
	"context"
	"sync"
)

type MemBroker struct {
	mu   sync.RWMutex
	subs map[string][]chan Message
}

func NewMemBroker() *MemBroker {
	return &MemBroker{subs: make(map[string][]chan Message)}
}

func (b *MemBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	msg := Message{Topic: topic, Payload: cp}

	b.mu.RLock()
	defer b.mu.RUnlock()
	// at-most-once，慢订阅者直接丢
	for _, ch := range b.subs[topic] {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

func (b *MemBroker) Subscribe(ctx context.Context, topics []string) (<-chan Message, error) {
	ch := make(chan Message, 4096)
	b.mu.Lock()
	for _, t := range topics {
		b.subs[t] = append(b.subs[t], ch)
	}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		for _, t := range topics {
			list := b.subs[t]
			for i, c := range list {
				if c == ch {
					b.subs[t] = append(list[:i], list[i+1:]...)
					break
				}
			}
			if len(b.subs[t]) == 0 {
				delete(b.subs, t)
			}
		}
		b.mu.Unlock()
		// 已从 subs 摘掉，Publish 持读锁时不会再写这个 ch
		close(ch)
	}()

	return ch, nil
}

func (b *MemBroker) Close() error { return nil }
