package gateway

import "context"

type Message struct {
	Topic   string
	Payload []byte
}

// Broker 跨节点消息通道：单机用内存，多机用 nats / redis
type Broker interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe ctx 结束时取消订阅并关闭返回的 channel
	Subscribe(ctx context.Context, topics []string) (<-chan Message, error)
	Close() error
}
