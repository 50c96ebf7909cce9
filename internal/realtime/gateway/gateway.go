package gateway

import (
	"context"
	stdjson "encoding/json"
	"fmt"

	"coffeeshop.com/internal/realtime"
	"coffeeshop.com/pkg/logger"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
)

const topicPrefix = "pos:events:"

func Topic(role realtime.Role) string { return topicPrefix + string(role) }

// Envelope 节点间转发的信封，Origin 用来跳过自己发出的消息
type Envelope struct {
	Origin string             `json:"origin"`
	Role   realtime.Role      `json:"role"`
	Event  stdjson.RawMessage `json:"event"`
}

// Gateway 把本节点发布的事件转给其他节点，并把其他节点的事件投递到本地 registry
type Gateway struct {
	node      string
	broker    Broker
	publisher *realtime.Publisher
	targets   map[realtime.Role]*realtime.Registry
}

func New(node string, broker Broker, publisher *realtime.Publisher, registries ...*realtime.Registry) *Gateway {
	targets := make(map[realtime.Role]*realtime.Registry, len(registries))
	for _, r := range registries {
		targets[r.Role()] = r
	}
	return &Gateway{node: node, broker: broker, publisher: publisher, targets: targets}
}

func (g *Gateway) Node() string { return g.node }

// Relay 实现 realtime.Relay
func (g *Gateway) Relay(ctx context.Context, role realtime.Role, ev realtime.Event) error {
	raw, err := realtime.Encode(ev)
	if err != nil {
		return err
	}
	b, err := json.Marshal(Envelope{Origin: g.node, Role: role, Event: raw})
	if err != nil {
		return err
	}
	return g.broker.Publish(ctx, Topic(role), b)
}

// Run 订阅所有本地角色的 topic，直到 ctx 结束
func (g *Gateway) Run(ctx context.Context) error {
	topics := make([]string, 0, len(g.targets))
	for role := range g.targets {
		topics = append(topics, Topic(role))
	}
	ch, err := g.broker.Subscribe(ctx, topics)
	if err != nil {
		return fmt.Errorf("gateway subscribe: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			g.handle(ctx, m)
		}
	}
}

func (g *Gateway) handle(ctx context.Context, m Message) {
	var env Envelope
	if err := json.Unmarshal(m.Payload, &env); err != nil {
		logger.Warn(ctx, "gateway: bad envelope", zap.String("topic", m.Topic), zap.Error(err))
		return
	}
	if env.Origin == g.node {
		return
	}
	target, ok := g.targets[env.Role]
	if !ok {
		return
	}
	ev, err := realtime.DecodeEvent(env.Event)
	if err != nil {
		logger.Warn(ctx, "gateway: bad event", zap.String("role", string(env.Role)), zap.Error(err))
		return
	}
	g.publisher.PublishLocal(target, ev)
}
