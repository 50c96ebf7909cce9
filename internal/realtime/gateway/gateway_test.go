package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"coffeeshop.com/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sink struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (s *sink) Send(ctx context.Context, msg []byte) error {
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	s.mu.Unlock()
	return nil
}

func (s *sink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

type node struct {
	kitchen *realtime.Registry
	pub     *realtime.Publisher
	gw      *Gateway
}

func newNode(t *testing.T, ctx context.Context, name string, b Broker) *node {
	t.Helper()
	n := &node{kitchen: realtime.NewRegistry(realtime.RoleKitchen)}
	n.pub = realtime.NewPublisher()
	n.gw = New(name, b, n.pub, n.kitchen)
	n.pub.SetRelay(n.gw)
	go func() { _ = n.gw.Run(ctx) }()
	t.Cleanup(func() { _ = n.pub.Close(context.Background()) })
	return n
}

func TestGateway_RelaysAcrossNodes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewMemBroker()
	n1 := newNode(t, ctx, "n1", b)
	n2 := newNode(t, ctx, "n2", b)

	s1, s2 := &sink{}, &sink{}
	n1.kitchen.Connect("c1", s1)
	n2.kitchen.Connect("c2", s2)

	// 等两边订阅就绪
	require.Eventually(t, func() bool {
		b.mu.RLock()
		defer b.mu.RUnlock()
		return len(b.subs[Topic(realtime.RoleKitchen)]) == 2
	}, time.Second, 5*time.Millisecond)

	n1.pub.Publish(n1.kitchen, realtime.NewOrderUpdate(realtime.OrderCreated, []byte(`{"id":1}`), time.Time{}))

	assert.Eventually(t, func() bool { return s2.count() == 1 }, time.Second, 5*time.Millisecond)
	// 自己发出的不会再回投一次
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, s1.count())
	assert.Equal(t, 1, s2.count())
}

func TestGateway_IgnoresGarbage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewMemBroker()
	n := newNode(t, ctx, "n1", b)
	s := &sink{}
	n.kitchen.Connect("c", s)
	require.Eventually(t, func() bool {
		b.mu.RLock()
		defer b.mu.RUnlock()
		return len(b.subs) == 1
	}, time.Second, 5*time.Millisecond)

	topic := Topic(realtime.RoleKitchen)
	require.NoError(t, b.Publish(ctx, topic, []byte("nope")))
	require.NoError(t, b.Publish(ctx, topic, []byte(`{"origin":"n9","role":"kitchen-display","event":{"type":"bogus"}}`)))
	require.NoError(t, b.Publish(ctx, topic, []byte(`{"origin":"n9","role":"printer","event":{"type":"ping"}}`)))
	require.NoError(t, b.Publish(ctx, topic, []byte(`{"origin":"n9","role":"kitchen-display","event":{"type":"ping"}}`)))

	assert.Eventually(t, func() bool { return s.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestMemBroker_UnsubscribeOnCancel(t *testing.T) {
	b := NewMemBroker()
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Subscribe(ctx, []string{"t"})
	require.NoError(t, err)

	require.NoError(t, b.Publish(context.Background(), "t", []byte("x")))
	m := <-ch
	assert.Equal(t, "t", m.Topic)
	assert.Equal(t, []byte("x"), m.Payload)

	cancel()
	_, ok := <-ch
	for ok {
		_, ok = <-ch
	}
	b.mu.RLock()
	assert.Empty(t, b.subs)
	b.mu.RUnlock()
}

func TestTopicSubject(t *testing.T) {
	assert.Equal(t, "pos:events:printer", Topic(realtime.RolePrinter))
	assert.Equal(t, "pos.events.printer", topicToSubject("pos:events:printer"))
	assert.Equal(t, "pos:events:printer", subjectToTopic("pos.events.printer"))
}
