package realtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu       sync.Mutex
	msgs     [][]byte
	failN    int // 前 failN 次失败，<0 表示一直失败
	calls    atomic.Int32
	block    bool
	closed   atomic.Bool
	panicked bool
}

func (f *fakeTransport) Send(ctx context.Context, msg []byte) error {
	n := int(f.calls.Add(1))
	if f.panicked {
		panic("boom")
	}
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.failN < 0 || n <= f.failN {
		return errors.New("send failed")
	}
	f.mu.Lock()
	f.msgs = append(f.msgs, append([]byte(nil), msg...))
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Close() error {
	f.closed.Store(true)
	return nil
}

func (f *fakeTransport) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.msgs...)
}

func fastPolicy() Option {
	return WithDeliveryPolicy(DeliveryPolicy{Timeout: 50 * time.Millisecond, Attempts: 3, Backoff: 5 * time.Millisecond})
}

func pingEvent() Event { return Event{Data: PingData{}} }

func TestRegistry_BroadcastPrunesFailing(t *testing.T) {
	reg := NewRegistry(RoleKitchen, fastPolicy())
	a := &fakeTransport{}
	b := &fakeTransport{failN: -1}
	reg.Connect("A", a)
	reg.Connect("B", b)

	reg.Broadcast(context.Background(), pingEvent())

	require.Len(t, a.received(), 1)
	assert.JSONEq(t, `{"type":"ping","data":{}}`, string(a.received()[0]))
	assert.Equal(t, []string{"A"}, reg.IDs())
	assert.EqualValues(t, 3, b.calls.Load())
	assert.Eventually(t, b.closed.Load, time.Second, 5*time.Millisecond)
}

func TestRegistry_BroadcastLiveness(t *testing.T) {
	reg := NewRegistry(RoleKitchen, fastPolicy())
	const n, m = 10, 4
	ts := make([]*fakeTransport, n)
	for i := range ts {
		ts[i] = &fakeTransport{}
		if i < m {
			ts[i].failN = -1
		}
		reg.Connect(string(rune('a'+i)), ts[i])
	}

	reg.Broadcast(context.Background(), pingEvent())

	assert.Equal(t, n-m, reg.Len())
	for i, tr := range ts {
		id := string(rune('a' + i))
		_, ok := reg.Get(id)
		if i < m {
			assert.False(t, ok, id)
			assert.Empty(t, tr.received())
		} else {
			assert.True(t, ok, id)
			assert.Len(t, tr.received(), 1)
		}
	}
}

func TestRegistry_SendToBoundedLatency(t *testing.T) {
	p := DeliveryPolicy{Timeout: 30 * time.Millisecond, Attempts: 3, Backoff: 10 * time.Millisecond}
	reg := NewRegistry(RolePrinter, WithDeliveryPolicy(p))
	reg.Connect("stuck", &fakeTransport{block: true})

	start := time.Now()
	ok := reg.SendTo(context.Background(), "stuck", pingEvent())
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.Less(t, elapsed, 3*(p.Timeout+p.Backoff)+100*time.Millisecond)
	assert.Zero(t, reg.Len())
}

func TestRegistry_RetrySucceeds(t *testing.T) {
	reg := NewRegistry(RoleKitchen, fastPolicy())
	tr := &fakeTransport{failN: 1}
	reg.Connect("x", tr)

	assert.True(t, reg.SendTo(context.Background(), "x", pingEvent()))
	assert.EqualValues(t, 2, tr.calls.Load())
	assert.Len(t, tr.received(), 1)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_PanicCountsAsFailure(t *testing.T) {
	reg := NewRegistry(RoleKitchen, fastPolicy())
	reg.Connect("p", &fakeTransport{panicked: true})

	assert.False(t, reg.SendTo(context.Background(), "p", pingEvent()))
	assert.Zero(t, reg.Len())
}

func TestRegistry_SendToUnknown(t *testing.T) {
	reg := NewRegistry(RoleKitchen)
	assert.False(t, reg.SendTo(context.Background(), "nope", pingEvent()))
}

func TestRegistry_DisconnectIdempotent(t *testing.T) {
	reg := NewRegistry(RoleKitchen)
	reg.Connect("a", &fakeTransport{})

	assert.NotPanics(t, func() {
		reg.Disconnect("a")
		reg.Disconnect("a")
		reg.Disconnect("never")
	})
	assert.Zero(t, reg.Len())
}

func TestRegistry_ConnectOverwrites(t *testing.T) {
	reg := NewRegistry(RoleKitchen)
	old := &fakeTransport{}
	cur := &fakeTransport{}
	reg.Connect("a", old)
	reg.Connect("a", cur)

	require.True(t, reg.SendTo(context.Background(), "a", pingEvent()))
	assert.Empty(t, old.received())
	assert.Len(t, cur.received(), 1)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_PruneKeepsReconnected(t *testing.T) {
	reg := NewRegistry(RoleKitchen)
	old := &fakeTransport{}
	reg.Connect("a", old)
	reg.mu.RLock()
	stale := reg.conns["a"]
	reg.mu.RUnlock()

	cur := &fakeTransport{}
	reg.Connect("a", cur)
	reg.prune("a", stale)

	_, ok := reg.Get("a")
	assert.True(t, ok)
	assert.False(t, cur.closed.Load())
}

func TestRegistry_CancelledCallerDoesNotPrune(t *testing.T) {
	reg := NewRegistry(RoleKitchen, WithDeliveryPolicy(DeliveryPolicy{Timeout: time.Second, Attempts: 3, Backoff: time.Second}))
	reg.Connect("slow", &fakeTransport{block: true})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, reg.SendTo(ctx, "slow", pingEvent()))
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_InfoAndConnections(t *testing.T) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	var tick int
	reg := NewRegistry(RolePrinter, WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}))
	reg.Connect("b", &fakeTransport{})
	reg.Connect("a", &fakeTransport{})

	assert.True(t, reg.SetInfo("b", []byte(`{"model":"TM-T82"}`)))
	assert.False(t, reg.SetInfo("zzz", []byte(`{}`)))

	conns := reg.Connections()
	require.Len(t, conns, 2)
	assert.Equal(t, "b", conns[0].ID)
	assert.Equal(t, RolePrinter, conns[0].Role)
	assert.JSONEq(t, `{"model":"TM-T82"}`, string(conns[0].Info))
	assert.Equal(t, []string{"a", "b"}, reg.IDs())
}

func TestDeliveryPolicy_Normalize(t *testing.T) {
	p := DeliveryPolicy{Backoff: -1}.normalize()
	assert.Equal(t, DefaultDeliveryPolicy.Timeout, p.Timeout)
	assert.Equal(t, DefaultDeliveryPolicy.Attempts, p.Attempts)
	assert.Zero(t, p.Backoff)
}
