package realtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var ErrTransportClosed = errors.New("realtime: transport closed")

// wsTransport gorilla 连接的 Transport 实现；gorilla 只允许一个并发写，所以写操作串行
type wsTransport struct {
	ws        *websocket.Conn
	writeWait time.Duration

	mu     sync.Mutex
	closed atomic.Bool
	done   chan struct{}
}

func newWSTransport(ws *websocket.Conn, writeWait time.Duration) *wsTransport {
	return &wsTransport{ws: ws, writeWait: writeWait, done: make(chan struct{})}
}

func (t *wsTransport) Send(ctx context.Context, msg []byte) error {
	if t.closed.Load() {
		return ErrTransportClosed
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	_ = t.ws.SetWriteDeadline(t.deadline(ctx))
	return t.ws.WriteMessage(websocket.TextMessage, msg)
}

func (t *wsTransport) ping() error {
	if t.closed.Load() {
		return ErrTransportClosed
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(t.writeWait))
}

// 取 ctx 截止时间和 writeWait 中较早的一个
func (t *wsTransport) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(t.writeWait)
	if cd, ok := ctx.Deadline(); ok && cd.Before(d) {
		d = cd
	}
	return d
}

// Close 幂等
func (t *wsTransport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	close(t.done)
	return t.ws.Close()
}

func (t *wsTransport) Done() <-chan struct{} { return t.done }
