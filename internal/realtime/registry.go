package realtime

import (
	"context"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"coffeeshop.com/internal/realtime/wsmetrics"
	"coffeeshop.com/pkg/logger"
	"coffeeshop.com/pkg/safe"
	"go.uber.org/zap"
)

// Role 连接的客户端角色，一个 Registry 只管一种角色
type Role string

const (
	RoleKitchen Role = "kitchen-display"
	RolePrinter Role = "printer"
	RoleClient  Role = "generic-client"
)

// Transport 已完成握手的双工通道；实现了 io.Closer 的会在被剔除时关闭
type Transport interface {
	Send(ctx context.Context, msg []byte) error
}

// DeliveryPolicy 每次尝试超时、总尝试次数、重试间隔
type DeliveryPolicy struct {
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Attempts int           `mapstructure:"attempts" yaml:"attempts"`
	Backoff  time.Duration `mapstructure:"backoff" yaml:"backoff"`
}

var DefaultDeliveryPolicy = DeliveryPolicy{Timeout: time.Second, Attempts: 3, Backoff: 100 * time.Millisecond}

func (p DeliveryPolicy) normalize() DeliveryPolicy {
	if p.Timeout <= 0 {
		p.Timeout = DefaultDeliveryPolicy.Timeout
	}
	if p.Attempts <= 0 {
		p.Attempts = DefaultDeliveryPolicy.Attempts
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	}
	return p
}

// Connection 注册表里的一条连接
type Connection struct {
	ID          string             `json:"id"`
	Role        Role               `json:"role"`
	ConnectedAt time.Time          `json:"connected_at"`
	Info        stdjson.RawMessage `json:"info,omitempty"`
}

type entry struct {
	conn      Connection
	transport Transport
}

// Registry 某一角色的在线连接集合，负责单发和广播
type Registry struct {
	role   Role
	policy DeliveryPolicy
	now    func() time.Time

	mu    sync.RWMutex
	conns map[string]*entry
}

type Option func(*Registry)

func WithDeliveryPolicy(p DeliveryPolicy) Option {
	return func(r *Registry) { r.policy = p.normalize() }
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(role Role, opts ...Option) *Registry {
	r := &Registry{
		role:   role,
		policy: DefaultDeliveryPolicy,
		now:    time.Now,
		conns:  make(map[string]*entry, 16),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Registry) Role() Role { return r.role }

func (r *Registry) Policy() DeliveryPolicy { return r.policy }

// Connect 登记连接；同 id 重复登记直接覆盖旧的
func (r *Registry) Connect(id string, t Transport) {
	e := &entry{
		conn:      Connection{ID: id, Role: r.role, ConnectedAt: r.now()},
		transport: t,
	}
	r.mu.Lock()
	r.conns[id] = e
	n := len(r.conns)
	r.mu.Unlock()
	wsmetrics.SetConns(string(r.role), n)
}

// Disconnect 幂等，id 不存在时什么也不做
func (r *Registry) Disconnect(id string) {
	r.mu.Lock()
	delete(r.conns, id)
	n := len(r.conns)
	r.mu.Unlock()
	wsmetrics.SetConns(string(r.role), n)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// IDs 排序后的在线 id
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (r *Registry) Get(id string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return Connection{}, false
	}
	return e.conn, true
}

// Connections 快照，按连接时间排序
func (r *Registry) Connections() []Connection {
	r.mu.RLock()
	out := make([]Connection, 0, len(r.conns))
	for _, e := range r.conns {
		out = append(out, e.conn)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ConnectedAt.Before(out[j].ConnectedAt)
	})
	return out
}

// SetInfo 记录客户端上报的信息（打印机型号等）
func (r *Registry) SetInfo(id string, info stdjson.RawMessage) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	e.conn.Info = append(stdjson.RawMessage(nil), info...)
	return true
}

// SendTo 单发；id 不存在或重试用尽返回 false，用尽时剔除该连接
func (r *Registry) SendTo(ctx context.Context, id string, ev Event) bool {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	msg, err := Encode(ev)
	if err != nil {
		logger.Error(ctx, "encode event failed", zap.String("role", string(r.role)), zap.Error(err))
		return false
	}
	return r.deliverOrPrune(ctx, id, e, msg)
}

// Broadcast 先在锁内拿快照，再并发投递给每个连接，全部结束后返回。
// 失败只记日志并剔除，不向调用方报告
func (r *Registry) Broadcast(ctx context.Context, ev Event) {
	msg, err := Encode(ev)
	if err != nil {
		logger.Error(ctx, "encode event failed", zap.String("role", string(r.role)), zap.Error(err))
		return
	}

	type target struct {
		id string
		e  *entry
	}
	r.mu.RLock()
	targets := make([]target, 0, len(r.conns))
	for id, e := range r.conns {
		targets = append(targets, target{id: id, e: e})
	}
	r.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)
	wg.Add(len(targets))
	for _, t := range targets {
		go func() {
			defer wg.Done()
			if !r.deliverOrPrune(ctx, t.id, t.e, msg) {
				failed.Add(1)
			}
		}()
	}
	wg.Wait()

	logger.Debug(ctx, "broadcast done",
		zap.String("role", string(r.role)),
		zap.String("type", string(ev.Type())),
		zap.Int("recipients", len(targets)),
		zap.Int32("failed", failed.Load()),
	)
}

func (r *Registry) deliverOrPrune(ctx context.Context, id string, e *entry, msg []byte) bool {
	start := time.Now()
	err := r.deliver(ctx, e.transport, msg)
	if err == nil {
		wsmetrics.ObserveDelivery(string(r.role), len(msg), time.Since(start), true)
		return true
	}
	if ctx.Err() != nil {
		// 调用方自己取消的，不算连接坏掉
		return false
	}
	wsmetrics.ObserveDelivery(string(r.role), len(msg), time.Since(start), false)
	logger.Warn(ctx, "delivery failed, dropping connection",
		zap.String("role", string(r.role)),
		zap.String("conn_id", id),
		zap.Int("attempts", r.policy.Attempts),
		zap.Error(err),
	)
	r.prune(id, e)
	return false
}

// prune 只删除仍是同一个 entry 的 id，避免误删刚重新登记的连接
func (r *Registry) prune(id string, e *entry) {
	r.mu.Lock()
	cur, ok := r.conns[id]
	if ok && cur == e {
		delete(r.conns, id)
	}
	n := len(r.conns)
	r.mu.Unlock()
	wsmetrics.SetConns(string(r.role), n)

	if !ok || cur != e {
		return
	}
	if c, ok := e.transport.(io.Closer); ok {
		safe.Go(func() { _ = c.Close() })
	}
}

// deliver 最多 Attempts 次，每次 Timeout，间隔 Backoff；任一次成功即返回
func (r *Registry) deliver(ctx context.Context, t Transport, msg []byte) error {
	var err error
	for attempt := 1; attempt <= r.policy.Attempts; attempt++ {
		err = r.attempt(ctx, t, msg)
		if err == nil {
			wsmetrics.ObserveAttempt(string(r.role), "ok")
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			wsmetrics.ObserveAttempt(string(r.role), "timeout")
		} else {
			wsmetrics.ObserveAttempt(string(r.role), "error")
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == r.policy.Attempts {
			break
		}
		if r.policy.Backoff > 0 {
			timer := time.NewTimer(r.policy.Backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return err
}

// attempt 单次发送。Transport 不理会 ctx 也不会卡住调用方：超时后直接返回
func (r *Registry) attempt(ctx context.Context, t Transport, msg []byte) error {
	actx, cancel := context.WithTimeout(ctx, r.policy.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("transport panic: %v", p)
			}
		}()
		done <- t.Send(actx, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-actx.Done():
		return actx.Err()
	}
}
