package realtime

import (
	"context"
	"sync"

	"coffeeshop.com/internal/realtime/wsmetrics"
	"coffeeshop.com/pkg/logger"
	"coffeeshop.com/pkg/safe"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Broadcaster Publisher 的投递目标，*Registry 实现了它
type Broadcaster interface {
	Broadcast(ctx context.Context, ev Event)
}

// Relay 跨节点转发，gateway 实现
type Relay interface {
	Relay(ctx context.Context, role Role, ev Event) error
}

type job struct {
	target Broadcaster
	ev     Event
	relay  bool
}

// Publisher 请求处理里用的“发了就走”：入队立即返回，后台按入队顺序派发广播。
// 队列无上限，不做背压；广播并发数由 semaphore 限制，慢打印机不会拖住后面的事件
type Publisher struct {
	mu     sync.Mutex
	queue  []job
	closed bool

	notify chan struct{}
	stop   chan struct{}
	done   chan struct{}

	sem      *semaphore.Weighted
	inflight sync.WaitGroup
	relay    Relay

	ctx    context.Context
	cancel context.CancelFunc
}

type PublisherOption func(*Publisher)

// WithMaxInflight 同时进行中的广播数，默认 64
func WithMaxInflight(n int64) PublisherOption {
	return func(p *Publisher) {
		if n > 0 {
			p.sem = semaphore.NewWeighted(n)
		}
	}
}

func WithRelay(r Relay) PublisherOption {
	return func(p *Publisher) { p.relay = r }
}

// SetRelay 启动后再挂上 gateway（两者互相引用）
func (p *Publisher) SetRelay(r Relay) {
	p.mu.Lock()
	p.relay = r
	p.mu.Unlock()
}

func (p *Publisher) getRelay() Relay {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.relay
}

func NewPublisher(opts ...PublisherOption) *Publisher {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Publisher{
		queue:  make([]job, 0, 64),
		notify: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		sem:    semaphore.NewWeighted(64),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, o := range opts {
		o(p)
	}
	go p.dispatchLoop()
	return p
}

// Publish 入队后立即返回，不会阻塞也不会返回错误；配置了 Relay 时同时转发给其他节点
func (p *Publisher) Publish(target Broadcaster, ev Event) {
	p.enqueue(job{target: target, ev: ev, relay: true})
}

// PublishLocal 只投递本节点，gateway 收到的远端事件走这里
func (p *Publisher) PublishLocal(target Broadcaster, ev Event) {
	p.enqueue(job{target: target, ev: ev})
}

func (p *Publisher) enqueue(j job) {
	if j.target == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		logger.Warn(context.Background(), "publisher closed, event dropped", zap.String("type", string(j.ev.Type())))
		return
	}
	p.queue = append(p.queue, j)
	wsmetrics.QueueDepth.Set(float64(len(p.queue)))
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *Publisher) pop() (job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return job{}, false
	}
	j := p.queue[0]
	p.queue[0] = job{}
	p.queue = p.queue[1:]
	if len(p.queue) == 0 {
		// 清空后释放底层数组
		p.queue = nil
	}
	wsmetrics.QueueDepth.Set(float64(len(p.queue)))
	return j, true
}

func (p *Publisher) dispatchLoop() {
	defer close(p.done)
	for {
		select {
		case <-p.notify:
			p.drain()
		case <-p.stop:
			p.drain()
			return
		}
	}
}

func (p *Publisher) drain() {
	for {
		j, ok := p.pop()
		if !ok {
			return
		}
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			// 强制关闭：剩下的直接丢
			continue
		}
		p.inflight.Add(1)
		go p.run(j)
	}
}

func (p *Publisher) run(j job) {
	defer p.inflight.Done()
	defer p.sem.Release(1)
	defer safe.Recover(p.ctx, "publisher")

	if relay := p.getRelay(); j.relay && relay != nil {
		if rt, ok := j.target.(interface{ Role() Role }); ok {
			if err := relay.Relay(p.ctx, rt.Role(), j.ev); err != nil {
				logger.Warn(p.ctx, "relay event failed",
					zap.String("role", string(rt.Role())),
					zap.String("type", string(j.ev.Type())),
					zap.Error(err),
				)
			}
		}
	}
	j.target.Broadcast(p.ctx, j.ev)
}

// Pending 队列里尚未派发的事件数
func (p *Publisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Close 停止接收新事件，把已入队的派发完并等待进行中的广播；
// ctx 到期后取消剩余投递并返回 ctx.Err()
func (p *Publisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	close(p.stop)

	finished := make(chan struct{})
	go func() {
		<-p.done
		p.inflight.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-finished
		return ctx.Err()
	}
}
