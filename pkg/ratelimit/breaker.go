package ratelimit

import (
	"sync"
	"time"

	"coffeeshop.com/pkg/xerr"
	"github.com/sony/gobreaker/v2"
)

type Rule struct {
	// Half-Open 状态允许通过的探测请求数
	MaxRequests uint32
	// Closed 状态计数窗口
	Interval time.Duration
	// Open 状态持续时间，到期进入 Half-Open
	Timeout time.Duration

	// 触发熔断条件（两种之一即可）
	TripConsecutiveFailures uint32
	TripFailureRate         float64
	TripMinRequests         uint32
}

// Manager 按下游名字（打印机名 / 地址）懒创建熔断器
type Manager struct {
	mu sync.RWMutex
	m  map[string]*gobreaker.CircuitBreaker[struct{}]

	defaultRule Rule
	rules       map[string]Rule
	onChange    func(name string, from, to gobreaker.State)
}

func NewManager(defaultRule Rule, perTarget map[string]Rule) *Manager {
	if defaultRule.MaxRequests == 0 {
		defaultRule.MaxRequests = 1
	}
	if defaultRule.Timeout <= 0 {
		defaultRule.Timeout = 30 * time.Second
	}
	if defaultRule.Interval <= 0 {
		defaultRule.Interval = time.Minute
	}
	if defaultRule.TripConsecutiveFailures == 0 && defaultRule.TripFailureRate == 0 {
		defaultRule.TripConsecutiveFailures = 5
	}
	if defaultRule.TripMinRequests == 0 {
		defaultRule.TripMinRequests = 10
	}
	return &Manager{
		m:           make(map[string]*gobreaker.CircuitBreaker[struct{}], 16),
		defaultRule: defaultRule,
		rules:       perTarget,
	}
}

// OnStateChange 注册状态变更回调，需在第一次 Get 之前调用
func (m *Manager) OnStateChange(fn func(name string, from, to gobreaker.State)) {
	m.onChange = fn
}

func (m *Manager) Get(name string) *gobreaker.CircuitBreaker[struct{}] {
	// 快路径：读锁
	m.mu.RLock()
	cb := m.m[name]
	m.mu.RUnlock()
	if cb != nil {
		return cb
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cb = m.m[name]; cb != nil {
		return cb
	}

	rule, ok := m.rules[name]
	if !ok {
		rule = m.defaultRule
	}
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: rule.MaxRequests,
		Interval:    rule.Interval,
		Timeout:     rule.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if rule.TripConsecutiveFailures > 0 && c.ConsecutiveFailures >= rule.TripConsecutiveFailures {
				return true
			}
			if rule.TripFailureRate > 0 && c.Requests >= rule.TripMinRequests {
				return float64(c.TotalFailures)/float64(c.Requests) >= rule.TripFailureRate
			}
			return false
		},
		IsSuccessful: isSuccessfulForBreaker,
		OnStateChange: func(name string, from, to gobreaker.State) {
			if m.onChange != nil {
				m.onChange(name, from, to)
			}
		},
	}

	cb = gobreaker.NewCircuitBreaker[struct{}](st)
	m.m[name] = cb
	return cb
}

// Execute 通过熔断器执行 fn；熔断打开时返回 gobreaker.ErrOpenState / ErrTooManyRequests
func (m *Manager) Execute(name string, fn func() error) error {
	_, err := m.Get(name).Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// 4xx 类业务错误说明下游是健康的，不计入失败
func isSuccessfulForBreaker(err error) bool {
	if err == nil {
		return true
	}
	code := xerr.CodeOf(err)
	return code >= 400 && code < 500
}
