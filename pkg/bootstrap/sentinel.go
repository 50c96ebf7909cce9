package bootstrap

import (
	"fmt"
	"strings"

	sentinels "github.com/alibaba/sentinel-golang/api"
	"github.com/alibaba/sentinel-golang/core/circuitbreaker"
	"github.com/alibaba/sentinel-golang/core/flow"
)

// SentinelCfg 流控/熔断规则，资源名与 middleware.Sentinel 的 resource 对应
type SentinelCfg struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Flow    FlowSection   `mapstructure:"flow" yaml:"flow"`
	Breaker BreakerConfig `mapstructure:"breaker" yaml:"breaker"`
}

type FlowSection struct {
	Enabled bool       `mapstructure:"enabled" yaml:"enabled"`
	Rules   []FlowRule `mapstructure:"rules" yaml:"rules"`
}

type FlowRule struct {
	Resource         string  `mapstructure:"resource" yaml:"resource"`
	Threshold        float64 `mapstructure:"threshold" yaml:"threshold"`
	StatIntervalMs   uint32  `mapstructure:"stat_interval_ms" yaml:"stat_interval_ms"`
	Strategy         string  `mapstructure:"strategy" yaml:"strategy"` // direct/warmup
	Control          string  `mapstructure:"control" yaml:"control"`   // reject/throttling
	MaxQueueWaitMs   uint32  `mapstructure:"max_queue_wait_ms" yaml:"max_queue_wait_ms"`
	WarmUpSec        uint32  `mapstructure:"warmup_sec" yaml:"warmup_sec"`
	WarmUpColdFactor uint32  `mapstructure:"warmup_cold_factor" yaml:"warmup_cold_factor"`
}

type BreakerConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Rules   []BreakerRule `mapstructure:"rules" yaml:"rules"`
}

type BreakerRule struct {
	Resource         string  `mapstructure:"resource" yaml:"resource"`
	Strategy         string  `mapstructure:"strategy" yaml:"strategy"` // error_ratio/error_count/slow_request_ratio
	Threshold        float64 `mapstructure:"threshold" yaml:"threshold"`
	StatIntervalMs   uint32  `mapstructure:"stat_interval_ms" yaml:"stat_interval_ms"`
	MinRequestAmount uint64  `mapstructure:"min_request_amount" yaml:"min_request_amount"`
	RetryTimeoutMs   uint32  `mapstructure:"retry_timeout_ms" yaml:"retry_timeout_ms"`
}

// InitSentinel 未启用时什么都不做
func InitSentinel(sc *SentinelCfg) error {
	if sc == nil || !(sc.Enabled || sc.Flow.Enabled || sc.Breaker.Enabled) {
		return nil
	}
	if err := sentinels.InitDefault(); err != nil {
		return fmt.Errorf("init sentinel: %w", err)
	}

	if sc.Flow.Enabled {
		if rules := FlowRules(sc.Flow.Rules); len(rules) > 0 {
			if _, err := flow.LoadRules(rules); err != nil {
				return fmt.Errorf("load flow rules: %w", err)
			}
		}
	}
	if sc.Breaker.Enabled {
		if rules := BreakerRules(sc.Breaker.Rules); len(rules) > 0 {
			if _, err := circuitbreaker.LoadRules(rules); err != nil {
				return fmt.Errorf("load circuit breaker rules: %w", err)
			}
		}
	}
	return nil
}

// FlowRules 配置 -> sentinel flow 规则，资源名为空的跳过
func FlowRules(in []FlowRule) []*flow.Rule {
	out := make([]*flow.Rule, 0, len(in))
	for _, rule := range in {
		if rule.Resource == "" {
			continue
		}
		r := &flow.Rule{
			Resource:         rule.Resource,
			Threshold:        rule.Threshold,
			StatIntervalInMs: rule.StatIntervalMs,
		}
		switch strings.ToLower(rule.Strategy) {
		case "warmup":
			r.TokenCalculateStrategy = flow.WarmUp
			r.WarmUpPeriodSec = rule.WarmUpSec
			r.WarmUpColdFactor = rule.WarmUpColdFactor
		default:
			r.TokenCalculateStrategy = flow.Direct
		}
		switch strings.ToLower(rule.Control) {
		case "throttling":
			r.ControlBehavior = flow.Throttling
			r.MaxQueueingTimeMs = rule.MaxQueueWaitMs
		default:
			r.ControlBehavior = flow.Reject
		}
		out = append(out, r)
	}
	return out
}

func BreakerRules(in []BreakerRule) []*circuitbreaker.Rule {
	out := make([]*circuitbreaker.Rule, 0, len(in))
	for _, rule := range in {
		if rule.Resource == "" {
			continue
		}
		r := &circuitbreaker.Rule{
			Resource:         rule.Resource,
			Threshold:        rule.Threshold,
			StatIntervalMs:   rule.StatIntervalMs,
			MinRequestAmount: rule.MinRequestAmount,
			RetryTimeoutMs:   rule.RetryTimeoutMs,
		}
		switch strings.ToLower(rule.Strategy) {
		case "error_count":
			r.Strategy = circuitbreaker.ErrorCount
		case "slow_request_ratio":
			r.Strategy = circuitbreaker.SlowRequestRatio
		default:
			r.Strategy = circuitbreaker.ErrorRatio
		}
		out = append(out, r)
	}
	return out
}
