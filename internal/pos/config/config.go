package config

import (
	"time"

	"coffeeshop.com/internal/printjob"
	"coffeeshop.com/internal/realtime"
	"coffeeshop.com/pkg/bootstrap"
	"coffeeshop.com/pkg/orm"
	"coffeeshop.com/pkg/xredis"
)

// Cfg pos-server 总配置
type Cfg struct {
	Name      string                `mapstructure:"name" yaml:"name"`
	Node      string                `mapstructure:"node" yaml:"node"` // 多实例部署时区分节点，空则用 hostname
	HTTP      HTTPConfig            `mapstructure:"http" yaml:"http"`
	Log       LogConfig             `mapstructure:"log" yaml:"log"`
	Db        orm.Config            `mapstructure:"db" yaml:"db"`
	Redis     RedisConfig           `mapstructure:"redis" yaml:"redis"`
	Broker    BrokerConfig          `mapstructure:"broker" yaml:"broker"`
	WS        WSConfig              `mapstructure:"ws" yaml:"ws"`
	Printers  []printjob.Printer    `mapstructure:"printers" yaml:"printers"`
	RateLimit RateLimitConfig       `mapstructure:"ratelimit" yaml:"ratelimit"`
	Sentinel  bootstrap.SentinelCfg `mapstructure:"sentinel" yaml:"sentinel"`
	OTel      OTelConfig            `mapstructure:"otel" yaml:"otel"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"` // 空则 logs/<name>.log
}

// RedisConfig 不配 addr 时不启用缓存
type RedisConfig struct {
	xredis.Config `mapstructure:",squash"`
	MenuTTL       time.Duration `mapstructure:"menu_ttl" yaml:"menu_ttl"`
}

// BrokerConfig kind: mem | nats | redis；单机用 mem
type BrokerConfig struct {
	Kind string `mapstructure:"kind" yaml:"kind"`
	URL  string `mapstructure:"url" yaml:"url"`
}

type WSConfig struct {
	PongWait    time.Duration           `mapstructure:"pong_wait" yaml:"pong_wait"`
	PingPeriod  time.Duration           `mapstructure:"ping_period" yaml:"ping_period"`
	WriteWait   time.Duration           `mapstructure:"write_wait" yaml:"write_wait"`
	ReadLimit   int64                   `mapstructure:"read_limit" yaml:"read_limit"`
	MaxInflight int64                   `mapstructure:"max_inflight" yaml:"max_inflight"`
	Delivery    realtime.DeliveryPolicy `mapstructure:"delivery" yaml:"delivery"`
	// 每个 IP 每秒允许的建连次数
	AcceptRPS   float64 `mapstructure:"accept_rps" yaml:"accept_rps"`
	AcceptBurst int     `mapstructure:"accept_burst" yaml:"accept_burst"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" yaml:"rps"`
	Burst int     `mapstructure:"burst" yaml:"burst"`
}

type OTelConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"` // "stdout" 时打到标准输出
}
