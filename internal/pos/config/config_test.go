package config

import (
	"testing"
	"time"

	vipConfig "coffeeshop.com/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ShippedConfig(t *testing.T) {
	t.Chdir("../../..")

	var cfg Cfg
	_, err := vipConfig.Load("pos-server", &cfg)
	require.NoError(t, err)

	assert.Equal(t, "pos-server", cfg.Name)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Redis.MenuTTL)
	assert.Equal(t, "mem", cfg.Broker.Kind)
	assert.Equal(t, time.Second, cfg.WS.Delivery.Timeout)
	assert.Equal(t, 3, cfg.WS.Delivery.Attempts)
	assert.Equal(t, 100*time.Millisecond, cfg.WS.Delivery.Backoff)
	assert.EqualValues(t, 64, cfg.WS.MaxInflight)
	require.Len(t, cfg.Sentinel.Flow.Rules, 1)
	assert.Equal(t, "pos:order:create", cfg.Sentinel.Flow.Rules[0].Resource)
}

func TestLoad_EnvOverridesBroker(t *testing.T) {
	t.Chdir("../../..")
	t.Setenv("POS_SERVER_BROKER_KIND", "nats")

	var cfg Cfg
	_, err := vipConfig.Load("pos-server", &cfg)
	require.NoError(t, err)
	assert.Equal(t, "nats", cfg.Broker.Kind)
}
