package app

import (
	"strings"
	"testing"

	"coffeeshop.com/internal/pos/config"
	"coffeeshop.com/internal/realtime/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBroker(t *testing.T) {
	a := &App{cfg: &config.Cfg{}}
	b, err := a.newBroker()
	require.NoError(t, err)
	assert.IsType(t, &gateway.MemBroker{}, b)

	a.cfg.Broker.Kind = "redis"
	_, err = a.newBroker()
	assert.Error(t, err)

	a.cfg.Broker.Kind = "kafka"
	_, err = a.newBroker()
	assert.ErrorContains(t, err, "kafka")
}

func TestNodeName(t *testing.T) {
	a := &App{cfg: &config.Cfg{Node: "pos-1"}}
	assert.Equal(t, "pos-1", a.nodeName())

	a.cfg.Node = ""
	n1, n2 := a.nodeName(), a.nodeName()
	assert.NotEqual(t, n1, n2)
	assert.True(t, strings.Contains(n1, "-"))
}
