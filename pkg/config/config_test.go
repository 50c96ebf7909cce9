package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCfg struct {
	Name string `mapstructure:"name"`
	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0755))
	yaml := "name: pos\nhttp:\n  addr: \":8080\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "demo-svc.yaml"), []byte(yaml), 0644))
	t.Chdir(dir)

	var cfg testCfg
	_, err := Load("demo-svc", &cfg)
	require.NoError(t, err)
	assert.Equal(t, "pos", cfg.Name)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)

	t.Setenv("DEMO_SVC_HTTP_ADDR", ":9090")
	var cfg2 testCfg
	_, err = Load("demo-svc", &cfg2)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg2.HTTP.Addr)
}

func TestLoad_Missing(t *testing.T) {
	t.Chdir(t.TempDir())
	var cfg testCfg
	_, err := Load("nope", &cfg)
	assert.Error(t, err)
}

func TestEnvPrefix(t *testing.T) {
	assert.Equal(t, "POS_SERVER", EnvPrefix("pos-server"))
}
