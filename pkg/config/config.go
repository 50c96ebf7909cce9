package config

import (
	"log"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Load 读取 config/{service}.yaml 并叠加环境变量，不监听变更
func Load(service string, out interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName(service)
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// 环境变量覆盖，例如 POS_SERVER_HTTP_ADDR 覆盖 http.addr
	v.SetEnvPrefix(EnvPrefix(service))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(out); err != nil {
		return nil, err
	}
	log.Printf("[%s] config loaded from %s", service, v.ConfigFileUsed())
	return v, nil
}

// LoadAndWatch 同 Load，另外监听文件变更热更新到 out；onChange 可为 nil
func LoadAndWatch(service string, out interface{}, onChange ...func()) (*viper.Viper, error) {
	v, err := Load(service, out)
	if err != nil {
		return nil, err
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Printf("[%s] config file changed: %s", service, e.Name)
		if err := v.Unmarshal(out); err != nil {
			log.Printf("[%s] reload config error: %v", service, err)
			return
		}
		for _, fn := range onChange {
			if fn != nil {
				fn()
			}
		}
		log.Printf("[%s] config reloaded OK", service)
	})

	return v, nil
}

// EnvPrefix pos-server -> POS_SERVER
func EnvPrefix(service string) string {
	return strings.ToUpper(strings.ReplaceAll(service, "-", "_"))
}
