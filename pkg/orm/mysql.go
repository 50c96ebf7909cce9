package orm

import (
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	DSN         string `mapstructure:"dsn" yaml:"dsn"`                   // 连接字符串
	MaxIdle     int    `mapstructure:"max_idle" yaml:"max_idle"`         // 最大空闲连接
	MaxOpen     int    `mapstructure:"max_open" yaml:"max_open"`         // 最大打开连接
	MaxLifetime int    `mapstructure:"max_lifetime" yaml:"max_lifetime"` // 连接存活秒数
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`       // silent/error/warn/info
}

// NewMySQL 初始化 GORM
func NewMySQL(c *Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(c.DSN), &gorm.Config{
		Logger:                 logger.Default.LogMode(logLevel(c.LogLevel)),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// 连接池
	sqlDB.SetMaxIdleConns(c.MaxIdle)
	sqlDB.SetMaxOpenConns(c.MaxOpen)
	sqlDB.SetConnMaxLifetime(time.Duration(c.MaxLifetime) * time.Second)

	return db, nil
}

func logLevel(s string) logger.LogLevel {
	switch s {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
