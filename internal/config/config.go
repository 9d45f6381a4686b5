// Package config loads process configuration from a YAML file plus
// environment overrides, the same viper-based pattern used across the
// rest of this codebase's services.
package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the root application configuration.
type Config struct {
	Server struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"server"`

	Database struct {
		Enabled  bool   `mapstructure:"enabled"`
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"database"`

	Matching struct {
		Symbols    []string `mapstructure:"symbols"`
		ShardPool  int      `mapstructure:"shard_pool_size"`
		BookLevels int      `mapstructure:"book_levels"`
	} `mapstructure:"matching"`

	Risk struct {
		CacheTTLSeconds     int `mapstructure:"cache_ttl_seconds"`
		CacheCleanupSeconds int `mapstructure:"cache_cleanup_seconds"`
	} `mapstructure:"risk"`

	Reconciliation struct {
		IntervalMinutes int `mapstructure:"interval_minutes"`
		HistoryDays     int `mapstructure:"history_days"`
	} `mapstructure:"reconciliation"`

	Monitoring struct {
		PrometheusPort int    `mapstructure:"prometheus_port"`
		LogLevel       string `mapstructure:"log_level"`
	} `mapstructure:"monitoring"`

	RateLimit struct {
		OrdersPerSecond int `mapstructure:"orders_per_second"`
	} `mapstructure:"rate_limit"`

	NATS struct {
		URL     string `mapstructure:"url"`
		Enabled bool   `mapstructure:"enabled"`
	} `mapstructure:"nats"`
}

var (
	cfg  *Config
	once sync.Once
)

// LoadConfig reads config.yaml from configPath (or the working
// directory / ./config / /etc/matchcore when empty), overlays
// MATCHCORE_-prefixed environment variables, and caches the result.
func LoadConfig(configPath string) (*Config, error) {
	var err error

	once.Do(func() {
		cfg = &Config{}
		setDefaults(cfg)

		v := viper.New()
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if configPath != "" {
			v.AddConfigPath(configPath)
		} else {
			v.AddConfigPath(".")
			v.AddConfigPath("./config")
			v.AddConfigPath("/etc/matchcore")
		}

		v.AutomaticEnv()
		v.SetEnvPrefix("MATCHCORE")

		if readErr := v.ReadInConfig(); readErr != nil {
			if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
				err = fmt.Errorf("read config file: %w", readErr)
				return
			}
		}

		if unmarshalErr := v.Unmarshal(cfg); unmarshalErr != nil {
			err = fmt.Errorf("unmarshal config: %w", unmarshalErr)
			return
		}
	})

	return cfg, err
}

// GetConfig returns the process-wide Config, loading defaults if
// LoadConfig was never called.
func GetConfig() *Config {
	if cfg == nil {
		if _, err := LoadConfig(""); err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	}
	return cfg
}

func setDefaults(c *Config) {
	c.Server.Host = "0.0.0.0"
	c.Server.Port = 8080

	c.Database.Enabled = false
	c.Database.Host = "localhost"
	c.Database.Port = 5432
	c.Database.User = "postgres"
	c.Database.Name = "matchcore"
	c.Database.SSLMode = "disable"

	c.Matching.Symbols = []string{"AAPL", "MSFT", "GOOG"}
	c.Matching.ShardPool = 4
	c.Matching.BookLevels = 10

	c.Risk.CacheTTLSeconds = 300
	c.Risk.CacheCleanupSeconds = 600

	c.Reconciliation.IntervalMinutes = 60
	c.Reconciliation.HistoryDays = 30

	c.Monitoring.PrometheusPort = 9090
	c.Monitoring.LogLevel = "info"

	c.RateLimit.OrdersPerSecond = 500

	c.NATS.URL = "nats://localhost:4222"
	c.NATS.Enabled = false
}

// DatabaseDSN builds a libpq-style connection string from the Database
// section, suitable for both gorm's postgres driver and a raw sqlx
// connection.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name, c.Database.SSLMode)
}

// InitLogger builds a zap.Logger at the level named in cfg.Monitoring.LogLevel.
func InitLogger(cfg *Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	switch cfg.Monitoring.LogLevel {
	case "debug":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}

	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}
