package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerCfg struct {
	Port                string `mapstructure:"port"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
	Development         bool   `mapstructure:"development"`
}

type MongoCfg struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisCfg struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type KafkaCfg struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type JwtCfg struct {
	Secret        string `mapstructure:"secret"`
	SigningMethod string `mapstructure:"signing_method"`
}

type AuthCfg struct {
	// APIKey is the shared application key that scopes the messaging
	// records; any holder may read/write them.
	APIKey string `mapstructure:"api_key"`
}

type TimeoutCfg struct {
	CallSeconds int `mapstructure:"call_seconds"`
}

type Config struct {
	Server   ServerCfg  `mapstructure:"server"`
	Mongo    MongoCfg   `mapstructure:"mongo"`
	Redis    RedisCfg   `mapstructure:"redis"`
	Kafka    KafkaCfg   `mapstructure:"kafka"`
	JWT      JwtCfg     `mapstructure:"jwt"`
	Auth     AuthCfg    `mapstructure:"auth"`
	Timeouts TimeoutCfg `mapstructure:"timeouts"`
	// Derived
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CallTimeout  time.Duration
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		cfg.Server.WriteTimeoutSeconds = 15
	}
	if cfg.Timeouts.CallSeconds == 0 {
		cfg.Timeouts.CallSeconds = 5
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "chat"
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "messaging"
	}
	cfg.ReadTimeout = time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second
	cfg.WriteTimeout = time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second
	cfg.CallTimeout = time.Duration(cfg.Timeouts.CallSeconds) * time.Second
	return &cfg, nil
}
