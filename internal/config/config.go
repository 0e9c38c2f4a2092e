package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort       string `mapstructure:"SERVER_PORT"`
	BaseURL          string `mapstructure:"BASE_URL"`
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	JWTSecret        string `mapstructure:"JWT_SECRET"`
	SessionTTLHours  int    `mapstructure:"SESSION_TTL_HOURS"`
	TrailCapacity    int    `mapstructure:"TRAIL_CAPACITY"`
	SubscriberBuffer int    `mapstructure:"SUBSCRIBER_BUFFER"`
}

func Load() Config {
	viper.AutomaticEnv()
	viper.SetDefault("SERVER_PORT", ":8080")
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("JWT_SECRET", "dev-secret-change-me")
	viper.SetDefault("SESSION_TTL_HOURS", 24)
	viper.SetDefault("TRAIL_CAPACITY", 50)
	viper.SetDefault("SUBSCRIBER_BUFFER", 16)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}
