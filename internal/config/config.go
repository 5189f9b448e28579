package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env           string        `mapstructure:"ENV"`
	Port          string        `mapstructure:"PORT"`
	DatabaseURL   string        `mapstructure:"DATABASE_URL"`
	AdminKey      string        `mapstructure:"ADMIN_KEY"`
	AMQPURL       string        `mapstructure:"AMQP_URL"`
	AMQPExchange  string        `mapstructure:"AMQP_EXCHANGE"`
	CORSAllowed   string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	LogLevel      string        `mapstructure:"LOG_LEVEL"`
	AcceptTimeout time.Duration `mapstructure:"ACCEPT_TIMEOUT"`
	SweepInterval time.Duration `mapstructure:"SWEEP_INTERVAL"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("AMQP_EXCHANGE", "melhor-saude.notifications")
	v.SetDefault("ACCEPT_TIMEOUT", "30m")
	v.SetDefault("SWEEP_INTERVAL", "1m")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
