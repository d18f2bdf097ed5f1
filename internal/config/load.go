package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. MARKET_SERVER_PORT.
const EnvPrefix = "MARKET"

var defaults = map[string]any{
	"server.port":                 8080,
	"server.log_level":            "info",
	"server.read_timeout":         "15s",
	"server.write_timeout":        "15s",
	"server.idle_timeout":         "60s",
	"server.shutdown_timeout":     "10s",
	"server.cors_allowed_origins": []string{"*"},
	"database.url":                "",
	"database.max_conns":          10,
	"database.min_conns":          1,
	"database.max_conn_lifetime":  "30m",
	"auth.jwt_secret":             "",
	"auth.access_token_lifetime":  "15m",
	"auth.refresh_token_lifetime": "168h",
	"auth.bcrypt_cost":            10,
	"redis.url":                   "",
	"redis.profile_ttl":           "5m",
	"rabbitmq.url":                "",
	"rabbitmq.exchange":           "marketplace.events",
	"tasks.worker_count":          2,
	"tasks.queue_size":            100,
	"tasks.reconcile_interval":    "1h",
}

// Load reads configuration from an optional config.yaml (working directory or
// ./config) and from MARKET_-prefixed environment variables, which take
// precedence. The result is validated before it is returned.
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
