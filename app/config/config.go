// Package config reads the application settings from flags, environment
// variables and .env files.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables, e.g. BLABBER_MAX_POSTS.
const EnvPrefix = "blabber"

// Keys shared by flags, environment variables and Load.
const (
	KeyListen          = "listen"
	KeyDBPath          = "db-path"
	KeyCacheBlocks     = "cache-blocks"
	KeyMaxPending      = "max-pending"
	KeyMaxPosts        = "max-posts"
	KeyMaxComments     = "max-comments"
	KeyShutdownTimeout = "shutdown-timeout"
	KeyLogLevel        = "log-level"
	KeyLogFormat       = "log-format"
)

// Defaults. The cache holds 10 MiB in 4 KiB blocks.
var Defaults = map[string]interface{}{
	KeyListen:          ":8080",
	KeyDBPath:          "./blabber.db",
	KeyCacheBlocks:     int64(10 * 1024 * 1024 / 4096),
	KeyMaxPending:      1000,
	KeyMaxPosts:        100,
	KeyMaxComments:     100,
	KeyShutdownTimeout: 5 * time.Second,
	KeyLogLevel:        "info",
	KeyLogFormat:       "console",
}

// Config holds the application settings.
type Config struct {
	Listen          string        `validate:"required"`
	DBPath          string        `validate:"required"`
	CacheBlocks     int64         `validate:"gte=0"`
	MaxPending      int           `validate:"gt=0"`
	MaxPosts        int           `validate:"gt=0"`
	MaxComments     int           `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	LogLevel        string        `validate:"oneof=trace debug info warn error"`
	LogFormat       string        `validate:"oneof=console json"`
}

var validate = validator.New()

// InitEnv loads .env files if present and makes v read BLABBER_* variables.
func InitEnv(v *viper.Viper) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	for key, value := range Defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads and validates the configuration from v.
func Load(v *viper.Viper) (*Config, error) {
	conf := &Config{
		Listen:          v.GetString(KeyListen),
		DBPath:          v.GetString(KeyDBPath),
		CacheBlocks:     v.GetInt64(KeyCacheBlocks),
		MaxPending:      v.GetInt(KeyMaxPending),
		MaxPosts:        v.GetInt(KeyMaxPosts),
		MaxComments:     v.GetInt(KeyMaxComments),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
		LogLevel:        strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:       strings.ToLower(v.GetString(KeyLogFormat)),
	}
	if err := validate.Struct(conf); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return conf, nil
}
