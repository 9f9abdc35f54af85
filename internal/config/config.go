package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jwalitptl/passpolicy/pkg/denylist"
	apperrors "github.com/jwalitptl/passpolicy/pkg/errors"
	"github.com/jwalitptl/passpolicy/pkg/validator"
)

const EnvPrefix = "PASSPOLICY"

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Policy  PolicyConfig  `mapstructure:"policy"`
	Hash    HashConfig    `mapstructure:"hash"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=trace debug info warn error fatal"`
	JSON  bool   `mapstructure:"json"`
}

type PolicyConfig struct {
	GenerateLength int      `mapstructure:"generate_length" validate:"gte=4,lte=1024"`
	DenylistFiles  []string `mapstructure:"denylist_files"`
}

type HashConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url" validate:"required_if=Enabled true"`
	Key          string        `mapstructure:"key" validate:"required_if=Enabled true"`
	MaxRetries   int           `mapstructure:"max_retries" validate:"gte=0"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size" validate:"gte=0"`
	MinIdleConns int           `mapstructure:"min_idle_conns" validate:"gte=0"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	// Required makes a failed Redis load fatal instead of a warning.
	Required bool `mapstructure:"required"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace" validate:"required"`
	// Textfile, when set, receives a metrics dump on exit.
	Textfile string `mapstructure:"textfile"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("policy.generate_length", 16)
	v.SetDefault("policy.denylist_files", []string{})
	v.SetDefault("hash.bcrypt_cost", 12)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.key", "passpolicy:denylist")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 4)
	v.SetDefault("redis.min_idle_conns", 0)
	v.SetDefault("redis.cache_ttl", 5*time.Minute)
	v.SetDefault("redis.required", false)
	v.SetDefault("metrics.namespace", "passpolicy")
	v.SetDefault("metrics.textfile", "")
}

// LoadConfig reads path, or config.yaml from . and ./config when path is
// empty. A missing searched-for file is not an error. PASSPOLICY_* env
// variables override file values, e.g. PASSPOLICY_REDIS_URL.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Log.Level = strings.ToLower(strings.TrimSpace(config.Log.Level))

	if err := validator.New(nil).Validate(&config); err != nil {
		return nil, apperrors.InvalidConfig("invalid config", err)
	}

	return &config, nil
}

func (c *RedisConfig) ToSourceConfig() denylist.RedisConfig {
	return denylist.RedisConfig{
		URL:          c.URL,
		Key:          c.Key,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		CacheTTL:     c.CacheTTL,
	}
}
