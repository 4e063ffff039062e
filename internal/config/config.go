// Package config loads versewise settings from defaults, an optional YAML
// file and VERSEWISE_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. VERSEWISE_SERVER_PORT
const EnvPrefix = "VERSEWISE"

// Cache backends for the durable tier
const (
	CacheBackendSQLite = "sqlite"
	CacheBackendRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Translation TranslationConfig `mapstructure:"translation"`
	Providers   ProvidersConfig   `mapstructure:"providers"`
	History     HistoryConfig     `mapstructure:"history"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	GinMode     string   `mapstructure:"gin_mode"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	AdminKey    string   `mapstructure:"admin_key"`
	RateLimit   float64  `mapstructure:"rate_limit"` // translate requests per second per client, 0 disables
	RateBurst   int      `mapstructure:"rate_burst"`
}

// DatabaseConfig holds the sqlite durable cache location
type DatabaseConfig struct {
	Path   string `mapstructure:"path"`
	LogSQL bool   `mapstructure:"log_sql"`
}

// CacheConfig selects the durable cache backend
type CacheConfig struct {
	Backend  string `mapstructure:"backend"` // "sqlite" or "redis"
	RedisURL string `mapstructure:"redis_url"`
}

// StorageConfig holds the on-device key-value store location.
// An empty path keeps history in memory only.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// TranslationConfig holds the caching, retry and batching policy
type TranslationConfig struct {
	SourceLanguage      string        `mapstructure:"source_language"`
	DurableThreshold    float64       `mapstructure:"durable_threshold"`
	TransientThreshold  float64       `mapstructure:"transient_threshold"`
	MemoryTTL           time.Duration `mapstructure:"memory_ttl"`
	MemoryCapacity      int           `mapstructure:"memory_capacity"`
	MaxRetries          int           `mapstructure:"max_retries"`
	RetryBaseDelay      time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay       time.Duration `mapstructure:"retry_max_delay"`
	BatchSize           int           `mapstructure:"batch_size"`
	BatchDelay          time.Duration `mapstructure:"batch_delay"`
	ProviderOrder       []string      `mapstructure:"provider_order"` // fallback priority, first success wins
	BreakerFailures     uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout      time.Duration `mapstructure:"breaker_timeout"`
	MaintenanceInterval time.Duration `mapstructure:"maintenance_interval"`
	Debug               bool          `mapstructure:"debug"`
}

// ProvidersConfig holds provider credentials. A provider without credentials is disabled.
type ProvidersConfig struct {
	GoogleCredentials string `mapstructure:"google_credentials"`
	GeminiAPIKey      string `mapstructure:"gemini_api_key"`
	GeminiModel       string `mapstructure:"gemini_model"`
	OpenAIAPIKey      string `mapstructure:"openai_api_key"`
	OpenAIModel       string `mapstructure:"openai_model"`
	OpenAIBaseURL     string `mapstructure:"openai_base_url"`
	LibreTranslateURL string `mapstructure:"libretranslate_url"`
	LibreTranslateKey string `mapstructure:"libretranslate_api_key"`
}

// HistoryConfig holds reading history settings
type HistoryConfig struct {
	Cap int `mapstructure:"cap"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// SetDefaults registers every key so environment overrides are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.admin_key", "")
	v.SetDefault("server.rate_limit", 5.0)
	v.SetDefault("server.rate_burst", 20)

	v.SetDefault("database.path", "data/versewise.db")
	v.SetDefault("database.log_sql", false)

	v.SetDefault("cache.backend", CacheBackendSQLite)
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")

	v.SetDefault("storage.path", "data/history.db")

	v.SetDefault("translation.source_language", "pt")
	v.SetDefault("translation.durable_threshold", 0.7)
	v.SetDefault("translation.transient_threshold", 0.5)
	v.SetDefault("translation.memory_ttl", time.Hour)
	v.SetDefault("translation.memory_capacity", 1000)
	v.SetDefault("translation.max_retries", 2)
	v.SetDefault("translation.retry_base_delay", 500*time.Millisecond)
	v.SetDefault("translation.retry_max_delay", 4*time.Second)
	v.SetDefault("translation.batch_size", 5)
	v.SetDefault("translation.batch_delay", 200*time.Millisecond)
	v.SetDefault("translation.provider_order", []string{"google_api", "gemini", "openai", "libretranslate"})
	v.SetDefault("translation.breaker_failures", 5)
	v.SetDefault("translation.breaker_timeout", 30*time.Second)
	v.SetDefault("translation.maintenance_interval", 5*time.Minute)
	v.SetDefault("translation.debug", false)

	v.SetDefault("providers.google_credentials", "")
	v.SetDefault("providers.gemini_api_key", "")
	v.SetDefault("providers.gemini_model", "")
	v.SetDefault("providers.openai_api_key", "")
	v.SetDefault("providers.openai_model", "")
	v.SetDefault("providers.openai_base_url", "")
	v.SetDefault("providers.libretranslate_url", "")
	v.SetDefault("providers.libretranslate_api_key", "")

	v.SetDefault("history.cap", 50)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
}

// bindWellKnownEnv lets the conventional variable names work without the prefix.
func bindWellKnownEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"providers.google_credentials": {EnvPrefix + "_PROVIDERS_GOOGLE_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS"},
		"providers.gemini_api_key":     {EnvPrefix + "_PROVIDERS_GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"providers.openai_api_key":     {EnvPrefix + "_PROVIDERS_OPENAI_API_KEY", "OPENAI_API_KEY"},
		"server.admin_key":             {EnvPrefix + "_SERVER_ADMIN_KEY", "ADMIN_KEY"},
		"translation.debug":            {EnvPrefix + "_TRANSLATION_DEBUG", "TRANSLATION_DEBUG"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// Load reads configuration into a Config. cfgFile may be empty, in which case
// versewise.yaml is looked up in the working directory and $HOME; a missing
// file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("versewise")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindWellKnownEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later in confusing ways.
func (c *Config) Validate() error {
	t := c.Translation
	if strings.TrimSpace(t.SourceLanguage) == "" {
		return errors.New("translation.source_language must not be empty")
	}
	if t.DurableThreshold < 0 || t.DurableThreshold > 1 || t.TransientThreshold < 0 || t.TransientThreshold > 1 {
		return errors.New("translation quality thresholds must be between 0 and 1")
	}
	if t.TransientThreshold > t.DurableThreshold {
		return fmt.Errorf("translation.transient_threshold (%.2f) must not exceed durable_threshold (%.2f)",
			t.TransientThreshold, t.DurableThreshold)
	}
	if len(t.ProviderOrder) == 0 {
		return errors.New("translation.provider_order must name at least one provider")
	}
	if t.MaxRetries < 0 {
		return errors.New("translation.max_retries must not be negative")
	}
	switch c.Cache.Backend {
	case CacheBackendSQLite, CacheBackendRedis:
	default:
		return fmt.Errorf("unknown cache.backend %q (want %s or %s)", c.Cache.Backend, CacheBackendSQLite, CacheBackendRedis)
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
