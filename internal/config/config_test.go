package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "pt", cfg.Translation.SourceLanguage)
	assert.Equal(t, 0.7, cfg.Translation.DurableThreshold)
	assert.Equal(t, 0.5, cfg.Translation.TransientThreshold)
	assert.Equal(t, time.Hour, cfg.Translation.MemoryTTL)
	assert.Equal(t, 1000, cfg.Translation.MemoryCapacity)
	assert.Equal(t, 2, cfg.Translation.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Translation.RetryBaseDelay)
	assert.Equal(t, 5, cfg.Translation.BatchSize)
	assert.Equal(t, 50, cfg.History.Cap)
	assert.Equal(t, CacheBackendSQLite, cfg.Cache.Backend)
	assert.Equal(t, []string{"google_api", "gemini", "openai", "libretranslate"}, cfg.Translation.ProviderOrder)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	content := `
server:
  port: 9090
translation:
  durable_threshold: 0.8
  memory_ttl: 30m
  batch_delay: 1s
history:
  cap: 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 0.8, cfg.Translation.DurableThreshold)
	assert.Equal(t, 30*time.Minute, cfg.Translation.MemoryTTL)
	assert.Equal(t, time.Second, cfg.Translation.BatchDelay)
	assert.Equal(t, 20, cfg.History.Cap)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VERSEWISE_SERVER_PORT", "7000")
	t.Setenv("VERSEWISE_TRANSLATION_SOURCE_LANGUAGE", "es")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ADMIN_KEY", "secret")
	t.Setenv("VERSEWISE_TRANSLATION_PROVIDER_ORDER", "gemini,openai")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "es", cfg.Translation.SourceLanguage)
	assert.Equal(t, "sk-test", cfg.Providers.OpenAIAPIKey)
	assert.Equal(t, "secret", cfg.Server.AdminKey)
	assert.Equal(t, []string{"gemini", "openai"}, cfg.Translation.ProviderOrder)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		v := viper.New()
		SetDefaults(v)
		cfg := &Config{}
		require.NoError(t, v.Unmarshal(cfg))
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty source language", func(c *Config) { c.Translation.SourceLanguage = " " }},
		{"threshold above one", func(c *Config) { c.Translation.DurableThreshold = 1.5 }},
		{"transient above durable", func(c *Config) { c.Translation.TransientThreshold = 0.9 }},
		{"negative retries", func(c *Config) { c.Translation.MaxRetries = -1 }},
		{"no providers", func(c *Config) { c.Translation.ProviderOrder = nil }},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
