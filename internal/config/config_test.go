package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, BackendOllama, cfg.Models.Primary)
	assert.Equal(t, BackendOpenAI, cfg.Models.Fallback)
	assert.True(t, cfg.Models.FallbackEnabled)
	assert.Equal(t, 90*time.Second, cfg.Models.CallTimeout)
	assert.Equal(t, MemorySQLite, cfg.Memory.Backend)
	assert.Equal(t, "tastegate:feedback", cfg.Memory.Redis.Key)
	assert.Equal(t, 128, cfg.Plan.ScreenCacheSize)
	assert.Empty(t, cfg.Critique.RulesFile)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, "tastegate.yaml", `
models:
  call_timeout: 30s
  fallback_enabled: false
memory:
  backend: redis
  redis:
    addr: cache:6379
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Models.CallTimeout)
	assert.False(t, cfg.Models.FallbackEnabled)
	assert.Equal(t, MemoryRedis, cfg.Memory.Backend)
	assert.Equal(t, "cache:6379", cfg.Memory.Redis.Addr)
	assert.Equal(t, "gemma3:12b", cfg.Models.Ollama.Model, "untouched keys keep their defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "tastegate.yaml", "models:\n  call_timeout: 30s\n")
	t.Setenv("TASTEGATE_MODELS__CALL_TIMEOUT", "45s")
	t.Setenv("TASTEGATE_MODELS__OLLAMA__MODEL", "gemma3:27b")
	t.Setenv("TASTEGATE_MODELS__PRIMARY_ONLY", "true")
	t.Setenv("TASTEGATE_MODELS__RPS", "0.5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.Models.CallTimeout)
	assert.Equal(t, "gemma3:27b", cfg.Models.Ollama.Model)
	assert.True(t, cfg.Models.PrimaryOnly)
	assert.Equal(t, 0.5, cfg.Models.RPS)
}

func TestLoad_DotEnv(t *testing.T) {
	dotenv := writeFile(t, ".env", "TASTEGATE_OUTPUT__DIR=site-out\n")
	t.Cleanup(func() { os.Unsetenv("TASTEGATE_OUTPUT__DIR") })

	cfg, err := Load("", dotenv, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "site-out", cfg.Output.Dir)
}

func TestLoad_DotEnvDoesNotOverrideEnv(t *testing.T) {
	dotenv := writeFile(t, ".env", "TASTEGATE_STORAGE__PATH=from-dotenv.db\n")
	t.Setenv("TASTEGATE_STORAGE__PATH", "from-env.db")

	cfg, err := Load("", dotenv)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Storage.Path)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "models: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "invalid.yaml", "memory:\n  backend: postgres\n"))
	assert.ErrorContains(t, err, "memory.backend")
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"TASTEGATE_LOG__LEVEL":              "log.level",
		"TASTEGATE_MODELS__CALL_TIMEOUT":    "models.call_timeout",
		"TASTEGATE_MODELS__OPENAI__API_KEY": "models.openai.api_key",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return *cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad-format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"unknown-primary", func(c *Config) { c.Models.Primary = "claude" }, "models.primary"},
		{"unknown-fallback", func(c *Config) { c.Models.Fallback = "bard" }, "models.fallback"},
		{"same-fallback", func(c *Config) { c.Models.Fallback = BackendOllama }, "must differ"},
		{"zero-timeout", func(c *Config) { c.Models.CallTimeout = 0 }, "call_timeout"},
		{"negative-rps", func(c *Config) { c.Models.RPS = -1 }, "rps"},
		{"rps-without-burst", func(c *Config) { c.Models.Burst = 0 }, "burst"},
		{"gemini-without-key", func(c *Config) { c.Models.Primary = BackendGemini }, "gemini.api_key"},
		{"redis-without-addr", func(c *Config) { c.Memory.Backend = MemoryRedis; c.Memory.Redis.Addr = "" }, "redis.addr"},
		{"no-storage", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"no-output", func(c *Config) { c.Output.Dir = "" }, "output.dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}

	t.Run("reports-all", func(t *testing.T) {
		c := valid()
		c.Storage.Path = ""
		c.Output.Dir = ""
		err := c.Validate()
		assert.ErrorContains(t, err, "storage.path")
		assert.ErrorContains(t, err, "output.dir")
	})

	t.Run("disabled-fallback-gemini-needs-no-key", func(t *testing.T) {
		c := valid()
		c.Models.Fallback = BackendGemini
		c.Models.FallbackEnabled = false
		assert.NoError(t, c.Validate())
	})
}

func TestSecretRedacted(t *testing.T) {
	s := Secret("sk-live")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "sk-live", s.Value())
	assert.Equal(t, "", Secret("").String())
}
