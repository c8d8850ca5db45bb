// Package config loads tastegate configuration.
package config

// #region imports
import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// #endregion

// #region backends

const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
	BackendCodec  = "codec"
)

var modelBackends = map[string]bool{
	BackendOllama: true,
	BackendOpenAI: true,
	BackendGemini: true,
	BackendCodec:  true,
}

const (
	MemorySQLite = "sqlite"
	MemoryRedis  = "redis"
)

// #endregion

// #region types

// Config is the full tastegate configuration.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Models   ModelsConfig   `koanf:"models"`
	Storage  StorageConfig  `koanf:"storage"`
	Memory   MemoryConfig   `koanf:"memory"`
	Plan     PlanConfig     `koanf:"plan"`
	Critique CritiqueConfig `koanf:"critique"`
	Output   OutputConfig   `koanf:"output"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ModelsConfig selects the primary and fallback backends and the routing policy.
type ModelsConfig struct {
	Primary          string        `koanf:"primary"`
	Fallback         string        `koanf:"fallback"` // "" disables the fallback backend
	FallbackEnabled  bool          `koanf:"fallback_enabled"`
	PrimaryOnly      bool          `koanf:"primary_only"`
	CallTimeout      time.Duration `koanf:"call_timeout"`
	RPS              float64       `koanf:"rps"` // 0 = unlimited
	Burst            int           `koanf:"burst"`
	CodegenMaxTokens int           `koanf:"codegen_max_tokens"`

	Ollama OllamaConfig `koanf:"ollama"`
	OpenAI OpenAIConfig `koanf:"openai"`
	Gemini GeminiConfig `koanf:"gemini"`
	Codec  CodecConfig  `koanf:"codec"`
}

type OllamaConfig struct {
	URL   string `koanf:"url"`
	Model string `koanf:"model"`
}

type OpenAIConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  Secret `koanf:"api_key"`
}

type GeminiConfig struct {
	Model  string `koanf:"model"`
	APIKey Secret `koanf:"api_key"`
}

// CodecConfig points at the remote gRPC inference service.
type CodecConfig struct {
	Addr  string `koanf:"addr"`
	Model string `koanf:"model"`
}

type StorageConfig struct {
	Path string `koanf:"path"`
}

// MemoryConfig picks the feedback log backend.
type MemoryConfig struct {
	Backend string      `koanf:"backend"`
	Redis   RedisConfig `koanf:"redis"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password Secret `koanf:"password"`
	DB       int    `koanf:"db"`
	Key      string `koanf:"key"`
}

type PlanConfig struct {
	ScreenCacheSize int `koanf:"screen_cache_size"`
}

type CritiqueConfig struct {
	RulesFile string `koanf:"rules_file"` // "" = embedded rules
}

type OutputConfig struct {
	Dir string `koanf:"dir"`
}

// #endregion

// #region secret

// Secret is a string redacted in logs and serialization. Use Value() to read it.
type Secret string

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

func (s Secret) GoString() string { return "Secret([REDACTED])" }

// Value returns the actual secret.
func (s Secret) Value() string { return string(s) }

// IsSet reports whether the secret is non-empty.
func (s Secret) IsSet() bool { return s != "" }

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// #endregion

// #region validate

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}

	m := c.Models
	if !modelBackends[m.Primary] {
		errs = append(errs, fmt.Errorf("models.primary: unknown backend %q", m.Primary))
	}
	if m.Fallback != "" {
		if !modelBackends[m.Fallback] {
			errs = append(errs, fmt.Errorf("models.fallback: unknown backend %q", m.Fallback))
		} else if m.Fallback == m.Primary {
			errs = append(errs, errors.New("models.fallback must differ from models.primary"))
		}
	}
	if m.CallTimeout <= 0 {
		errs = append(errs, errors.New("models.call_timeout must be positive"))
	}
	if m.RPS < 0 {
		errs = append(errs, errors.New("models.rps must not be negative"))
	}
	if m.RPS > 0 && m.Burst < 1 {
		errs = append(errs, errors.New("models.burst must be at least 1 when rps is set"))
	}
	if m.CodegenMaxTokens <= 0 {
		errs = append(errs, errors.New("models.codegen_max_tokens must be positive"))
	}
	if m.uses(BackendGemini) && !m.Gemini.APIKey.IsSet() {
		errs = append(errs, errors.New("models.gemini.api_key is required when gemini is selected"))
	}

	if c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path is required"))
	}

	switch c.Memory.Backend {
	case MemorySQLite:
	case MemoryRedis:
		if c.Memory.Redis.Addr == "" {
			errs = append(errs, errors.New("memory.redis.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("memory.backend must be sqlite or redis, got %q", c.Memory.Backend))
	}

	if c.Output.Dir == "" {
		errs = append(errs, errors.New("output.dir is required"))
	}
	return errors.Join(errs...)
}

func (m ModelsConfig) uses(backend string) bool {
	return m.Primary == backend || (m.Fallback == backend && m.FallbackEnabled && !m.PrimaryOnly)
}

// #endregion
