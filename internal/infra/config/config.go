// Package config loads runtime configuration from environment variables and
// an optional .env file. Every field has a default so the binary runs
// locally without any setup.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Backends accepted in LLM_BACKEND.
const (
	BackendHuggingFace = "huggingface"
	BackendOllama      = "ollama"
)

// Log formats accepted in LOG_FORMAT.
const (
	LogFormatJSON   = "json"
	LogFormatPretty = "pretty"
	LogFormatText   = "text"
)

// Config holds runtime configuration for deepsite.
type Config struct {
	// HTTP server
	Host         string        `env:"HOST" envDefault:"0.0.0.0"`
	Port         int           `env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"5m"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Inference
	LLMBackend    string `env:"LLM_BACKEND" envDefault:"huggingface"`
	HFRouterURL   string `env:"HF_ROUTER_URL" envDefault:"https://router.huggingface.co"`
	OllamaBaseURL string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaModel   string `env:"OLLAMA_MODEL" envDefault:"llama3.2:3b"`

	// Storage and catalog
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/deepsite.db"`
	CatalogPath  string `env:"CATALOG_PATH"`

	// Auth. An empty JWT_SECRET leaves the API open.
	JWTSecret           string        `env:"JWT_SECRET"`
	JWTExpiry           time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	TokenFingerprintKey string        `env:"TOKEN_FINGERPRINT_KEY"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load reads the given .env files (default ".env"; missing files are
// ignored) and then the environment, which wins over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// godotenv.Load never overrides variables that are already set
		_ = godotenv.Load(f) //nolint:errcheck // a missing .env is fine
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated fields and ranges.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLMBackend {
	case BackendHuggingFace, BackendOllama:
	default:
		errs = append(errs, fmt.Errorf("LLM_BACKEND %q: want %s or %s", c.LLMBackend, BackendHuggingFace, BackendOllama))
	}
	switch strings.ToLower(c.LogFormat) {
	case LogFormatJSON, LogFormatPretty, LogFormatText:
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q: want json, pretty or text", c.LogFormat))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// AuthEnabled reports whether API requests need a bearer token.
func (c *Config) AuthEnabled() bool { return c.JWTSecret != "" }
