package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is read from the environment.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// AIBackend is gemini, openai or none.
	AIBackend    string `env:"AI_BACKEND" envDefault:"gemini"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	ProjectID    string `env:"GCP_PROJECT_ID"`
	Region       string `env:"GCP_REGION" envDefault:"europe-west1"`
	OpenAIKey    string `env:"OPENAI_API_KEY"`

	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	PinyinCacheTTL time.Duration `env:"PINYIN_CACHE_TTL" envDefault:"720h"`

	ThemesFile     string        `env:"THEMES_FILE"`
	GridSlots      int           `env:"GRID_SLOTS" envDefault:"12"`
	RevealDelay    time.Duration `env:"REVEAL_DELAY" envDefault:"300ms"`
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"2h"`
}

// loadConfig parses the process environment.
func loadConfig() (Config, error) {
	return parseConfig(env.Options{})
}

func parseConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.AIBackend {
	case "gemini", "openai", "none":
	default:
		return fmt.Errorf("AI_BACKEND must be gemini, openai or none, got %q", c.AIBackend)
	}
	if c.GridSlots < 1 || c.GridSlots > maxSlots {
		return fmt.Errorf("GRID_SLOTS must be between 1 and %d, got %d", maxSlots, c.GridSlots)
	}
	if c.RevealDelay < 0 {
		return fmt.Errorf("REVEAL_DELAY must not be negative")
	}
	return nil
}
