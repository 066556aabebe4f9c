package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

// newBackend wires the generative services selected by cfg. A backend that
// is selected but not configured is disabled with a warning, like "none".
// The returned func releases the clients and the pinyin cache.
func newBackend(ctx context.Context, cfg Config, logger *log.Logger) (Backend, func(), error) {
	var (
		backend Backend
		closers []func() error
	)
	release := func() {
		for _, c := range closers {
			c()
		}
	}

	switch cfg.AIBackend {
	case "gemini":
		if cfg.GeminiAPIKey == "" && cfg.ProjectID == "" {
			logger.Warn("neither GEMINI_API_KEY nor GCP_PROJECT_ID set, AI features disabled")
			break
		}
		gemini, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:    cfg.GeminiAPIKey,
			ProjectID: cfg.ProjectID,
			Region:    cfg.Region,
		})
		if err != nil {
			return Backend{}, release, fmt.Errorf("init gemini: %w", err)
		}
		closers = append(closers, gemini.Close)
		backend = Backend{Transliterator: gemini, Images: gemini, Speech: gemini}
		logger.Info("Gemini client initialised", "project", cfg.ProjectID, "api_key", cfg.GeminiAPIKey != "")

	case "openai":
		oa, err := NewOpenAIClient(cfg.OpenAIKey)
		if err != nil {
			logger.Warn("OPENAI_API_KEY not set, AI features disabled")
			break
		}
		backend = Backend{Transliterator: oa, Images: oa, Speech: oa}
		logger.Info("OpenAI client initialised")

	case "none":
		logger.Info("AI backend disabled")
	}

	if backend.Images != nil {
		backend.Images = newBreakerImages(backend.Images, logger)
	}

	if backend.Transliterator != nil {
		var cache Cache = NewMemoryCache()
		if cfg.RedisAddr != "" {
			rc, err := NewRedisCache(ctx, RedisConfig{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			if err != nil {
				release()
				return Backend{}, func() {}, fmt.Errorf("init pinyin cache: %w", err)
			}
			cache = rc
			logger.Info("pinyin cache on redis", "addr", cfg.RedisAddr)
		}
		closers = append(closers, cache.Close)
		backend.Transliterator = NewCachedTransliterator(backend.Transliterator, cache, cfg.PinyinCacheTTL, logger)
	}

	return backend, release, nil
}
