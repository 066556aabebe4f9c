package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the data for key. The bool is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryCache keeps entries in process memory.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.data, true, nil
}

// Set stores data under key. A zero ttl never expires.
func (c *MemoryCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	e := memoryEntry{data: append([]byte(nil), data...)}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Close() error {
	return nil
}

// RedisCache keeps entries in Redis so several server instances share them.
type RedisCache struct {
	client *redis.Client
}

// RedisConfig locates the Redis server.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisCache connects to Redis and checks the connection.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
)

const pinyinKeyPrefix = "hanzibox:pinyin:"

// CachedTransliterator remembers the pinyin of every character it has seen
// and only asks the service for the rest.
type CachedTransliterator struct {
	next   Transliterator
	cache  Cache
	ttl    time.Duration
	logger *log.Logger
}

// NewCachedTransliterator wraps next with cache.
func NewCachedTransliterator(next Transliterator, cache Cache, ttl time.Duration, logger *log.Logger) *CachedTransliterator {
	return &CachedTransliterator{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (t *CachedTransliterator) Transliterate(ctx context.Context, chars []string) ([]Pair, error) {
	var (
		pairs   []Pair
		missing []string
		seen    = make(map[string]bool, len(chars))
	)
	for _, c := range chars {
		if seen[c] {
			continue
		}
		seen[c] = true

		data, ok, err := t.cache.Get(ctx, pinyinKeyPrefix+c)
		if err != nil {
			// A broken cache only costs a service call.
			t.logger.Debug("pinyin cache read failed", "char", c, "err", err)
		}
		if ok {
			pairs = append(pairs, Pair{Char: c, Pinyin: string(data)})
			continue
		}
		missing = append(missing, c)
	}

	if len(missing) == 0 {
		return pairs, nil
	}

	fresh, err := t.next.Transliterate(ctx, missing)
	if err != nil {
		// Cached readings are still worth returning.
		return pairs, err
	}
	for _, p := range fresh {
		if p.Pinyin == "" || !seen[p.Char] {
			continue
		}
		if err := t.cache.Set(ctx, pinyinKeyPrefix+p.Char, []byte(p.Pinyin), t.ttl); err != nil {
			t.logger.Debug("pinyin cache write failed", "char", p.Char, "err", err)
		}
	}
	return append(pairs, fresh...), nil
}
