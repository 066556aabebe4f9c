package main

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"
)

func TestMemoryCache(t *testing.T) {
	ctx := t.Context()
	c := NewMemoryCache()

	if _, ok, err := c.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	c.Set(ctx, "k", []byte("v"), 0)
	data, ok, err := c.Get(ctx, "k")
	if !ok || err != nil || string(data) != "v" {
		t.Fatalf("got %q ok=%v err=%v", data, ok, err)
	}

	c.Delete(ctx, "k")
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("deleted key should miss")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := t.Context()
	now := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", []byte("v"), time.Minute)
	now = now.Add(59 * time.Second)
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("entry should still be fresh")
	}
	now = now.Add(2 * time.Second)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("entry should have expired")
	}
}

func TestMemoryCacheCopiesValue(t *testing.T) {
	ctx := t.Context()
	c := NewMemoryCache()
	buf := []byte("tiān")
	c.Set(ctx, "k", buf, 0)
	buf[0] = 'X'

	data, _, _ := c.Get(ctx, "k")
	if string(data) != "tiān" {
		t.Fatalf("cache should keep its own copy, got %q", data)
	}
}

// fakeTransliterator answers from a fixed dictionary and records requests.
type fakeTransliterator struct {
	mu    sync.Mutex
	dict  map[string]string
	asked [][]string
	err   error
}

func (f *fakeTransliterator) Transliterate(_ context.Context, chars []string) ([]Pair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, slices.Clone(chars))
	if f.err != nil {
		return nil, f.err
	}
	var out []Pair
	for _, c := range chars {
		if py, ok := f.dict[c]; ok {
			out = append(out, Pair{Char: c, Pinyin: py})
		}
	}
	return out, nil
}

func TestCachedTransliteratorOnlyAsksForMisses(t *testing.T) {
	ctx := t.Context()
	svc := &fakeTransliterator{dict: map[string]string{"天": "tiān", "地": "dì", "人": "rén"}}
	ct := NewCachedTransliterator(svc, NewMemoryCache(), time.Hour, discardLogger())

	if _, err := ct.Transliterate(ctx, []string{"天", "地", "天"}); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(svc.asked[0], []string{"天", "地"}) {
		t.Fatalf("first call should ask each character once, asked %v", svc.asked[0])
	}

	pairs, err := ct.Transliterate(ctx, []string{"天", "人"})
	if err != nil {
		t.Fatal(err)
	}
	if len(svc.asked) != 2 || !slices.Equal(svc.asked[1], []string{"人"}) {
		t.Fatalf("second call should only ask for 人, asked %v", svc.asked)
	}

	got := reconcilePairs([]string{"天", "人"}, pairs)
	if got[0].Pinyin != "tiān" || got[1].Pinyin != "rén" {
		t.Fatalf("got %v", got)
	}
}

func TestCachedTransliteratorAllCached(t *testing.T) {
	ctx := t.Context()
	svc := &fakeTransliterator{dict: map[string]string{"天": "tiān"}}
	ct := NewCachedTransliterator(svc, NewMemoryCache(), time.Hour, discardLogger())

	ct.Transliterate(ctx, []string{"天"})
	ct.Transliterate(ctx, []string{"天"})
	if len(svc.asked) != 1 {
		t.Fatalf("expected 1 service call, got %d", len(svc.asked))
	}
}

func TestCachedTransliteratorSkipsBlankReadings(t *testing.T) {
	ctx := t.Context()
	svc := &fakeTransliterator{dict: map[string]string{}}
	cache := NewMemoryCache()
	ct := NewCachedTransliterator(svc, cache, time.Hour, discardLogger())

	ct.Transliterate(ctx, []string{"龘"})
	if _, ok, _ := cache.Get(ctx, pinyinKeyPrefix+"龘"); ok {
		t.Fatal("characters the service could not read must not be cached")
	}
}

func TestCachedTransliteratorServiceError(t *testing.T) {
	ctx := t.Context()
	cache := NewMemoryCache()
	cache.Set(ctx, pinyinKeyPrefix+"天", []byte("tiān"), 0)
	svc := &fakeTransliterator{err: errors.New("backend down")}
	ct := NewCachedTransliterator(svc, cache, time.Hour, discardLogger())

	pairs, err := ct.Transliterate(ctx, []string{"天", "地"})
	if err == nil {
		t.Fatal("expected the service error")
	}
	if len(pairs) != 1 || pairs[0] != (Pair{Char: "天", Pinyin: "tiān"}) {
		t.Fatalf("cached readings should survive the error, got %v", pairs)
	}
}

func TestTransliterateDegrades(t *testing.T) {
	ctx := t.Context()
	chars := []string{"天", "地"}

	if got := transliterate(ctx, nil, chars, discardLogger()); len(got) != 2 || got[0].Pinyin != "" {
		t.Fatalf("no service: got %v", got)
	}

	svc := &fakeTransliterator{err: errors.New("backend down")}
	if got := transliterate(ctx, svc, chars, discardLogger()); len(got) != 2 || got[1].Char != "地" {
		t.Fatalf("failing service: got %v", got)
	}

	if got := transliterate(ctx, svc, nil, discardLogger()); got == nil || len(got) != 0 {
		t.Fatalf("no characters: got %v", got)
	}
	if len(svc.asked) != 1 {
		t.Fatal("empty input should not reach the service")
	}
}
