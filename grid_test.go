package main

import (
	"math/rand/v2"
	"slices"
	"strings"
	"testing"
)

func testPairs(chars string) []Pair {
	var pairs []Pair
	for _, c := range ExtractHanzi(chars) {
		pairs = append(pairs, Pair{Char: c, Pinyin: "py-" + c})
	}
	return pairs
}

func countKinds(items []GridItem) (text, surprise int) {
	for _, it := range items {
		switch it.Kind {
		case KindText:
			text++
		case KindSurprise:
			surprise++
		}
	}
	return text, surprise
}

func TestBuildGridFillsWithSurprises(t *testing.T) {
	items := BuildGrid(testPairs("天地人"), ThemeSanrio, 12, rand.New(rand.NewPCG(1, 2)))

	if len(items) != 12 {
		t.Fatalf("expected 12 items, got %d", len(items))
	}
	text, surprise := countKinds(items)
	if text != 3 || surprise != 9 {
		t.Fatalf("expected 3 text + 9 surprise, got %d + %d", text, surprise)
	}

	for _, it := range items {
		if it.State != StateHidden || it.Revealed {
			t.Fatalf("item %s should start hidden", it.ID)
		}
		if it.Theme != ThemeSanrio {
			t.Fatalf("item %s has theme %q", it.ID, it.Theme)
		}
		if it.Kind == KindSurprise {
			if it.Content != surpriseLabel {
				t.Fatalf("surprise content: got %q", it.Content)
			}
			if it.ImageURL != "" {
				t.Fatal("generated themes should leave surprise images empty")
			}
		}
		if it.Kind == KindText && it.SubContent != "py-"+it.Content {
			t.Fatalf("pinyin of %s: got %q", it.Content, it.SubContent)
		}
	}
}

func TestBuildGridStockImages(t *testing.T) {
	items := BuildGrid(nil, DefaultTheme, 12, nil)

	if len(items) != 12 {
		t.Fatalf("expected 12 items, got %d", len(items))
	}
	for _, it := range items {
		if it.Kind != KindSurprise {
			t.Fatalf("expected only surprise items, got %s", it.Kind)
		}
		if !strings.HasPrefix(it.ImageURL, "https://raw.githubusercontent.com/PokeAPI/") {
			t.Fatalf("expected a stock image, got %q", it.ImageURL)
		}
	}
}

func TestBuildGridTruncatesOverflow(t *testing.T) {
	pairs := testPairs("一二三四五六七八九十百千万亿零")
	if len(pairs) != 15 {
		t.Fatalf("test setup: expected 15 pairs, got %d", len(pairs))
	}

	items := BuildGrid(pairs, ThemeBluey, 12, rand.New(rand.NewPCG(3, 4)))
	if len(items) != 12 {
		t.Fatalf("expected 12 items, got %d", len(items))
	}
	text, surprise := countKinds(items)
	if text != 12 || surprise != 0 {
		t.Fatalf("expected 12 text + 0 surprise, got %d + %d", text, surprise)
	}

	// Every kept card is one of the inputs, with no duplicates.
	seen := make(map[string]bool)
	for _, it := range items {
		if !slices.ContainsFunc(pairs, func(p Pair) bool { return p.Char == it.Content }) {
			t.Fatalf("unexpected character %q", it.Content)
		}
		if seen[it.Content] {
			t.Fatalf("character %q dealt twice", it.Content)
		}
		seen[it.Content] = true
	}
}

func TestBuildGridZeroSlots(t *testing.T) {
	items := BuildGrid(testPairs("天地"), ThemeSanrio, 0, nil)
	if items == nil || len(items) != 0 {
		t.Fatalf("expected an empty non-nil grid, got %v", items)
	}
}

func TestBuildGridUniqueIDs(t *testing.T) {
	items := BuildGrid(testPairs("天地人天"), ThemeUltraman, maxSlots, nil)

	ids := make(map[string]bool, len(items))
	for _, it := range items {
		if ids[it.ID] {
			t.Fatalf("duplicate id %s", it.ID)
		}
		ids[it.ID] = true
		if !strings.HasPrefix(it.ID, string(it.Kind)+"-") {
			t.Fatalf("id %s should be prefixed with its kind", it.ID)
		}
	}
}

func TestBuildGridShuffles(t *testing.T) {
	pairs := testPairs("一二三四五六七八九十百千")
	rng := rand.New(rand.NewPCG(5, 6))

	// Twenty deals in input order would be astronomically unlikely.
	for range 20 {
		items := BuildGrid(pairs, ThemeSanrio, 12, rng)
		for i, it := range items {
			if it.Content != pairs[i].Char {
				return
			}
		}
	}
	t.Fatal("grid was never shuffled")
}

func TestBuildGridKeepsRepeatedCharacters(t *testing.T) {
	items := BuildGrid(testPairs("好好学习"), ThemeSanrio, 12, nil)

	n := 0
	for _, it := range items {
		if it.Kind == KindText && it.Content == "好" {
			n++
		}
	}
	if n != 2 {
		t.Fatalf("expected 2 cards for 好, got %d", n)
	}
}

func TestExtractHanzi(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"hello 123", nil},
		{"你好", []string{"你", "好"}},
		{"a天b地, 人!", []string{"天", "地", "人"}},
		{"，。！", nil},     // CJK punctuation
		{"ぁア한", nil},      // other scripts
		{"龥", []string{"龥"}}, // U+9FA5, last of the range
		{"龦", nil},          // U+9FA6
	}
	for _, tt := range tests {
		got := ExtractHanzi(tt.in)
		if !slices.Equal(got, tt.want) {
			t.Errorf("ExtractHanzi(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReconcilePairs(t *testing.T) {
	chars := []string{"天", "地", "人", "天"}
	answer := []Pair{
		{Char: "人", Pinyin: "rén"},
		{Char: "天", Pinyin: "tiān"},
		{Char: "水", Pinyin: "shuǐ"}, // not asked for
	}

	got := reconcilePairs(chars, answer)
	want := []Pair{
		{Char: "天", Pinyin: "tiān"},
		{Char: "地", Pinyin: ""},
		{Char: "人", Pinyin: "rén"},
		{Char: "天", Pinyin: "tiān"},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestReconcilePairsHeteronyms(t *testing.T) {
	got := reconcilePairs([]string{"行", "行"}, []Pair{
		{Char: "行", Pinyin: "xíng"},
		{Char: "行", Pinyin: "háng"},
	})
	if got[0].Pinyin != "xíng" || got[1].Pinyin != "háng" {
		t.Fatalf("readings should be used in answer order, got %v", got)
	}
}

func TestReconcilePairsNoAnswer(t *testing.T) {
	got := reconcilePairs([]string{"天", "地"}, nil)
	if len(got) != 2 || got[0].Pinyin != "" || got[1].Pinyin != "" {
		t.Fatalf("expected blank pinyin, got %v", got)
	}
}
