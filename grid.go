package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

const (
	defaultSlots = 12
	maxSlots     = 48

	surpriseLabel = "Surprise!"
)

// Kind says what a card hides.
type Kind string

const (
	KindText     Kind = "text"
	KindSurprise Kind = "surprise"
)

// Pair is one character and its pinyin.
type Pair struct {
	Char   string `json:"char"`
	Pinyin string `json:"pinyin"`
}

// GridItem is one blind-box card.
// A text card carries a character (Content) and its pinyin (SubContent).
// A surprise card carries an image, which may arrive after the board is built.
type GridItem struct {
	ID         string      `json:"id"`
	Kind       Kind        `json:"type"`
	Theme      Theme       `json:"theme"`
	Content    string      `json:"content"`
	SubContent string      `json:"sub_content,omitempty"`
	ImageURL   string      `json:"image_url,omitempty"`
	State      RevealState `json:"state"`
	Revealed   bool        `json:"revealed"`
	Color      ColorTag    `json:"color"`
}

// BuildGrid deals pairs and surprise cards into slots cards.
//
// Every pair becomes a text card. Surprise cards fill the slots left over.
// The result is shuffled and truncated to slots, so with more pairs than
// slots some characters are dropped at random. Surprise cards of a theme
// with stock images get their image immediately; the others are left for
// the image generator.
func BuildGrid(pairs []Pair, theme Theme, slots int, rng *rand.Rand) []GridItem {
	if slots <= 0 {
		return []GridItem{}
	}

	items := make([]GridItem, 0, max(len(pairs), slots))
	for _, p := range pairs {
		items = append(items, GridItem{
			ID:         newItemID(KindText),
			Kind:       KindText,
			Theme:      theme,
			Content:    p.Char,
			SubContent: p.Pinyin,
			Color:      randomColor(rng),
		})
	}

	remaining := max(0, slots-len(items))
	for range remaining {
		item := GridItem{
			ID:      newItemID(KindSurprise),
			Kind:    KindSurprise,
			Theme:   theme,
			Content: surpriseLabel,
			Color:   randomColor(rng),
		}
		if theme.HasStockImages() {
			item.ImageURL = stockImage(randomStockImageID(rng))
		}
		items = append(items, item)
	}

	items = shuffle(rng, items)
	return items[:min(slots, len(items))]
}

func newItemID(k Kind) string {
	return fmt.Sprintf("%s-%s", k, uuid.NewString())
}

// ExtractHanzi keeps the CJK unified ideographs of text, one string per character.
func ExtractHanzi(text string) []string {
	var chars []string
	for _, r := range text {
		if r >= 0x4e00 && r <= 0x9fa5 {
			chars = append(chars, string(r))
		}
	}
	return chars
}

// reconcilePairs lines the service's answer up with the requested characters.
// The answer may come in any order, miss characters or contain extras. The
// result has exactly one pair per requested character, in request order,
// with an empty pinyin where the service gave none.
func reconcilePairs(chars []string, answer []Pair) []Pair {
	pool := make(map[string][]string, len(answer))
	for _, p := range answer {
		pool[p.Char] = append(pool[p.Char], p.Pinyin)
	}

	pairs := make([]Pair, len(chars))
	for i, c := range chars {
		pairs[i] = Pair{Char: c}
		readings := pool[c]
		if len(readings) == 0 {
			continue
		}
		pairs[i].Pinyin = readings[0]
		// The last reading is kept for repeats of the same character.
		if len(readings) > 1 {
			pool[c] = readings[1:]
		}
	}
	return pairs
}
