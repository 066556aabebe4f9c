package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrNoImage is returned when an image call succeeded but produced no image.
var ErrNoImage = errors.New("no image produced")

// Transliterator converts characters to pinyin.
// The answer may be in any order and may be incomplete.
type Transliterator interface {
	Transliterate(ctx context.Context, chars []string) ([]Pair, error)
}

// ImageGenerator draws one mascot figure in a theme's style.
// It returns an image reference usable as an <img> source.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, theme Theme, style string) (string, error)
}

// SpeechSynthesizer reads text aloud. It returns 16-bit little-endian
// mono PCM at speechSampleRate.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Backend bundles the three generative services.
type Backend struct {
	Transliterator Transliterator
	Images         ImageGenerator
	Speech         SpeechSynthesizer
}

// transliterate returns one pair per character. Service failures degrade to
// blank pinyin so a board can always be dealt.
func transliterate(ctx context.Context, t Transliterator, chars []string, logger *log.Logger) []Pair {
	if len(chars) == 0 {
		return []Pair{}
	}
	if t == nil {
		return reconcilePairs(chars, nil)
	}

	// A failed call may still carry a partial answer.
	answer, err := t.Transliterate(ctx, chars)
	if err != nil {
		logger.Warn("transliteration failed, using blank pinyin", "chars", len(chars), "known", len(answer), "err", err)
	}
	return reconcilePairs(chars, answer)
}

var figureMoods = []string{"happy", "cute", "dancing", "jumping", "waving", "cool", "heroic", "playful"}

// figurePrompt is the image prompt for one blind-box figure in the given style.
func figurePrompt(style string, rng *rand.Rand) string {
	mood := figureMoods[randIntN(rng, len(figureMoods))]

	var b strings.Builder
	b.WriteString("A single high-quality 3D blind box toy figure design of a ")
	b.WriteString(mood)
	b.WriteString(" ")
	b.WriteString(style)
	b.WriteString(".\nWhite background, studio lighting, simple shape, vector-like 3d render, adorable, chibi style.\n")
	b.WriteString("Ensure the character is centered and the background is pure white.")
	return b.String()
}
