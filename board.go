package main

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrItemNotFound is returned when an item id is not on the board.
	ErrItemNotFound = errors.New("item not found")

	// ErrNoBoard is returned when a session has not generated a board yet.
	ErrNoBoard = errors.New("no board generated")
)

// Board is one generation batch. A new board replaces the previous one
// wholesale; only image attachment and reveal transitions mutate it.
type Board struct {
	ID        string     `json:"id"`
	Theme     Theme      `json:"theme"`
	Slots     int        `json:"slots"`
	Items     []GridItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewBoard builds a fresh batch from transliterated pairs.
func NewBoard(pairs []Pair, theme Theme, slots int, rng *rand.Rand) *Board {
	return &Board{
		ID:        uuid.NewString(),
		Theme:     theme,
		Slots:     slots,
		Items:     BuildGrid(pairs, theme, slots, rng),
		CreatedAt: time.Now(),
	}
}

func (b *Board) item(id string) *GridItem {
	for i := range b.Items {
		if b.Items[i].ID == id {
			return &b.Items[i]
		}
	}
	return nil
}

// PendingImages returns the surprise items still waiting for an image.
func (b *Board) PendingImages() []GridItem {
	var pending []GridItem
	for _, it := range b.Items {
		if it.Kind == KindSurprise && it.ImageURL == "" {
			pending = append(pending, it)
		}
	}
	return pending
}

// Counts returns the number of text and surprise items.
func (b *Board) Counts() (text, surprise int) {
	for _, it := range b.Items {
		switch it.Kind {
		case KindText:
			text++
		case KindSurprise:
			surprise++
		}
	}
	return text, surprise
}

// clone returns a deep copy safe to hand out of the session lock.
func (b *Board) clone() *Board {
	cp := *b
	cp.Items = make([]GridItem, len(b.Items))
	copy(cp.Items, b.Items)
	return &cp
}
