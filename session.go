package main

import (
	"context"
	"sync"
	"time"
)

// Session is one player's table: the live board plus view preferences.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	theme      Theme
	showPinyin bool
	board      *Board
	lastSeen   time.Time
	cancelFill context.CancelFunc
}

// SessionView is the JSON representation of a session.
type SessionView struct {
	ID         string    `json:"id"`
	Theme      Theme     `json:"theme"`
	ShowPinyin bool      `json:"show_pinyin"`
	Board      *Board    `json:"board"`
	CreatedAt  time.Time `json:"created_at"`
}

// View returns a copy of the session state.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := SessionView{
		ID:         s.ID,
		Theme:      s.theme,
		ShowPinyin: s.showPinyin,
		CreatedAt:  s.CreatedAt,
	}
	if s.board != nil {
		v.Board = s.board.clone()
	}
	return v
}

// Theme returns the theme new boards are generated with.
func (s *Session) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// SetTheme changes the theme of future boards. The live board keeps its own.
func (s *Session) SetTheme(t Theme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = t
}

func (s *Session) ShowPinyin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showPinyin
}

func (s *Session) SetShowPinyin(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showPinyin = v
}

// Board returns a copy of the live board, or nil before the first generation.
func (s *Session) Board() *Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board == nil {
		return nil
	}
	return s.board.clone()
}

// Install makes b the live board. The context of the previous board's image
// fill-in is cancelled; the returned context scopes the fill-in of b.
func (s *Session) Install(parent context.Context, b *Board) context.Context {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelFill != nil {
		s.cancelFill()
	}
	s.board = b
	s.cancelFill = cancel
	s.lastSeen = time.Now()
	return ctx
}

// AttachImage sets the image of a surprise item of batch batchID.
// It reports false, changing nothing, when the batch is no longer live
// or the item is not a surprise card on it.
func (s *Session) AttachImage(batchID, itemID, url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.board == nil || s.board.ID != batchID {
		return false
	}
	it := s.board.item(itemID)
	if it == nil || it.Kind != KindSurprise {
		return false
	}
	it.ImageURL = url
	return true
}

// BeginReveal starts the reveal animation of an item of the live board.
// It returns the id of the batch the item belongs to.
func (s *Session) BeginReveal(itemID string, mode DisplayMode) (RevealOutcome, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.board == nil {
		return "", "", ErrNoBoard
	}
	it := s.board.item(itemID)
	if it == nil {
		return "", "", ErrItemNotFound
	}

	var outcome RevealOutcome
	it.State, outcome = beginReveal(it.State, mode)
	s.lastSeen = time.Now()
	return outcome, s.board.ID, nil
}

// FinishReveal commits an animating item to revealed. Stale batches and
// items in any other state are left untouched.
func (s *Session) FinishReveal(batchID, itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.board == nil || s.board.ID != batchID {
		return false
	}
	it := s.board.item(itemID)
	if it == nil {
		return false
	}

	var ok bool
	it.State, ok = finishReveal(it.State)
	if ok {
		it.Revealed = true
	}
	return ok
}

// Touch records activity on the session.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// IdleSince returns the time of the last recorded activity.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close cancels any image fill-in still running for the session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelFill != nil {
		s.cancelFill()
		s.cancelFill = nil
	}
}
