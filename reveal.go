package main

import "fmt"

// RevealState is the position of a card in its reveal animation.
// Cards only move forward: hidden, animating, revealed.
type RevealState int

const (
	StateHidden RevealState = iota
	StateAnimating
	StateRevealed
)

var revealStateNames = map[RevealState]string{
	StateHidden:    "hidden",
	StateAnimating: "animating",
	StateRevealed:  "revealed",
}

func (s RevealState) String() string {
	if name, ok := revealStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("RevealState(%d)", int(s))
}

func (s RevealState) MarshalText() ([]byte, error) {
	if _, ok := revealStateNames[s]; !ok {
		return nil, fmt.Errorf("unknown reveal state %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *RevealState) UnmarshalText(b []byte) error {
	for state, name := range revealStateNames {
		if name == string(b) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown reveal state %q", string(b))
}

// DisplayMode is the view a card is shown in.
type DisplayMode string

const (
	ModeInteractive  DisplayMode = "interactive"
	ModePrintCover   DisplayMode = "print-cover"
	ModePrintContent DisplayMode = "print-content"
)

// ParseDisplayMode validates a mode. An empty string means interactive.
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch DisplayMode(s) {
	case "", ModeInteractive:
		return ModeInteractive, nil
	case ModePrintCover, ModePrintContent:
		return DisplayMode(s), nil
	}
	return "", fmt.Errorf("unknown display mode %q", s)
}

// RevealOutcome describes what a reveal request did.
type RevealOutcome string

const (
	RevealStarted   RevealOutcome = "started"
	RevealIgnored   RevealOutcome = "ignored"   // already animating or revealed
	RevealWrongMode RevealOutcome = "wrong_mode" // not an interactive view
)

// beginReveal is the user-initiated transition. It only fires from hidden
// in interactive mode.
func beginReveal(s RevealState, mode DisplayMode) (RevealState, RevealOutcome) {
	if mode != ModeInteractive {
		return s, RevealWrongMode
	}
	if s != StateHidden {
		return s, RevealIgnored
	}
	return StateAnimating, RevealStarted
}

// finishReveal commits an animating card. Any other state is left alone.
func finishReveal(s RevealState) (RevealState, bool) {
	if s != StateAnimating {
		return s, false
	}
	return StateRevealed, true
}
