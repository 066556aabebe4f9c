package main

import (
	"fmt"
	"strings"
)

// ColorTag is the pastel colour assigned to a card.
type ColorTag int

const (
	ColorPink ColorTag = iota
	ColorYellow
	ColorGreen
	ColorPurple
	ColorBlue
)

// Palette holds the display values for a colour tag.
type Palette struct {
	Name       string `json:"name"`
	Background string `json:"background"`
	Shadow     string `json:"shadow"`
	Text       string `json:"text"`
}

// cardColors are the tags a card can be dealt, in palette order.
var cardColors = []ColorTag{ColorPink, ColorYellow, ColorGreen, ColorPurple, ColorBlue}

var palettes = map[ColorTag]Palette{
	ColorPink:   {Name: "pink", Background: "#facbbd", Shadow: "#e6a693", Text: "#e68a73"},
	ColorYellow: {Name: "yellow", Background: "#fceccb", Shadow: "#e6ce99", Text: "#dcb56d"},
	ColorGreen:  {Name: "green", Background: "#d6f2e4", Shadow: "#a6dabb", Text: "#8abfa0"},
	ColorPurple: {Name: "purple", Background: "#e2dbf8", Shadow: "#c4b6ea", Text: "#a696c7"},
	ColorBlue:   {Name: "blue", Background: "#d0e8ff", Shadow: "#9dc4e8", Text: "#8ab6e1"},
}

// slatePalette is the neutral look of unknown tags.
var slatePalette = Palette{Name: "slate", Background: "#f1f5f9", Shadow: "#cbd5e1", Text: "#64748b"}

// Palette returns the display values of c.
func (c ColorTag) Palette() Palette {
	if p, ok := palettes[c]; ok {
		return p
	}
	return slatePalette
}

// paletteCSS renders one rule per colour class, exposing the palette to the
// stylesheets as custom properties.
func paletteCSS() string {
	var b strings.Builder
	for _, c := range cardColors {
		writePaletteRule(&b, c.Palette())
	}
	writePaletteRule(&b, slatePalette)
	return b.String()
}

func writePaletteRule(b *strings.Builder, p Palette) {
	fmt.Fprintf(b, ".c-%s { --card-bg: %s; --card-shadow: %s; --card-text: %s; }\n",
		p.Name, p.Background, p.Shadow, p.Text)
}

func (c ColorTag) String() string {
	return c.Palette().Name
}

func (c ColorTag) MarshalText() ([]byte, error) {
	if _, ok := palettes[c]; !ok {
		return nil, fmt.Errorf("unknown color tag %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *ColorTag) UnmarshalText(b []byte) error {
	for tag, p := range palettes {
		if p.Name == string(b) {
			*c = tag
			return nil
		}
	}
	return fmt.Errorf("unknown color %q", string(b))
}
