package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Theme is a named visual style for a board.
type Theme string

const (
	ThemePokemon  Theme = "pokemon"
	ThemeUltraman Theme = "ultraman"
	ThemeBluey    Theme = "bluey"
	ThemeSanrio   Theme = "sanrio"

	// DefaultTheme needs no image generation: its surprise cards use stock artwork.
	DefaultTheme = ThemePokemon
)

var themeOrder = []Theme{ThemePokemon, ThemeUltraman, ThemeBluey, ThemeSanrio}

// ParseTheme validates a theme identifier. An empty string yields DefaultTheme.
func ParseTheme(s string) (Theme, error) {
	if s == "" {
		return DefaultTheme, nil
	}
	for _, t := range themeOrder {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

// HasStockImages reports whether surprise cards of t resolve their image
// synchronously instead of through the image generator.
func (t Theme) HasStockImages() bool {
	return t == ThemePokemon
}

// ThemeConfig is the display metadata of a theme.
type ThemeConfig struct {
	ID         Theme    `json:"id"`
	Label      string   `json:"label"`
	Background ColorTag `json:"background"`
	Accent     string   `json:"accent"`
	Pattern    string   `json:"pattern"`
	Icon       string   `json:"icon"`
	Style      string   `json:"-"` // image generation style prompt
}

// ThemeTable maps each theme to its configuration.
type ThemeTable map[Theme]ThemeConfig

// DefaultThemeTable returns the built-in theme configuration.
func DefaultThemeTable() ThemeTable {
	return ThemeTable{
		ThemePokemon: {
			ID: ThemePokemon, Label: "宝可梦", Background: ColorPink,
			Accent: "#e74c3c", Pattern: "pattern-dots", Icon: "⚡",
			Style: "pokemon creature",
		},
		ThemeUltraman: {
			ID: ThemeUltraman, Label: "奥特曼", Background: ColorBlue,
			Accent: "#3498db", Pattern: "pattern-grid", Icon: "💫",
			Style: "Ultraman superhero, silver and red sci-fi suit, glowing eyes, chibi style",
		},
		ThemeBluey: {
			ID: ThemeBluey, Label: "布鲁伊", Background: ColorPurple,
			Accent: "#9b59b6", Pattern: "pattern-dots", Icon: "🦴",
			Style: "Bluey style cartoon dog, pastel colors, flat design, cute",
		},
		ThemeSanrio: {
			ID: ThemeSanrio, Label: "三丽鸥", Background: ColorYellow,
			Accent: "#f39c12", Pattern: "pattern-stripes", Icon: "🎀",
			Style: "Sanrio style cute character, kawaii, Hello Kitty aesthetics, soft rounded shapes",
		},
	}
}

// Get returns the configuration of t, falling back to the default theme.
func (tt ThemeTable) Get(t Theme) ThemeConfig {
	if cfg, ok := tt[t]; ok {
		return cfg
	}
	return tt[DefaultTheme]
}

// List returns all themes in display order.
func (tt ThemeTable) List() []ThemeConfig {
	list := make([]ThemeConfig, 0, len(tt))
	for _, cfg := range tt {
		list = append(list, cfg)
	}
	sort.Slice(list, func(i, j int) bool {
		return themeIndex(list[i].ID) < themeIndex(list[j].ID)
	})
	return list
}

// CSS renders the page background and accent of every theme as custom
// properties on body.theme-<id>, followed by the card palette.
func (tt ThemeTable) CSS() string {
	var b strings.Builder
	for _, cfg := range tt.List() {
		fmt.Fprintf(&b, "body.theme-%s { --page-bg: %s; --accent: %s; }\n",
			cfg.ID, cfg.Background.Palette().Background, cfg.Accent)
	}
	b.WriteString(paletteCSS())
	return b.String()
}

func themeIndex(t Theme) int {
	for i, o := range themeOrder {
		if o == t {
			return i
		}
	}
	return len(themeOrder)
}

// themeOverride is one [themes.<id>] table of a theme overrides file.
type themeOverride struct {
	Label string `toml:"label"`
	Icon  string `toml:"icon"`
	Style string `toml:"style"`
}

// LoadThemeTable reads label, icon and style overrides from a TOML file on
// top of the built-in table. Colours and patterns cannot be overridden.
//
//	[themes.bluey]
//	style = "Bluey style cartoon dog, watercolor"
func LoadThemeTable(path string) (ThemeTable, error) {
	tt := DefaultThemeTable()
	if path == "" {
		return tt, nil
	}

	var file struct {
		Themes map[string]themeOverride `toml:"themes"`
	}
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("decode themes file: %w", err)
	}

	for id, o := range file.Themes {
		t, err := ParseTheme(id)
		if err != nil {
			return nil, fmt.Errorf("themes file: %w", err)
		}
		cfg := tt[t]
		if o.Label != "" {
			cfg.Label = o.Label
		}
		if o.Icon != "" {
			cfg.Icon = o.Icon
		}
		if o.Style != "" {
			cfg.Style = o.Style
		}
		tt[t] = cfg
	}
	return tt, nil
}
