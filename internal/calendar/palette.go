package calendar

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Color is one calendar event style.
type Color struct {
	Background   string `yaml:"background" json:"background"`
	Foreground   string `yaml:"foreground" json:"foreground"`
	BorderAccent string `yaml:"border_accent" json:"border_accent"`
}

// Palette is an ordered list of colors. Order only decides which index a hash lands on.
type Palette []Color

// PastColor is used for every booking whose end instant has already passed.
var PastColor = Color{
	Background:   "#e5e7eb",
	Foreground:   "#6b7280",
	BorderAccent: "#9ca3af",
}

// DefaultPalette returns the built-in palette.
func DefaultPalette() Palette {
	return Palette{
		{Background: "#dbeafe", Foreground: "#1e3a8a", BorderAccent: "#3b82f6"},
		{Background: "#dcfce7", Foreground: "#14532d", BorderAccent: "#22c55e"},
		{Background: "#fef3c7", Foreground: "#78350f", BorderAccent: "#f59e0b"},
		{Background: "#fce7f3", Foreground: "#831843", BorderAccent: "#ec4899"},
		{Background: "#ede9fe", Foreground: "#4c1d95", BorderAccent: "#8b5cf6"},
		{Background: "#ffedd5", Foreground: "#7c2d12", BorderAccent: "#f97316"},
		{Background: "#cffafe", Foreground: "#164e63", BorderAccent: "#06b6d4"},
		{Background: "#fee2e2", Foreground: "#7f1d1d", BorderAccent: "#ef4444"},
		{Background: "#ecfccb", Foreground: "#365314", BorderAccent: "#84cc16"},
		{Background: "#e0e7ff", Foreground: "#312e81", BorderAccent: "#6366f1"},
		{Background: "#ccfbf1", Foreground: "#134e4a", BorderAccent: "#14b8a6"},
		{Background: "#fae8ff", Foreground: "#701a75", BorderAccent: "#d946ef"},
		{Background: "#fef9c3", Foreground: "#713f12", BorderAccent: "#eab308"},
		{Background: "#e0f2fe", Foreground: "#0c4a6e", BorderAccent: "#0ea5e9"},
		{Background: "#ffe4e6", Foreground: "#881337", BorderAccent: "#f43f5e"},
		{Background: "#d1fae5", Foreground: "#064e3b", BorderAccent: "#10b981"},
	}
}

type paletteFile struct {
	Colors []Color `yaml:"colors"`
	Past   *Color  `yaml:"past"`
}

// LoadPalette reads a YAML palette file.
// An empty path or a missing file yields the default palette and PastColor.
func LoadPalette(path string) (Palette, Color, error) {
	if path == "" {
		return DefaultPalette(), PastColor, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultPalette(), PastColor, nil
		}
		return nil, Color{}, fmt.Errorf("open palette file: %w", err)
	}
	defer f.Close()

	var pf paletteFile
	if err := yaml.NewDecoder(f).Decode(&pf); err != nil {
		return nil, Color{}, fmt.Errorf("decode palette file: %w", err)
	}
	if len(pf.Colors) == 0 {
		return nil, Color{}, ErrEmptyPalette
	}

	past := PastColor
	if pf.Past != nil {
		past = *pf.Past
	}
	return Palette(pf.Colors), past, nil
}
