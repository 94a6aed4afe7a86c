package calendar

import (
	"errors"
	"math"
	"unicode/utf16"
)

var ErrEmptyPalette = errors.New("palette must have at least one color")

// Series role prefixes used to derive three independent hash inputs from one series key.
const (
	rolePrimary   = "primary_"
	roleSecondary = "secondary_"
	roleTertiary  = "tertiary_"
)

const (
	fnvOffset uint32 = 2166136261
	fnvPrime  uint32 = 16777619

	djbSeed int32 = 5381
	altSeed int32 = 7

	mixA int64 = 31
	mixB int64 = 37
)

var goldenRatio = (1 + math.Sqrt(5)) / 2

// Engine maps string keys onto a fixed palette.
// It holds no mutable state; a single Engine can be shared freely.
type Engine struct {
	palette Palette
}

// NewEngine creates an Engine over a copy of the given palette.
func NewEngine(p Palette) (*Engine, error) {
	if len(p) == 0 {
		return nil, ErrEmptyPalette
	}
	cp := make(Palette, len(p))
	copy(cp, p)
	return &Engine{palette: cp}, nil
}

// Size returns the number of palette entries.
func (e *Engine) Size() int {
	return len(e.palette)
}

// Index returns the palette index for key.
func (e *Engine) Index(key string) int {
	return GoldenIndex(Hash(key), len(e.palette))
}

// ColorOf returns the palette entry for key.
func (e *Engine) ColorOf(key string) Color {
	return e.palette[e.Index(key)]
}

// SeriesIndex hashes the key under three role prefixes and combines the results,
// which widens the hash space compared to hashing the bare key once.
func (e *Engine) SeriesIndex(key string) int {
	combined := Combine(
		Hash(rolePrimary+key),
		Hash(roleSecondary+key),
		Hash(roleTertiary+key),
	)
	return GoldenIndex(combined, len(e.palette))
}

// SeriesColor returns the palette entry for a series key.
func (e *Engine) SeriesColor(key string) Color {
	return e.palette[e.SeriesIndex(key)]
}

// Hash combines the three mixing strategies into one non-negative integer.
func Hash(key string) int64 {
	units := codeUnits(key)
	return Combine(
		int64(hashMultiplicative(units)),
		int64(hashPolynomial(units)),
		int64(hashPolynomialAlt(units)),
	)
}

// Combine folds three hash values into |h1 + h2*31 + h3*37|.
func Combine(h1, h2, h3 int64) int64 {
	v := h1 + h2*mixA + h3*mixB
	if v < 0 {
		return -v
	}
	return v
}

// GoldenIndex maps v onto [0, n) using the fractional part of v*phi.
// Adjacent inputs land far apart, unlike v % n.
func GoldenIndex(v int64, n int) int {
	if n <= 1 {
		return 0
	}
	// The explicit conversion forces rounding before Modf so no fused
	// multiply-add can change the result between platforms.
	product := float64(float64(v) * goldenRatio)
	_, frac := math.Modf(product)
	if frac < 0 {
		frac = -frac
	}
	idx := int(math.Floor(float64(frac * float64(n))))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// codeUnits returns the UTF-16 code units of s so that multibyte characters
// hash the same way on every platform.
func codeUnits(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// hashMultiplicative is FNV-1a over UTF-16 code units.
func hashMultiplicative(units []uint16) uint32 {
	h := fnvOffset
	for _, c := range units {
		h ^= uint32(c)
		h *= fnvPrime
	}
	return h
}

// hashPolynomial is djb2: h*33 + c.
func hashPolynomial(units []uint16) int32 {
	h := djbSeed
	for _, c := range units {
		h = (h << 5) + h + int32(c)
	}
	return h
}

// hashPolynomialAlt is h*127 xor c on a signed accumulator.
func hashPolynomialAlt(units []uint16) int32 {
	h := altSeed
	for _, c := range units {
		h = ((h << 7) - h) ^ int32(c)
	}
	return h
}
