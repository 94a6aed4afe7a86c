package calendar

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, p Palette) *Engine {
	t.Helper()
	e, err := NewEngine(p)
	require.NoError(t, err)
	return e
}

func TestNewEngine_EmptyPalette(t *testing.T) {
	_, err := NewEngine(nil)
	assert.ErrorIs(t, err, ErrEmptyPalette)
}

func TestNewEngine_CopiesPalette(t *testing.T) {
	p := Palette{{Background: "#111"}, {Background: "#222"}}
	e := newTestEngine(t, p)

	p[0].Background = "#changed"
	p[1].Background = "#changed"

	assert.NotEqual(t, "#changed", e.ColorOf("any").Background)
}

func TestHash_EmptyKeyYieldsSeeds(t *testing.T) {
	want := int64(fnvOffset) + int64(djbSeed)*31 + int64(altSeed)*37
	assert.Equal(t, want, Hash(""))
}

func TestHash_NeverNegative(t *testing.T) {
	keys := []string{"", " ", "   \t\n", "a", "ação", "日本語のキー", "🙂🙂🙂", strings.Repeat("x", 20000)}
	for _, k := range keys {
		assert.GreaterOrEqual(t, Hash(k), int64(0), "key %q", k)
	}
}

func TestCombine(t *testing.T) {
	assert.Equal(t, int64(1+2*31+3*37), Combine(1, 2, 3))
	assert.Equal(t, int64(1+2*31+3*37), Combine(-1, -2, -3))
	assert.Equal(t, int64(0), Combine(0, 0, 0))
}

func TestGoldenIndex(t *testing.T) {
	testCases := []struct {
		v    int64
		n    int
		want int
	}{
		{v: 0, n: 10, want: 0},
		{v: 1, n: 10, want: 6}, // frac(1.618) = 0.618
		{v: 2, n: 10, want: 2}, // frac(3.236) = 0.236
		{v: 3, n: 10, want: 8}, // frac(4.854) = 0.854
		{v: 12345, n: 1, want: 0},
		{v: 12345, n: 0, want: 0},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d_mod_%d", tc.v, tc.n), func(t *testing.T) {
			assert.Equal(t, tc.want, GoldenIndex(tc.v, tc.n))
		})
	}
}

func TestGoldenIndex_SpreadsSequentialInputs(t *testing.T) {
	n := 16
	adjacent := 0
	for v := int64(0); v < 1000; v++ {
		a := GoldenIndex(v, n)
		b := GoldenIndex(v+1, n)
		if a == b {
			adjacent++
		}
	}
	// A plain modulo would keep runs together; golden ratio hashing never repeats consecutively often.
	assert.Less(t, adjacent, 100)
}

func TestEngine_Deterministic(t *testing.T) {
	e1 := newTestEngine(t, DefaultPalette())
	e2 := newTestEngine(t, DefaultPalette())

	keys := []string{"", "Reunião|3|7|09:00|10:00|Planejamento", "x", strings.Repeat("long", 5000)}
	for _, k := range keys {
		assert.Equal(t, e1.ColorOf(k), e1.ColorOf(k))
		assert.Equal(t, e1.ColorOf(k), e2.ColorOf(k))
		assert.Equal(t, e1.SeriesColor(k), e2.SeriesColor(k))
	}
}

func TestEngine_IndexInRange(t *testing.T) {
	for _, size := range []int{1, 2, 3, 7, 16, 100} {
		p := make(Palette, size)
		e := newTestEngine(t, p)
		for i := 0; i < 500; i++ {
			k := fmt.Sprintf("key-%d", i)
			idx := e.Index(k)
			assert.True(t, idx >= 0 && idx < size, "index %d out of range for size %d", idx, size)
			sidx := e.SeriesIndex(k)
			assert.True(t, sidx >= 0 && sidx < size, "series index %d out of range for size %d", sidx, size)
		}
	}
}

func TestEngine_NoPanicOnOddKeys(t *testing.T) {
	e := newTestEngine(t, DefaultPalette())
	keys := []string{"", " ", "\x00", "\xff\xfe", "ñ", "🎉", strings.Repeat("a", 10001)}
	for _, k := range keys {
		assert.NotPanics(t, func() {
			e.ColorOf(k)
			e.SeriesColor(k)
		})
	}
}

func TestEngine_Distribution(t *testing.T) {
	e := newTestEngine(t, DefaultPalette())
	n := e.Size()
	samples := 16000
	counts := make([]int, n)
	seriesCounts := make([]int, n)
	for i := 0; i < samples; i++ {
		k := fmt.Sprintf("Aula %d|espaco-%d|user-%d|08:00|09:00|turma", i, i%7, i%13)
		counts[e.Index(k)]++
		seriesCounts[e.SeriesIndex(k)]++
	}

	expected := samples / n
	for i := 0; i < n; i++ {
		assert.InDelta(t, expected, counts[i], float64(expected)/2, "bucket %d", i)
		assert.InDelta(t, expected, seriesCounts[i], float64(expected)/2, "series bucket %d", i)
	}
}

func TestEngine_Avalanche(t *testing.T) {
	e := newTestEngine(t, DefaultPalette())
	n := e.Size()

	base := "Reunião|3|7|09:00|10:00|Planejamento"
	pairs := 0
	near := 0
	for i := 0; i < len(base); i++ {
		for _, r := range "abcXYZ019" {
			mutated := []rune(base)
			if i >= len(mutated) || mutated[i] == r {
				continue
			}
			mutated[i] = r
			a := e.SeriesIndex(base)
			b := e.SeriesIndex(string(mutated))

			d := a - b
			if d < 0 {
				d = -d
			}
			if d > n/2 {
				d = n - d
			}
			if d <= 1 {
				near++
			}
			pairs++
		}
	}

	require.Greater(t, pairs, 100)
	// Random placement lands within distance 1 about 3/16 of the time.
	assert.Less(t, float64(near)/float64(pairs), 0.4)
}

func TestLoadPalette(t *testing.T) {
	t.Run("empty path returns default", func(t *testing.T) {
		p, past, err := LoadPalette("")
		require.NoError(t, err)
		assert.Equal(t, DefaultPalette(), p)
		assert.Equal(t, PastColor, past)
	})

	t.Run("missing file returns default", func(t *testing.T) {
		p, _, err := LoadPalette(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Len(t, p, len(DefaultPalette()))
	})

	t.Run("custom palette and past color", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "palette.yaml")
		content := `
colors:
  - background: "#000000"
    foreground: "#ffffff"
    border_accent: "#777777"
  - background: "#111111"
    foreground: "#eeeeee"
    border_accent: "#888888"
past:
  background: "#cccccc"
  foreground: "#333333"
  border_accent: "#999999"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		p, past, err := LoadPalette(path)
		require.NoError(t, err)
		require.Len(t, p, 2)
		assert.Equal(t, "#777777", p[0].BorderAccent)
		assert.Equal(t, "#cccccc", past.Background)
	})

	t.Run("file without colors is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "palette.yaml")
		require.NoError(t, os.WriteFile(path, []byte("colors: []\n"), 0o644))

		_, _, err := LoadPalette(path)
		assert.ErrorIs(t, err, ErrEmptyPalette)
	})
}
