// Package measure provides grapheme-cluster-aware text measurement: how
// many terminal cells a string occupies, and how to split it at cell
// boundaries without cutting a cluster in half.
package measure

import (
	"github.com/clipperhouse/displaywidth"
	"github.com/clipperhouse/uax29/v2/graphemes"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mattn/go-runewidth"
)

// AmbiguousWidthTable selects which ambiguous-width table resolves East
// Asian "ambiguous" characters, since terminals disagree on whether these
// render as one or two cells.
type AmbiguousWidthTable int

const (
	// AmbiguousNarrow treats ambiguous-width runes as one cell, matching
	// clipperhouse/displaywidth's default table.
	AmbiguousNarrow AmbiguousWidthTable = iota
	// AmbiguousWide treats ambiguous-width runes as two cells, using
	// mattn/go-runewidth's EastAsianWidth mode.
	AmbiguousWide
)

// Capabilities describes the terminal-dependent choices that affect
// measurement.
type Capabilities struct {
	AmbiguousWidth AmbiguousWidthTable
	// CacheSize bounds the measurement memoization cache. Zero uses a
	// default suitable for interactive use.
	CacheSize int
}

// DefaultCapabilities returns narrow ambiguous-width handling with a
// generously sized cache.
func DefaultCapabilities() Capabilities {
	return Capabilities{AmbiguousWidth: AmbiguousNarrow, CacheSize: 4096}
}

// Measurer measures grapheme-cluster-segmented text in terminal cells,
// memoizing results per input string.
type Measurer struct {
	caps        Capabilities
	cache       *lru.Cache[string, int]
	runewidthFn func(string) int
}

// NewMeasurer constructs a Measurer for the given terminal capabilities.
func NewMeasurer(caps Capabilities) *Measurer {
	if caps.CacheSize <= 0 {
		caps.CacheSize = 4096
	}
	cache, _ := lru.New[string, int](caps.CacheSize)
	m := &Measurer{caps: caps, cache: cache}
	if caps.AmbiguousWidth == AmbiguousWide {
		cond := runewidth.NewCondition()
		cond.EastAsianWidth = true
		m.runewidthFn = cond.StringWidth
	}
	return m
}

// Graphemes splits s into its grapheme clusters, the unit a cursor moves
// over and the unit layout must never split mid-cluster.
func (m *Measurer) Graphemes(s string) []string {
	var out []string
	seg := graphemes.FromString(s)
	for seg.Next() {
		out = append(out, seg.Value())
	}
	return out
}

// Width reports the terminal cell width of s, summing each grapheme
// cluster's width. Results are memoized per distinct string value.
func (m *Measurer) Width(s string) int {
	if s == "" {
		return 0
	}
	if w, ok := m.cache.Get(s); ok {
		return w
	}
	w := 0
	seg := graphemes.FromString(s)
	for seg.Next() {
		w += m.clusterWidth(seg.Value())
	}
	m.cache.Add(s, w)
	return w
}

// clusterWidth returns one grapheme cluster's cell width: 0 for combining
// marks and other zero-width sequences the segmenter folds into the
// cluster, 1 for ordinary narrow runes, 2 for wide/CJK runes.
func (m *Measurer) clusterWidth(cluster string) int {
	if m.runewidthFn != nil {
		return m.runewidthFn(cluster)
	}
	return displaywidth.String(cluster)
}

// Truncate returns the longest prefix of s whose width is <= maxWidth,
// cutting only at grapheme cluster boundaries.
func (m *Measurer) Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if m.Width(s) <= maxWidth {
		return s
	}
	var b []byte
	w := 0
	seg := graphemes.FromString(s)
	for seg.Next() {
		cluster := seg.Value()
		cw := m.clusterWidth(cluster)
		if w+cw > maxWidth {
			break
		}
		b = append(b, cluster...)
		w += cw
	}
	return string(b)
}

// SliceByColumn returns the grapheme clusters of s whose cell columns fall
// within [startCol, startCol+count), used to scroll a viewport by column
// without splitting a wide rune's trailing cell.
func (m *Measurer) SliceByColumn(s string, startCol, count int) string {
	if count <= 0 {
		return ""
	}
	var b []byte
	col := 0
	endCol := startCol + count
	seg := graphemes.FromString(s)
	for seg.Next() {
		cluster := seg.Value()
		cw := m.clusterWidth(cluster)
		clusterEnd := col + cw
		if clusterEnd > startCol && col < endCol {
			b = append(b, cluster...)
		}
		col = clusterEnd
		if col >= endCol {
			break
		}
	}
	return string(b)
}
