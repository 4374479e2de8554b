package terrain

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"
)

// Band is one terrain region: every sample at or below Height (and above the previous band) gets Color.
type Band struct {
	Name   string
	Height float64
	Color  color.RGBA
}

// Bands is an ordered region table. Classification scans it in list order,
// so it must be sorted ascending by Height to classify correctly.
type Bands []Band

// Sorted reports whether the bands are in ascending Height order.
func (b Bands) Sorted() bool {
	return sort.SliceIsSorted(b, func(i, j int) bool { return b[i].Height < b[j].Height })
}

// SortedCopy returns the bands stable-sorted ascending by Height.
func (b Bands) SortedCopy() Bands {
	out := make(Bands, len(b))
	copy(out, b)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Height < out[j].Height })
	return out
}

// Match returns the index of the first band whose Height is >= h.
func (b Bands) Match(h float64) (int, bool) {
	for i := range b {
		if h <= b[i].Height {
			return i, true
		}
	}
	return -1, false
}

// DefaultBands is the classic eight-region table: deep water through snow.
func DefaultBands() Bands {
	return Bands{
		{Name: "Water Deep", Height: 0.3, Color: color.RGBA{R: 0x1e, G: 0x3c, B: 0x8c, A: 0xff}},
		{Name: "Water Shallow", Height: 0.4, Color: color.RGBA{R: 0x36, G: 0x64, B: 0xc4, A: 0xff}},
		{Name: "Sand", Height: 0.45, Color: color.RGBA{R: 0xd2, G: 0xd0, B: 0x7d, A: 0xff}},
		{Name: "Grass", Height: 0.55, Color: color.RGBA{R: 0x56, G: 0x98, B: 0x1b, A: 0xff}},
		{Name: "Grass 2", Height: 0.6, Color: color.RGBA{R: 0x3e, G: 0x6b, B: 0x13, A: 0xff}},
		{Name: "Rock", Height: 0.7, Color: color.RGBA{R: 0x5a, G: 0x45, B: 0x3c, A: 0xff}},
		{Name: "Rock 2", Height: 0.9, Color: color.RGBA{R: 0x4b, G: 0x3c, B: 0x35, A: 0xff}},
		{Name: "Snow", Height: 1.0, Color: color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
	}
}

// ParseHexColor parses "#rrggbb" or "#rrggbbaa".
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("color %q: want #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// HexColor formats c as "#rrggbb", appending alpha only when it is not opaque.
func HexColor(c color.RGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
