package terrain

import (
	"image/color"
	"testing"

	"lodterrain/internal/noise"
)

var (
	blue  = color.RGBA{B: 0xff, A: 0xff}
	green = color.RGBA{G: 0xff, A: 0xff}
	white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

func testBands() Bands {
	return Bands{
		{Name: "water", Height: 0.4, Color: blue},
		{Name: "grass", Height: 0.7, Color: green},
		{Name: "snow", Height: 0.9, Color: white},
	}
}

func gridOf(t *testing.T, w, h int, values ...float64) *noise.HeightGrid {
	t.Helper()
	g, err := noise.NewHeightGrid(w, h, values)
	if err != nil {
		t.Fatalf("NewHeightGrid: %v", err)
	}
	return g
}

func TestClassifyFirstMatchingBand(t *testing.T) {
	g := gridOf(t, 3, 2,
		0.0, 0.4, 0.41,
		0.7, 0.9, 0.95,
	)
	cg := Classify(g, testBands())

	want := [][]int{
		{0, 0, 1},
		{1, 2, Unassigned},
	}
	for y := range want {
		for x, w := range want[y] {
			if got := cg.BandAt(x, y); got != w {
				t.Errorf("BandAt(%d,%d) = %d, want %d", x, y, got, w)
			}
		}
	}
}

// A sample exactly on a bound belongs to that band, not the next one.
func TestClassifyBoundIsInclusive(t *testing.T) {
	bands := testBands()
	for i, b := range bands {
		got, ok := bands.Match(b.Height)
		if !ok || got != i {
			t.Errorf("Match(%v) = %d,%v want %d", b.Height, got, ok, i)
		}
	}
}

func TestClassifyUnassignedKeepsNoColor(t *testing.T) {
	cg := Classify(gridOf(t, 2, 1, 0.2, 5.0), testBands())
	if c, ok := cg.At(0, 0); !ok || c != blue {
		t.Errorf("At(0,0) = %v,%v want blue", c, ok)
	}
	if _, ok := cg.At(1, 0); ok {
		t.Error("sample above every bound should stay unassigned")
	}
	if n := cg.UnassignedCount(); n != 1 {
		t.Errorf("UnassignedCount = %d, want 1", n)
	}
	magenta := color.RGBA{R: 0xff, B: 0xff, A: 0xff}
	px := cg.Pixels(magenta)
	if px[0] != blue || px[1] != magenta {
		t.Errorf("Pixels = %v", px)
	}
}

func TestClassifyScansInListOrder(t *testing.T) {
	// Unsorted tables are not repaired here: the first listed match wins.
	unsorted := Bands{
		{Name: "snow", Height: 0.9, Color: white},
		{Name: "water", Height: 0.4, Color: blue},
	}
	if unsorted.Sorted() {
		t.Fatal("table should report unsorted")
	}
	cg := Classify(gridOf(t, 1, 1, 0.1), unsorted)
	if c, _ := cg.At(0, 0); c != white {
		t.Errorf("unsorted table classified 0.1 as %v, want the first listed band", c)
	}

	sorted := unsorted.SortedCopy()
	if !sorted.Sorted() || sorted[0].Name != "water" {
		t.Errorf("SortedCopy = %+v", sorted)
	}
	if unsorted[0].Name != "snow" {
		t.Error("SortedCopy must not modify the receiver")
	}
}

func TestDefaultBandsSorted(t *testing.T) {
	b := DefaultBands()
	if !b.Sorted() {
		t.Fatal("default bands must be ascending")
	}
	if b[len(b)-1].Height < 1 {
		t.Error("default bands should cover locally normalized heights up to 1")
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		err  bool
	}{
		{"#1e3c8c", color.RGBA{R: 0x1e, G: 0x3c, B: 0x8c, A: 0xff}, false},
		{"ffffff80", color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x80}, false},
		{"#abc", color.RGBA{}, true},
		{"#zzzzzz", color.RGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseHexColor(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHexColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !tt.err {
			if back, _ := ParseHexColor(HexColor(got)); back != got {
				t.Errorf("HexColor(%v) does not parse back", got)
			}
		}
	}
}
