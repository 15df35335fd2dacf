package render

import (
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/guidoenr/parsons/internal/analyzer"
)

func TestLinePlotShape(t *testing.T) {
	r, err := New(4, 4, "ascii", false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	frame := r.Line([]float64{0, 1, 2, 4})
	want := []string{
		"   @",
		"   @",
		"  @@",
		" @@@",
	}
	if !slices.Equal(frame.Lines, want) {
		t.Fatalf("lines=%q want=%q", frame.Lines, want)
	}
	if !strings.Contains(frame.Status, "max 4") {
		t.Fatalf("status=%q", frame.Status)
	}
}

func TestLinePlotResamplesKeepsPeaks(t *testing.T) {
	values := make([]float64, 100)
	values[37] = 5
	cols := resample(values, 10)
	if len(cols) != 10 || cols[3] != 5 {
		t.Fatalf("resample=%v want peak in column 3", cols)
	}
	if got := resample(values[:4], 10); len(got) != 4 {
		t.Fatalf("short input resampled to %d columns", len(got))
	}
}

func TestLinePlotHandlesFlatAndNegativeInput(t *testing.T) {
	r, _ := New(5, 3, "blocks", false)
	for _, values := range [][]float64{nil, {0, 0, 0}, {-1, -2, -3}} {
		frame := r.Line(values)
		if len(frame.Lines) != 3 {
			t.Fatalf("values=%v: %d lines", values, len(frame.Lines))
		}
		for _, line := range frame.Lines {
			if line != "" {
				t.Fatalf("values=%v: non-empty line %q", values, line)
			}
		}
	}
}

func TestSpectrumStopsAtNyquist(t *testing.T) {
	r, _ := New(64, 8, "blocks", false)
	values := make([]float64, 16)
	values[3] = 10
	values[13] = 10 // mirror image above Nyquist
	frame := r.Spectrum(values, 500)
	if !strings.Contains(frame.Status, "9 bins") || !strings.Contains(frame.Status, "peak 1500 Hz") {
		t.Fatalf("status=%q", frame.Status)
	}
	if w := utf8.RuneCountInString(frame.Lines[len(frame.Lines)-1]); w != 4 {
		t.Fatalf("bottom row width=%d want=4 (trailing blanks trimmed)", w)
	}
}

func TestEnergiesHeatMap(t *testing.T) {
	r, _ := New(10, 10, "ascii", false)
	bands := []analyzer.FrequencyBand{{Start: 0, End: 100}, {Start: 100, End: 200}, {Start: 200, End: 900}}
	vectors := []analyzer.Energies{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0, 0, 0}}
	frame := r.Energies(vectors, bands)
	want := []string{
		"200-900 |  @ ",
		"100-200 | @  ",
		"  0-100 |@   ",
	}
	if !slices.Equal(frame.Lines, want) {
		t.Fatalf("lines=%q want=%q", frame.Lines, want)
	}
	if empty := r.Energies(nil, bands); len(empty.Lines) != 0 {
		t.Fatalf("empty input drew %d lines", len(empty.Lines))
	}
}

func TestEnergiesSubsamplesWideInput(t *testing.T) {
	r, _ := New(5, 4, "ascii", false)
	bands := []analyzer.FrequencyBand{{Start: 0, End: 100}}
	vectors := make([]analyzer.Energies, 20)
	for i := range vectors {
		vectors[i] = analyzer.Energies{1}
	}
	frame := r.Energies(vectors, bands)
	if frame.Lines[0] != "0-100 |@@@@@" {
		t.Fatalf("line=%q", frame.Lines[0])
	}
	if !strings.Contains(frame.Status, "showing every 4.0th") {
		t.Fatalf("status=%q", frame.Status)
	}
}

func TestANSIOutputIsReset(t *testing.T) {
	r, _ := New(3, 2, "blocks", true)
	frame := r.Line([]float64{1, 2, 3})
	for _, line := range frame.Lines {
		if !strings.HasPrefix(line, "\x1b[38;5;") || !strings.HasSuffix(line, resetANSI) {
			t.Fatalf("line %q is not wrapped in colour codes", line)
		}
	}
}

func TestNewRejectsTinyArea(t *testing.T) {
	if _, err := New(1, 10, "", false); err == nil {
		t.Fatalf("expected error for 1x10")
	}
	r, _ := New(10, 10, "", false)
	r.Resize(0, 5)
	if w, h := r.Size(); w != 10 || h != 10 {
		t.Fatalf("size=%dx%d after invalid resize", w, h)
	}
	if r.PaletteName() != "" || Palette("nope")[0] != ' ' {
		t.Fatalf("unexpected palette defaults")
	}
}

func TestPalettesStartBlank(t *testing.T) {
	for _, name := range PaletteNames() {
		p := Palette(name)
		if len(p) < 2 || p[0] != ' ' {
			t.Fatalf("palette %q=%q", name, string(p))
		}
	}
}

func TestRGBToANSI(t *testing.T) {
	cases := []struct {
		r, g, b float64
		want    int
	}{
		{0, 0, 0, 232},
		{1, 1, 1, 255},
		{1, 0, 0, 196},
		{0, 1, 0, 46},
		{0, 0, 1, 21},
	}
	for _, tc := range cases {
		if got := rgbToANSI(tc.r, tc.g, tc.b); got != tc.want {
			t.Fatalf("rgbToANSI(%v,%v,%v)=%d want=%d", tc.r, tc.g, tc.b, got, tc.want)
		}
	}
}

func TestColorContour(t *testing.T) {
	if got := ColorContour("*udr", false); got != "*udr" {
		t.Fatalf("disabled colouring changed code: %q", got)
	}
	got := ColorContour("*ud", true)
	if !strings.Contains(got, "\x1b[") {
		t.Fatalf("no escape codes in %q", got)
	}
	stripped := got
	for strings.Contains(stripped, "\x1b[") {
		i := strings.Index(stripped, "\x1b[")
		j := strings.IndexByte(stripped[i:], 'm')
		stripped = stripped[:i] + stripped[i+j+1:]
	}
	if stripped != "*ud" {
		t.Fatalf("stripped=%q want=%q", stripped, "*ud")
	}
}

func TestPolyline(t *testing.T) {
	pts := polyline([]float64{0, 5, 10}, 101, 11)
	want := []point{{0, 10}, {50, 5}, {100, 0}}
	if !slices.Equal(pts, want) {
		t.Fatalf("points=%v want=%v", pts, want)
	}
	flat := polyline([]float64{0, 0}, 10, 10)
	if flat[0].Y != 9 || flat[1].X != 9 {
		t.Fatalf("flat=%v", flat)
	}
	if polyline(nil, 10, 10) != nil {
		t.Fatalf("empty input produced points")
	}
}
