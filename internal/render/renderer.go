package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/guidoenr/parsons/internal/analyzer"
	"gonum.org/v1/gonum/floats"
)

// Renderer draws spectra and band-energy sequences as text.
type Renderer struct {
	width       int
	height      int
	palette     []rune
	paletteName string
	useANSI     bool
}

// Frame contains the rendered lines and a one-line summary.
type Frame struct {
	Lines  []string
	Status string
}

// String joins the frame's lines and status for printing.
func (f Frame) String() string {
	var b strings.Builder
	for _, line := range f.Lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if f.Status != "" {
		b.WriteString(f.Status)
		b.WriteByte('\n')
	}
	return b.String()
}

var (
	resetANSI       = "\x1b[0m"
	precomputedANSI [256]string
)

func init() {
	for i := range precomputedANSI {
		precomputedANSI[i] = "\x1b[38;5;" + strconv.Itoa(i) + "m"
	}
}

// New creates a Renderer drawing into width x height cells.
func New(width, height int, paletteName string, useANSI bool) (*Renderer, error) {
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("render: plot area %dx%d is too small", width, height)
	}
	return &Renderer{
		width:       width,
		height:      height,
		palette:     Palette(paletteName),
		paletteName: paletteName,
		useANSI:     useANSI,
	}, nil
}

// Resize changes the plot area; sizes below 2x2 are ignored.
func (r *Renderer) Resize(width, height int) {
	if width < 2 || height < 2 {
		return
	}
	r.width = width
	r.height = height
}

func (r *Renderer) PaletteName() string { return r.paletteName }
func (r *Renderer) Size() (int, int)    { return r.width, r.height }

// Spectrum plots per-bin values of one window up to the Nyquist bin. binHz
// is the frequency step between bins.
func (r *Renderer) Spectrum(values []float64, binHz float64) Frame {
	half := values[:min(len(values), len(values)/2+1)]
	frame := r.Line(half)
	if len(half) == 0 {
		frame.Status = "spectrum: empty window"
		return frame
	}
	peak := floats.MaxIdx(half)
	frame.Status = fmt.Sprintf("spectrum | %d bins | %.1f Hz/bin | peak %.0f Hz (bin %d)",
		len(half), binHz, float64(peak)*binHz, peak)
	return frame
}

// Line draws values as vertical bars, one column per group of values.
func (r *Renderer) Line(values []float64) Frame {
	cols := resample(values, r.width)
	top := 0.0
	if len(cols) > 0 {
		top = floats.Max(cols)
	}

	steps := len(r.palette) - 1
	lines := make([]string, r.height)
	var b strings.Builder
	for row := 0; row < r.height; row++ {
		b.Reset()
		// Row 0 is the top of the plot.
		floor := float64(r.height-1-row) / float64(r.height)
		if r.useANSI {
			b.WriteString(colorCode(rowColor(row, r.height)))
		}
		for _, v := range cols {
			level := 0.0
			if top > 0 {
				level = math.Max(0, v) / top
			}
			fill := clamp01((level - floor) * float64(r.height))
			b.WriteRune(r.palette[int(math.Round(fill*float64(steps)))])
		}
		if r.useANSI {
			b.WriteString(resetANSI)
		}
		lines[row] = strings.TrimRight(b.String(), " ")
	}
	return Frame{Lines: lines, Status: fmt.Sprintf("%d values | max %.4g", len(values), top)}
}

// Energies draws a heat map of vectors: one column per vector, one row per
// band with the highest band on top. Each column is scaled to its own
// maximum so the dominant band always shows at full intensity.
func (r *Renderer) Energies(vectors []analyzer.Energies, bands []analyzer.FrequencyBand) Frame {
	if len(vectors) == 0 || len(bands) == 0 {
		return Frame{Status: "energies: nothing to plot"}
	}
	cols := min(len(vectors), r.width)
	label := labelWidth(bands)
	steps := len(r.palette) - 1

	lines := make([]string, len(bands))
	var b strings.Builder
	for row := range bands {
		band := len(bands) - 1 - row
		b.Reset()
		fmt.Fprintf(&b, "%*s |", label, bandLabel(bands[band]))
		for c := 0; c < cols; c++ {
			v := vectors[c*len(vectors)/cols]
			level := 0.0
			if band < len(v) {
				if top := floats.Max(v); top > 0 {
					level = clamp01(v[band] / top)
				}
			}
			glyph := r.palette[int(math.Round(level*float64(steps)))]
			if r.useANSI && level > 0 {
				b.WriteString(colorCode(rgbToANSI(hsvToRGB(0.66-0.66*level, 0.8, 0.4+0.6*level))))
				b.WriteRune(glyph)
				b.WriteString(resetANSI)
				continue
			}
			b.WriteRune(glyph)
		}
		lines[row] = b.String()
	}
	status := fmt.Sprintf("energies | %d vectors x %d bands", len(vectors), len(bands))
	if cols < len(vectors) {
		status += fmt.Sprintf(" | showing every %.1fth", float64(len(vectors))/float64(cols))
	}
	return Frame{Lines: lines, Status: status}
}

// resample reduces values to at most width columns, keeping the maximum of
// each group so narrow peaks stay visible.
func resample(values []float64, width int) []float64 {
	if len(values) <= width {
		return values
	}
	out := make([]float64, width)
	for c := range out {
		lo := c * len(values) / width
		hi := max(lo+1, (c+1)*len(values)/width)
		out[c] = floats.Max(values[lo:hi])
	}
	return out
}

func bandLabel(b analyzer.FrequencyBand) string {
	return strconv.Itoa(b.Start) + "-" + strconv.Itoa(b.End)
}

func labelWidth(bands []analyzer.FrequencyBand) int {
	w := 0
	for _, b := range bands {
		w = max(w, len(bandLabel(b)))
	}
	return w
}

func rowColor(row, height int) int {
	t := float64(row) / float64(max(1, height-1))
	return rgbToANSI(hsvToRGB(0.33*t, 0.85, 0.95))
}

func colorCode(index int) string {
	return precomputedANSI[max(0, min(len(precomputedANSI)-1, index))]
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h, s, v = clamp01(h), clamp01(s), clamp01(v)
	if s == 0 {
		return v, v, v
	}
	hv := h * 6
	i := math.Floor(hv)
	f := hv - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// rgbToANSI maps a colour to the xterm 256-colour cube, or to the grey ramp
// when the channels are nearly equal.
func rgbToANSI(r, g, b float64) int {
	r, g, b = clamp01(r), clamp01(g), clamp01(b)
	if math.Abs(r-g) < 0.02 && math.Abs(g-b) < 0.02 {
		return 232 + int(math.Round(r*23))
	}
	ri := int(r*5 + 0.5)
	gi := int(g*5 + 0.5)
	bi := int(b*5 + 0.5)
	return 16 + 36*ri + 6*gi + bi
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
