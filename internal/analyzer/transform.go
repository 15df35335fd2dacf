package analyzer

import (
	"fmt"
	"strings"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Backend names an FFT implementation.
type Backend string

const (
	// BackendGonum plans a gonum CmplxFFT once per Calculator and reuses it.
	BackendGonum Backend = "gonum"
	// BackendGoDSP calls go-dsp's FFT, which allocates its result on every
	// call and plans through go-dsp's package-level factor cache. It is kept
	// as a reference implementation for cross-checking.
	BackendGoDSP Backend = "godsp"
)

// ParseBackend resolves a backend name; the empty string selects gonum.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gonum":
		return BackendGonum, nil
	case "godsp", "go-dsp":
		return BackendGoDSP, nil
	default:
		return "", Errorf("backend", "unknown fft backend %q", name)
	}
}

func (b Backend) valid() bool {
	return b == BackendGonum || b == BackendGoDSP
}

// transform runs a forward FFT over buf in place.
type transform interface {
	forward(buf []complex128)
}

func newTransform(b Backend, n int) transform {
	if b == BackendGoDSP {
		return dspTransform{}
	}
	return &gonumTransform{plan: fourier.NewCmplxFFT(n)}
}

// gonumTransform owns the twiddle factors and work area of one plan.
type gonumTransform struct {
	plan *fourier.CmplxFFT
}

func (t *gonumTransform) forward(buf []complex128) {
	t.plan.Coefficients(buf, buf)
}

// dspTransform holds no plan; go-dsp caches twiddle factors globally.
type dspTransform struct{}

func (dspTransform) forward(buf []complex128) {
	copy(buf, fft.FFT(buf))
}

// WindowNames lists the analysis windows accepted by WithWindow.
func WindowNames() []string {
	return []string{"rectangular", "hann", "hamming", "blackman", "bartlett", "flattop"}
}

func windowCoefficients(name string, n int) ([]float64, error) {
	var gen func(int) []float64
	switch strings.ToLower(name) {
	case "", "rectangular", "none":
		return nil, nil
	case "hann", "hanning":
		gen = window.Hann
	case "hamming":
		gen = window.Hamming
	case "blackman":
		gen = window.Blackman
	case "bartlett":
		gen = window.Bartlett
	case "flattop":
		gen = window.FlatTop
	default:
		return nil, Errorf("window", "unknown window function %q", name)
	}
	if n < 2 {
		return nil, Errorf("window", "%s window needs at least 2 samples, got %d", name, n)
	}
	coeffs := gen(n)
	if len(coeffs) != n {
		return nil, fmt.Errorf("window %s: got %d coefficients for %d samples", name, len(coeffs), n)
	}
	return coeffs, nil
}
