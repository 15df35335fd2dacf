package analyzer

import (
	"iter"
)

// Calculator turns fixed-size blocks of 16-bit PCM into per-band energies.
//
// A Calculator keeps one transform plan and one workspace for its whole
// life and overwrites the workspace on every call, so it must not be used
// from several goroutines at once. Use Clone to give each worker its own.
type Calculator struct {
	sampleRate   int
	windowLength int
	bands        []IndexBand
	policy       Policy
	backend      Backend
	window       string

	coeffs    []float64
	measure   func(complex128) float64
	transform transform
	buffer    []complex128
}

// Process returns the band energies of one block.
//
// Blocks shorter than the window length are zero padded and samples past
// the window length are ignored; neither case is an error.
func (c *Calculator) Process(samples []int16) Energies {
	n := min(len(samples), c.windowLength)
	for i, s := range samples[:n] {
		c.buffer[i] = complex(float64(s), 0)
	}
	clear(c.buffer[n:])
	return c.run()
}

// ProcessSeq is Process for a sequence that can only be traversed once.
// At most one window length of values is consumed.
func (c *Calculator) ProcessSeq(seq iter.Seq[int16]) Energies {
	n := 0
	for s := range seq {
		c.buffer[n] = complex(float64(s), 0)
		n++
		if n == c.windowLength {
			break
		}
	}
	clear(c.buffer[n:])
	return c.run()
}

// Spectrum returns the per-bin values the energy policy sees for one block,
// for plotting. Unlike Process it allocates a slice of window length.
func (c *Calculator) Spectrum(samples []int16) []float64 {
	c.Process(samples)
	out := make([]float64, c.windowLength)
	for i, v := range c.buffer {
		out[i] = c.measure(v)
	}
	return out
}

func (c *Calculator) run() Energies {
	if c.coeffs != nil {
		for i, w := range c.coeffs {
			c.buffer[i] *= complex(w, 0)
		}
	}
	c.transform.forward(c.buffer)

	energies := make(Energies, len(c.bands))
	for i, band := range c.bands {
		sum := 0.0
		for _, v := range c.buffer[band.Start:band.End] {
			sum += c.measure(v)
		}
		energies[i] = sum
	}
	return energies
}

// Clone returns a Calculator with the same configuration and its own plan
// and workspace. Band ranges and window coefficients are shared read-only.
func (c *Calculator) Clone() *Calculator {
	return &Calculator{
		sampleRate:   c.sampleRate,
		windowLength: c.windowLength,
		bands:        c.bands,
		policy:       c.policy,
		backend:      c.backend,
		window:       c.window,
		coeffs:       c.coeffs,
		measure:      c.measure,
		transform:    newTransform(c.backend, c.windowLength),
		buffer:       make([]complex128, c.windowLength),
	}
}

// Bands returns a copy of the bin ranges energies are summed over.
func (c *Calculator) Bands() []IndexBand {
	out := make([]IndexBand, len(c.bands))
	copy(out, c.bands)
	return out
}

func (c *Calculator) WindowLength() int { return c.windowLength }
func (c *Calculator) SampleRate() int   { return c.sampleRate }
func (c *Calculator) Policy() Policy    { return c.policy }
func (c *Calculator) Backend() Backend  { return c.backend }

// BinResolution returns the width of one bin in Hz.
func (c *Calculator) BinResolution() float64 {
	return float64(c.sampleRate) / float64(c.windowLength)
}
