package analyzer

// FrequencyBand is a half-open frequency range [Start, End) in Hz.
// The order of bands in a configuration decides their index in every
// energy vector.
type FrequencyBand struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Width returns the band width in Hz.
func (b FrequencyBand) Width() int {
	return b.End - b.Start
}

// IndexBand is a half-open range [Start, End) of FFT bins.
type IndexBand struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bins covered by the band.
func (b IndexBand) Len() int {
	return b.End - b.Start
}

// binIndex converts a frequency to a bin index, truncating toward zero.
func binIndex(hz, sampleRate, windowLength int) int {
	return int(int64(hz) * int64(windowLength) / int64(sampleRate))
}

// ToIndexBand maps band onto the bins of a window of windowLength samples
// taken at sampleRate. It does not validate the result.
func ToIndexBand(band FrequencyBand, sampleRate, windowLength int) IndexBand {
	return IndexBand{
		Start: binIndex(band.Start, sampleRate, windowLength),
		End:   binIndex(band.End, sampleRate, windowLength),
	}
}

// Mapper holds a validated band configuration and builds Calculators from it.
type Mapper struct {
	sampleRate   int
	windowLength int
	bands        []IndexBand
	policy       Policy
	backend      Backend
	window       string
}

// Option customises a Mapper.
type Option func(*Mapper)

// WithPolicy selects how transformed bins are turned into energy.
func WithPolicy(p Policy) Option {
	return func(m *Mapper) { m.policy = p }
}

// WithBackend selects the FFT implementation.
func WithBackend(b Backend) Option {
	return func(m *Mapper) { m.backend = b }
}

// WithWindow applies a named analysis window to every block before the
// transform. The empty name and "rectangular" leave samples untouched.
func WithWindow(name string) Option {
	return func(m *Mapper) { m.window = name }
}

// NewMapper validates bands against sampleRate and windowLength and returns a
// Mapper ready to Build. Every problem is reported here as a *ConfigError so
// that processing never fails later.
func NewMapper(bands []FrequencyBand, sampleRate, windowLength int, opts ...Option) (*Mapper, error) {
	m := &Mapper{
		sampleRate:   sampleRate,
		windowLength: windowLength,
		policy:       PolicyAbsReal,
		backend:      BackendGonum,
	}
	for _, opt := range opts {
		opt(m)
	}

	if sampleRate <= 0 {
		return nil, Errorf("sample_rate", "must be positive, got %d", sampleRate)
	}
	if windowLength <= 0 {
		return nil, Errorf("window_length", "must be positive, got %d", windowLength)
	}
	if len(bands) == 0 {
		return nil, Errorf("bands", "at least one band is required")
	}
	if _, ok := measureFor(m.policy); !ok {
		return nil, Errorf("policy", "unknown energy policy %q", m.policy)
	}
	if !m.backend.valid() {
		return nil, Errorf("backend", "unknown fft backend %q", m.backend)
	}
	if _, err := windowCoefficients(m.window, windowLength); err != nil {
		return nil, err
	}

	m.bands = make([]IndexBand, len(bands))
	for i, band := range bands {
		if band.Start < 0 {
			return nil, Errorf("bands", "band %d starts below zero (%d Hz)", i, band.Start)
		}
		if band.End <= band.Start {
			return nil, Errorf("bands", "band %d is empty or reversed (%d-%d Hz)", i, band.Start, band.End)
		}
		idx := ToIndexBand(band, sampleRate, windowLength)
		if idx.End > windowLength {
			return nil, Errorf("bands", "band %d (%d-%d Hz) maps to bins %d-%d, beyond window length %d",
				i, band.Start, band.End, idx.Start, idx.End, windowLength)
		}
		m.bands[i] = idx
	}
	return m, nil
}

// IndexBands returns a copy of the derived bin ranges.
func (m *Mapper) IndexBands() []IndexBand {
	out := make([]IndexBand, len(m.bands))
	copy(out, m.bands)
	return out
}

// Build plans the transform and allocates the workspace for one Calculator.
func (m *Mapper) Build() *Calculator {
	measure, _ := measureFor(m.policy)
	coeffs, _ := windowCoefficients(m.window, m.windowLength)
	return &Calculator{
		sampleRate:   m.sampleRate,
		windowLength: m.windowLength,
		bands:        m.IndexBands(),
		policy:       m.policy,
		backend:      m.backend,
		window:       m.window,
		coeffs:       coeffs,
		measure:      measure,
		transform:    newTransform(m.backend, m.windowLength),
		buffer:       make([]complex128, m.windowLength),
	}
}
