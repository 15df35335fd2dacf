package params

import (
	"strconv"
	"strings"

	"github.com/guidoenr/parsons/internal/analyzer"
)

// Parameters holds everything needed to turn audio into a contour.
type Parameters struct {
	Bands          []analyzer.FrequencyBand
	WindowLength   int
	NotesPerSecond int
	Normalize      bool
	Policy         analyzer.Policy
	Backend        analyzer.Backend
	Window         string
	PlotMode       string
	PlotWindow     int
	WebPort        int // 0 disables the web server
	Color          bool
}

// Plot modes.
const (
	PlotNone     = ""
	PlotSpectrum = "spectrum"
	PlotEnergies = "energies"
)

// DefaultBands returns the stock band layout: five 100 Hz bands up to
// 500 Hz, two 200 Hz bands up to 900 Hz and one wide band up to 5 kHz.
func DefaultBands() []analyzer.FrequencyBand {
	return []analyzer.FrequencyBand{
		{Start: 0, End: 100},
		{Start: 100, End: 200},
		{Start: 200, End: 300},
		{Start: 300, End: 400},
		{Start: 400, End: 500},
		{Start: 500, End: 700},
		{Start: 700, End: 900},
		{Start: 900, End: 5000},
	}
}

// Defaults returns the parameters used when nothing is overridden.
func Defaults() Parameters {
	return Parameters{
		Bands:          DefaultBands(),
		WindowLength:   512,
		NotesPerSecond: 4,
		Normalize:      true,
		Policy:         analyzer.PolicyAbsReal,
		Backend:        analyzer.BackendGonum,
		Window:         "rectangular",
		PlotWindow:     0,
		Color:          true,
	}
}

// Environment variables read by ApplyEnv.
const (
	EnvWindow         = "PARSONS_WINDOW"
	EnvNotesPerSecond = "PARSONS_NOTES_PER_SECOND"
	EnvBands          = "PARSONS_BANDS"
	EnvPolicy         = "PARSONS_POLICY"
	EnvBackend        = "PARSONS_BACKEND"
	EnvWindowFunc     = "PARSONS_WINDOW_FUNC"
	EnvNormalize      = "PARSONS_NORMALIZE"
	EnvWebPort        = "PARSONS_WEB_PORT"
)

// ApplyEnv overrides fields from the variables lookup knows about.
// os.LookupEnv is the usual lookup; LoadEnvFile provides one backed by a
// .env file.
func (p *Parameters) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvWindow); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return analyzer.Errorf("window_length", "%s=%q is not an integer", EnvWindow, v)
		}
		p.WindowLength = n
	}
	if v, ok := lookup(EnvNotesPerSecond); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return analyzer.Errorf("notes_per_second", "%s=%q is not an integer", EnvNotesPerSecond, v)
		}
		p.NotesPerSecond = n
	}
	if v, ok := lookup(EnvBands); ok && strings.TrimSpace(v) != "" {
		bands, err := LoadBands(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		p.Bands = bands
	}
	if v, ok := lookup(EnvPolicy); ok {
		policy, err := analyzer.ParsePolicy(v)
		if err != nil {
			return err
		}
		p.Policy = policy
	}
	if v, ok := lookup(EnvBackend); ok {
		backend, err := analyzer.ParseBackend(v)
		if err != nil {
			return err
		}
		p.Backend = backend
	}
	if v, ok := lookup(EnvWindowFunc); ok {
		p.Window = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvNormalize); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return analyzer.Errorf("normalize", "%s=%q is not a boolean", EnvNormalize, v)
		}
		p.Normalize = b
	}
	if v, ok := lookup(EnvWebPort); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return analyzer.Errorf("web_port", "%s=%q is not an integer", EnvWebPort, v)
		}
		p.WebPort = n
	}
	return nil
}

// Validate checks the fields that do not depend on the input's sample rate.
// Band layout against the window is checked once the rate is known, by
// analyzer.NewMapper.
func (p Parameters) Validate() error {
	if p.WindowLength <= 0 {
		return analyzer.Errorf("window_length", "must be positive, got %d", p.WindowLength)
	}
	if p.NotesPerSecond <= 0 {
		return analyzer.Errorf("notes_per_second", "must be positive, got %d", p.NotesPerSecond)
	}
	if len(p.Bands) == 0 {
		return analyzer.Errorf("bands", "at least one band is required")
	}
	for i, band := range p.Bands {
		if band.Start < 0 || band.End <= band.Start {
			return analyzer.Errorf("bands", "band %d: invalid range %d-%d Hz", i, band.Start, band.End)
		}
	}
	if _, err := analyzer.ParsePolicy(string(p.Policy)); err != nil {
		return err
	}
	if _, err := analyzer.ParseBackend(string(p.Backend)); err != nil {
		return err
	}
	switch p.PlotMode {
	case PlotNone, PlotSpectrum, PlotEnergies:
	default:
		return analyzer.Errorf("plot", "unknown plot mode %q", p.PlotMode)
	}
	if p.PlotWindow < 0 {
		return analyzer.Errorf("plot_window", "must not be negative, got %d", p.PlotWindow)
	}
	if p.WebPort < 0 || p.WebPort > 65535 {
		return analyzer.Errorf("web_port", "out of range: %d", p.WebPort)
	}
	return nil
}

// MapperOptions translates the analysis settings into mapper options. Names
// the analyzer does not know are passed through so NewMapper reports them.
func (p Parameters) MapperOptions() []analyzer.Option {
	policy, err := analyzer.ParsePolicy(string(p.Policy))
	if err != nil {
		policy = p.Policy
	}
	backend, err := analyzer.ParseBackend(string(p.Backend))
	if err != nil {
		backend = p.Backend
	}
	return []analyzer.Option{
		analyzer.WithPolicy(policy),
		analyzer.WithBackend(backend),
		analyzer.WithWindow(p.Window),
	}
}
