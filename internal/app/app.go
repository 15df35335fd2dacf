package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/guidoenr/parsons/internal/analyzer"
	"github.com/guidoenr/parsons/internal/audio"
	"github.com/guidoenr/parsons/internal/contour"
	"github.com/guidoenr/parsons/internal/params"
)

// Config configures the application runtime.
type Config struct {
	Params params.Parameters
	Log    *log.Logger
	// Profile is a CSV path for per-stage timings; empty disables profiling.
	Profile string
	// Interactive enables q/Esc to stop a live run.
	Interactive bool
}

// App turns audio sources into contours using one fixed parameter set.
// Calculators are cached per sample rate and are not shared between
// goroutines, so Analyze and RunLive calls must not overlap.
type App struct {
	cfg      Config
	params   params.Parameters
	log      *log.Logger
	profiler *profiler

	mu          sync.Mutex
	calculators map[int]*analyzer.Calculator
}

// Result is everything produced by one Analyze call.
type Result struct {
	SampleRate   int                      `json:"sample_rate"`
	WindowLength int                      `json:"window_length"`
	GroupSize    int                      `json:"group_size"`
	Bands        []analyzer.FrequencyBand `json:"bands"`
	Windows      []analyzer.Energies      `json:"windows"`
	Notes        []analyzer.Energies      `json:"notes"`
	Dominants    []int                    `json:"dominants"`
	Contour      string                   `json:"contour"`
}

// New validates the parameters and constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stderr, "[parsons] ", 0)
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	return &App{
		cfg:         cfg,
		params:      cfg.Params,
		log:         cfg.Log,
		profiler:    newProfiler(cfg.Profile, cfg.Log),
		calculators: make(map[int]*analyzer.Calculator),
	}, nil
}

// Params returns the parameters the App was built with.
func (a *App) Params() params.Parameters {
	return a.params
}

// Close flushes the profile, if any.
func (a *App) Close() error {
	return a.profiler.Close()
}

// Calculator returns the calculator for sampleRate, building it on first use.
// Band layout problems surface here as *analyzer.ConfigError.
func (a *App) Calculator(sampleRate int) (*analyzer.Calculator, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok := a.calculators[sampleRate]; ok {
		return c, nil
	}
	m, err := analyzer.NewMapper(a.params.Bands, sampleRate, a.params.WindowLength, a.params.MapperOptions()...)
	if err != nil {
		return nil, err
	}
	c := m.Build()
	a.calculators[sampleRate] = c
	a.log.Printf("calculator ready: %d Hz, %d-sample windows, %.2f Hz per bin, %s/%s",
		sampleRate, c.WindowLength(), c.BinResolution(), c.Policy(), c.Backend())
	return c, nil
}

// Analyze reads src to the end and encodes its contour. ctx is checked
// between windows.
func (a *App) Analyze(ctx context.Context, src audio.Source) (*Result, error) {
	calc, err := a.Calculator(src.SampleRate())
	if err != nil {
		return nil, err
	}
	groupSize, err := contour.GroupSize(src.SampleRate(), a.params.WindowLength, a.params.NotesPerSecond)
	if err != nil {
		return nil, err
	}

	a.profiler.beginRun()
	var windows []analyzer.Energies
	for block, err := range audio.Windows(src, a.params.WindowLength) {
		if err != nil {
			return nil, fmt.Errorf("read audio: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		windows = append(windows, calc.Process(block))
	}
	a.profiler.mark("process")
	if len(windows) == 0 {
		return nil, fmt.Errorf("analyze: no samples: %w", contour.ErrEmptySequence)
	}

	res, err := a.encode(windows, groupSize)
	if err != nil {
		return nil, err
	}
	res.SampleRate = src.SampleRate()
	res.WindowLength = a.params.WindowLength
	a.profiler.endRun()

	a.log.Printf("analyzed %d windows into %d notes (group of %d)", len(res.Windows), len(res.Notes), groupSize)
	return res, nil
}

func (a *App) encode(windows []analyzer.Energies, groupSize int) (*Result, error) {
	weighted := windows
	if a.params.Normalize {
		var err error
		weighted, err = contour.NormalizeBandwidth(windows, a.params.Bands)
		if err != nil {
			return nil, err
		}
		a.profiler.mark("normalize")
	}

	notes, err := contour.Aggregate(weighted, groupSize)
	if err != nil {
		return nil, err
	}
	a.profiler.mark("aggregate")

	dominants := contour.Dominants(notes)
	code, err := contour.EncodeDominants(dominants)
	if err != nil {
		return nil, err
	}
	a.profiler.mark("encode")

	return &Result{
		GroupSize: groupSize,
		Bands:     a.params.Bands,
		Windows:   windows,
		Notes:     notes,
		Dominants: dominants,
		Contour:   code,
	}, nil
}

// AnalyzeFile opens path and runs Analyze on it.
func (a *App) AnalyzeFile(ctx context.Context, path string) (*Result, error) {
	src, err := audio.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	a.log.Printf("decoding %s: %d Hz, %d channel(s), %d bit", path, src.SampleRate(), src.Channels(), src.BitDepth())
	res, err := a.Analyze(ctx, src)
	if err != nil {
		var decErr *audio.DecodeError
		if errors.As(err, &decErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}
