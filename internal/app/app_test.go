package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/guidoenr/parsons/internal/analyzer"
	"github.com/guidoenr/parsons/internal/audio"
	"github.com/guidoenr/parsons/internal/contour"
	"github.com/guidoenr/parsons/internal/params"
)

const (
	testRate       = 8000
	samplesPerNote = 7680 // 15 windows of 512 at one note per second
)

// Every tone completes a whole number of cycles per 512-sample window, so
// each lands on a single bin: 16, 40, 40 and 22.
func testMelody() *Melody {
	return NewMelody(testRate, 0.3,
		Tone{Hz: 250, Samples: samplesPerNote},
		Tone{Hz: 625, Samples: samplesPerNote},
		Tone{Hz: 625, Samples: samplesPerNote},
		Tone{Hz: 343.75, Samples: samplesPerNote},
	)
}

func newTestApp(t *testing.T, mutate func(*params.Parameters)) *App {
	t.Helper()
	p := params.Defaults()
	p.NotesPerSecond = 1
	if mutate != nil {
		mutate(&p)
	}
	a, err := New(Config{Params: p, Log: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestAnalyzeMelody(t *testing.T) {
	a := newTestApp(t, nil)
	res, err := a.Analyze(context.Background(), testMelody())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.GroupSize != 15 || len(res.Windows) != 60 || len(res.Notes) != 4 {
		t.Fatalf("group=%d windows=%d notes=%d want=15,60,4", res.GroupSize, len(res.Windows), len(res.Notes))
	}
	if !slices.Equal(res.Dominants, []int{2, 5, 5, 3}) {
		t.Fatalf("dominants=%v want=[2 5 5 3]", res.Dominants)
	}
	if res.Contour != "*urd" {
		t.Fatalf("contour=%q want=%q", res.Contour, "*urd")
	}
	if res.SampleRate != testRate || res.WindowLength != 512 {
		t.Fatalf("rate=%d window=%d", res.SampleRate, res.WindowLength)
	}
}

func TestAnalyzeWithoutNormalization(t *testing.T) {
	a := newTestApp(t, func(p *params.Parameters) { p.Normalize = false })
	res, err := a.Analyze(context.Background(), testMelody())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Contour != "*urd" {
		t.Fatalf("contour=%q want=%q", res.Contour, "*urd")
	}
	// Without normalization notes are plain sums of the raw windows.
	want, _ := contour.Aggregate(res.Windows, res.GroupSize)
	for i := range want {
		if !slices.Equal(res.Notes[i], want[i]) {
			t.Fatalf("note %d=%v want=%v", i, res.Notes[i], want[i])
		}
	}
}

func TestAnalyzeShortInputStillEncodes(t *testing.T) {
	a := newTestApp(t, nil)
	res, err := a.Analyze(context.Background(), NewMelody(testRate, 0.3, Tone{Hz: 250, Samples: 700}))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Windows) != 2 || res.Contour != "*" {
		t.Fatalf("windows=%d contour=%q want=2,%q", len(res.Windows), res.Contour, "*")
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	a := newTestApp(t, nil)
	_, err := a.Analyze(context.Background(), audio.NewSliceSource(testRate, nil))
	if !errors.Is(err, contour.ErrEmptySequence) {
		t.Fatalf("err=%v want ErrEmptySequence", err)
	}
}

func TestAnalyzeHonoursCancellation(t *testing.T) {
	a := newTestApp(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Analyze(ctx, testMelody()); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}

func TestAnalyzeRejectsBandsBeyondWindow(t *testing.T) {
	a := newTestApp(t, func(p *params.Parameters) {
		p.Bands = []analyzer.FrequencyBand{{Start: 0, End: 100}, {Start: 100, End: 10000}}
	})
	_, err := a.Analyze(context.Background(), testMelody())
	var cfgErr *analyzer.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "bands" {
		t.Fatalf("err=%v want bands ConfigError", err)
	}
}

func TestAnalyzeRejectsTooManyNotesPerSecond(t *testing.T) {
	a := newTestApp(t, func(p *params.Parameters) { p.NotesPerSecond = 100 })
	if _, err := a.Analyze(context.Background(), testMelody()); !errors.Is(err, analyzer.ErrConfig) {
		t.Fatalf("err=%v want ErrConfig", err)
	}
}

func TestNewRejectsInvalidParams(t *testing.T) {
	p := params.Defaults()
	p.WindowLength = 0
	if _, err := New(Config{Params: p}); !errors.Is(err, analyzer.ErrConfig) {
		t.Fatalf("err=%v want ErrConfig", err)
	}
}

func TestCalculatorIsCachedPerRate(t *testing.T) {
	a := newTestApp(t, nil)
	c1, err := a.Calculator(16000)
	if err != nil {
		t.Fatalf("Calculator: %v", err)
	}
	c2, _ := a.Calculator(16000)
	c3, _ := a.Calculator(44100)
	if c1 != c2 {
		t.Fatalf("calculator rebuilt for the same rate")
	}
	if c1 == c3 || c3.SampleRate() != 44100 {
		t.Fatalf("calculator shared across rates")
	}
}

func TestAnalyzeFile(t *testing.T) {
	a := newTestApp(t, nil)
	if _, err := a.AnalyzeFile(context.Background(), "tune.ogg"); !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Fatalf("err=%v want ErrUnsupportedFormat", err)
	}
}

func TestResultJSON(t *testing.T) {
	a := newTestApp(t, nil)
	res, err := a.Analyze(context.Background(), testMelody())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, key := range []string{`"contour":"*urd"`, `"group_size":15`, `"dominants":[2,5,5,3]`, `"bands":[{"start":0,"end":100}`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("json missing %s: %.200s", key, data)
		}
	}
}

func TestProfileWritesStages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.csv")
	p := params.Defaults()
	p.NotesPerSecond = 1
	a, err := New(Config{Params: p, Log: log.New(io.Discard, "", 0), Profile: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := a.Analyze(context.Background(), testMelody()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "run,stage,delta_ms" {
		t.Fatalf("header=%q", lines[0])
	}
	var stages []string
	for _, line := range lines[1:] {
		stages = append(stages, strings.Split(line, ",")[1])
	}
	want := []string{"process", "normalize", "aggregate", "encode", "total"}
	if !slices.Equal(stages, want) {
		t.Fatalf("stages=%v want=%v", stages, want)
	}
}

func TestMelodyRead(t *testing.T) {
	m := NewMelody(100, 2, Tone{Hz: 25, Samples: 4}, Tone{Hz: 0, Samples: 2})
	buf := make([]int16, 10)
	n, err := m.Read(buf)
	if err != nil || n != 6 {
		t.Fatalf("Read=%d,%v want=6,nil", n, err)
	}
	want := []int16{32767, 0, -32767, 0, 32767, 32767}
	if !slices.Equal(buf[:n], want) {
		t.Fatalf("samples=%v want=%v", buf[:n], want)
	}
	if _, err := m.Read(buf); !errors.Is(err, io.EOF) {
		t.Fatalf("err=%v want io.EOF", err)
	}
}
