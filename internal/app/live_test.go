package app

import (
	"context"
	"slices"
	"testing"

	"github.com/guidoenr/parsons/internal/audio"
)

type chanSource struct {
	rate    int
	windows chan []int16
}

func (c *chanSource) SampleRate() int         { return c.rate }
func (c *chanSource) Windows() <-chan []int16 { return c.windows }

// feed sends src as complete windows and closes the channel.
func feed(src audio.Source, size int) *chanSource {
	cs := &chanSource{rate: src.SampleRate(), windows: make(chan []int16)}
	go func() {
		defer close(cs.windows)
		for w, err := range audio.Windows(src, size) {
			if err != nil {
				return
			}
			cs.windows <- slices.Clone(w)
		}
	}()
	return cs
}

func TestRunLiveMatchesAnalyze(t *testing.T) {
	a := newTestApp(t, nil)
	var updates []Update
	code, err := a.RunLive(context.Background(), feed(testMelody(), 512), func(u Update) {
		updates = append(updates, u)
	})
	if err != nil {
		t.Fatalf("RunLive: %v", err)
	}
	if code != "*urd" {
		t.Fatalf("contour=%q want=%q", code, "*urd")
	}
	if len(updates) != 4 {
		t.Fatalf("updates=%d want=4", len(updates))
	}
	var symbols, prefixes []string
	for _, u := range updates {
		symbols = append(symbols, u.Symbol)
		prefixes = append(prefixes, u.Contour)
	}
	if !slices.Equal(symbols, []string{"*", "u", "r", "d"}) {
		t.Fatalf("symbols=%v", symbols)
	}
	if !slices.Equal(prefixes, []string{"*", "*u", "*ur", "*urd"}) {
		t.Fatalf("contours=%v", prefixes)
	}
	if updates[3].Note != 4 || updates[1].Dominant != 5 {
		t.Fatalf("unexpected update %+v / %+v", updates[3], updates[1])
	}

	batch, err := newTestApp(t, nil).Analyze(context.Background(), testMelody())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for i, u := range updates {
		if !slices.Equal(u.Energies, batch.Notes[i]) {
			t.Fatalf("note %d energies differ from batch analysis", i)
		}
	}
}

func TestRunLiveFlushesPartialNote(t *testing.T) {
	a := newTestApp(t, nil)
	src := NewMelody(testRate, 0.3, Tone{Hz: 250, Samples: samplesPerNote}, Tone{Hz: 625, Samples: 2048})
	code, err := a.RunLive(context.Background(), feed(src, 512), nil)
	if err != nil {
		t.Fatalf("RunLive: %v", err)
	}
	if code != "*u" {
		t.Fatalf("contour=%q want=%q", code, "*u")
	}
}

func TestRunLiveStopsOnCancel(t *testing.T) {
	a := newTestApp(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	src := &chanSource{rate: testRate, windows: make(chan []int16)}
	cancel()
	code, err := a.RunLive(ctx, src, nil)
	if err != nil || code != "" {
		t.Fatalf("RunLive=%q,%v want empty contour and no error", code, err)
	}
}
