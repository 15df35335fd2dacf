package app

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// profiler appends stage timings as CSV rows: run,stage,delta_ms. A nil
// profiler is valid and records nothing.
type profiler struct {
	mu    sync.Mutex
	w     io.WriteCloser
	run   int
	start time.Time
	last  time.Time
}

func newProfiler(path string, logger *log.Logger) *profiler {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.Printf("profiling disabled: %v", err)
		return nil
	}
	info, err := f.Stat()
	if err == nil && info.Size() == 0 {
		fmt.Fprintln(f, "run,stage,delta_ms")
	}
	return &profiler{w: f}
}

func (p *profiler) beginRun() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.run++
	p.start = time.Now()
	p.last = p.start
}

func (p *profiler) mark(stage string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.write(stage, now.Sub(p.last))
	p.last = now
}

func (p *profiler) endRun() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.write("total", time.Since(p.start))
}

func (p *profiler) write(stage string, d time.Duration) {
	fmt.Fprintf(p.w, "%d,%s,%.3f\n", p.run, stage, float64(d.Microseconds())/1000)
}

func (p *profiler) Close() error {
	if p == nil {
		return nil
	}
	return p.w.Close()
}
