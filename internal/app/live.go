package app

import (
	"context"
	"sync"

	"github.com/eiannone/keyboard"
	"github.com/guidoenr/parsons/internal/analyzer"
	"github.com/guidoenr/parsons/internal/contour"
)

// WindowSource delivers fixed-size mono windows, as mic.Capture does. The
// channel is closed when the source ends.
type WindowSource interface {
	SampleRate() int
	Windows() <-chan []int16
}

// Update describes one completed note of a live run.
type Update struct {
	Note     int               `json:"note"`
	Energies analyzer.Energies `json:"energies"`
	Dominant int               `json:"dominant"`
	Symbol   string            `json:"symbol"`
	Contour  string            `json:"contour"`
}

// RunLive encodes windows from src as they arrive and calls emit for every
// completed note. It returns the contour so far when src closes, ctx is
// cancelled or, in interactive mode, q or Esc is pressed.
func (a *App) RunLive(ctx context.Context, src WindowSource, emit func(Update)) (string, error) {
	calc, err := a.Calculator(src.SampleRate())
	if err != nil {
		return "", err
	}
	groupSize, err := contour.GroupSize(src.SampleRate(), a.params.WindowLength, a.params.NotesPerSecond)
	if err != nil {
		return "", err
	}
	stream, err := contour.NewStream(groupSize)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var quit <-chan struct{}
	if a.cfg.Interactive {
		quit = a.listenForQuit(ctx)
	}

	publish := func(n contour.Note) {
		if emit == nil {
			return
		}
		emit(Update{
			Note:     stream.Notes(),
			Energies: n.Energies,
			Dominant: n.Dominant,
			Symbol:   string(n.Symbol),
			Contour:  stream.String(),
		})
	}
	finish := func() (string, error) {
		if n, ok := stream.Flush(); ok {
			publish(n)
		}
		a.log.Printf("live run ended after %d notes", stream.Notes())
		return stream.String(), nil
	}

	windows := src.Windows()
	for {
		select {
		case <-ctx.Done():
			return finish()
		case <-quit:
			return finish()
		case block, ok := <-windows:
			if !ok {
				return finish()
			}
			energies := calc.Process(block)
			if a.params.Normalize {
				normalized, err := contour.NormalizeBandwidth([]analyzer.Energies{energies}, a.params.Bands)
				if err != nil {
					return stream.String(), err
				}
				energies = normalized[0]
			}
			note, done, err := stream.Push(energies)
			if err != nil {
				return stream.String(), err
			}
			if done {
				publish(note)
			}
		}
	}
}

// listenForQuit returns a channel closed once q, Esc or Ctrl-C is pressed.
// It returns nil when the terminal cannot be put into raw mode.
func (a *App) listenForQuit(ctx context.Context) <-chan struct{} {
	if err := keyboard.Open(); err != nil {
		a.log.Printf("keyboard input disabled: %v", err)
		return nil
	}

	quit := make(chan struct{})
	var closeOnce sync.Once
	closeKeyboard := func() { closeOnce.Do(func() { _ = keyboard.Close() }) }
	go func() {
		<-ctx.Done()
		closeKeyboard()
	}()
	go func() {
		defer closeKeyboard()
		for {
			char, key, err := keyboard.GetKey()
			if err != nil || ctx.Err() != nil {
				return
			}
			if key == keyboard.KeyEsc || key == keyboard.KeyCtrlC || char == 'q' || char == 'Q' {
				close(quit)
				return
			}
		}
	}()
	return quit
}
