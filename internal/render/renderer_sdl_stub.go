//go:build !sdl

package render

import "errors"

// Window is unavailable without the sdl build tag.
type Window struct{}

func OpenWindow(title string, width, height int) (*Window, error) {
	return nil, errors.New("SDL backend not enabled; rebuild with -tags sdl")
}

func (w *Window) Draw(values []float64) error { return ErrWindowClosed }

func (w *Window) Wait() error { return ErrWindowClosed }

func (w *Window) Close() error { return nil }

func SupportsSDL() bool { return false }
