//go:build sdl

package render

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
)

// Window shows a line plot in a native SDL window.
type Window struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	width    int
	height   int
}

// OpenWindow creates a plot window of the given size.
func OpenWindow(title string, width, height int) (*Window, error) {
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}
	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(width), int32(height), sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return nil, fmt.Errorf("sdl window: %w", err)
	}
	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return nil, fmt.Errorf("sdl renderer: %w", err)
	}
	return &Window{window: window, renderer: renderer, width: width, height: height}, nil
}

// Draw replaces the window contents with a plot of values.
func (w *Window) Draw(values []float64) error {
	if err := w.renderer.SetDrawColor(16, 16, 24, 255); err != nil {
		return err
	}
	if err := w.renderer.Clear(); err != nil {
		return err
	}
	pts := polyline(values, w.width, w.height)
	line := make([]sdl.Point, len(pts))
	for i, p := range pts {
		line[i] = sdl.Point{X: p.X, Y: p.Y}
	}
	if err := w.renderer.SetDrawColor(80, 220, 120, 255); err != nil {
		return err
	}
	if len(line) > 1 {
		if err := w.renderer.DrawLines(line); err != nil {
			return err
		}
	}
	w.renderer.Present()
	return nil
}

// Wait blocks until the window is closed or a key is pressed.
func (w *Window) Wait() error {
	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch event.(type) {
			case *sdl.QuitEvent, *sdl.KeyboardEvent:
				return ErrWindowClosed
			}
		}
		sdl.Delay(16)
	}
}

// Close releases the window and the video subsystem.
func (w *Window) Close() error {
	if w.renderer != nil {
		w.renderer.Destroy()
		w.renderer = nil
	}
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	sdl.QuitSubSystem(sdl.INIT_VIDEO)
	return nil
}

func SupportsSDL() bool { return true }
