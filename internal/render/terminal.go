package render

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/guidoenr/parsons/internal/contour"
	"golang.org/x/term"
)

// TerminalSize returns the size of the terminal on f, or 80x24 when f is not
// a terminal.
func TerminalSize(f *os.File) (width, height int) {
	w, h, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24
	}
	return w, h
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

var (
	startColor  = color.New(color.FgCyan, color.Bold)
	upColor     = color.New(color.FgGreen)
	downColor   = color.New(color.FgRed)
	repeatColor = color.New(color.FgYellow)
)

// ColorContour colours each symbol of a contour code. With enabled false the
// code is returned unchanged.
func ColorContour(code string, enabled bool) string {
	if !enabled {
		return code
	}
	var b strings.Builder
	for i := 0; i < len(code); i++ {
		c := symbolColor(code[i])
		if c == nil {
			b.WriteByte(code[i])
			continue
		}
		c.EnableColor()
		b.WriteString(c.Sprint(string(code[i])))
	}
	return b.String()
}

func symbolColor(symbol byte) *color.Color {
	switch symbol {
	case contour.Start:
		return startColor
	case contour.Up:
		return upColor
	case contour.Down:
		return downColor
	case contour.Repeat:
		return repeatColor
	}
	return nil
}
