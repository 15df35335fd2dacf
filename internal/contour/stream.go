package contour

import (
	"strings"

	"github.com/guidoenr/parsons/internal/analyzer"
	"gonum.org/v1/gonum/floats"
)

// Stream builds a code incrementally from per-window vectors, summing them
// into notes of groupSize windows as Aggregate does. It is meant for live
// input where the full sequence is never materialised.
type Stream struct {
	groupSize int
	pending   analyzer.Energies
	count     int
	previous  int
	notes     int
	code      strings.Builder
}

// Note is one completed group.
type Note struct {
	Energies analyzer.Energies
	Dominant int
	Symbol   byte
}

// NewStream returns a Stream grouping groupSize windows per note.
func NewStream(groupSize int) (*Stream, error) {
	if groupSize <= 0 {
		return nil, analyzer.Errorf("group_size", "must be positive, got %d", groupSize)
	}
	return &Stream{groupSize: groupSize}, nil
}

// Push adds one window. When it completes a note, the note is returned
// with ok set.
func (s *Stream) Push(v analyzer.Energies) (note Note, ok bool, err error) {
	if s.pending == nil {
		s.pending = make(analyzer.Energies, len(v))
	}
	if len(v) != len(s.pending) {
		return Note{}, false, analyzer.Errorf("vectors", "vector has %d bands, want %d", len(v), len(s.pending))
	}
	floats.Add(s.pending, v)
	s.count++
	if s.count < s.groupSize {
		return Note{}, false, nil
	}
	return s.emit(), true, nil
}

// Flush closes a partially filled trailing note, if any.
func (s *Stream) Flush() (Note, bool) {
	if s.count == 0 {
		return Note{}, false
	}
	return s.emit(), true
}

func (s *Stream) emit() Note {
	energies := s.pending.Clone()
	dominant := Dominant(energies)
	symbol := byte(Start)
	if s.notes > 0 {
		symbol = Direction(s.previous, dominant)
	}
	s.code.WriteByte(symbol)
	s.previous = dominant
	s.notes++

	clear(s.pending)
	s.count = 0
	return Note{Energies: energies, Dominant: dominant, Symbol: symbol}
}

// String returns the code emitted so far.
func (s *Stream) String() string {
	return s.code.String()
}

// Notes returns the number of notes emitted so far.
func (s *Stream) Notes() int {
	return s.notes
}
