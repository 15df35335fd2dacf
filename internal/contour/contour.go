// Package contour reduces band-energy sequences to Parsons-style codes.
//
// A code starts with Start and then holds one symbol per consecutive pair
// of vectors: Up when the dominant band rose, Down when it fell and Repeat
// when it stayed. The dominant band stands in for pitch height.
package contour

import (
	"errors"
	"strings"

	"github.com/guidoenr/parsons/internal/analyzer"
	"gonum.org/v1/gonum/floats"
)

const (
	Start  = '*'
	Up     = 'u'
	Down   = 'd'
	Repeat = 'r'
)

// ErrEmptySequence is returned when there is nothing to encode.
var ErrEmptySequence = errors.New("contour: empty sequence")

// Dominant returns the index of the band with the most energy. Ties go to
// the lowest index; an empty vector yields 0.
func Dominant(v analyzer.Energies) int {
	if len(v) == 0 {
		return 0
	}
	return floats.MaxIdx(v)
}

// Direction returns the symbol for a move from band previous to band current.
func Direction(previous, current int) byte {
	switch {
	case current > previous:
		return Up
	case current < previous:
		return Down
	default:
		return Repeat
	}
}

// Encode returns the code for vectors. The result always has exactly
// len(vectors) characters.
func Encode(vectors []analyzer.Energies) (string, error) {
	return EncodeDominants(Dominants(vectors))
}

// EncodeDominants is Encode over precomputed dominant band indices.
func EncodeDominants(dominants []int) (string, error) {
	if len(dominants) == 0 {
		return "", ErrEmptySequence
	}
	var b strings.Builder
	b.Grow(len(dominants))
	b.WriteByte(Start)
	for i := 1; i < len(dominants); i++ {
		b.WriteByte(Direction(dominants[i-1], dominants[i]))
	}
	return b.String(), nil
}

// Dominants returns the dominant band of each vector.
func Dominants(vectors []analyzer.Energies) []int {
	out := make([]int, len(vectors))
	for i, v := range vectors {
		out[i] = Dominant(v)
	}
	return out
}
