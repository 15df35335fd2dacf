package audio

import (
	"errors"
	"io"
	"iter"
)

// Source yields mono 16-bit PCM. Read behaves like io.Reader: it returns the
// number of samples written to buf and io.EOF once the input is exhausted.
type Source interface {
	SampleRate() int
	Read(buf []int16) (int, error)
}

// SliceSource serves samples held in memory.
type SliceSource struct {
	rate    int
	samples []int16
	pos     int
}

// NewSliceSource returns a Source over samples at the given rate.
func NewSliceSource(sampleRate int, samples []int16) *SliceSource {
	return &SliceSource{rate: sampleRate, samples: samples}
}

func (s *SliceSource) SampleRate() int { return s.rate }

func (s *SliceSource) Read(buf []int16) (int, error) {
	if s.pos >= len(s.samples) {
		return 0, io.EOF
	}
	n := copy(buf, s.samples[s.pos:])
	s.pos += n
	return n, nil
}

// ReadWindow fills buf from src, calling Read as often as needed. It returns
// fewer than len(buf) samples only at the end of the input, and io.EOF only
// when nothing at all was read.
func ReadWindow(src Source, buf []int16) (int, error) {
	filled := 0
	for filled < len(buf) {
		n, err := src.Read(buf[filled:])
		filled += n
		if errors.Is(err, io.EOF) {
			if filled == 0 {
				return 0, io.EOF
			}
			return filled, nil
		}
		if err != nil {
			return filled, err
		}
		if n == 0 {
			return filled, io.ErrNoProgress
		}
	}
	return filled, nil
}

// Windows iterates over consecutive blocks of size samples. The trailing
// block may be shorter. The yielded slice is reused between iterations.
func Windows(src Source, size int) iter.Seq2[[]int16, error] {
	return func(yield func([]int16, error) bool) {
		buf := make([]int16, size)
		for {
			n, err := ReadWindow(src, buf)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(buf[:n], nil) {
				return
			}
			if n < size {
				return
			}
		}
	}
}
