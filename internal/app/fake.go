package app

import (
	"io"
	"math"
)

// Tone is one note of a synthetic melody.
type Tone struct {
	Hz      float64
	Samples int
}

// Melody is an audio.Source producing a sequence of pure cosine tones. It
// stands in for real audio in demos and tests.
type Melody struct {
	rate      int
	amplitude float64
	tones     []Tone
	tone      int
	pos       int
}

// NewMelody returns a melody at sampleRate. amplitude is a fraction of full
// scale and is clamped to [0, 1].
func NewMelody(sampleRate int, amplitude float64, tones ...Tone) *Melody {
	return &Melody{
		rate:      sampleRate,
		amplitude: min(1, max(0, amplitude)) * math.MaxInt16,
		tones:     tones,
	}
}

// DemoMelody plays an arpeggio that rises and falls, one tone per note at
// notesPerSecond.
func DemoMelody(sampleRate, notesPerSecond int) *Melody {
	length := sampleRate / max(1, notesPerSecond)
	freqs := []float64{262, 330, 392, 523, 523, 392, 330, 262}
	tones := make([]Tone, len(freqs))
	for i, hz := range freqs {
		tones[i] = Tone{Hz: hz, Samples: length}
	}
	return NewMelody(sampleRate, 0.5, tones...)
}

func (m *Melody) SampleRate() int { return m.rate }

func (m *Melody) Read(buf []int16) (int, error) {
	n := 0
	for n < len(buf) && m.tone < len(m.tones) {
		t := m.tones[m.tone]
		if m.pos >= t.Samples {
			m.tone++
			m.pos = 0
			continue
		}
		phase := 2 * math.Pi * t.Hz * float64(m.pos) / float64(m.rate)
		buf[n] = int16(math.Round(m.amplitude * math.Cos(phase)))
		m.pos++
		n++
	}
	if n == 0 && len(buf) > 0 {
		return 0, io.EOF
	}
	return n, nil
}
