package contour

import (
	"github.com/guidoenr/parsons/internal/analyzer"
	"gonum.org/v1/gonum/floats"
)

// Aggregate sums consecutive groups of groupSize vectors elementwise and
// returns one vector per group, in input order. A trailing group shorter
// than groupSize is summed as it is.
func Aggregate(vectors []analyzer.Energies, groupSize int) ([]analyzer.Energies, error) {
	if groupSize <= 0 {
		return nil, analyzer.Errorf("group_size", "must be positive, got %d", groupSize)
	}
	if err := checkWidths(vectors); err != nil {
		return nil, err
	}

	out := make([]analyzer.Energies, 0, (len(vectors)+groupSize-1)/groupSize)
	for start := 0; start < len(vectors); start += groupSize {
		end := min(start+groupSize, len(vectors))
		sum := make(analyzer.Energies, len(vectors[start]))
		for _, v := range vectors[start:end] {
			floats.Add(sum, v)
		}
		out = append(out, sum)
	}
	return out, nil
}

// GroupSize returns how many windows make up one note when the contour
// should advance notesPerSecond times per second.
func GroupSize(sampleRate, windowLength, notesPerSecond int) (int, error) {
	switch {
	case sampleRate <= 0:
		return 0, analyzer.Errorf("sample_rate", "must be positive, got %d", sampleRate)
	case windowLength <= 0:
		return 0, analyzer.Errorf("window_length", "must be positive, got %d", windowLength)
	case notesPerSecond <= 0:
		return 0, analyzer.Errorf("notes_per_second", "must be positive, got %d", notesPerSecond)
	}
	n := sampleRate / windowLength / notesPerSecond
	if n == 0 {
		return 0, analyzer.Errorf("group_size",
			"%d notes per second is too fast for %d Hz with %d-sample windows (max %d)",
			notesPerSecond, sampleRate, windowLength, sampleRate/windowLength)
	}
	return n, nil
}

// NormalizeBandwidth divides each band's energy by the band's width in Hz
// so that wide bands do not win only by covering more bins. It returns new
// vectors and leaves the input untouched.
func NormalizeBandwidth(vectors []analyzer.Energies, bands []analyzer.FrequencyBand) ([]analyzer.Energies, error) {
	widths := make([]float64, len(bands))
	for i, band := range bands {
		if band.Width() <= 0 {
			return nil, analyzer.Errorf("bands", "band %d has no width (%d-%d Hz)", i, band.Start, band.End)
		}
		widths[i] = float64(band.Width())
	}

	out := make([]analyzer.Energies, len(vectors))
	for i, v := range vectors {
		if len(v) != len(bands) {
			return nil, analyzer.Errorf("vectors", "vector %d has %d bands, want %d", i, len(v), len(bands))
		}
		n := make(analyzer.Energies, len(v))
		floats.DivTo(n, v, widths)
		out[i] = n
	}
	return out, nil
}

func checkWidths(vectors []analyzer.Energies) error {
	if len(vectors) == 0 {
		return nil
	}
	want := len(vectors[0])
	for i, v := range vectors {
		if len(v) != want {
			return analyzer.Errorf("vectors", "vector %d has %d bands, want %d", i, len(v), want)
		}
	}
	return nil
}
