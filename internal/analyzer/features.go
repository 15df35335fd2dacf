package analyzer

import (
	"math"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Energies holds one accumulated energy value per configured band, in band order.
type Energies []float64

// Total returns the sum over all bands.
func (e Energies) Total() float64 {
	if len(e) == 0 {
		return 0
	}
	return floats.Sum(e)
}

// Clone returns an independent copy.
func (e Energies) Clone() Energies {
	out := make(Energies, len(e))
	copy(out, e)
	return out
}

// Policy decides how one transformed bin contributes to its band's energy.
type Policy string

const (
	// PolicyAbsReal sums |re(X[k])|. It is the default: cheaper than the true
	// magnitude and the behavior existing contours were produced with.
	PolicyAbsReal Policy = "abs-real"
	// PolicyMagnitude sums |X[k]|.
	PolicyMagnitude Policy = "magnitude"
	// PolicySignedReal sums re(X[k]) without the absolute value. Results are
	// phase sensitive and may be negative; it exists to reproduce old output.
	PolicySignedReal Policy = "signed-real"
)

// ParsePolicy resolves a policy name; the empty string selects PolicyAbsReal.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "abs-real", "absreal", "abs":
		return PolicyAbsReal, nil
	case "magnitude", "mag":
		return PolicyMagnitude, nil
	case "signed-real", "signed", "real":
		return PolicySignedReal, nil
	default:
		return "", Errorf("policy", "unknown energy policy %q", name)
	}
}

func measureFor(p Policy) (func(complex128) float64, bool) {
	switch p {
	case PolicyAbsReal:
		return absReal, true
	case PolicyMagnitude:
		return cmplx.Abs, true
	case PolicySignedReal:
		return signedReal, true
	}
	return nil, false
}

func absReal(c complex128) float64 {
	return math.Abs(real(c))
}

func signedReal(c complex128) float64 {
	return real(c)
}
