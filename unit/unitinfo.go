// Package unit specialises the generic resolver engine for unit-of-
// measure expressions: a vector of base-unit exponents plus a linear
// conversion y = x*factor + offset.
package unit

import (
	"math"

	"github.com/unitsys/resolver/resolver"
)

// ExponentPrecision is P in the specification: base-unit exponents are
// stored scaled by 10^P, giving three decimal digits of fractional-
// exponent precision.
const ExponentPrecision = 3

// exponentScale is 10^P.
const exponentScale = 1000

// CommensurabilityTolerance is the integer bound (in scaled-exponent
// units) on the summed absolute exponent differences below which two
// vectors are considered equal: round(0.01 / 10^-P) = 10.
const CommensurabilityTolerance = 10

// UnitInfo is the immutable canonical representation of a resolved unit:
// a dimension vector scaled by 10^ExponentPrecision, plus an affine
// conversion to the base-unit combination (value*Factor + Offset).
type UnitInfo struct {
	Exponents []int32
	Factor    float64
	Offset    float64
}

// NewUnitInfo builds a UnitInfo whose exponent vector has length d,
// all zero.
func NewUnitInfo(d int) UnitInfo {
	return UnitInfo{Exponents: make([]int32, d), Factor: 1}
}

// baseVector returns the zero vector of length d with position i set
// to 1*10^P (one base unit).
func baseVector(d, i int) []int32 {
	v := make([]int32, d)
	v[i] = exponentScale
	return v
}

// IsConstant reports whether u carries no dimension at all.
func (u UnitInfo) IsConstant() bool {
	for _, e := range u.Exponents {
		if e != 0 {
			return false
		}
	}
	return true
}

func cloneExponents(e []int32) []int32 {
	out := make([]int32, len(e))
	copy(out, e)
	return out
}

// Commensurable reports whether u and v may be added, subtracted, or
// converted: the sum of absolute pairwise exponent differences must be
// <= CommensurabilityTolerance.
func Commensurable(u, v UnitInfo) bool {
	if len(u.Exponents) != len(v.Exponents) {
		return false
	}
	var sum int64
	for i := range u.Exponents {
		d := int64(u.Exponents[i]) - int64(v.Exponents[i])
		if d < 0 {
			d = -d
		}
		sum += d
		if sum > CommensurabilityTolerance {
			return false
		}
	}
	return sum <= CommensurabilityTolerance
}

// roundExponent implements "round half away from zero" at P digits,
// already expressed in the scaled integer domain: x is a float in
// scaled-exponent units (may carry fractional scaled precision from a
// multiplication by a non-integer power); round to the nearest
// integer away from zero.
func roundExponent(x float64) (int32, error) {
	r := math.Round(math.Abs(x))
	if x < 0 {
		r = -r
	}
	if r > math.MaxInt32 || r < math.MinInt32 {
		return 0, &resolver.Error{Kind: KindExponentOverflow, Pos: -1, Message: "exponent cast exceeds storage range"}
	}
	return int32(r), nil
}

func scaleExponents(e []int32, by float64) ([]int32, error) {
	out := make([]int32, len(e))
	for i, v := range e {
		scaled, err := roundExponent(float64(v) * by)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}

func addExponents(a, b []int32) []int32 {
	out := make([]int32, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func subExponents(a, b []int32) []int32 {
	out := make([]int32, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func negExponents(a []int32) []int32 {
	out := make([]int32, len(a))
	for i := range a {
		out[i] = -a[i]
	}
	return out
}
