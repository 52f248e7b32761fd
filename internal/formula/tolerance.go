package formula

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Relation constrains the direction of the actual value relative to the expected one
type Relation string

const (
	RelationNone Relation = ""
	RelationLTE  Relation = "lte"
	RelationGTE  Relation = "gte"
)

// ToleranceSpec bounds the error allowed for one output field.
// A spec without bounds requires exact equality.
type ToleranceSpec struct {
	MaxAbsoluteError *decimal.Decimal
	MaxRelativeError *decimal.Decimal
	Relation         Relation
}

// HasBounds reports whether an absolute or relative bound is set
func (s ToleranceSpec) HasBounds() bool {
	return s.MaxAbsoluteError != nil || s.MaxRelativeError != nil
}

func (s ToleranceSpec) String() string {
	var parts []string
	if s.MaxAbsoluteError != nil {
		parts = append(parts, "maxAbs="+s.MaxAbsoluteError.String())
	}
	if s.MaxRelativeError != nil {
		parts = append(parts, "maxRel="+s.MaxRelativeError.String())
	}
	if s.Relation != RelationNone {
		parts = append(parts, "relation="+string(s.Relation))
	}
	return strings.Join(parts, " ")
}

// AlmostEqual compares a scalar actual value with its expected value.
// It returns nil or a *ToleranceViolation.
func AlmostEqual(actual, expected decimal.Decimal, spec ToleranceSpec) error {
	absErr := actual.Sub(expected).Abs()
	var relErr *decimal.Decimal
	if !expected.IsZero() {
		r := absErr.DivRound(expected.Abs(), referencePrecision)
		relErr = &r
	}

	violation := func(reason string) error {
		return &ToleranceViolation{
			Actual:        actual,
			Expected:      expected,
			AbsoluteError: absErr,
			RelativeError: relErr,
			Spec:          spec,
			Reason:        reason,
		}
	}

	// the direction is checked before the magnitude
	switch spec.Relation {
	case RelationLTE:
		if actual.GreaterThan(expected) {
			return violation("actual is greater than expected")
		}
	case RelationGTE:
		if actual.LessThan(expected) {
			return violation("actual is less than expected")
		}
	}

	if absErr.IsZero() {
		return nil
	}
	if !spec.HasBounds() {
		return violation("exact equality required")
	}
	if spec.MaxAbsoluteError != nil && absErr.LessThanOrEqual(*spec.MaxAbsoluteError) {
		return nil
	}
	if spec.MaxRelativeError != nil && relErr != nil && relErr.LessThanOrEqual(*spec.MaxRelativeError) {
		return nil
	}
	return violation("error exceeds tolerance")
}

// AlmostEqualFraction compares fraction-shaped values. Without bounds the comparison is exact
// cross-multiplication; with bounds the decimal quotients go through AlmostEqual.
func AlmostEqualFraction(actual, expected Value, spec ToleranceSpec) error {
	if actual.D.IsZero() || expected.D.IsZero() {
		return fmt.Errorf("%w: zero denominator comparing %s with %s", ErrInvalidInput, actual, expected)
	}
	if spec.HasBounds() {
		return AlmostEqual(actual.Decimal(), expected.Decimal(), spec)
	}

	cmp := compareFractions(actual, expected)
	violation := func(reason string) error {
		a, e := actual.Decimal(), expected.Decimal()
		return &ToleranceViolation{
			Actual:        a,
			Expected:      e,
			AbsoluteError: a.Sub(e).Abs(),
			Spec:          spec,
			Reason:        reason,
		}
	}

	switch {
	case spec.Relation == RelationLTE && cmp > 0:
		return violation("actual is greater than expected")
	case spec.Relation == RelationGTE && cmp < 0:
		return violation("actual is less than expected")
	case cmp != 0:
		return violation("exact equality required")
	}
	return nil
}

// compareFractions returns the sign of a - b without dividing
func compareFractions(a, b Value) int {
	left := a.N.Mul(b.D)
	right := b.N.Mul(a.D)
	// a.D*b.D < 0 flips the inequality
	if a.D.Sign()*b.D.Sign() < 0 {
		return right.Cmp(left)
	}
	return left.Cmp(right)
}

// Compare dispatches to the scalar or fraction comparator
func Compare(actual, expected Value, spec ToleranceSpec) error {
	if actual.IsScalar() && expected.IsScalar() {
		return AlmostEqual(actual.N, expected.N, spec)
	}
	return AlmostEqualFraction(actual, expected, spec)
}
