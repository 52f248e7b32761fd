package formula

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func bound(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func allSpecs() map[string]ToleranceSpec {
	return map[string]ToleranceSpec{
		"exact":          {},
		"exact lte":      {Relation: RelationLTE},
		"exact gte":      {Relation: RelationGTE},
		"absolute":       {MaxAbsoluteError: bound("1")},
		"relative":       {MaxRelativeError: bound("0.0001")},
		"both":           {MaxAbsoluteError: bound("1"), MaxRelativeError: bound("0.0001")},
		"absolute lte":   {MaxAbsoluteError: bound("1"), Relation: RelationLTE},
		"relative gte":   {MaxRelativeError: bound("0.5"), Relation: RelationGTE},
		"zero tolerance": {MaxAbsoluteError: bound("0"), MaxRelativeError: bound("0")},
	}
}

func TestAlmostEqualSelf(t *testing.T) {
	values := []string{"0", "1", "-1", "500", "0.000000000000000000000000000001", "115792089237316195423570985008687907853269984665640564039457584007913129639935"}
	for name, spec := range allSpecs() {
		for _, v := range values {
			assert.NoError(t, AlmostEqual(dec(v), dec(v), spec), "%s with %s", name, v)
		}
	}
}

func TestAlmostEqual(t *testing.T) {
	tests := []struct {
		name     string
		actual   string
		expected string
		spec     ToleranceSpec
		wantErr  bool
		reason   string
	}{
		{
			name:     "no bounds requires exact equality",
			actual:   "1000000000000000000",
			expected: "1000000000000000001",
			wantErr:  true,
			reason:   "exact equality required",
		},
		{
			name:     "no bounds ignores representation",
			actual:   "500",
			expected: "500.000",
		},
		{
			name:     "within absolute bound",
			actual:   "499",
			expected: "500",
			spec:     ToleranceSpec{MaxAbsoluteError: bound("1")},
		},
		{
			name:     "outside absolute bound",
			actual:   "498",
			expected: "500",
			spec:     ToleranceSpec{MaxAbsoluteError: bound("1")},
			wantErr:  true,
			reason:   "error exceeds tolerance",
		},
		{
			name:     "relative bound alone is sufficient",
			actual:   "1000000000000000000000",
			expected: "1000000000000000000999",
			spec:     ToleranceSpec{MaxAbsoluteError: bound("1"), MaxRelativeError: bound("0.000000000000000001")},
		},
		{
			name:     "absolute bound alone is sufficient near zero",
			actual:   "0",
			expected: "0.5",
			spec:     ToleranceSpec{MaxAbsoluteError: bound("1"), MaxRelativeError: bound("0.000000000000000001")},
		},
		{
			name:     "relative bound does not apply to zero expected",
			actual:   "0.001",
			expected: "0",
			spec:     ToleranceSpec{MaxRelativeError: bound("1000")},
			wantErr:  true,
			reason:   "error exceeds tolerance",
		},
		{
			name:     "lte fails regardless of magnitude",
			actual:   "500.0000000001",
			expected: "500",
			spec:     ToleranceSpec{MaxAbsoluteError: bound("1"), Relation: RelationLTE},
			wantErr:  true,
			reason:   "actual is greater than expected",
		},
		{
			name:     "lte passes below expected",
			actual:   "499.5",
			expected: "500",
			spec:     ToleranceSpec{MaxAbsoluteError: bound("1"), Relation: RelationLTE},
		},
		{
			name:     "gte fails below expected",
			actual:   "499.999",
			expected: "500",
			spec:     ToleranceSpec{MaxAbsoluteError: bound("1"), Relation: RelationGTE},
			wantErr:  true,
			reason:   "actual is less than expected",
		},
		{
			name:     "lte without bounds still requires equality",
			actual:   "499",
			expected: "500",
			spec:     ToleranceSpec{Relation: RelationLTE},
			wantErr:  true,
			reason:   "exact equality required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AlmostEqual(dec(tt.actual), dec(tt.expected), tt.spec)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var violation *ToleranceViolation
			require.True(t, errors.As(err, &violation), "expected a ToleranceViolation, got %v", err)
			assert.Equal(t, tt.reason, violation.Reason)
			assert.True(t, violation.Actual.Equal(dec(tt.actual)))
			assert.True(t, violation.Expected.Equal(dec(tt.expected)))
			assert.True(t, violation.AbsoluteError.Equal(dec(tt.actual).Sub(dec(tt.expected)).Abs()))
		})
	}
}

func TestToleranceViolationCarriesRelativeError(t *testing.T) {
	err := AlmostEqual(dec("90"), dec("100"), ToleranceSpec{MaxRelativeError: bound("0.05")})

	var violation *ToleranceViolation
	require.ErrorAs(t, err, &violation)
	require.NotNil(t, violation.RelativeError)
	assert.True(t, violation.RelativeError.Equal(dec("0.1")))
	assert.Contains(t, err.Error(), "relative error 0.1")
	assert.Contains(t, err.Error(), "maxRel=0.05")
}

func TestAlmostEqualFraction(t *testing.T) {
	third := Ratio(dec("1"), dec("3"))

	t.Run("exact cross multiplication", func(t *testing.T) {
		assert.NoError(t, AlmostEqualFraction(Ratio(dec("2"), dec("6")), third, ToleranceSpec{}))
		assert.Error(t, AlmostEqualFraction(Ratio(dec("333333333333"), dec("1000000000000")), third, ToleranceSpec{}))
	})

	t.Run("invariant to scaling either side", func(t *testing.T) {
		pairs := []struct{ actual, expected Value }{
			{Ratio(dec("5"), dec("12")), Ratio(dec("5"), dec("12"))},
			{Ratio(dec("7"), dec("9")), Ratio(dec("8"), dec("9"))},
			{Ratio(dec("1267650600228229401496703205376"), dec("3")), Ratio(dec("422550200076076467165567735125"), dec("1"))},
		}
		specs := allSpecs()
		factors := []string{"2", "7", "1000000000000000000", "340282366920938463463374607431768211456"}

		for _, p := range pairs {
			for name, spec := range specs {
				base := AlmostEqualFraction(p.actual, p.expected, spec)
				for _, k := range factors {
					scaledActual := Ratio(p.actual.N.Mul(dec(k)), p.actual.D.Mul(dec(k)))
					scaledExpected := Ratio(p.expected.N.Mul(dec(k)), p.expected.D.Mul(dec(k)))

					assert.Equal(t, base == nil, AlmostEqualFraction(scaledActual, p.expected, spec) == nil, "%s scaled actual by %s", name, k)
					assert.Equal(t, base == nil, AlmostEqualFraction(p.actual, scaledExpected, spec) == nil, "%s scaled expected by %s", name, k)
				}
			}
		}
	})

	t.Run("directional check without bounds", func(t *testing.T) {
		spec := ToleranceSpec{Relation: RelationLTE}
		err := AlmostEqualFraction(Ratio(dec("2"), dec("3")), Ratio(dec("1"), dec("2")), spec)

		var violation *ToleranceViolation
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, "actual is greater than expected", violation.Reason)
	})

	t.Run("approximate comparison uses quotients", func(t *testing.T) {
		spec := ToleranceSpec{MaxRelativeError: bound("0.000001")}
		assert.NoError(t, AlmostEqualFraction(Ratio(dec("333333"), dec("1000000")), third, spec))
	})

	t.Run("zero denominator", func(t *testing.T) {
		err := AlmostEqualFraction(Ratio(dec("1"), dec("0")), third, ToleranceSpec{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestCompareDispatch(t *testing.T) {
	assert.NoError(t, Compare(Scalar(dec("5")), Ratio(dec("10"), dec("2")), ToleranceSpec{}))
	assert.NoError(t, Compare(Bool(true), Bool(true), ToleranceSpec{}))
	assert.Error(t, Compare(Bool(true), Bool(false), ToleranceSpec{}))
}
