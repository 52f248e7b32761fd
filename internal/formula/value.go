package formula

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// referencePrecision is the number of decimal places kept by reference divisions
const referencePrecision int32 = 60

var (
	decOne  = decimal.NewFromInt(1)
	decZero = decimal.Zero
)

// Value is a case-table cell: a decimal scalar, or an exact n/d fraction
type Value struct {
	N decimal.Decimal
	D decimal.Decimal
}

// Scalar wraps a decimal as a Value
func Scalar(d decimal.Decimal) Value {
	return Value{N: d, D: decOne}
}

// Ratio builds a fraction Value
func Ratio(n, d decimal.Decimal) Value {
	return Value{N: n, D: d}
}

// Bool encodes a boolean as 1 or 0
func Bool(b bool) Value {
	if b {
		return Scalar(decOne)
	}
	return Scalar(decZero)
}

// FromUint256 converts an integer to a scalar Value
func FromUint256(x *uint256.Int) Value {
	return Scalar(decimal.NewFromBigInt(x.ToBig(), 0))
}

// FromFraction256 converts an on-chain fraction to a fraction Value
func FromFraction256(f Fraction256) Value {
	return Ratio(decimal.NewFromBigInt(f.N.ToBig(), 0), decimal.NewFromBigInt(f.D.ToBig(), 0))
}

// ParseValue parses "123.45", "n/d", "true" or "false"
func ParseValue(s string) (Value, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	}

	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := decimal.NewFromString(strings.TrimSpace(num))
		if err != nil {
			return Value{}, fmt.Errorf("invalid numerator %q: %w", num, err)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(den))
		if err != nil {
			return Value{}, fmt.Errorf("invalid denominator %q: %w", den, err)
		}
		return Ratio(n, d), nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Value{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return Scalar(d), nil
}

// IsScalar reports whether the value has a unit denominator
func (v Value) IsScalar() bool {
	return v.D.Equal(decOne)
}

// Decimal returns the value as a decimal quotient
func (v Value) Decimal() decimal.Decimal {
	if v.IsScalar() {
		return v.N
	}
	if v.D.IsZero() {
		return decZero
	}
	return v.N.DivRound(v.D, referencePrecision)
}

// Bool reports whether the value is non-zero
func (v Value) Bool() bool {
	return !v.N.IsZero()
}

func (v Value) String() string {
	if v.IsScalar() {
		return v.N.String()
	}
	return v.N.String() + "/" + v.D.String()
}

// Uint256 converts an integral, non-negative scalar that fits 256 bits
func (v Value) Uint256() (*uint256.Int, error) {
	if !v.IsScalar() {
		return nil, fmt.Errorf("%w: %s is a fraction", ErrInvalidInput, v)
	}
	if v.N.IsNegative() || !v.N.IsInteger() {
		return nil, fmt.Errorf("%w: %s is not a non-negative integer", ErrInvalidInput, v)
	}
	x, overflow := uint256.FromBig(v.N.BigInt())
	if overflow {
		return nil, fmt.Errorf("%w: %s exceeds 256 bits", ErrInvalidInput, v)
	}
	return x, nil
}

// Uint32 converts an integral scalar that fits 32 bits
func (v Value) Uint32() (uint32, error) {
	x, err := v.Uint256()
	if err != nil {
		return 0, err
	}
	if !x.IsUint64() || x.Uint64() > uint64(^uint32(0)) {
		return 0, fmt.Errorf("%w: %s exceeds 32 bits", ErrInvalidInput, v)
	}
	return uint32(x.Uint64()), nil
}

// Values maps field names to values
type Values map[string]Value

// Get returns the named field or an error naming it
func (vs Values) Get(name string) (Value, error) {
	v, ok := vs[name]
	if !ok {
		return Value{}, fmt.Errorf("%w: missing field %q", ErrInvalidInput, name)
	}
	return v, nil
}

func (vs Values) uint256(name string) (*uint256.Int, error) {
	v, err := vs.Get(name)
	if err != nil {
		return nil, err
	}
	x, err := v.Uint256()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return x, nil
}

func (vs Values) uint32(name string) (uint32, error) {
	v, err := vs.Get(name)
	if err != nil {
		return 0, err
	}
	x, err := v.Uint32()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return x, nil
}

func (vs Values) decimal(name string) (decimal.Decimal, error) {
	v, err := vs.Get(name)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return v.Decimal(), nil
}

// String renders the values sorted by field name
func (vs Values) String() string {
	keys := make([]string, 0, len(vs))
	for k := range vs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + vs[k].String()
	}
	return strings.Join(parts, " ")
}

func pow2Big(n int64) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(n))
}
