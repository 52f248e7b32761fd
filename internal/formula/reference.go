package formula

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Reference evaluators: arbitrary-precision versions of the on-chain formulas.
// They raise the same domain reverts but never the width-related ones.

var (
	ppmDec = decimal.NewFromInt(PPM)

	ln2Dec = decimal.RequireFromString("0.6931471805599453094172321214581765680755001343602552541206800094933936219696947156058633269964186875")
)

// RefFraction is an exact rational value
type RefFraction struct {
	N decimal.Decimal
	D decimal.Decimal
}

// RefWithdrawalInputs mirrors WithdrawalInputs in decimals
type RefWithdrawalInputs struct {
	A, B, C, E, W, P, N, X decimal.Decimal
}

// RefWithdrawalAmounts mirrors WithdrawalAmounts in decimals
type RefWithdrawalAmounts struct {
	S, T, U, R, Q, V decimal.Decimal
}

func div(x, y decimal.Decimal) decimal.Decimal {
	return x.DivRound(y, referencePrecision)
}

// RefFlatRewards returns total * elapsed / duration
func RefFlatRewards(total, elapsed, duration decimal.Decimal) (decimal.Decimal, error) {
	if duration.IsZero() {
		return decimal.Decimal{}, ErrZeroValue
	}
	if elapsed.GreaterThan(duration) {
		return decimal.Decimal{}, ErrInvalidParam
	}
	return div(total.Mul(elapsed), duration), nil
}

// RefExpDecayRewards returns total * (1 - 2^(-elapsed/halfLife))
func RefExpDecayRewards(total, elapsed, halfLife decimal.Decimal) (decimal.Decimal, error) {
	if halfLife.IsZero() {
		return decimal.Decimal{}, ErrZeroValue
	}

	// 2^-(k + r/h) = 2^-k * e^(-ln2 * r/h)
	k, r := elapsed.QuoRem(halfLife, 0)
	if k.GreaterThan(decimal.NewFromInt(decayHorizon(total))) {
		// total * 2^-k is below the reference precision: fully vested
		return total.Round(referencePrecision), nil
	}
	exponent := div(r, halfLife).Mul(ln2Dec).Neg()
	decay := inversePow2(k.IntPart()).Mul(expSmall(exponent))

	return total.Mul(decOne.Sub(decay)).Round(referencePrecision), nil
}

// decayHorizon is the number of whole half-lives after which total * 2^-k no longer shows
// within referencePrecision decimal places, plus guard digits. 10/3 bounds log2(10) from above.
func decayHorizon(total decimal.Decimal) int64 {
	const guard = 10
	bits := int64(total.Abs().BigInt().BitLen())
	return bits + int64(referencePrecision+guard)*10/3 + 1
}

// inversePow2 returns 2^-k exactly as 5^k / 10^k
func inversePow2(k int64) decimal.Decimal {
	if k <= 0 {
		return decOne
	}
	five := new(big.Int).Exp(big.NewInt(5), big.NewInt(k), nil)
	return decimal.NewFromBigInt(five, -int32(k))
}

// expSmall evaluates e^x by its Taylor series; |x| is expected to stay below one
func expSmall(x decimal.Decimal) decimal.Decimal {
	const guard = 10
	epsilon := decimal.New(1, -(referencePrecision + guard))

	sum, term := decOne, decOne
	for i := int64(1); ; i++ {
		term = term.Mul(x).DivRound(decimal.NewFromInt(i), referencePrecision+guard)
		if term.Abs().LessThan(epsilon) {
			break
		}
		sum = sum.Add(term)
	}
	return sum
}

// RefWeightedAverage returns (x*wx + y*wy) / (wx + wy) exactly
func RefWeightedAverage(x, y RefFraction, wx, wy decimal.Decimal) (RefFraction, error) {
	weight := wx.Add(wy)
	if x.D.IsZero() || y.D.IsZero() || weight.IsZero() {
		return RefFraction{}, ErrZeroValue
	}
	n := x.N.Mul(y.D).Mul(wx).Add(y.N.Mul(x.D).Mul(wy))
	d := x.D.Mul(y.D).Mul(weight)
	return RefFraction{N: n, D: d}, nil
}

// RefIsInRange reports whether offset is within maxDeviation ppm of base
func RefIsInRange(base, offset RefFraction, maxDeviation decimal.Decimal) (bool, error) {
	if base.D.IsZero() || offset.D.IsZero() {
		return false, ErrZeroValue
	}
	if maxDeviation.GreaterThan(ppmDec) {
		return false, ErrInvalidParam
	}
	lhs := base.N.Mul(offset.D)
	rhs := offset.N.Mul(base.D).Mul(ppmDec)
	lower := lhs.Mul(ppmDec.Sub(maxDeviation))
	upper := lhs.Mul(ppmDec.Add(maxDeviation))
	return lower.LessThanOrEqual(rhs) && rhs.LessThanOrEqual(upper), nil
}

// IsSurplus is the routing predicate b + c >= e
func (in RefWithdrawalInputs) IsSurplus() bool {
	return in.B.Add(in.C).GreaterThanOrEqual(in.E)
}

func (in RefWithdrawalInputs) validate() error {
	if in.A.IsZero() || in.E.IsZero() {
		return ErrZeroValue
	}
	if in.N.GreaterThan(ppmDec) || in.X.GreaterThan(in.E) {
		return ErrInvalidParam
	}
	return nil
}

// RefWithdrawalSurplus splits a withdrawal for a pool in surplus
func RefWithdrawalSurplus(in RefWithdrawalInputs) (*RefWithdrawalAmounts, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	balance := in.B.Add(in.C)
	if balance.IsZero() {
		return nil, ErrZeroValue
	}

	y := in.X.Mul(ppmDec.Sub(in.N))
	return &RefWithdrawalAmounts{
		S: div(y, ppmDec),
		T: decZero,
		U: decZero,
		R: div(y.Mul(in.A), ppmDec.Mul(balance)),
		Q: div(y.Mul(in.P), ppmDec.Mul(balance)),
		V: div(in.X.Mul(in.N), ppmDec),
	}, nil
}

// RefWithdrawalDeficit splits a withdrawal for a pool in deficit
func RefWithdrawalDeficit(in RefWithdrawalInputs) (*RefWithdrawalAmounts, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	// y*PPM, carried unscaled so every output is a single division
	y := in.X.Mul(ppmDec.Sub(in.N))
	denom := ppmDec.Mul(in.E)
	balance := in.B.Add(in.C)

	shortfall := decZero
	if balance.LessThan(in.E) {
		shortfall = div(y.Mul(in.E.Sub(balance)), denom)
	}
	u := decimal.Min(in.W, shortfall)

	return &RefWithdrawalAmounts{
		S: div(y.Mul(balance), denom),
		T: div(shortfall.Sub(u).Mul(in.P), in.A),
		U: u,
		R: div(y.Mul(in.A), denom),
		Q: div(y.Mul(in.P), denom),
		V: div(in.X.Mul(in.N), ppmDec),
	}, nil
}
