package formula

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
)

// PPM is the parts-per-million resolution used by fee and deviation parameters
const PPM = 1_000_000

var (
	ppmInt = uint256.NewInt(PPM)

	// one is 1.0 in Q127 fixed point
	one = new(uint256.Int).Lsh(uint256.NewInt(1), 127)

	// ln2 is floor(ln(2) * 2^127)
	ln2 = uint256.MustFromDecimal("117932881612756647068972071382077242199")

	// maxReducedComponent bounds fraction components before they are multiplied together
	maxReducedComponent = new(uint256.Int).Lsh(uint256.NewInt(1), 96)

	maxExpDecayPeriods = uint256.NewInt(128)
)

// Fraction256 is an on-chain rate: a numerator/denominator pair of uint256 values
type Fraction256 struct {
	N *uint256.Int
	D *uint256.Int
}

// NewFraction256 creates a fraction from two uint64 values
func NewFraction256(n, d uint64) Fraction256 {
	return Fraction256{N: uint256.NewInt(n), D: uint256.NewInt(d)}
}

// WithdrawalInputs holds the pool state and request used by the withdrawal formula
type WithdrawalInputs struct {
	TknTradingLiquidity *uint256.Int // a
	TknVaultBalance     *uint256.Int // b
	TknExcessBalance    *uint256.Int // c
	TknStakedBalance    *uint256.Int // e
	ProtectionBalance   *uint256.Int // w
	BntTradingLiquidity *uint256.Int // p
	WithdrawalFeePPM    uint32       // n
	TknAmount           *uint256.Int // x
}

// IsSurplus reports whether the pool holds at least its staked balance (b + c >= e)
func (in WithdrawalInputs) IsSurplus() bool {
	sum, overflow := new(uint256.Int).AddOverflow(in.TknVaultBalance, in.TknExcessBalance)
	return overflow || !sum.Lt(in.TknStakedBalance)
}

// WithdrawalAmounts is the split of a withdrawal between the vault, the protection wallet and BNT
type WithdrawalAmounts struct {
	TknFromVault      *uint256.Int // s
	BntToMint         *uint256.Int // t
	TknFromProtection *uint256.Int // u
	TknLiquidityDelta *uint256.Int // r
	BntLiquidityDelta *uint256.Int // q
	WithdrawalFee     *uint256.Int // v
}

// Calculator evaluates the on-chain formulas. Each method mirrors one contract entry point.
type Calculator interface {
	FlatRewards(ctx context.Context, total, elapsed, duration *uint256.Int) (*uint256.Int, error)
	ExpDecayRewards(ctx context.Context, total, elapsed, halfLife *uint256.Int) (*uint256.Int, error)
	WeightedAverage(ctx context.Context, x, y Fraction256, wx, wy uint32) (Fraction256, error)
	IsInRange(ctx context.Context, base, offset Fraction256, maxDeviationPPM uint32) (bool, error)
	WithdrawalAmountsSurplus(ctx context.Context, in WithdrawalInputs) (*WithdrawalAmounts, error)
	WithdrawalAmountsDeficit(ctx context.Context, in WithdrawalInputs) (*WithdrawalAmounts, error)
}

// FixedPoint is a bit-exact Go port of the contracts' bounded-width integer formulas
type FixedPoint struct{}

// NewFixedPoint creates a fixed-point calculator
func NewFixedPoint() *FixedPoint {
	return &FixedPoint{}
}

// FlatRewards returns total * elapsed / duration, rounded down
func (FixedPoint) FlatRewards(_ context.Context, total, elapsed, duration *uint256.Int) (*uint256.Int, error) {
	if duration.IsZero() {
		return nil, ErrZeroValue
	}
	if elapsed.Gt(duration) {
		return nil, ErrInvalidParam
	}
	return mulDiv(total, elapsed, duration)
}

// ExpDecayRewards returns total * (1 - 2^(-elapsed/halfLife)), rounded down.
// The result never exceeds the exact value.
func (FixedPoint) ExpDecayRewards(_ context.Context, total, elapsed, halfLife *uint256.Int) (*uint256.Int, error) {
	if halfLife.IsZero() {
		return nil, ErrZeroValue
	}
	e, err := pow2(elapsed, halfLife)
	if err != nil {
		return nil, err
	}
	return mulDiv(total, new(uint256.Int).Sub(e, one), e)
}

// pow2 returns a lower bound of 2^(n/d) in Q127
func pow2(n, d *uint256.Int) (*uint256.Int, error) {
	periods := new(uint256.Int).Div(n, d)
	if !periods.Lt(maxExpDecayPeriods) {
		return nil, ErrOverflow
	}
	rem := new(uint256.Int).Mod(n, d)

	// x = rem/d * ln2 < ln2, so exp(x) < 2 and the sum stays below 2^128
	x, err := mulDiv(rem, ln2, d)
	if err != nil {
		return nil, err
	}

	sum := one.Clone()
	term := one.Clone()
	for i := uint64(1); !term.IsZero(); i++ {
		term.Mul(term, x)
		term.Rsh(term, 127)
		term.Div(term, uint256.NewInt(i))
		sum.Add(sum, term)
	}

	return sum.Lsh(sum, uint(periods.Uint64())), nil
}

// WeightedAverage returns (x*wx + y*wy) / (wx + wy) as a fraction
func (FixedPoint) WeightedAverage(_ context.Context, x, y Fraction256, wx, wy uint32) (Fraction256, error) {
	if x.D.IsZero() || y.D.IsZero() || uint64(wx)+uint64(wy) == 0 {
		return Fraction256{}, ErrZeroValue
	}
	x, err := reducedFraction(x, maxReducedComponent)
	if err != nil {
		return Fraction256{}, err
	}
	y, err = reducedFraction(y, maxReducedComponent)
	if err != nil {
		return Fraction256{}, err
	}

	wxInt := uint256.NewInt(uint64(wx))
	wyInt := uint256.NewInt(uint64(wy))

	left := new(uint256.Int).Mul(x.N, y.D)
	left.Mul(left, wxInt)
	right := new(uint256.Int).Mul(y.N, x.D)
	right.Mul(right, wyInt)

	d := new(uint256.Int).Mul(x.D, y.D)
	d.Mul(d, new(uint256.Int).Add(wxInt, wyInt))

	return Fraction256{N: left.Add(left, right), D: d}, nil
}

// IsInRange reports whether offset deviates from base by at most maxDeviationPPM
func (FixedPoint) IsInRange(_ context.Context, base, offset Fraction256, maxDeviationPPM uint32) (bool, error) {
	if base.D.IsZero() || offset.D.IsZero() {
		return false, ErrZeroValue
	}
	if maxDeviationPPM > PPM {
		return false, ErrInvalidParam
	}
	base, err := reducedFraction(base, maxReducedComponent)
	if err != nil {
		return false, err
	}
	offset, err = reducedFraction(offset, maxReducedComponent)
	if err != nil {
		return false, err
	}

	dev := uint256.NewInt(uint64(maxDeviationPPM))
	lhs := new(uint256.Int).Mul(base.N, offset.D)
	rhs := new(uint256.Int).Mul(offset.N, base.D)
	rhs.Mul(rhs, ppmInt)

	lower := new(uint256.Int).Mul(lhs, new(uint256.Int).Sub(ppmInt, dev))
	upper := new(uint256.Int).Mul(lhs, new(uint256.Int).Add(ppmInt, dev))

	return !lower.Gt(rhs) && !rhs.Gt(upper), nil
}

// WithdrawalAmountsSurplus splits a withdrawal for a pool whose vault covers its staked balance
func (FixedPoint) WithdrawalAmountsSurplus(_ context.Context, in WithdrawalInputs) (*WithdrawalAmounts, error) {
	xn, fee, err := withdrawalBase(in)
	if err != nil {
		return nil, err
	}

	balance, overflow := new(uint256.Int).AddOverflow(in.TknVaultBalance, in.TknExcessBalance)
	if overflow {
		return nil, ErrOverflow
	}
	if balance.IsZero() {
		return nil, ErrZeroValue
	}
	denom, err := mul(ppmInt, balance)
	if err != nil {
		return nil, err
	}

	r, err := mulDiv(xn, in.TknTradingLiquidity, denom)
	if err != nil {
		return nil, err
	}
	q, err := mulDiv(xn, in.BntTradingLiquidity, denom)
	if err != nil {
		return nil, err
	}

	return &WithdrawalAmounts{
		TknFromVault:      new(uint256.Int).Div(xn, ppmInt),
		BntToMint:         new(uint256.Int),
		TknFromProtection: new(uint256.Int),
		TknLiquidityDelta: r,
		BntLiquidityDelta: q,
		WithdrawalFee:     fee,
	}, nil
}

// WithdrawalAmountsDeficit splits a withdrawal for a pool whose vault is short of its staked balance.
// The shortfall is covered by the protection wallet first and by minted BNT after that.
func (FixedPoint) WithdrawalAmountsDeficit(_ context.Context, in WithdrawalInputs) (*WithdrawalAmounts, error) {
	xn, fee, err := withdrawalBase(in)
	if err != nil {
		return nil, err
	}

	balance, overflow := new(uint256.Int).AddOverflow(in.TknVaultBalance, in.TknExcessBalance)
	if overflow {
		return nil, ErrOverflow
	}
	denom, err := mul(ppmInt, in.TknStakedBalance)
	if err != nil {
		return nil, err
	}

	s, err := mulDiv(xn, balance, denom)
	if err != nil {
		return nil, err
	}
	r, err := mulDiv(xn, in.TknTradingLiquidity, denom)
	if err != nil {
		return nil, err
	}
	q, err := mulDiv(xn, in.BntTradingLiquidity, denom)
	if err != nil {
		return nil, err
	}

	// shortfall = y * (e - b - c) / e, kept as a numerator over denom
	shortfall := new(uint256.Int)
	if balance.Lt(in.TknStakedBalance) {
		shortfall, err = mul(xn, new(uint256.Int).Sub(in.TknStakedBalance, balance))
		if err != nil {
			return nil, err
		}
	}

	// the protection wallet covers the shortfall when w*denom >= shortfall
	u := new(uint256.Int).Div(shortfall, denom)
	t := new(uint256.Int)
	covered, overflow := new(uint256.Int).MulOverflow(in.ProtectionBalance, denom)
	if !overflow && covered.Lt(shortfall) {
		u = in.ProtectionBalance.Clone()

		tDenom, err := mul(denom, in.TknTradingLiquidity)
		if err != nil {
			return nil, err
		}
		t, err = mulDiv(new(uint256.Int).Sub(shortfall, covered), in.BntTradingLiquidity, tDenom)
		if err != nil {
			return nil, err
		}
	}

	return &WithdrawalAmounts{
		TknFromVault:      s,
		BntToMint:         t,
		TknFromProtection: u,
		TknLiquidityDelta: r,
		BntLiquidityDelta: q,
		WithdrawalFee:     fee,
	}, nil
}

// withdrawalBase validates the request and returns x*(PPM-n) and the fee x*n/PPM
func withdrawalBase(in WithdrawalInputs) (*uint256.Int, *uint256.Int, error) {
	if in.TknTradingLiquidity.IsZero() || in.TknStakedBalance.IsZero() {
		return nil, nil, ErrZeroValue
	}
	if in.WithdrawalFeePPM > PPM || in.TknAmount.Gt(in.TknStakedBalance) {
		return nil, nil, ErrInvalidParam
	}

	n := uint256.NewInt(uint64(in.WithdrawalFeePPM))
	xn, err := mul(in.TknAmount, new(uint256.Int).Sub(ppmInt, n))
	if err != nil {
		return nil, nil, err
	}
	fee, err := mulDiv(in.TknAmount, n, ppmInt)
	if err != nil {
		return nil, nil, err
	}
	return xn, fee, nil
}

// reducedFraction scales both components down until neither exceeds max
func reducedFraction(f Fraction256, max *uint256.Int) (Fraction256, error) {
	larger := f.N
	if f.D.Gt(larger) {
		larger = f.D
	}
	if !larger.Gt(max) {
		return f, nil
	}

	// scale = ceil(larger / max)
	scale := new(uint256.Int).Sub(larger, uint256.NewInt(1))
	scale.Div(scale, max)
	scale.AddUint64(scale, 1)

	reduced := Fraction256{
		N: new(uint256.Int).Div(f.N, scale),
		D: new(uint256.Int).Div(f.D, scale),
	}
	if reduced.D.IsZero() {
		return Fraction256{}, ErrZeroValue
	}
	return reduced, nil
}

func mul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// mulDiv returns floor(x*y/d) using a 512-bit intermediate product
func mulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrZeroValue
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// String renders the fraction as n/d
func (f Fraction256) String() string {
	return fmt.Sprintf("%s/%s", f.N.Dec(), f.D.Dec())
}

var _ Calculator = (*FixedPoint)(nil)
