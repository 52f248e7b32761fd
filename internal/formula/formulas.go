package formula

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Branches of the withdrawal formula
const (
	BranchSurplus = "surplus"
	BranchDeficit = "deficit"
)

// Formula binds one on-chain formula to its reference evaluator
type Formula struct {
	Name    string
	Inputs  []string
	Outputs []string

	// Branch classifies a case; formulas with a single entry point return ""
	Branch func(in Values) (string, error)

	Reference func(branch string, in Values) (Values, error)
	Actual    func(ctx context.Context, calc Calculator, branch string, in Values) (Values, error)

	// Sweep returns the deterministic parameter grid
	Sweep func() []Values
}

var formulas = []*Formula{
	flatRewardsFormula,
	expDecayRewardsFormula,
	weightedAverageFormula,
	isInRangeFormula,
	withdrawalAmountsFormula,
}

// Formulas returns every registered formula in a stable order
func Formulas() []*Formula {
	out := make([]*Formula, len(formulas))
	copy(out, formulas)
	return out
}

// Lookup finds a formula by name
func Lookup(name string) (*Formula, error) {
	for _, f := range formulas {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormula, name)
}

// Names lists the registered formula names
func Names() []string {
	names := make([]string, len(formulas))
	for i, f := range formulas {
		names[i] = f.Name
	}
	return names
}

// Evaluate runs the reference evaluator with positional inputs and returns positional outputs.
// Fraction outputs are returned as their decimal quotient.
func Evaluate(name string, inputs []decimal.Decimal) ([]decimal.Decimal, error) {
	f, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if len(inputs) != len(f.Inputs) {
		return nil, fmt.Errorf("%w: %s takes %d inputs, got %d", ErrInvalidInput, name, len(f.Inputs), len(inputs))
	}

	in := make(Values, len(inputs))
	for i, field := range f.Inputs {
		in[field] = Scalar(inputs[i])
	}
	branch, err := f.Branch(in)
	if err != nil {
		return nil, err
	}
	out, err := f.Reference(branch, in)
	if err != nil {
		return nil, err
	}

	result := make([]decimal.Decimal, len(f.Outputs))
	for i, field := range f.Outputs {
		result[i] = out[field].Decimal()
	}
	return result, nil
}

func noBranch(Values) (string, error) {
	return "", nil
}

var flatRewardsFormula = &Formula{
	Name:    "flatRewards",
	Inputs:  []string{"totalRewards", "elapsed", "duration"},
	Outputs: []string{"reward"},
	Branch:  noBranch,
	Reference: func(_ string, in Values) (Values, error) {
		args, err := decimals(in, "totalRewards", "elapsed", "duration")
		if err != nil {
			return nil, err
		}
		reward, err := RefFlatRewards(args[0], args[1], args[2])
		if err != nil {
			return nil, err
		}
		return Values{"reward": Scalar(reward)}, nil
	},
	Actual: func(ctx context.Context, calc Calculator, _ string, in Values) (Values, error) {
		total, elapsed, duration, err := uint256Triple(in, "totalRewards", "elapsed", "duration")
		if err != nil {
			return nil, err
		}
		reward, err := calc.FlatRewards(ctx, total, elapsed, duration)
		if err != nil {
			return nil, err
		}
		return Values{"reward": FromUint256(reward)}, nil
	},
	Sweep: flatRewardsSweep,
}

var expDecayRewardsFormula = &Formula{
	Name:    "expDecayRewards",
	Inputs:  []string{"totalRewards", "elapsed", "halfLife"},
	Outputs: []string{"reward"},
	Branch:  noBranch,
	Reference: func(_ string, in Values) (Values, error) {
		args, err := decimals(in, "totalRewards", "elapsed", "halfLife")
		if err != nil {
			return nil, err
		}
		reward, err := RefExpDecayRewards(args[0], args[1], args[2])
		if err != nil {
			return nil, err
		}
		return Values{"reward": Scalar(reward)}, nil
	},
	Actual: func(ctx context.Context, calc Calculator, _ string, in Values) (Values, error) {
		total, elapsed, halfLife, err := uint256Triple(in, "totalRewards", "elapsed", "halfLife")
		if err != nil {
			return nil, err
		}
		reward, err := calc.ExpDecayRewards(ctx, total, elapsed, halfLife)
		if err != nil {
			return nil, err
		}
		return Values{"reward": FromUint256(reward)}, nil
	},
	Sweep: expDecayRewardsSweep,
}

var weightedAverageFormula = &Formula{
	Name:    "weightedAverage",
	Inputs:  []string{"xn", "xd", "yn", "yd", "wx", "wy"},
	Outputs: []string{"average"},
	Branch:  noBranch,
	Reference: func(_ string, in Values) (Values, error) {
		args, err := decimals(in, "xn", "xd", "yn", "yd", "wx", "wy")
		if err != nil {
			return nil, err
		}
		avg, err := RefWeightedAverage(RefFraction{args[0], args[1]}, RefFraction{args[2], args[3]}, args[4], args[5])
		if err != nil {
			return nil, err
		}
		return Values{"average": Ratio(avg.N, avg.D)}, nil
	},
	Actual: func(ctx context.Context, calc Calculator, _ string, in Values) (Values, error) {
		x, err := fraction256(in, "xn", "xd")
		if err != nil {
			return nil, err
		}
		y, err := fraction256(in, "yn", "yd")
		if err != nil {
			return nil, err
		}
		wx, err := in.uint32("wx")
		if err != nil {
			return nil, err
		}
		wy, err := in.uint32("wy")
		if err != nil {
			return nil, err
		}
		avg, err := calc.WeightedAverage(ctx, x, y, wx, wy)
		if err != nil {
			return nil, err
		}
		return Values{"average": FromFraction256(avg)}, nil
	},
	Sweep: weightedAverageSweep,
}

var isInRangeFormula = &Formula{
	Name:    "isInRange",
	Inputs:  []string{"baseN", "baseD", "offsetN", "offsetD", "maxDeviation"},
	Outputs: []string{"inRange"},
	Branch:  noBranch,
	Reference: func(_ string, in Values) (Values, error) {
		args, err := decimals(in, "baseN", "baseD", "offsetN", "offsetD", "maxDeviation")
		if err != nil {
			return nil, err
		}
		ok, err := RefIsInRange(RefFraction{args[0], args[1]}, RefFraction{args[2], args[3]}, args[4])
		if err != nil {
			return nil, err
		}
		return Values{"inRange": Bool(ok)}, nil
	},
	Actual: func(ctx context.Context, calc Calculator, _ string, in Values) (Values, error) {
		base, err := fraction256(in, "baseN", "baseD")
		if err != nil {
			return nil, err
		}
		offset, err := fraction256(in, "offsetN", "offsetD")
		if err != nil {
			return nil, err
		}
		dev, err := in.uint32("maxDeviation")
		if err != nil {
			return nil, err
		}
		ok, err := calc.IsInRange(ctx, base, offset, dev)
		if err != nil {
			return nil, err
		}
		return Values{"inRange": Bool(ok)}, nil
	},
	Sweep: isInRangeSweep,
}

var withdrawalAmountsFormula = &Formula{
	Name:    "withdrawalAmounts",
	Inputs:  []string{"a", "b", "c", "e", "w", "p", "n", "x"},
	Outputs: []string{"s", "t", "u", "r", "q", "v"},
	Branch: func(in Values) (string, error) {
		ref, err := refWithdrawalInputs(in)
		if err != nil {
			return "", err
		}
		if ref.IsSurplus() {
			return BranchSurplus, nil
		}
		return BranchDeficit, nil
	},
	Reference: func(branch string, in Values) (Values, error) {
		ref, err := refWithdrawalInputs(in)
		if err != nil {
			return nil, err
		}
		var amounts *RefWithdrawalAmounts
		switch branch {
		case BranchSurplus:
			amounts, err = RefWithdrawalSurplus(ref)
		case BranchDeficit:
			amounts, err = RefWithdrawalDeficit(ref)
		default:
			return nil, fmt.Errorf("%w: unknown withdrawal branch %q", ErrInvalidInput, branch)
		}
		if err != nil {
			return nil, err
		}
		return Values{
			"s": Scalar(amounts.S),
			"t": Scalar(amounts.T),
			"u": Scalar(amounts.U),
			"r": Scalar(amounts.R),
			"q": Scalar(amounts.Q),
			"v": Scalar(amounts.V),
		}, nil
	},
	Actual: func(ctx context.Context, calc Calculator, branch string, in Values) (Values, error) {
		wi, err := withdrawalInputs(in)
		if err != nil {
			return nil, err
		}
		var amounts *WithdrawalAmounts
		switch branch {
		case BranchSurplus:
			amounts, err = calc.WithdrawalAmountsSurplus(ctx, wi)
		case BranchDeficit:
			amounts, err = calc.WithdrawalAmountsDeficit(ctx, wi)
		default:
			return nil, fmt.Errorf("%w: unknown withdrawal branch %q", ErrInvalidInput, branch)
		}
		if err != nil {
			return nil, err
		}
		return Values{
			"s": FromUint256(amounts.TknFromVault),
			"t": FromUint256(amounts.BntToMint),
			"u": FromUint256(amounts.TknFromProtection),
			"r": FromUint256(amounts.TknLiquidityDelta),
			"q": FromUint256(amounts.BntLiquidityDelta),
			"v": FromUint256(amounts.WithdrawalFee),
		}, nil
	},
	Sweep: withdrawalAmountsSweep,
}

func decimals(in Values, names ...string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(names))
	for i, name := range names {
		d, err := in.decimal(name)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

func uint256Triple(in Values, a, b, c string) (x, y, z *uint256.Int, err error) {
	if x, err = in.uint256(a); err != nil {
		return
	}
	if y, err = in.uint256(b); err != nil {
		return
	}
	z, err = in.uint256(c)
	return
}

func fraction256(in Values, n, d string) (Fraction256, error) {
	num, err := in.uint256(n)
	if err != nil {
		return Fraction256{}, err
	}
	den, err := in.uint256(d)
	if err != nil {
		return Fraction256{}, err
	}
	return Fraction256{N: num, D: den}, nil
}

func refWithdrawalInputs(in Values) (RefWithdrawalInputs, error) {
	args, err := decimals(in, "a", "b", "c", "e", "w", "p", "n", "x")
	if err != nil {
		return RefWithdrawalInputs{}, err
	}
	return RefWithdrawalInputs{
		A: args[0], B: args[1], C: args[2], E: args[3],
		W: args[4], P: args[5], N: args[6], X: args[7],
	}, nil
}

func withdrawalInputs(in Values) (WithdrawalInputs, error) {
	var wi WithdrawalInputs
	fields := []struct {
		name string
		dst  **uint256.Int
	}{
		{"a", &wi.TknTradingLiquidity},
		{"b", &wi.TknVaultBalance},
		{"c", &wi.TknExcessBalance},
		{"e", &wi.TknStakedBalance},
		{"w", &wi.ProtectionBalance},
		{"p", &wi.BntTradingLiquidity},
		{"x", &wi.TknAmount},
	}
	for _, f := range fields {
		v, err := in.uint256(f.name)
		if err != nil {
			return WithdrawalInputs{}, err
		}
		*f.dst = v
	}
	n, err := in.uint32("n")
	if err != nil {
		return WithdrawalInputs{}, err
	}
	wi.WithdrawalFeePPM = n
	return wi, nil
}
