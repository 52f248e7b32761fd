package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	abiadapter "github.com/trebuchet-org/treb-amm/internal/adapters/abi"
	"github.com/trebuchet-org/treb-amm/internal/domain/bindings"
	"github.com/trebuchet-org/treb-amm/internal/formula"
)

// Caller runs read-only calls
type Caller interface {
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// FormulaHarness evaluates the formulas through eth_call on a deployed formula test contract
type FormulaHarness struct {
	caller  Caller
	address common.Address
	binding *bindings.FormulaHarness
	decoder *abiadapter.RevertDecoder
}

// NewFormulaHarness binds the harness deployed at address
func NewFormulaHarness(caller Caller, address common.Address) *FormulaHarness {
	return &FormulaHarness{
		caller:  caller,
		address: address,
		binding: bindings.NewFormulaHarness(),
		decoder: abiadapter.NewRevertDecoder(),
	}
}

func (h *FormulaHarness) call(ctx context.Context, data []byte) ([]byte, error) {
	out, err := h.caller.Call(ctx, h.address, data)
	if err == nil {
		return out, nil
	}
	revertData, ok := abiadapter.RevertData(err)
	if !ok {
		return nil, fmt.Errorf("formula harness call: %w", err)
	}
	revert := h.decoder.Decode(revertData, err, h.binding.ABI())
	if _, custom := h.binding.ABI().Errors[revert.Name]; custom {
		return nil, formula.NewRevert(revert.Name)
	}
	return nil, formula.NewRevert(revert.Reason)
}

// FlatRewards calls flatRewards
func (h *FormulaHarness) FlatRewards(ctx context.Context, total, elapsed, duration *uint256.Int) (*uint256.Int, error) {
	out, err := h.call(ctx, h.binding.PackFlatRewards(total.ToBig(), elapsed.ToBig(), duration.ToBig()))
	if err != nil {
		return nil, err
	}
	return h.uint256("flatRewards", out)
}

// ExpDecayRewards calls expDecayRewards
func (h *FormulaHarness) ExpDecayRewards(ctx context.Context, total, elapsed, halfLife *uint256.Int) (*uint256.Int, error) {
	out, err := h.call(ctx, h.binding.PackExpDecayRewards(total.ToBig(), elapsed.ToBig(), halfLife.ToBig()))
	if err != nil {
		return nil, err
	}
	return h.uint256("expDecayRewards", out)
}

// WeightedAverage calls weightedAverage
func (h *FormulaHarness) WeightedAverage(ctx context.Context, x, y formula.Fraction256, wx, wy uint32) (formula.Fraction256, error) {
	out, err := h.call(ctx, h.binding.PackWeightedAverage(x.N.ToBig(), x.D.ToBig(), y.N.ToBig(), y.D.ToBig(), wx, wy))
	if err != nil {
		return formula.Fraction256{}, err
	}
	n, d, err := h.binding.UnpackWeightedAverage(out)
	if err != nil {
		return formula.Fraction256{}, err
	}
	nn, err := toUint256(n)
	if err != nil {
		return formula.Fraction256{}, err
	}
	dd, err := toUint256(d)
	if err != nil {
		return formula.Fraction256{}, err
	}
	return formula.Fraction256{N: nn, D: dd}, nil
}

// IsInRange calls isInRange
func (h *FormulaHarness) IsInRange(ctx context.Context, base, offset formula.Fraction256, maxDeviationPPM uint32) (bool, error) {
	out, err := h.call(ctx, h.binding.PackIsInRange(base.N.ToBig(), base.D.ToBig(), offset.N.ToBig(), offset.D.ToBig(), maxDeviationPPM))
	if err != nil {
		return false, err
	}
	return h.binding.UnpackIsInRange(out)
}

// WithdrawalAmountsSurplus calls withdrawalAmountsSurplus
func (h *FormulaHarness) WithdrawalAmountsSurplus(ctx context.Context, in formula.WithdrawalInputs) (*formula.WithdrawalAmounts, error) {
	return h.withdrawal(ctx, "withdrawalAmountsSurplus", in)
}

// WithdrawalAmountsDeficit calls withdrawalAmountsDeficit
func (h *FormulaHarness) WithdrawalAmountsDeficit(ctx context.Context, in formula.WithdrawalInputs) (*formula.WithdrawalAmounts, error) {
	return h.withdrawal(ctx, "withdrawalAmountsDeficit", in)
}

func (h *FormulaHarness) withdrawal(ctx context.Context, method string, in formula.WithdrawalInputs) (*formula.WithdrawalAmounts, error) {
	data, err := h.binding.PackWithdrawalAmounts(method, bindings.FormulaHarnessWithdrawalInput{
		A: in.TknTradingLiquidity.ToBig(),
		B: in.TknVaultBalance.ToBig(),
		C: in.TknExcessBalance.ToBig(),
		E: in.TknStakedBalance.ToBig(),
		W: in.ProtectionBalance.ToBig(),
		P: in.BntTradingLiquidity.ToBig(),
		N: in.WithdrawalFeePPM,
		X: in.TknAmount.ToBig(),
	})
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	out, err := h.call(ctx, data)
	if err != nil {
		return nil, err
	}
	amounts, err := h.binding.UnpackWithdrawalAmounts(method, out)
	if err != nil {
		return nil, err
	}

	vals := make([]*uint256.Int, 0, 6)
	for _, v := range []*big.Int{amounts.S, amounts.T, amounts.U, amounts.R, amounts.Q, amounts.V} {
		u, err := toUint256(v)
		if err != nil {
			return nil, err
		}
		vals = append(vals, u)
	}
	return &formula.WithdrawalAmounts{
		TknFromVault:      vals[0],
		BntToMint:         vals[1],
		TknFromProtection: vals[2],
		TknLiquidityDelta: vals[3],
		BntLiquidityDelta: vals[4],
		WithdrawalFee:     vals[5],
	}, nil
}

func (h *FormulaHarness) uint256(method string, out []byte) (*uint256.Int, error) {
	v, err := h.binding.UnpackUint256(method, out)
	if err != nil {
		return nil, err
	}
	return toUint256(v)
}

func toUint256(v *big.Int) (*uint256.Int, error) {
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("value %s exceeds 256 bits", v)
	}
	return u, nil
}

var _ formula.Calculator = (*FormulaHarness)(nil)
