package bindings

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
)

// FormulaHarnessMetaData describes the test contract that exposes the pool formulas
// as external view functions.
var FormulaHarnessMetaData = bind.MetaData{
	ABI: `[
{"type":"function","name":"flatRewards","stateMutability":"pure","inputs":[{"name":"totalRewards","type":"uint256"},{"name":"elapsed","type":"uint256"},{"name":"duration","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"expDecayRewards","stateMutability":"pure","inputs":[{"name":"totalRewards","type":"uint256"},{"name":"elapsed","type":"uint256"},{"name":"halfLife","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"weightedAverage","stateMutability":"pure","inputs":[{"name":"xn","type":"uint256"},{"name":"xd","type":"uint256"},{"name":"yn","type":"uint256"},{"name":"yd","type":"uint256"},{"name":"wx","type":"uint32"},{"name":"wy","type":"uint32"}],"outputs":[{"name":"n","type":"uint256"},{"name":"d","type":"uint256"}]},
{"type":"function","name":"isInRange","stateMutability":"pure","inputs":[{"name":"baseN","type":"uint256"},{"name":"baseD","type":"uint256"},{"name":"offsetN","type":"uint256"},{"name":"offsetD","type":"uint256"},{"name":"maxDeviationPPM","type":"uint32"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"withdrawalAmountsSurplus","stateMutability":"pure","inputs":[{"name":"a","type":"uint256"},{"name":"b","type":"uint256"},{"name":"c","type":"uint256"},{"name":"e","type":"uint256"},{"name":"w","type":"uint256"},{"name":"p","type":"uint256"},{"name":"n","type":"uint32"},{"name":"x","type":"uint256"}],"outputs":[{"name":"s","type":"uint256"},{"name":"t","type":"uint256"},{"name":"u","type":"uint256"},{"name":"r","type":"uint256"},{"name":"q","type":"uint256"},{"name":"v","type":"uint256"}]},
{"type":"function","name":"withdrawalAmountsDeficit","stateMutability":"pure","inputs":[{"name":"a","type":"uint256"},{"name":"b","type":"uint256"},{"name":"c","type":"uint256"},{"name":"e","type":"uint256"},{"name":"w","type":"uint256"},{"name":"p","type":"uint256"},{"name":"n","type":"uint32"},{"name":"x","type":"uint256"}],"outputs":[{"name":"s","type":"uint256"},{"name":"t","type":"uint256"},{"name":"u","type":"uint256"},{"name":"r","type":"uint256"},{"name":"q","type":"uint256"},{"name":"v","type":"uint256"}]},
{"type":"error","name":"ZeroValue","inputs":[]},
{"type":"error","name":"Overflow","inputs":[]},
{"type":"error","name":"InvalidParam","inputs":[]}
]`,
	ID: "FormulaHarness",
}

// FormulaHarness is a Go binding around the formula test contract.
type FormulaHarness struct {
	abi abi.ABI
}

// NewFormulaHarness creates a new instance of FormulaHarness.
func NewFormulaHarness() *FormulaHarness {
	parsed, err := FormulaHarnessMetaData.ParseABI()
	if err != nil {
		panic(errors.New("invalid ABI: " + err.Error()))
	}
	return &FormulaHarness{abi: *parsed}
}

// ABI returns the parsed ABI
func (c *FormulaHarness) ABI() *abi.ABI {
	return &c.abi
}

// PackFlatRewards packs flatRewards(uint256,uint256,uint256)
func (c *FormulaHarness) PackFlatRewards(total, elapsed, duration *big.Int) []byte {
	return mustPack(&c.abi, "flatRewards", total, elapsed, duration)
}

// PackExpDecayRewards packs expDecayRewards(uint256,uint256,uint256)
func (c *FormulaHarness) PackExpDecayRewards(total, elapsed, halfLife *big.Int) []byte {
	return mustPack(&c.abi, "expDecayRewards", total, elapsed, halfLife)
}

// UnpackUint256 unpacks the single uint256 result of method
func (c *FormulaHarness) UnpackUint256(method string, data []byte) (*big.Int, error) {
	out, err := c.abi.Unpack(method, data)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// PackWeightedAverage packs weightedAverage(uint256,uint256,uint256,uint256,uint32,uint32)
func (c *FormulaHarness) PackWeightedAverage(xn, xd, yn, yd *big.Int, wx, wy uint32) []byte {
	return mustPack(&c.abi, "weightedAverage", xn, xd, yn, yd, wx, wy)
}

// UnpackWeightedAverage unpacks the (n, d) result of weightedAverage
func (c *FormulaHarness) UnpackWeightedAverage(data []byte) (*big.Int, *big.Int, error) {
	out, err := c.abi.Unpack("weightedAverage", data)
	if err != nil {
		return nil, nil, err
	}
	n := abi.ConvertType(out[0], new(big.Int)).(*big.Int)
	d := abi.ConvertType(out[1], new(big.Int)).(*big.Int)
	return n, d, nil
}

// PackIsInRange packs isInRange(uint256,uint256,uint256,uint256,uint32)
func (c *FormulaHarness) PackIsInRange(baseN, baseD, offsetN, offsetD *big.Int, maxDeviationPPM uint32) []byte {
	return mustPack(&c.abi, "isInRange", baseN, baseD, offsetN, offsetD, maxDeviationPPM)
}

// UnpackIsInRange unpacks the isInRange result
func (c *FormulaHarness) UnpackIsInRange(data []byte) (bool, error) {
	out, err := c.abi.Unpack("isInRange", data)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// FormulaHarnessWithdrawalInput is the argument list of both withdrawal entry points
type FormulaHarnessWithdrawalInput struct {
	A, B, C, E, W, P *big.Int
	N                uint32
	X                *big.Int
}

// FormulaHarnessWithdrawalAmounts is the output tuple of both withdrawal entry points
type FormulaHarnessWithdrawalAmounts struct {
	S, T, U, R, Q, V *big.Int
}

// PackWithdrawalAmounts packs withdrawalAmountsSurplus or withdrawalAmountsDeficit
func (c *FormulaHarness) PackWithdrawalAmounts(method string, in FormulaHarnessWithdrawalInput) ([]byte, error) {
	return c.abi.Pack(method, in.A, in.B, in.C, in.E, in.W, in.P, in.N, in.X)
}

// UnpackWithdrawalAmounts unpacks the six-value result of a withdrawal entry point
func (c *FormulaHarness) UnpackWithdrawalAmounts(method string, data []byte) (*FormulaHarnessWithdrawalAmounts, error) {
	out, err := c.abi.Unpack(method, data)
	if err != nil {
		return nil, err
	}
	if len(out) != 6 {
		return nil, errors.New("unexpected withdrawal amounts length")
	}
	vals := make([]*big.Int, 6)
	for i := range out {
		vals[i] = abi.ConvertType(out[i], new(big.Int)).(*big.Int)
	}
	return &FormulaHarnessWithdrawalAmounts{
		S: vals[0], T: vals[1], U: vals[2], R: vals[3], Q: vals[4], V: vals[5],
	}, nil
}
