package blockchain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-amm/internal/domain/bindings"
	"github.com/trebuchet-org/treb-amm/internal/formula"
)

type rpcRevert struct{ data []byte }

func (e *rpcRevert) Error() string          { return "execution reverted" }
func (e *rpcRevert) ErrorCode() int         { return 3 }
func (e *rpcRevert) ErrorData() interface{} { return hexutil.Encode(e.data) }

// fixedPointCaller answers harness calls with the Go fixed-point port
type fixedPointCaller struct {
	calls int
	err   error
}

func (f *fixedPointCaller) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	h := bindings.NewFormulaHarness()
	method, err := h.ABI().MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	fp := formula.NewFixedPoint()
	u := func(i int) *uint256.Int { return uint256.MustFromBig(args[i].(*big.Int)) }

	switch method.Name {
	case "flatRewards":
		out, err := fp.FlatRewards(ctx, u(0), u(1), u(2))
		if err != nil {
			return nil, revertFor(err)
		}
		return method.Outputs.Pack(out.ToBig())
	case "weightedAverage":
		out, err := fp.WeightedAverage(ctx,
			formula.Fraction256{N: u(0), D: u(1)}, formula.Fraction256{N: u(2), D: u(3)},
			args[4].(uint32), args[5].(uint32))
		if err != nil {
			return nil, revertFor(err)
		}
		return method.Outputs.Pack(out.N.ToBig(), out.D.ToBig())
	}
	return nil, errors.New("not emulated")
}

func revertFor(err error) error {
	reason, _ := formula.RevertReason(err)
	h := bindings.NewFormulaHarness()
	e := h.ABI().Errors[reason]
	return &rpcRevert{data: e.ID[:4]}
}

func TestFormulaHarness_FlatRewards(t *testing.T) {
	caller := &fixedPointCaller{}
	h := NewFormulaHarness(caller, common.HexToAddress("0x1"))

	got, err := h.FlatRewards(context.Background(), uint256.NewInt(1000), uint256.NewInt(5*86400), uint256.NewInt(10*86400))
	require.NoError(t, err)
	assert.Equal(t, uint64(500), got.Uint64())
	assert.Equal(t, 1, caller.calls)
}

func TestFormulaHarness_WeightedAverage(t *testing.T) {
	h := NewFormulaHarness(&fixedPointCaller{}, common.HexToAddress("0x1"))

	got, err := h.WeightedAverage(context.Background(),
		formula.NewFraction256(1, 2), formula.NewFraction256(3, 4), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, new(big.Int).Mul(got.N.ToBig(), big.NewInt(8)).Cmp(new(big.Int).Mul(got.D.ToBig(), big.NewInt(5))))
}

func TestFormulaHarness_CustomErrorBecomesFormulaRevert(t *testing.T) {
	h := NewFormulaHarness(&fixedPointCaller{}, common.HexToAddress("0x1"))

	_, err := h.FlatRewards(context.Background(), uint256.NewInt(1000), uint256.NewInt(1), uint256.NewInt(0))
	require.Error(t, err)
	assert.ErrorIs(t, err, formula.ErrZeroValue)
}

func TestFormulaHarness_TransportErrorsPassThrough(t *testing.T) {
	boom := errors.New("connection refused")
	h := NewFormulaHarness(&fixedPointCaller{err: boom}, common.HexToAddress("0x1"))

	_, err := h.FlatRewards(context.Background(), uint256.NewInt(1), uint256.NewInt(1), uint256.NewInt(1))
	assert.ErrorIs(t, err, boom)
}
