package abi

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcDataError struct {
	data interface{}
}

func (e rpcDataError) Error() string          { return "execution reverted" }
func (e rpcDataError) ErrorData() interface{} { return e.data }

func packWith(t *testing.T, selector []byte, typ string, value interface{}) []byte {
	t.Helper()
	packed, err := abi.Arguments{{Type: mustType(t, typ)}}.Pack(value)
	require.NoError(t, err)
	return append(append([]byte{}, selector...), packed...)
}

const errorsABI = `[
	{"type":"error","name":"AccessDenied","inputs":[{"name":"account","type":"address"}]},
	{"type":"error","name":"ZeroValue","inputs":[]}
]`

func TestRevertDecoder_Decode(t *testing.T) {
	contract := mustABI(t, errorsABI)
	account := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	selector := contract.Errors["AccessDenied"].ID
	accessDenied := packWith(t, selector[:4], "address", account)

	tests := []struct {
		name       string
		data       []byte
		abis       []*abi.ABI
		wantName   string
		wantReason string
	}{
		{
			name:       "empty data",
			data:       nil,
			wantReason: "reverted without data",
		},
		{
			name:       "Error(string)",
			data:       packWith(t, errorSelector, "string", "AccessControl: account is missing role"),
			wantName:   "Error",
			wantReason: "AccessControl: account is missing role",
		},
		{
			name:       "Panic(uint256)",
			data:       packWith(t, panicSelector, "uint256", big.NewInt(0x11)),
			wantName:   "Panic",
			wantReason: "arithmetic underflow or overflow",
		},
		{
			name:       "custom error",
			data:       accessDenied,
			abis:       []*abi.ABI{nil, contract},
			wantName:   "AccessDenied",
			wantReason: "AccessDenied(" + account.Hex() + ")",
		},
		{
			name:       "same custom error in two ABIs",
			data:       accessDenied,
			abis:       []*abi.ABI{contract, contract},
			wantName:   "AccessDenied",
			wantReason: "AccessDenied(" + account.Hex() + ")",
		},
		{
			name:       "custom error without its ABI",
			data:       accessDenied,
			wantReason: "unrecognized revert data " + hexutil.Encode(accessDenied),
		},
		{
			name:       "short data",
			data:       []byte{0x01, 0x02},
			wantReason: "unrecognized revert data 0x0102",
		},
	}

	d := NewRevertDecoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cause := errors.New("call failed")
			revert := d.Decode(tt.data, cause, tt.abis...)
			assert.Equal(t, tt.wantName, revert.Name)
			assert.Equal(t, tt.wantReason, revert.Reason)
			assert.ErrorIs(t, revert, cause)
			assert.Equal(t, "execution reverted: "+tt.wantReason, revert.Error())
		})
	}
}

func TestRevertDecoder_Describe(t *testing.T) {
	d := NewRevertDecoder()
	assert.NoError(t, d.Describe(nil))

	plain := errors.New("connection refused")
	assert.Same(t, plain, d.Describe(plain))

	data := packWith(t, errorSelector, "string", "paused")
	for _, payload := range []interface{}{hexutil.Encode(data), data, hexutil.Bytes(data)} {
		err := d.Describe(rpcDataError{data: payload})
		require.Error(t, err)
		assert.Equal(t, "execution reverted: paused", err.Error())
	}

	_, ok := RevertData(rpcDataError{data: "not hex"})
	assert.False(t, ok)
	_, ok = RevertData(rpcDataError{data: 42})
	assert.False(t, ok)
}
