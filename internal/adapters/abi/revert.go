package abi

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-amm/internal/domain"
)

var (
	errorSelector = crypto.Keccak256([]byte("Error(string)"))[:4]
	panicSelector = crypto.Keccak256([]byte("Panic(uint256)"))[:4]
)

// RevertDecoder explains revert data. Candidates are tried in a fixed priority: custom errors
// of the given ABIs, Error(string), Panic(uint256), empty data. Anything else is surfaced raw.
type RevertDecoder struct{}

// NewRevertDecoder creates a decoder
func NewRevertDecoder() *RevertDecoder {
	return &RevertDecoder{}
}

// Describe wraps err in a domain.RevertError when it carries revert data. Errors without
// revert data are returned unchanged.
func (d *RevertDecoder) Describe(err error, abis ...*abi.ABI) error {
	if err == nil {
		return nil
	}
	data, ok := RevertData(err)
	if !ok {
		return err
	}
	return d.Decode(data, err, abis...)
}

// Decode explains data; cause is kept as the unwrapped error
func (d *RevertDecoder) Decode(data []byte, cause error, abis ...*abi.ABI) *domain.RevertError {
	revert := &domain.RevertError{Data: data, Err: cause}

	if len(data) == 0 {
		revert.Reason = "reverted without data"
		return revert
	}

	if len(data) >= 4 {
		var matches []string
		for _, contract := range abis {
			if contract == nil {
				continue
			}
			for _, e := range contract.Errors {
				if !bytes.Equal(e.ID[:4], data[:4]) {
					continue
				}
				if custom, ok := formatCustomError(e, data[4:]); ok && !lo.Contains(matches, custom) {
					matches = append(matches, custom)
					if revert.Name == "" {
						revert.Name = e.Name
					}
				}
			}
		}
		switch {
		case len(matches) == 1:
			revert.Reason = matches[0]
			return revert
		case len(matches) > 1:
			revert.Reason = fmt.Sprintf("%s (ambiguous: %s)", matches[0], strings.Join(matches[1:], ", "))
			return revert
		}

		if bytes.Equal(data[:4], errorSelector) || bytes.Equal(data[:4], panicSelector) {
			if reason, err := abi.UnpackRevert(data); err == nil {
				revert.Name = lo.Ternary(bytes.Equal(data[:4], errorSelector), "Error", "Panic")
				revert.Reason = reason
				return revert
			}
		}
	}

	revert.Reason = fmt.Sprintf("unrecognized revert data %s", hexutil.Encode(data))
	return revert
}

func formatCustomError(e abi.Error, args []byte) (string, bool) {
	values, err := e.Inputs.Unpack(args)
	if err != nil {
		return "", false
	}
	formatted := make([]string, len(values))
	for i, v := range values {
		formatted[i] = FormatValue(v)
	}
	return fmt.Sprintf("%s(%s)", e.Name, strings.Join(formatted, ", ")), true
}

// RevertData extracts revert data from a JSON-RPC error
func RevertData(err error) ([]byte, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return nil, false
	}
	switch v := dataErr.ErrorData().(type) {
	case string:
		data, err := hexutil.Decode(v)
		if err != nil {
			return nil, false
		}
		return data, true
	case []byte:
		return v, true
	case hexutil.Bytes:
		return v, true
	}
	return nil, false
}
