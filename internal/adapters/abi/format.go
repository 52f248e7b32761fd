package abi

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DecodedInput represents a decoded function or constructor input
type DecodedInput struct {
	Name  string
	Type  string
	Value any
}

// DecodeConstructor decodes ABI-encoded constructor arguments
func DecodeConstructor(contract *abi.ABI, constructorArgs []byte) ([]DecodedInput, error) {
	if len(constructorArgs) == 0 {
		return []DecodedInput{}, nil
	}
	if contract.Constructor.Inputs == nil {
		return nil, fmt.Errorf("no constructor found in ABI")
	}

	values, err := contract.Constructor.Inputs.Unpack(constructorArgs)
	if err != nil {
		return nil, fmt.Errorf("failed to decode constructor args: %w", err)
	}
	decoded := make([]DecodedInput, 0, len(contract.Constructor.Inputs))
	for i, input := range contract.Constructor.Inputs {
		if i < len(values) {
			decoded = append(decoded, DecodedInput{
				Name:  input.Name,
				Type:  input.Type.String(),
				Value: values[i],
			})
		}
	}
	return decoded, nil
}

// FormatArgs renders encoded constructor arguments the way the history log stores them
func (e *ArgEncoder) FormatArgs(contract *abi.ABI, encoded []byte) ([]string, error) {
	inputs, err := DecodeConstructor(contract, encoded)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(inputs))
	for i, input := range inputs {
		out[i] = FormatValue(input.Value)
	}
	return out, nil
}

// FormatValue formats a decoded value for the history log and for display. Values are never
// truncated.
func FormatValue(value any) string {
	switch v := value.(type) {
	case common.Address:
		return v.Hex()
	case *big.Int:
		return v.String()
	case []byte:
		if len(v) == 0 {
			return "0x"
		}
		return hexutil.Encode(v)
	case string:
		return v
	case bool:
		return fmt.Sprintf("%t", v)
	case [32]byte:
		return hexutil.Encode(v[:])
	case []common.Address:
		out := "["
		for i, a := range v {
			if i > 0 {
				out += ","
			}
			out += a.Hex()
		}
		return out + "]"
	default:
		if jsonBytes, err := json.Marshal(v); err == nil {
			return string(jsonBytes)
		}
		return fmt.Sprintf("%v", v)
	}
}
