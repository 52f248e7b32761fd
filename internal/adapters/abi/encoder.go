package abi

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// ArgEncoder converts the textual arguments of a migration file into ABI-encoded data
type ArgEncoder struct{}

// NewArgEncoder creates an encoder
func NewArgEncoder() *ArgEncoder {
	return &ArgEncoder{}
}

// EncodeConstructor encodes constructor arguments, without the bytecode
func (e *ArgEncoder) EncodeConstructor(contract *abi.ABI, args []string) ([]byte, error) {
	if len(contract.Constructor.Inputs) == 0 {
		if len(args) > 0 {
			return nil, fmt.Errorf("constructor takes no arguments, got %d", len(args))
		}
		return nil, nil
	}
	values, err := parseArgs(contract.Constructor.Inputs, args)
	if err != nil {
		return nil, err
	}
	return contract.Pack("", values...)
}

// EncodeCall encodes a method call with its selector
func (e *ArgEncoder) EncodeCall(contract *abi.ABI, method string, args []string) ([]byte, error) {
	m, ok := contract.Methods[method]
	if !ok {
		return nil, fmt.Errorf("method %s not found in ABI", method)
	}
	values, err := parseArgs(m.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Sig, err)
	}
	return contract.Pack(method, values...)
}

func parseArgs(inputs abi.Arguments, args []string) ([]interface{}, error) {
	if len(inputs) != len(args) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(inputs), len(args))
	}
	values := make([]interface{}, len(args))
	for i, input := range inputs {
		v, err := ParseValue(input.Type, args[i])
		if err != nil {
			name := input.Name
			if name == "" {
				name = strconv.Itoa(i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", name, input.Type, err)
		}
		values[i] = v
	}
	return values, nil
}

// ParseValue converts s into the Go value go-ethereum packs for t
func ParseValue(t abi.Type, s string) (interface{}, error) {
	s = strings.TrimSpace(s)

	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("%q: %w", s, domain.ErrInvalidAddress)
		}
		return common.HexToAddress(s), nil

	case abi.UintTy, abi.IntTy:
		n, err := parseInteger(s)
		if err != nil {
			return nil, err
		}
		return sizedInteger(t, n)

	case abi.BoolTy:
		return strconv.ParseBool(s)

	case abi.StringTy:
		if unquoted, err := strconv.Unquote(s); err == nil {
			return unquoted, nil
		}
		return s, nil

	case abi.BytesTy:
		return hexutil.Decode(normalizeHex(s))

	case abi.FixedBytesTy:
		b, err := hexutil.Decode(normalizeHex(s))
		if err != nil {
			return nil, err
		}
		if len(b) > t.Size {
			return nil, fmt.Errorf("%d bytes do not fit bytes%d", len(b), t.Size)
		}
		arr := reflect.New(t.GetType()).Elem()
		// right-padded like Solidity's bytesN literals
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil

	case abi.SliceTy, abi.ArrayTy:
		items, err := splitList(s)
		if err != nil {
			return nil, err
		}
		if t.T == abi.ArrayTy && len(items) != t.Size {
			return nil, fmt.Errorf("expected %d elements, got %d", t.Size, len(items))
		}
		var out reflect.Value
		if t.T == abi.SliceTy {
			out = reflect.MakeSlice(t.GetType(), len(items), len(items))
		} else {
			out = reflect.New(t.GetType()).Elem()
		}
		for i, item := range items {
			v, err := ParseValue(*t.Elem, item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(reflect.ValueOf(v))
		}
		return out.Interface(), nil
	}
	return nil, fmt.Errorf("unsupported argument type %s", t)
}

// parseInteger accepts decimal, hex and scientific notation such as 1e18
func parseInteger(s string) (*big.Int, error) {
	s = strings.ReplaceAll(s, "_", "")
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return nil, fmt.Errorf("invalid hex integer %q", s)
		}
		return n, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	if !d.Equal(d.Truncate(0)) {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	return d.BigInt(), nil
}

func sizedInteger(t abi.Type, n *big.Int) (interface{}, error) {
	if t.T == abi.UintTy {
		if n.Sign() < 0 {
			return nil, fmt.Errorf("negative value %s for %s", n, t)
		}
		if n.BitLen() > t.Size {
			return nil, fmt.Errorf("%s overflows %s", n, t)
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, fmt.Errorf("%s overflows %s", n, t)
		}
	}

	switch t.GetType().Kind() {
	case reflect.Uint8:
		return uint8(n.Uint64()), nil
	case reflect.Uint16:
		return uint16(n.Uint64()), nil
	case reflect.Uint32:
		return uint32(n.Uint64()), nil
	case reflect.Uint64:
		return n.Uint64(), nil
	case reflect.Int8:
		return int8(n.Int64()), nil
	case reflect.Int16:
		return int16(n.Int64()), nil
	case reflect.Int32:
		return int32(n.Int64()), nil
	case reflect.Int64:
		return n.Int64(), nil
	}
	return n, nil
}

func normalizeHex(s string) string {
	if s == "" {
		return "0x"
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "0x" + s
	}
	return s
}

// splitList splits "[a, b, [c, d]]" into its top-level elements
func splitList(s string) ([]string, error) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("expected a [..] list, got %q", s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return nil, nil
	}

	var items []string
	depth, start := 0, 0
	for i, r := range inner {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced brackets in %q", s)
			}
		case ',':
			if depth == 0 {
				items = append(items, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets in %q", s)
	}
	return append(items, strings.TrimSpace(inner[start:])), nil
}
