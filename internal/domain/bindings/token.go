package bindings

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/common"
)

// TokenGovernanceMetaData contains the minting surface of a token-governance contract
// and the balance surface of the governed token.
var TokenGovernanceMetaData = bind.MetaData{
	ABI: `[
{"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
{"type":"function","name":"token","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`,
	ID: "TokenGovernance",
}

// TokenGovernance is a Go binding around a token-governance contract and its token.
type TokenGovernance struct {
	abi abi.ABI
}

// NewTokenGovernance creates a new instance of TokenGovernance.
func NewTokenGovernance() *TokenGovernance {
	parsed, err := TokenGovernanceMetaData.ParseABI()
	if err != nil {
		panic(errors.New("invalid ABI: " + err.Error()))
	}
	return &TokenGovernance{abi: *parsed}
}

// ABI returns the parsed ABI
func (c *TokenGovernance) ABI() *abi.ABI {
	return &c.abi
}

// PackMint packs mint(address to, uint256 amount)
func (c *TokenGovernance) PackMint(to common.Address, amount *big.Int) []byte {
	return mustPack(&c.abi, "mint", to, amount)
}

// PackToken packs token()
func (c *TokenGovernance) PackToken() []byte {
	return mustPack(&c.abi, "token")
}

// UnpackToken unpacks the token() result
func (c *TokenGovernance) UnpackToken(data []byte) (common.Address, error) {
	out, err := c.abi.Unpack("token", data)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// PackBalanceOf packs balanceOf(address account)
func (c *TokenGovernance) PackBalanceOf(account common.Address) []byte {
	return mustPack(&c.abi, "balanceOf", account)
}

// UnpackBalanceOf unpacks the balanceOf result
func (c *TokenGovernance) UnpackBalanceOf(data []byte) (*big.Int, error) {
	out, err := c.abi.Unpack("balanceOf", data)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// PackTotalSupply packs totalSupply()
func (c *TokenGovernance) PackTotalSupply() []byte {
	return mustPack(&c.abi, "totalSupply")
}

// UnpackTotalSupply unpacks the totalSupply result
func (c *TokenGovernance) UnpackTotalSupply(data []byte) (*big.Int, error) {
	out, err := c.abi.Unpack("totalSupply", data)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}
