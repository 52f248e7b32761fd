package bindings

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// AccessControlMetaData contains the role-management surface shared by access-controlled
// and token-governance contracts.
var AccessControlMetaData = bind.MetaData{
	ABI: `[
{"type":"function","name":"grantRole","stateMutability":"nonpayable","inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],"outputs":[]},
{"type":"function","name":"revokeRole","stateMutability":"nonpayable","inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],"outputs":[]},
{"type":"function","name":"renounceRole","stateMutability":"nonpayable","inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],"outputs":[]},
{"type":"function","name":"hasRole","stateMutability":"view","inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"getRoleAdmin","stateMutability":"view","inputs":[{"name":"role","type":"bytes32"}],"outputs":[{"name":"","type":"bytes32"}]},
{"type":"function","name":"getRoleMemberCount","stateMutability":"view","inputs":[{"name":"role","type":"bytes32"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"getRoleMember","stateMutability":"view","inputs":[{"name":"role","type":"bytes32"},{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
{"type":"event","name":"RoleGranted","anonymous":false,"inputs":[{"name":"role","type":"bytes32","indexed":true},{"name":"account","type":"address","indexed":true},{"name":"sender","type":"address","indexed":true}]},
{"type":"event","name":"RoleRevoked","anonymous":false,"inputs":[{"name":"role","type":"bytes32","indexed":true},{"name":"account","type":"address","indexed":true},{"name":"sender","type":"address","indexed":true}]}
]`,
	ID: "AccessControl",
}

// AccessControl is a Go binding around the AccessControl role surface.
type AccessControl struct {
	abi abi.ABI
}

// NewAccessControl creates a new instance of AccessControl.
func NewAccessControl() *AccessControl {
	parsed, err := AccessControlMetaData.ParseABI()
	if err != nil {
		panic(errors.New("invalid ABI: " + err.Error()))
	}
	return &AccessControl{abi: *parsed}
}

// ABI returns the parsed ABI
func (c *AccessControl) ABI() *abi.ABI {
	return &c.abi
}

// Instance creates a wrapper for a deployed contract instance at the given address.
func (c *AccessControl) Instance(backend bind.ContractBackend, addr common.Address) *bind.BoundContract {
	return bind.NewBoundContract(addr, c.abi, backend, backend, backend)
}

// PackGrantRole packs grantRole(bytes32 role, address account)
func (c *AccessControl) PackGrantRole(role common.Hash, account common.Address) []byte {
	return mustPack(&c.abi, "grantRole", [32]byte(role), account)
}

// PackRevokeRole packs revokeRole(bytes32 role, address account)
func (c *AccessControl) PackRevokeRole(role common.Hash, account common.Address) []byte {
	return mustPack(&c.abi, "revokeRole", [32]byte(role), account)
}

// PackRenounceRole packs renounceRole(bytes32 role, address account)
func (c *AccessControl) PackRenounceRole(role common.Hash, account common.Address) []byte {
	return mustPack(&c.abi, "renounceRole", [32]byte(role), account)
}

// PackHasRole packs hasRole(bytes32 role, address account)
func (c *AccessControl) PackHasRole(role common.Hash, account common.Address) []byte {
	return mustPack(&c.abi, "hasRole", [32]byte(role), account)
}

// UnpackHasRole unpacks the hasRole result
func (c *AccessControl) UnpackHasRole(data []byte) (bool, error) {
	out, err := c.abi.Unpack("hasRole", data)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// PackGetRoleAdmin packs getRoleAdmin(bytes32 role)
func (c *AccessControl) PackGetRoleAdmin(role common.Hash) []byte {
	return mustPack(&c.abi, "getRoleAdmin", [32]byte(role))
}

// UnpackGetRoleAdmin unpacks the getRoleAdmin result
func (c *AccessControl) UnpackGetRoleAdmin(data []byte) (common.Hash, error) {
	out, err := c.abi.Unpack("getRoleAdmin", data)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Hash(*abi.ConvertType(out[0], new([32]byte)).(*[32]byte)), nil
}

// PackGetRoleMemberCount packs getRoleMemberCount(bytes32 role)
func (c *AccessControl) PackGetRoleMemberCount(role common.Hash) []byte {
	return mustPack(&c.abi, "getRoleMemberCount", [32]byte(role))
}

// UnpackGetRoleMemberCount unpacks the getRoleMemberCount result
func (c *AccessControl) UnpackGetRoleMemberCount(data []byte) (*big.Int, error) {
	out, err := c.abi.Unpack("getRoleMemberCount", data)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// PackGetRoleMember packs getRoleMember(bytes32 role, uint256 index)
func (c *AccessControl) PackGetRoleMember(role common.Hash, index *big.Int) []byte {
	return mustPack(&c.abi, "getRoleMember", [32]byte(role), index)
}

// UnpackGetRoleMember unpacks the getRoleMember result
func (c *AccessControl) UnpackGetRoleMember(data []byte) (common.Address, error) {
	out, err := c.abi.Unpack("getRoleMember", data)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// AccessControlRoleChanged represents a RoleGranted or RoleRevoked event
type AccessControlRoleChanged struct {
	Granted bool
	Role    [32]byte
	Account common.Address
	Sender  common.Address
	Raw     *types.Log
}

// RoleGrantedEventID is the topic of RoleGranted
func (c *AccessControl) RoleGrantedEventID() common.Hash {
	return c.abi.Events["RoleGranted"].ID
}

// RoleRevokedEventID is the topic of RoleRevoked
func (c *AccessControl) RoleRevokedEventID() common.Hash {
	return c.abi.Events["RoleRevoked"].ID
}

// UnpackRoleChangedEvent decodes a RoleGranted or RoleRevoked log
func (c *AccessControl) UnpackRoleChangedEvent(log *types.Log) (*AccessControlRoleChanged, error) {
	if len(log.Topics) != 4 {
		return nil, errors.New("event signature mismatch")
	}
	var granted bool
	switch log.Topics[0] {
	case c.RoleGrantedEventID():
		granted = true
	case c.RoleRevokedEventID():
	default:
		return nil, errors.New("event signature mismatch")
	}
	return &AccessControlRoleChanged{
		Granted: granted,
		Role:    log.Topics[1],
		Account: common.BytesToAddress(log.Topics[2].Bytes()),
		Sender:  common.BytesToAddress(log.Topics[3].Bytes()),
		Raw:     log,
	}, nil
}

func mustPack(parsed *abi.ABI, method string, args ...interface{}) []byte {
	enc, err := parsed.Pack(method, args...)
	if err != nil {
		panic(err)
	}
	return enc
}
