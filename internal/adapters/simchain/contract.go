package simchain

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// contract is the emulated state of one deployed address
type contract struct {
	address  common.Address
	template domain.Template
	abi      *abi.ABI

	// roles maps role name to holders in grant order
	roles map[string][]common.Address
	// slots maps a view name to its stored value
	slots map[string]interface{}

	balances map[common.Address]*big.Int
	supply   *big.Int
	// token is the governed token of a token-governance contract
	token common.Address
}

func (c *Chain) construct(addr common.Address, req usecase.DeployRequest) (*contract, error) {
	if req.ABI == nil {
		return nil, fmt.Errorf("deploy %s: missing ABI", req.Template.Name)
	}

	var args []interface{}
	if len(req.ConstructorArgs) > 0 {
		var err error
		if args, err = req.ABI.Constructor.Inputs.Unpack(req.ConstructorArgs); err != nil {
			return nil, revertWith("invalid constructor arguments for %s: %v", req.Template.Name, err)
		}
	}

	if req.Template.Kind == domain.KindProxy {
		return c.constructProxy(addr, req.From, args)
	}

	created := newContract(addr, req.Template, req.ABI)
	for i, input := range req.ABI.Constructor.Inputs {
		if i < len(args) {
			created.slots[slotName(input.Name)] = args[i]
		}
	}
	if req.Template.HasRoles() && req.Template.CreatorRole != "" {
		created.grant(req.Template.CreatorRole, req.From)
	}
	if req.Template.Kind == domain.KindTokenGovernance {
		created.token = firstAddress(args)
	}
	return created, nil
}

// constructProxy gives the proxy address the logic contract's interface and runs the init call
func (c *Chain) constructProxy(addr, from common.Address, args []interface{}) (*contract, error) {
	logic := c.contracts[firstAddress(args)]
	if logic == nil {
		return nil, revertWith("proxy logic is not a contract")
	}

	proxy := newContract(addr, logic.template, logic.abi)
	// immutables live in the logic code and read the same through the proxy
	for k, v := range logic.slots {
		proxy.slots[k] = v
	}
	c.contracts[addr] = proxy

	var initData []byte
	for _, arg := range args {
		if b, ok := arg.([]byte); ok {
			initData = b
		}
	}
	if len(initData) == 0 {
		return proxy, nil
	}

	if proxy.template.HasRoles() && proxy.template.CreatorRole != "" {
		proxy.grant(proxy.template.CreatorRole, from)
	}
	if err := c.execute(from, addr, initData); err != nil {
		delete(c.contracts, addr)
		return nil, err
	}
	return proxy, nil
}

func newContract(addr common.Address, template domain.Template, contractABI *abi.ABI) *contract {
	return &contract{
		address:  addr,
		template: template,
		abi:      contractABI,
		roles:    map[string][]common.Address{},
		slots:    map[string]interface{}{},
		balances: map[common.Address]*big.Int{},
		supply:   new(big.Int),
	}
}

func (k *contract) holds(role string, account common.Address) bool {
	for _, h := range k.roles[role] {
		if h == account {
			return true
		}
	}
	return false
}

func (k *contract) grant(role string, account common.Address) {
	if !k.holds(role, account) {
		k.roles[role] = append(k.roles[role], account)
	}
}

// revoke removes account with a swap-remove, as enumerable role sets do
func (k *contract) revoke(role string, account common.Address) {
	holders := k.roles[role]
	for i, h := range holders {
		if h == account {
			last := len(holders) - 1
			holders[i] = holders[last]
			k.roles[role] = holders[:last]
			return
		}
	}
}

// roleName maps an on-chain role id back to a name of the contract's role space
func (k *contract) roleName(id common.Hash) (string, bool) {
	for _, role := range k.template.Roles.Roles() {
		if domain.RoleID(role) == id {
			return role, true
		}
	}
	return "", false
}

func (k *contract) credit(account common.Address, amount *big.Int) {
	balance, ok := k.balances[account]
	if !ok {
		balance = new(big.Int)
		k.balances[account] = balance
	}
	balance.Add(balance, amount)
	k.supply.Add(k.supply, amount)
}

func (k *contract) missingRole(account common.Address, role string) error {
	return revertWith("AccessControl: account %s is missing role %s", strings.ToLower(account.Hex()), domain.RoleID(role).Hex())
}

// execute applies a state-changing call from sender
func (c *Chain) execute(from, to common.Address, data []byte) error {
	target := c.contracts[to]
	if target == nil {
		if len(data) == 0 {
			return nil
		}
		return revertEmpty()
	}
	if len(data) < 4 {
		return revertEmpty()
	}

	if method, err := c.access.ABI().MethodById(data[:4]); err == nil && target.template.HasRoles() {
		return c.executeRoles(from, target, method, data[4:])
	}
	if method, err := c.gov.ABI().MethodById(data[:4]); err == nil && method.Name == "mint" && target.template.Kind == domain.KindTokenGovernance {
		return c.executeMint(from, target, method, data[4:])
	}

	method, err := target.abi.MethodById(data[:4])
	if err != nil {
		return revertEmpty()
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return revertEmpty()
	}
	if strings.HasPrefix(method.Name, "set") && len(method.Name) > 3 && len(args) == 1 {
		target.slots[slotName(method.Name[3:])] = args[0]
	}
	return nil
}

func (c *Chain) executeRoles(from common.Address, target *contract, method *abi.Method, input []byte) error {
	args, err := method.Inputs.Unpack(input)
	if err != nil || len(args) < 2 {
		return revertEmpty()
	}
	role, ok := target.roleName(common.Hash(args[0].([32]byte)))
	if !ok {
		return target.missingRole(from, domain.RoleAdmin)
	}
	account := args[1].(common.Address)

	switch method.Name {
	case "grantRole", "revokeRole":
		admin := target.template.Roles.AdminOf(role)
		if !target.holds(admin, from) {
			return target.missingRole(from, admin)
		}
		if method.Name == "grantRole" {
			target.grant(role, account)
		} else {
			target.revoke(role, account)
		}
	case "renounceRole":
		if account != from {
			return revertWith("AccessControl: can only renounce roles for self")
		}
		target.revoke(role, account)
	default:
		return revertEmpty()
	}
	return nil
}

func (c *Chain) executeMint(from common.Address, target *contract, method *abi.Method, input []byte) error {
	if !target.holds(domain.RoleMinter, from) {
		return target.missingRole(from, domain.RoleMinter)
	}
	args, err := method.Inputs.Unpack(input)
	if err != nil {
		return revertEmpty()
	}
	token := c.contracts[target.token]
	if token == nil {
		return revertWith("token not deployed")
	}
	token.credit(args[0].(common.Address), args[1].(*big.Int))
	return nil
}

// view answers a read-only call
func (c *Chain) view(to common.Address, data []byte) ([]byte, error) {
	target := c.contracts[to]
	if target == nil || len(data) < 4 {
		return nil, nil
	}

	if method, err := c.access.ABI().MethodById(data[:4]); err == nil && target.template.HasRoles() {
		return c.viewRoles(target, method, data[4:])
	}
	if method, err := c.gov.ABI().MethodById(data[:4]); err == nil {
		if out, ok, err := c.viewToken(target, method, data[4:]); ok {
			return out, err
		}
	}

	method, err := target.abi.MethodById(data[:4])
	if err != nil {
		return nil, revertEmpty()
	}
	if len(method.Outputs) != 1 {
		return nil, revertWith("%s is not emulated", method.Sig)
	}
	value, ok := target.slots[slotName(method.Name)]
	if !ok {
		value = zeroValue(method.Outputs[0].Type)
	}
	return method.Outputs.Pack(value)
}

func (c *Chain) viewRoles(target *contract, method *abi.Method, input []byte) ([]byte, error) {
	args, err := method.Inputs.Unpack(input)
	if err != nil || len(args) == 0 {
		return nil, revertEmpty()
	}
	role, known := target.roleName(common.Hash(args[0].([32]byte)))

	switch method.Name {
	case "hasRole":
		return method.Outputs.Pack(known && target.holds(role, args[1].(common.Address)))
	case "getRoleAdmin":
		admin := common.Hash{}
		if known {
			admin = domain.RoleID(target.template.Roles.AdminOf(role))
		}
		return method.Outputs.Pack([32]byte(admin))
	case "getRoleMemberCount":
		return method.Outputs.Pack(big.NewInt(int64(len(target.roles[role]))))
	case "getRoleMember":
		index := args[1].(*big.Int)
		holders := target.roles[role]
		if !index.IsInt64() || index.Int64() >= int64(len(holders)) {
			return nil, revertWith("index out of bounds")
		}
		return method.Outputs.Pack(holders[index.Int64()])
	}
	return nil, revertEmpty()
}

func (c *Chain) viewToken(target *contract, method *abi.Method, input []byte) ([]byte, bool, error) {
	switch method.Name {
	case "token":
		if target.template.Kind != domain.KindTokenGovernance {
			return nil, false, nil
		}
		out, err := method.Outputs.Pack(target.token)
		return out, true, err
	case "balanceOf":
		args, err := method.Inputs.Unpack(input)
		if err != nil {
			return nil, true, revertEmpty()
		}
		balance, ok := target.balances[args[0].(common.Address)]
		if !ok {
			balance = new(big.Int)
		}
		out, err := method.Outputs.Pack(balance)
		return out, true, err
	case "totalSupply":
		out, err := method.Outputs.Pack(target.supply)
		return out, true, err
	}
	return nil, false, nil
}

// slotName maps a constructor input or setter suffix to its view name, so that _networkToken,
// NetworkToken and networkToken share one slot
func slotName(name string) string {
	name = strings.TrimLeft(name, "_")
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func firstAddress(args []interface{}) common.Address {
	for _, arg := range args {
		if addr, ok := arg.(common.Address); ok {
			return addr
		}
	}
	return common.Address{}
}

func zeroValue(t abi.Type) interface{} {
	switch t.T {
	case abi.UintTy, abi.IntTy:
		if t.Size > 64 {
			return new(big.Int)
		}
	case abi.BytesTy:
		return []byte{}
	}
	return reflect.Zero(t.GetType()).Interface()
}
