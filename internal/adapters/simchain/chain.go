// Package simchain is an in-memory chain used for dry runs and tests. It emulates contract
// creation, AccessControl-style roles, token minting and stored view values; nothing else of
// the EVM.
package simchain

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/domain/bindings"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// DefaultChainID is the chain id reported unless overridden
const DefaultChainID = 31337

// Chain is an in-memory usecase.ChainClient
type Chain struct {
	mu sync.Mutex

	chainID   *big.Int
	accounts  map[string]common.Address
	nonces    map[common.Address]uint64
	contracts map[common.Address]*contract
	receipts  map[common.Hash]*types.Receipt
	block     uint64
	timestamp uint64
	snapshots []*state

	// mineReverts mines failing transactions with status 0 instead of rejecting them
	mineReverts bool

	access *bindings.AccessControl
	gov    *bindings.TokenGovernance
}

// Option configures a Chain
type Option func(*Chain)

// WithChainID overrides the reported chain id
func WithChainID(id int64) Option {
	return func(c *Chain) { c.chainID = big.NewInt(id) }
}

// WithMinedReverts makes failing transactions mine with a failed receipt, as a node does for
// transactions sent with a fixed gas limit
func WithMinedReverts() Option {
	return func(c *Chain) { c.mineReverts = true }
}

// New creates an empty chain knowing the named accounts
func New(accounts map[string]common.Address, opts ...Option) *Chain {
	c := &Chain{
		chainID:   big.NewInt(DefaultChainID),
		accounts:  make(map[string]common.Address, len(accounts)),
		nonces:    map[common.Address]uint64{},
		contracts: map[common.Address]*contract{},
		receipts:  map[common.Hash]*types.Receipt{},
		block:     1,
		timestamp: 1_700_000_000,
		access:    bindings.NewAccessControl(),
		gov:       bindings.NewTokenGovernance(),
	}
	for name, addr := range accounts {
		c.accounts[name] = addr
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DevAccounts derives deterministic addresses for names
func DevAccounts(names ...string) map[string]common.Address {
	accounts := make(map[string]common.Address, len(names))
	for _, name := range names {
		accounts[name] = common.BytesToAddress(crypto.Keccak256([]byte("simchain:" + name))[12:])
	}
	return accounts
}

var _ usecase.ChainClient = (*Chain)(nil)

// ChainID returns the configured chain id
func (c *Chain) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.chainID), nil
}

// Account resolves a named account
func (c *Chain) Account(_ context.Context, name string) (common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	addr, ok := c.accounts[name]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s", domain.ErrUnknownAccount, name)
	}
	return addr, nil
}

// Deploy creates a contract at the sender's next CREATE address
func (c *Chain) Deploy(_ context.Context, req usecase.DeployRequest) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nonce := c.nonces[req.From]
	addr := crypto.CreateAddress(req.From, nonce)
	hash := c.txHash(req.From, nonce)
	c.nonces[req.From] = nonce + 1

	created, err := c.construct(addr, req)
	if err != nil {
		if c.mineReverts {
			c.mine(hash, common.Address{}, types.ReceiptStatusFailed)
			return hash, nil
		}
		return common.Hash{}, err
	}
	c.contracts[addr] = created
	c.mine(hash, addr, types.ReceiptStatusSuccessful)
	return hash, nil
}

// Send executes a state-changing call
func (c *Chain) Send(_ context.Context, req usecase.CallRequest) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nonce := c.nonces[req.From]
	hash := c.txHash(req.From, nonce)
	c.nonces[req.From] = nonce + 1

	if err := c.execute(req.From, req.To, req.Data); err != nil {
		if c.mineReverts {
			c.mine(hash, common.Address{}, types.ReceiptStatusFailed)
			return hash, nil
		}
		return common.Hash{}, err
	}
	c.mine(hash, common.Address{}, types.ReceiptStatusSuccessful)
	return hash, nil
}

// WaitForReceipt returns the receipt of a mined transaction
func (c *Chain) WaitForReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	receipt, ok := c.receipts[hash]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %s", domain.ErrNotFound, hash.Hex())
	}
	return receipt, nil
}

// Call runs a view
func (c *Chain) Call(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(to, data)
}

// IncreaseTime advances the block timestamp
func (c *Chain) IncreaseTime(_ context.Context, seconds uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timestamp += seconds
	return nil
}

// Timestamp returns the current block timestamp
func (c *Chain) Timestamp() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timestamp
}

// TransactionCount returns the number of transactions sent by from
func (c *Chain) TransactionCount(from common.Address) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonces[from]
}

func (c *Chain) txHash(from common.Address, nonce uint64) common.Hash {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce)
	return crypto.Keccak256Hash(c.chainID.Bytes(), from.Bytes(), buf[:])
}

func (c *Chain) mine(hash common.Hash, created common.Address, status uint64) {
	c.block++
	c.timestamp += 12
	c.receipts[hash] = &types.Receipt{
		Status:          status,
		TxHash:          hash,
		ContractAddress: created,
		BlockNumber:     new(big.Int).SetUint64(c.block),
		GasUsed:         21_000,
	}
}

// revertError carries revert data the way a JSON-RPC error does
type revertError struct {
	data []byte
}

func (e *revertError) Error() string          { return "execution reverted" }
func (e *revertError) ErrorCode() int         { return 3 }
func (e *revertError) ErrorData() interface{} { return hexutil.Encode(e.data) }

var errorStringArgs = abi.Arguments{{Type: mustType("string")}}

// revertWith builds an Error(string) revert
func revertWith(format string, args ...interface{}) error {
	payload, err := errorStringArgs.Pack(fmt.Sprintf(format, args...))
	if err != nil {
		panic(err)
	}
	return &revertError{data: append(crypto.Keccak256([]byte("Error(string)"))[:4], payload...)}
}

// revertEmpty is a revert without data
func revertEmpty() error {
	return &revertError{}
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}
