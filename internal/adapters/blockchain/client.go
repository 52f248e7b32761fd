package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// Account is a named sender. Accounts without a key must be unlocked on the node, or
// impersonated when the client talks to a fork.
type Account struct {
	Name    string
	Address common.Address
	Key     *ecdsa.PrivateKey
}

// NewAccount resolves a configured account. A private key wins over the address; when both are
// set they must agree.
func NewAccount(name, address, privateKey string) (Account, error) {
	acc := Account{Name: name}
	if privateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
		if err != nil {
			return Account{}, fmt.Errorf("account %s: invalid private key", name)
		}
		acc.Key = key
		acc.Address = crypto.PubkeyToAddress(key.PublicKey)
	}
	if address != "" {
		if !common.IsHexAddress(address) {
			return Account{}, fmt.Errorf("account %s: %w: %s", name, domain.ErrInvalidAddress, address)
		}
		addr := common.HexToAddress(address)
		if acc.Key != nil && addr != acc.Address {
			return Account{}, fmt.Errorf("account %s: address %s does not match private key (%s)", name, addr.Hex(), acc.Address.Hex())
		}
		acc.Address = addr
	}
	if acc.Address == (common.Address{}) {
		return Account{}, fmt.Errorf("account %s: %w", name, domain.ErrNoSigner)
	}
	return acc, nil
}

// impersonationFunding is the balance topped up on impersonated fork accounts
var impersonationFunding = new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))

// Option configures a Client
type Option func(*Client)

// WithImpersonation makes key-less accounts send through anvil_impersonateAccount
func WithImpersonation() Option {
	return func(c *Client) { c.impersonate = true }
}

// WithPollInterval sets the receipt polling interval
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// WithGasMargin sets the percentage added to gas estimates
func WithGasMargin(percent uint64) Option {
	return func(c *Client) { c.gasMargin = percent }
}

// Client is a ChainClient over JSON-RPC
type Client struct {
	eth     *ethclient.Client
	rpc     *rpc.Client
	chainID *big.Int
	log     *slog.Logger

	accounts     map[string]Account
	byAddress    map[common.Address]Account
	impersonate  bool
	pollInterval time.Duration
	gasMargin    uint64

	mu           sync.Mutex
	impersonated map[common.Address]bool
}

// Dial connects to rpcURL and checks the chain id when expectedChainID is non-zero
func Dial(ctx context.Context, rpcURL string, expectedChainID uint64, accounts []Account, log *slog.Logger, opts ...Option) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	eth := ethclient.NewClient(rpcClient)

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		rpcClient.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if expectedChainID != 0 && chainID.Uint64() != expectedChainID {
		rpcClient.Close()
		return nil, fmt.Errorf("chain ID mismatch: expected %d, got %d", expectedChainID, chainID.Uint64())
	}

	c := &Client{
		eth:          eth,
		rpc:          rpcClient,
		chainID:      chainID,
		log:          log.With("component", "ChainClient"),
		accounts:     make(map[string]Account, len(accounts)),
		byAddress:    make(map[common.Address]Account, len(accounts)),
		pollInterval: 500 * time.Millisecond,
		gasMargin:    20,
		impersonated: map[common.Address]bool{},
	}
	for _, acc := range accounts {
		c.accounts[acc.Name] = acc
		c.byAddress[acc.Address] = acc
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases the connection
func (c *Client) Close() error {
	c.rpc.Close()
	return nil
}

// ChainID returns the connected chain's id
func (c *Client) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.chainID), nil
}

// Account resolves a configured account name
func (c *Client) Account(_ context.Context, name string) (common.Address, error) {
	acc, ok := c.accounts[name]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s", domain.ErrUnknownAccount, name)
	}
	return acc.Address, nil
}

// Deploy sends a contract creation
func (c *Client) Deploy(ctx context.Context, req usecase.DeployRequest) (common.Hash, error) {
	if len(req.Bytecode) == 0 {
		return common.Hash{}, fmt.Errorf("no bytecode for %s: compile the contracts with forge build", req.Template.Name)
	}
	data := append(append([]byte{}, req.Bytecode...), req.ConstructorArgs...)
	return c.send(ctx, req.From, nil, data)
}

// Send sends a state-changing call
func (c *Client) Send(ctx context.Context, req usecase.CallRequest) (common.Hash, error) {
	to := req.To
	return c.send(ctx, req.From, &to, req.Data)
}

func (c *Client) send(ctx context.Context, from common.Address, to *common.Address, data []byte) (common.Hash, error) {
	acc, ok := c.byAddress[from]
	if !ok {
		acc = Account{Address: from}
	}

	// estimation surfaces reverts before anything is broadcast
	gas, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{From: from, To: to, Data: data})
	if err != nil {
		return common.Hash{}, err
	}
	gas += gas * c.gasMargin / 100

	if acc.Key == nil {
		return c.sendUnlocked(ctx, from, to, data, gas)
	}
	return c.sendSigned(ctx, acc, to, data, gas)
}

func (c *Client) sendSigned(ctx context.Context, acc Account, to *common.Address, data []byte, gas uint64) (common.Hash, error) {
	nonce, err := c.eth.PendingNonceAt(ctx, acc.Address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce of %s: %w", acc.Address.Hex(), err)
	}
	head, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get latest header: %w", err)
	}

	var tx *types.Transaction
	if head.BaseFee != nil {
		tip, err := c.eth.SuggestGasTipCap(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to suggest tip: %w", err)
		}
		feeCap := new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   c.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        to,
			Data:      data,
		})
	} else {
		price, err := c.eth.SuggestGasPrice(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to suggest gas price: %w", err)
		}
		tx = types.NewTx(&types.LegacyTx{Nonce: nonce, GasPrice: price, Gas: gas, To: to, Data: data})
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), acc.Key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}
	c.log.Debug("transaction sent", "from", acc.Address.Hex(), "nonce", nonce, "tx", signed.Hash().Hex())
	return signed.Hash(), nil
}

// sendTxArgs is the eth_sendTransaction request object
type sendTxArgs struct {
	From common.Address  `json:"from"`
	To   *common.Address `json:"to,omitempty"`
	Gas  hexutil.Uint64  `json:"gas"`
	Data hexutil.Bytes   `json:"data"`
}

func (c *Client) sendUnlocked(ctx context.Context, from common.Address, to *common.Address, data []byte, gas uint64) (common.Hash, error) {
	if c.impersonate {
		if err := c.impersonateAccount(ctx, from); err != nil {
			return common.Hash{}, err
		}
	}
	var hash common.Hash
	err := c.rpc.CallContext(ctx, &hash, "eth_sendTransaction", sendTxArgs{
		From: from,
		To:   to,
		Gas:  hexutil.Uint64(gas),
		Data: data,
	})
	if err != nil {
		return common.Hash{}, err
	}
	c.log.Debug("transaction sent", "from", from.Hex(), "unlocked", true, "tx", hash.Hex())
	return hash, nil
}

func (c *Client) impersonateAccount(ctx context.Context, addr common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.impersonated[addr] {
		return nil
	}
	if err := c.rpc.CallContext(ctx, nil, "anvil_impersonateAccount", addr); err != nil {
		return fmt.Errorf("failed to impersonate %s: %w", addr.Hex(), err)
	}
	// multisigs and contracts rarely hold enough ether for gas
	balance, err := c.eth.BalanceAt(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("failed to get balance of %s: %w", addr.Hex(), err)
	}
	if balance.Cmp(impersonationFunding) < 0 {
		if err := c.rpc.CallContext(ctx, nil, "anvil_setBalance", addr, (*hexutil.Big)(impersonationFunding)); err != nil {
			return fmt.Errorf("failed to fund %s: %w", addr.Hex(), err)
		}
	}
	c.impersonated[addr] = true
	return nil
}

// WaitForReceipt polls until the transaction is mined
func (c *Client) WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to get receipt: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Call runs a read-only call against the latest block
func (c *Client) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

// IncreaseTime advances the next block's timestamp and mines it
func (c *Client) IncreaseTime(ctx context.Context, seconds uint64) error {
	if err := c.rpc.CallContext(ctx, nil, "evm_increaseTime", hexutil.Uint64(seconds)); err != nil {
		return fmt.Errorf("evm_increaseTime: %w", err)
	}
	if err := c.rpc.CallContext(ctx, nil, "evm_mine"); err != nil {
		return fmt.Errorf("evm_mine: %w", err)
	}
	return nil
}

// CodeAt reports whether a contract exists at addr
func (c *Client) CodeAt(ctx context.Context, addr common.Address) (bool, error) {
	code, err := c.eth.CodeAt(ctx, addr, nil)
	if err != nil {
		return false, fmt.Errorf("failed to check code: %w", err)
	}
	return len(code) > 0, nil
}

var _ usecase.ChainClient = (*Client)(nil)
