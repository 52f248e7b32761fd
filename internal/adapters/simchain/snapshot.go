package simchain

import (
	"context"
	"fmt"
	"maps"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// state is a deep copy of everything a transaction can change
type state struct {
	nonces    map[common.Address]uint64
	contracts map[common.Address]*contract
	receipts  map[common.Hash]*types.Receipt
	block     uint64
	timestamp uint64
}

// Snapshot records the current state and returns its id, following evm_snapshot
func (c *Chain) Snapshot(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshots = append(c.snapshots, c.capture())
	return hexutil.EncodeUint64(uint64(len(c.snapshots))), nil
}

// Revert restores the snapshot id. Like evm_revert it consumes the snapshot and every later one.
func (c *Chain) Revert(_ context.Context, id string) error {
	n, err := hexutil.DecodeUint64(id)
	if err != nil {
		return fmt.Errorf("invalid snapshot id %q: %w", id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if n == 0 || n > uint64(len(c.snapshots)) {
		return fmt.Errorf("unknown snapshot %s", id)
	}
	s := c.snapshots[n-1]
	c.snapshots = c.snapshots[:n-1]

	c.nonces = s.nonces
	c.contracts = s.contracts
	c.receipts = s.receipts
	c.block = s.block
	c.timestamp = s.timestamp
	return nil
}

func (c *Chain) capture() *state {
	contracts := make(map[common.Address]*contract, len(c.contracts))
	for addr, k := range c.contracts {
		contracts[addr] = k.clone()
	}
	return &state{
		nonces:    maps.Clone(c.nonces),
		contracts: contracts,
		receipts:  maps.Clone(c.receipts),
		block:     c.block,
		timestamp: c.timestamp,
	}
}

// clone copies k so that role, slot and balance updates on either side stay apart
func (k *contract) clone() *contract {
	out := *k
	out.roles = make(map[string][]common.Address, len(k.roles))
	for role, holders := range k.roles {
		out.roles[role] = append([]common.Address(nil), holders...)
	}
	out.slots = maps.Clone(k.slots)
	out.balances = make(map[common.Address]*big.Int, len(k.balances))
	for account, balance := range k.balances {
		out.balances[account] = new(big.Int).Set(balance)
	}
	out.supply = new(big.Int).Set(k.supply)
	return &out
}
