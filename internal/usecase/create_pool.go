package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Default identities of the pool entry points
const (
	DefaultNetworkIdentity        = "BancorNetwork"
	DefaultPoolCollectionIdentity = "PoolCollection"
)

// CreatePoolParams contains parameters for creating a liquidity pool
type CreatePoolParams struct {
	Network string
	// Token is an artifact reference, identity or address of the pool token
	Token string
	// NetworkIdentity and CollectionIdentity override the default identities
	NetworkIdentity    string
	CollectionIdentity string
	From               string
	Yes                bool
}

// CreatePoolResult describes the created pool
type CreatePoolResult struct {
	Token      common.Address
	Collection common.Address
	Receipt    *types.Receipt
}

// CreatePool registers a pool for a token through the network contract
type CreatePool struct {
	workspace *Workspace
	confirmer Confirmer
}

// NewCreatePool creates the use case
func NewCreatePool(workspace *Workspace, confirmer Confirmer) *CreatePool {
	return &CreatePool{workspace: workspace, confirmer: confirmer}
}

// Execute calls createPools([token], poolCollection)
func (uc *CreatePool) Execute(ctx context.Context, params CreatePoolParams) (*CreatePoolResult, error) {
	o, err := uc.workspace.Open(ctx, params.Network)
	if err != nil {
		return nil, err
	}
	defer o.Env.Shutdown()

	networkID := params.NetworkIdentity
	if networkID == "" {
		networkID = DefaultNetworkIdentity
	}
	collectionID := params.CollectionIdentity
	if collectionID == "" {
		collectionID = DefaultPoolCollectionIdentity
	}

	network, err := o.Executor.recorded(ctx, "pool", networkID)
	if err != nil {
		return nil, err
	}
	collection, err := o.Executor.recorded(ctx, "pool", collectionID)
	if err != nil {
		return nil, err
	}

	token, err := uc.resolveToken(ctx, o, params.Token)
	if err != nil {
		return nil, err
	}
	from := params.From
	if from == "" {
		from = "deployer"
	}
	sender, err := o.Executor.resolveAccount(ctx, "pool", from)
	if err != nil {
		return nil, err
	}

	contract, err := o.Executor.abiOf(ctx, network)
	if err != nil {
		return nil, err
	}
	data, err := o.Executor.encoder.EncodeCall(contract, "createPools", []string{
		"[" + token.Hex() + "]",
		collection.Address.Hex(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode createPools: %w", err)
	}

	prompt := fmt.Sprintf("Create pool for %s on production network %s?", token.Hex(), o.Env.Network)
	if err := confirmProduction(ctx, uc.confirmer, o.Env, params.Yes, prompt); err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("%s.createPools([%s], %s)", networkID, token.Hex(), collectionID)
	receipt, err := o.Tx.Execute(ctx, o.NewSession(), networkID, CallRequest{From: sender, To: network.Address, Data: data}, desc, contract)
	if err != nil {
		return nil, err
	}
	return &CreatePoolResult{Token: token, Collection: collection.Address, Receipt: receipt}, nil
}

func (uc *CreatePool) resolveToken(ctx context.Context, o *Orchestrator, raw string) (common.Address, error) {
	if common.IsHexAddress(raw) {
		return common.HexToAddress(raw), nil
	}
	if _, err := o.Graph.Lookup(raw); err == nil {
		rec, err := o.Executor.recorded(ctx, "pool", raw)
		if err != nil {
			return common.Address{}, err
		}
		return rec.Address, nil
	}
	return o.Executor.resolveAddress(ctx, "pool", raw)
}
