package usecase

import (
	"context"

	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// ListNetworksResult contains the result of listing networks
type ListNetworksResult struct {
	Networks []NetworkStatus
}

// NetworkStatus represents the status of a network
type NetworkStatus struct {
	Name    string
	ChainID uint64
	Mode    domain.NetworkMode
	ForkOf  string
	// Artifacts is the number of records persisted for the network
	Artifacts int
	Error     error
}

// ListNetworks is a use case for listing configured networks
type ListNetworks struct {
	resolver NetworkResolver
	stores   ArtifactStoreFactory
}

// NewListNetworks creates a new ListNetworks use case
func NewListNetworks(resolver NetworkResolver, stores ArtifactStoreFactory) *ListNetworks {
	return &ListNetworks{
		resolver: resolver,
		stores:   stores,
	}
}

// Run resolves every configured network; resolution failures are reported per network
func (uc *ListNetworks) Run(ctx context.Context) (*ListNetworksResult, error) {
	names := uc.resolver.GetNetworks(ctx)

	networks := make([]NetworkStatus, 0, len(names))
	for _, name := range names {
		status := NetworkStatus{Name: name}

		if info, err := uc.resolver.ResolveNetwork(ctx, name); err != nil {
			status.Error = err
		} else {
			status.ChainID = info.ChainID
			status.Mode = info.Mode
			status.ForkOf = info.ForkOf
		}

		if store, err := uc.stores.Open(name); err == nil {
			if records, err := store.List(ctx); err == nil {
				status.Artifacts = len(records)
			}
		}

		networks = append(networks, status)
	}

	return &ListNetworksResult{Networks: networks}, nil
}
