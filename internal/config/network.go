package config

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/domain/config"
)

// NetworkResolver resolves network names to configurations, caching chain ids fetched from nodes
type NetworkResolver struct {
	networks map[string]config.NetworkConfig
	timeout  time.Duration

	mu       sync.RWMutex
	chainIDs map[string]uint64 // rpcURL -> chainID
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(cfg *config.RuntimeConfig) *NetworkResolver {
	return &NetworkResolver{
		networks: cfg.Networks,
		timeout:  10 * time.Second,
		chainIDs: map[string]uint64{},
	}
}

// ProvideNetworkResolver creates a NetworkResolver for Wire dependency injection
func ProvideNetworkResolver(cfg *config.RuntimeConfig) *NetworkResolver {
	return NewNetworkResolver(cfg)
}

// GetNetworks returns the configured network names, sorted
func (r *NetworkResolver) GetNetworks() []string {
	names := make([]string, 0, len(r.networks))
	for name := range r.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Config returns the [networks.<name>] entry with its endpoint filled in. A missing rpc_url
// falls back to the conventional <NAME>_RPC_URL variable.
func (r *NetworkResolver) Config(name string) (*config.NetworkConfig, error) {
	network, ok := r.networks[name]
	if !ok {
		msg := fmt.Sprintf("network '%s' not found in %s [networks]", name, ProjectFileName)
		if suggestion := r.suggest(name); suggestion != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
		}
		return nil, fmt.Errorf("%s", msg)
	}
	network.Name = name
	if network.RPCURL == "" {
		network.RPCURL = os.Getenv(GenerateEnvVarName(name))
	}
	return &network, nil
}

// RPCURL returns the endpoint of a configured network
func (r *NetworkResolver) RPCURL(name string) (string, error) {
	network, err := r.Config(name)
	if err != nil {
		return "", err
	}
	if network.RPCURL == "" {
		return "", fmt.Errorf("network %s has no rpc_url and %s is not set", name, GenerateEnvVarName(name))
	}
	return network.RPCURL, nil
}

// Mode returns the configured mode of a network
func (r *NetworkResolver) Mode(name string) (domain.NetworkMode, error) {
	network, err := r.Config(name)
	if err != nil {
		return "", err
	}
	return domain.ParseNetworkMode(network.Mode)
}

// Resolve resolves a network; the chain id is fetched from the node when not configured
func (r *NetworkResolver) Resolve(ctx context.Context, name string) (*domain.NetworkInfo, error) {
	network, err := r.Config(name)
	if err != nil {
		return nil, err
	}
	mode, err := domain.ParseNetworkMode(network.Mode)
	if err != nil {
		return nil, err
	}

	info := &domain.NetworkInfo{
		Name:    name,
		ChainID: network.ChainID,
		RPCURL:  network.RPCURL,
		Mode:    mode,
		ForkOf:  network.ForkOf,
	}
	if info.ChainID != 0 {
		return info, nil
	}
	if info.RPCURL == "" {
		return nil, fmt.Errorf("network %s has no rpc_url and %s is not set", name, GenerateEnvVarName(name))
	}
	if info.ChainID, err = r.fetchChainID(ctx, info.RPCURL); err != nil {
		return nil, fmt.Errorf("failed to fetch chain ID for network %s: %w", name, err)
	}
	return info, nil
}

func (r *NetworkResolver) fetchChainID(ctx context.Context, rpcURL string) (uint64, error) {
	r.mu.RLock()
	chainID, cached := r.chainIDs[rpcURL]
	r.mu.RUnlock()
	if cached {
		return chainID, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	defer client.Close()

	id, err := client.ChainID(ctx)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.chainIDs[rpcURL] = id.Uint64()
	r.mu.Unlock()
	return id.Uint64(), nil
}

func (r *NetworkResolver) suggest(name string) string {
	matches := fuzzy.Find(name, r.GetNetworks())
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}
