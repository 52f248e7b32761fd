package environment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-amm/internal/adapters/blockchain"
	"github.com/trebuchet-org/treb-amm/internal/adapters/fs"
	"github.com/trebuchet-org/treb-amm/internal/adapters/simchain"
	internalconfig "github.com/trebuchet-org/treb-amm/internal/config"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/domain/config"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// DevKeys are anvil's first well-known development keys, used on non-production networks
// that configure no accounts
var DevKeys = map[string]string{
	domain.DefaultSender: "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	"foundation":         "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
}

// DryRunNetwork names the simulated network of a dry run without --network
const DryRunNetwork = "dry-run"

// Factory builds environments from the project configuration
type Factory struct {
	cfg      *config.RuntimeConfig
	networks *internalconfig.NetworkResolver
	stores   *fs.ArtifactStoreFactory
	log      *slog.Logger
}

// NewFactory creates an environment factory
func NewFactory(cfg *config.RuntimeConfig, networks *internalconfig.NetworkResolver, stores *fs.ArtifactStoreFactory, log *slog.Logger) *Factory {
	return &Factory{
		cfg:      cfg,
		networks: networks,
		stores:   stores,
		log:      log.With("component", "EnvironmentFactory"),
	}
}

// RPCURL returns the configured endpoint of network
func (f *Factory) RPCURL(network string) (string, error) {
	return f.networks.RPCURL(network)
}

// Open connects to a configured network. With --dry-run the network is simulated in memory
// and artifacts go to a scratch store.
func (f *Factory) Open(ctx context.Context, network string) (*usecase.Environment, error) {
	if f.cfg.DryRun {
		return f.openSimulated(network)
	}
	if network == "" {
		return nil, fmt.Errorf("no network selected (pass --network or set TREB_AMM_NETWORK)")
	}

	netCfg, err := f.networks.Config(network)
	if err != nil {
		return nil, err
	}
	mode, err := domain.ParseNetworkMode(netCfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("network %s: %w", network, err)
	}
	rpcURL, err := f.networks.RPCURL(network)
	if err != nil {
		return nil, err
	}
	accounts, err := f.accounts(mode)
	if err != nil {
		return nil, err
	}

	var opts []blockchain.Option
	if mode == domain.ModeProductionFork {
		opts = append(opts, blockchain.WithImpersonation())
	}
	client, err := blockchain.Dial(ctx, rpcURL, netCfg.ChainID, accounts, f.log, opts...)
	if err != nil {
		return nil, fmt.Errorf("network %s: %w", network, err)
	}

	store, err := f.stores.Open(network)
	if err != nil {
		client.Close()
		return nil, err
	}
	env := &usecase.Environment{
		Network: network,
		Mode:    mode,
		ForkOf:  netCfg.ForkOf,
		Client:  client,
		Store:   store,
		Close:   client.Close,
	}
	if netCfg.ForkOf != "" {
		if env.Production, err = f.stores.Open(netCfg.ForkOf); err != nil {
			client.Close()
			return nil, err
		}
	}
	f.log.Debug("environment opened", "network", network, "mode", mode, "chainId", netCfg.ChainID)
	return env, nil
}

// OpenFork connects to an anvil fork of network at rpcURL. Artifacts of the run go to a
// scratch store removed on Close; the network's own store is consulted read-only.
func (f *Factory) OpenFork(ctx context.Context, network, rpcURL string) (*usecase.Environment, error) {
	netCfg, err := f.networks.Config(network)
	if err != nil {
		return nil, err
	}
	accounts, err := f.accounts(domain.ModeProductionFork)
	if err != nil {
		return nil, err
	}
	client, err := blockchain.Dial(ctx, rpcURL, netCfg.ChainID, accounts, f.log, blockchain.WithImpersonation())
	if err != nil {
		return nil, fmt.Errorf("fork of %s: %w", network, err)
	}

	production, err := f.stores.Open(network)
	if err != nil {
		client.Close()
		return nil, err
	}
	store, cleanup, err := scratchStore("fork", network)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &usecase.Environment{
		Network:    network,
		Mode:       domain.ModeProductionFork,
		ForkOf:     network,
		Client:     client,
		Store:      store,
		Production: production,
		Ephemeral:  true,
		Close: func() error {
			return errors.Join(client.Close(), cleanup())
		},
	}, nil
}

// openSimulated runs against simchain with the network's mode. Production networks keep
// skipping development-only steps.
func (f *Factory) openSimulated(network string) (*usecase.Environment, error) {
	mode := domain.ModeDevelopment
	chainID := int64(simchain.DefaultChainID)
	if network == "" {
		network = DryRunNetwork
	} else if netCfg, err := f.networks.Config(network); err == nil {
		if mode, err = domain.ParseNetworkMode(netCfg.Mode); err != nil {
			return nil, fmt.Errorf("network %s: %w", network, err)
		}
		if netCfg.ChainID != 0 {
			chainID = int64(netCfg.ChainID)
		}
	} else {
		return nil, err
	}

	accounts, err := f.accounts(mode)
	if err != nil {
		return nil, err
	}
	addresses := make(map[string]common.Address, len(accounts))
	for _, acc := range accounts {
		addresses[acc.Name] = acc.Address
	}
	for name, addr := range simchain.DevAccounts(sortedKeys(DevKeys)...) {
		if _, ok := addresses[name]; !ok {
			addresses[name] = addr
		}
	}

	store, cleanup, err := scratchStore("dryrun", network)
	if err != nil {
		return nil, err
	}
	f.log.Debug("simulated environment opened", "network", network, "mode", mode)
	return &usecase.Environment{
		Network:   network,
		Mode:      mode,
		Client:    simchain.New(addresses, simchain.WithChainID(chainID)),
		Store:     store,
		Ephemeral: true,
		Close:     cleanup,
	}, nil
}

// accounts resolves the configured accounts; development networks without any fall back to
// the anvil keys
func (f *Factory) accounts(mode domain.NetworkMode) ([]blockchain.Account, error) {
	if len(f.cfg.Accounts) == 0 && !mode.IsProduction() {
		accounts := make([]blockchain.Account, 0, len(DevKeys))
		for _, name := range sortedKeys(DevKeys) {
			acc, err := blockchain.NewAccount(name, "", DevKeys[name])
			if err != nil {
				return nil, err
			}
			accounts = append(accounts, acc)
		}
		return accounts, nil
	}

	accounts := make([]blockchain.Account, 0, len(f.cfg.Accounts))
	for _, name := range sortedKeys(f.cfg.Accounts) {
		entry := f.cfg.Accounts[name]
		acc, err := blockchain.NewAccount(name, entry.Address, entry.PrivateKey)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

func scratchStore(kind, network string) (*fs.ArtifactStoreAdapter, func() error, error) {
	dir, err := os.MkdirTemp("", fmt.Sprintf("treb-amm-%s-*", kind))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create scratch store: %w", err)
	}
	cleanup := func() error { return os.RemoveAll(dir) }
	store, err := fs.NewArtifactStoreAdapter(dir, network)
	if err != nil {
		_ = cleanup()
		return nil, nil, err
	}
	return store, cleanup, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}

var _ usecase.EnvironmentFactory = (*Factory)(nil)
