package environment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/trebuchet-org/treb-amm/internal/adapters/blockchain"
	"github.com/trebuchet-org/treb-amm/internal/adapters/fs"
	internalconfig "github.com/trebuchet-org/treb-amm/internal/config"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/domain/config"
	"github.com/trebuchet-org/treb-amm/internal/formula"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// DefaultHarnessIdentity is the artifact identity of the formula test contract
const DefaultHarnessIdentity = "FormulaHarness"

// HarnessFactory connects to the formula harness recorded for a network
type HarnessFactory struct {
	networks *internalconfig.NetworkResolver
	stores   *fs.ArtifactStoreFactory
	identity string
	log      *slog.Logger
}

// NewHarnessFactory creates a harness factory
func NewHarnessFactory(cfg *config.RuntimeConfig, networks *internalconfig.NetworkResolver, stores *fs.ArtifactStoreFactory, log *slog.Logger) *HarnessFactory {
	identity := cfg.Verification.Harness
	if identity == "" {
		identity = DefaultHarnessIdentity
	}
	return &HarnessFactory{
		networks: networks,
		stores:   stores,
		identity: identity,
		log:      log.With("component", "HarnessFactory"),
	}
}

// Open dials network and binds the recorded harness; close releases the connection
func (f *HarnessFactory) Open(ctx context.Context, network string) (formula.Calculator, func() error, error) {
	store, err := f.stores.Open(network)
	if err != nil {
		return nil, nil, err
	}
	rec, err := store.Get(ctx, f.identity)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, fmt.Errorf("formula harness %s is not deployed on %s (deploy the harness tag first): %w", f.identity, network, err)
	}
	if err != nil {
		return nil, nil, err
	}

	netCfg, err := f.networks.Config(network)
	if err != nil {
		return nil, nil, err
	}
	rpcURL, err := f.networks.RPCURL(network)
	if err != nil {
		return nil, nil, err
	}
	client, err := blockchain.Dial(ctx, rpcURL, netCfg.ChainID, nil, f.log)
	if err != nil {
		return nil, nil, fmt.Errorf("network %s: %w", network, err)
	}

	deployed, err := client.CodeAt(ctx, rec.Address)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	if !deployed {
		client.Close()
		return nil, nil, fmt.Errorf("formula harness %s: no code at %s on %s", f.identity, rec.Address.Hex(), network)
	}

	f.log.Debug("formula harness bound", "network", network, "address", rec.Address.Hex())
	return blockchain.NewFormulaHarness(client, rec.Address), client.Close, nil
}

var _ usecase.FormulaCalculatorFactory = (*HarnessFactory)(nil)
