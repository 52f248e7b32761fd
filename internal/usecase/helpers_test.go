package usecase_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-amm/internal/adapters/abi"
	"github.com/trebuchet-org/treb-amm/internal/adapters/forge"
	"github.com/trebuchet-org/treb-amm/internal/adapters/fs"
	"github.com/trebuchet-org/treb-amm/internal/adapters/simchain"
	"github.com/trebuchet-org/treb-amm/internal/config"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	domainconfig "github.com/trebuchet-org/treb-amm/internal/domain/config"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newChain(opts ...simchain.Option) *simchain.Chain {
	return simchain.New(simchain.DevAccounts("deployer", "foundation", "governor"), opts...)
}

func newDeps(deploymentsDir string) usecase.OrchestratorDeps {
	return usecase.OrchestratorDeps{
		Templates: domain.NewTemplateRegistry(domain.DefaultTemplates()...),
		Artifacts: forge.NewEmbeddedArtifacts(),
		Encoder:   abi.NewArgEncoder(),
		Decoder:   abi.NewRevertDecoder(),
		History:   fs.NewHistoryStoreAdapter(&domainconfig.RuntimeConfig{DeploymentsDir: deploymentsDir}),
		Log:       quietLogger(),
		Clock:     testClock,
	}
}

func parseMigration(t *testing.T, doc string) *domain.Migration {
	t.Helper()
	migration, err := config.ParseMigration([]byte(doc))
	require.NoError(t, err)
	return migration
}

func defaultMigration(t *testing.T) *domain.Migration {
	t.Helper()
	migration, err := config.ParseMigration(config.DefaultMigration())
	require.NoError(t, err)
	return migration
}

// fixture is an orchestrator bound to an in-memory chain and a scratch deployments directory
type fixture struct {
	dir   string
	chain *simchain.Chain
	store *fs.ArtifactStoreAdapter
	orch  *usecase.Orchestrator
}

func newFixture(t *testing.T, migration *domain.Migration, mode domain.NetworkMode, chain *simchain.Chain) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := fs.NewArtifactStoreAdapter(dir, "local")
	require.NoError(t, err)

	deps := newDeps(dir)
	graph, err := usecase.NewStepGraph(migration, deps.Templates)
	require.NoError(t, err)

	env := &usecase.Environment{
		Network: "local",
		Mode:    mode,
		Client:  chain,
		Store:   store,
	}
	return &fixture{
		dir:   dir,
		chain: chain,
		store: store,
		orch:  usecase.NewOrchestrator(env, graph, deps),
	}
}

func (f *fixture) run(t *testing.T, tag string) *usecase.RunTagResult {
	t.Helper()
	result, err := f.orch.Runner.RunTag(context.Background(), usecase.RunTagParams{Tag: tag})
	require.NoError(t, err)
	return result
}

func (f *fixture) account(t *testing.T, name string) string {
	t.Helper()
	addr, err := f.chain.Account(context.Background(), name)
	require.NoError(t, err)
	return addr.Hex()
}

// fakeEnvs opens environments on one shared chain, one artifact directory per network
type fakeEnvs struct {
	dir   string
	chain *simchain.Chain
	modes map[string]domain.NetworkMode
}

func (f *fakeEnvs) Open(_ context.Context, network string) (*usecase.Environment, error) {
	mode, ok := f.modes[network]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownNetwork, network)
	}
	store, err := fs.NewArtifactStoreAdapter(f.dir, network)
	if err != nil {
		return nil, err
	}
	return &usecase.Environment{Network: network, Mode: mode, Client: f.chain, Store: store}, nil
}

// OpenFork serves the fork from the shared chain with a scratch store, reusing network's records
func (f *fakeEnvs) OpenFork(_ context.Context, network, _ string) (*usecase.Environment, error) {
	if _, ok := f.modes[network]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownNetwork, network)
	}
	production, err := fs.NewArtifactStoreAdapter(f.dir, network)
	if err != nil {
		return nil, err
	}
	scratch, err := fs.NewArtifactStoreAdapter(f.dir, network+"-fork")
	if err != nil {
		return nil, err
	}
	return &usecase.Environment{
		Network:    network + "-fork",
		Mode:       domain.ModeProductionFork,
		ForkOf:     network,
		Client:     f.chain,
		Store:      scratch,
		Production: production,
		Ephemeral:  true,
	}, nil
}

func (f *fakeEnvs) RPCURL(network string) (string, error) {
	if _, ok := f.modes[network]; !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownNetwork, network)
	}
	return "https://rpc.example/" + network, nil
}

type staticMigration struct {
	migration *domain.Migration
}

func (s staticMigration) Load(context.Context) (*domain.Migration, error) {
	return s.migration, nil
}

type fakeConfirmer struct {
	answer  bool
	prompts []string
}

func (c *fakeConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	c.prompts = append(c.prompts, prompt)
	return c.answer, nil
}

// newWorkspace serves a development network "local" and a production network "mainnet"
func newWorkspace(t *testing.T, migration *domain.Migration) (*usecase.Workspace, *fakeEnvs) {
	t.Helper()
	envs := &fakeEnvs{
		dir:   t.TempDir(),
		chain: newChain(),
		modes: map[string]domain.NetworkMode{
			"local":   domain.ModeDevelopment,
			"mainnet": domain.ModeProduction,
		},
	}
	return usecase.NewWorkspace(envs, staticMigration{migration}, newDeps(envs.dir)), envs
}
