package environment

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-amm/internal/adapters/fs"
	internalconfig "github.com/trebuchet-org/treb-amm/internal/config"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/domain/config"
)

func newTestFactory(t *testing.T, cfg *config.RuntimeConfig) *Factory {
	t.Helper()
	if cfg.DeploymentsDir == "" {
		cfg.DeploymentsDir = t.TempDir()
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewFactory(cfg, internalconfig.NewNetworkResolver(cfg), fs.NewArtifactStoreFactory(cfg), log)
}

func TestOpen_DryRunWithoutNetwork(t *testing.T) {
	f := newTestFactory(t, &config.RuntimeConfig{DryRun: true})

	env, err := f.Open(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, DryRunNetwork, env.Network)
	assert.Equal(t, domain.ModeDevelopment, env.Mode)
	assert.True(t, env.Ephemeral)
	assert.Nil(t, env.Production)

	// the anvil keys stand in for unconfigured accounts
	deployer, err := env.Client.Account(context.Background(), domain.DefaultSender)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), deployer)
	foundation, err := env.Client.Account(context.Background(), "foundation")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"), foundation)

	store := env.Store.(*fs.ArtifactStoreAdapter)
	dir := filepath.Dir(store.Dir())
	_, err = os.Stat(dir)
	require.NoError(t, err)

	require.NoError(t, env.Shutdown())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "scratch store is removed")
}

func TestOpen_DryRunKeepsProductionMode(t *testing.T) {
	f := newTestFactory(t, &config.RuntimeConfig{
		DryRun: true,
		Networks: map[string]config.NetworkConfig{
			"mainnet": {RPCURL: "https://eth.example.org", ChainID: 1, Mode: "production"},
		},
		Accounts: map[string]config.AccountConfig{
			"foundation": {Address: "0x0000000000000000000000000000000000000f00"},
		},
	})

	env, err := f.Open(context.Background(), "mainnet")
	require.NoError(t, err)
	defer env.Shutdown()

	assert.Equal(t, domain.ModeProduction, env.Mode)
	assert.True(t, env.Ephemeral, "dry runs never record history")

	chainID, err := env.Client.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), chainID.Int64())

	foundation, err := env.Client.Account(context.Background(), "foundation")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x0000000000000000000000000000000000000f00"), foundation)

	_, err = env.Client.Account(context.Background(), domain.DefaultSender)
	assert.NoError(t, err, "missing accounts get simulated addresses")
}

func TestOpen_Errors(t *testing.T) {
	f := newTestFactory(t, &config.RuntimeConfig{
		Networks: map[string]config.NetworkConfig{
			"sepolia": {Mode: "production"},
		},
	})

	_, err := f.Open(context.Background(), "")
	assert.ErrorContains(t, err, "no network selected")

	_, err = f.Open(context.Background(), "sepolai")
	assert.ErrorContains(t, err, "did you mean")

	t.Setenv("SEPOLIA_RPC_URL", "")
	_, err = f.Open(context.Background(), "sepolia")
	assert.ErrorContains(t, err, "SEPOLIA_RPC_URL")
}

func TestAccounts(t *testing.T) {
	t.Run("production without accounts has none", func(t *testing.T) {
		f := newTestFactory(t, &config.RuntimeConfig{})
		accounts, err := f.accounts(domain.ModeProduction)
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})

	t.Run("configured accounts sorted by name", func(t *testing.T) {
		f := newTestFactory(t, &config.RuntimeConfig{Accounts: map[string]config.AccountConfig{
			"foundation": {Address: "0x0000000000000000000000000000000000000f00"},
			"deployer":   {PrivateKey: DevKeys[domain.DefaultSender]},
		}})
		accounts, err := f.accounts(domain.ModeDevelopment)
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, "deployer", accounts[0].Name)
		assert.NotNil(t, accounts[0].Key)
		assert.Equal(t, "foundation", accounts[1].Name)
		assert.Nil(t, accounts[1].Key)
	})

	t.Run("invalid account", func(t *testing.T) {
		f := newTestFactory(t, &config.RuntimeConfig{Accounts: map[string]config.AccountConfig{
			"deployer": {Address: "not-an-address"},
		}})
		_, err := f.accounts(domain.ModeDevelopment)
		assert.ErrorIs(t, err, domain.ErrInvalidAddress)
	})
}

func TestHarnessFactory_NotDeployed(t *testing.T) {
	cfg := &config.RuntimeConfig{
		DeploymentsDir: t.TempDir(),
		Networks:       map[string]config.NetworkConfig{"local": {RPCURL: "http://127.0.0.1:1"}},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := NewHarnessFactory(cfg, internalconfig.NewNetworkResolver(cfg), fs.NewArtifactStoreFactory(cfg), log)

	_, _, err := f.Open(context.Background(), "local")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorContains(t, err, DefaultHarnessIdentity)
}
