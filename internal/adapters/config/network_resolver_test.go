package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-amm/internal/config"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	domainconfig "github.com/trebuchet-org/treb-amm/internal/domain/config"
)

func TestNetworkResolverAdapter(t *testing.T) {
	cfg := &domainconfig.RuntimeConfig{
		Networks: map[string]domainconfig.NetworkConfig{
			"mainnet": {Name: "mainnet", RPCURL: "http://mainnet.invalid", ChainID: 1, Mode: "production"},
			"tenderly": {
				Name:    "tenderly",
				RPCURL:  "http://tenderly.invalid",
				ChainID: 1,
				Mode:    "production-fork",
				ForkOf:  "mainnet",
			},
		},
	}
	adapter := NewNetworkResolverAdapter(config.NewNetworkResolver(cfg))

	assert.Equal(t, []string{"mainnet", "tenderly"}, adapter.GetNetworks(context.Background()))

	info, err := adapter.ResolveNetwork(context.Background(), "tenderly")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.ChainID)
	assert.Equal(t, domain.ModeProductionFork, info.Mode)
	assert.Equal(t, "mainnet", info.ForkOf)

	_, err = adapter.ResolveNetwork(context.Background(), "mainet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mainnet")
}
