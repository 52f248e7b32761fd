package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-amm/internal/config"
	domainconfig "github.com/trebuchet-org/treb-amm/internal/domain/config"
)

func TestNewRootCmd_Commands(t *testing.T) {
	root := NewRootCmd()

	tests := []struct {
		path  []string
		group string
	}{
		{path: []string{"deploy"}, group: "main"},
		{path: []string{"migrate"}, group: "main"},
		{path: []string{"fork"}, group: "main"},
		{path: []string{"verify"}, group: "main"},
		{path: []string{"artifacts"}, group: "inspect"},
		{path: []string{"history"}, group: "inspect"},
		{path: []string{"roles"}, group: "inspect"},
		{path: []string{"networks"}, group: "inspect"},
		{path: []string{"pool"}, group: "management"},
		{path: []string{"formulas"}, group: "management"},
		{path: []string{"version"}},
		{path: []string{"artifacts", "list"}},
		{path: []string{"artifacts", "show"}},
		{path: []string{"roles", "snapshot"}},
		{path: []string{"roles", "give"}},
		{path: []string{"roles", "revoke"}},
		{path: []string{"pool", "create"}},
		{path: []string{"formulas", "verify"}},
		{path: []string{"networks", "env"}},
	}

	for _, tt := range tests {
		cmd, _, err := root.Find(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.path[len(tt.path)-1], cmd.Name())
		if tt.group != "" {
			assert.Equal(t, tt.group, cmd.GroupID, tt.path)
		}
	}

	for _, flag := range []string{"network", "dry-run", "yes", "non-interactive", "json", "debug", "timeout"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestIsFormulasCmd(t *testing.T) {
	root := NewRootCmd()

	verify, _, err := root.Find([]string{"formulas", "verify"})
	require.NoError(t, err)
	assert.True(t, isFormulasCmd(verify))

	deploy, _, err := root.Find([]string{"deploy"})
	require.NoError(t, err)
	assert.False(t, isFormulasCmd(deploy))
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)

	assert.Contains(t, out.String(), "treb-amm version "+config.Version)
}

func TestRunNetworksEnv(t *testing.T) {
	root := t.TempDir()
	project := `[networks.mainnet]
rpc_url = "https://eth.example/key123"
chain_id = 1
mode = "production"

[networks.sepolia]
rpc_url = "${SEPOLIA_RPC_URL}"
`
	require.NoError(t, os.WriteFile(filepath.Join(root, config.ProjectFileName), []byte(project), 0644))

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cfg := &domainconfig.RuntimeConfig{ProjectRoot: root, NonInteractive: true}

	require.NoError(t, runNetworksEnv(cmd, cfg, nil))
	assert.Contains(t, out.String(), "mainnet now reads ${MAINNET_RPC_URL}")
	assert.NotContains(t, out.String(), "sepolia now reads")

	data, err := os.ReadFile(filepath.Join(root, config.ProjectFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `rpc_url = "${MAINNET_RPC_URL}"`)
	assert.Contains(t, string(data), `rpc_url = "${SEPOLIA_RPC_URL}"`)

	env, err := os.ReadFile(filepath.Join(root, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "MAINNET_RPC_URL=https://eth.example/key123\n", string(env))

	// a second run finds nothing left to move
	out.Reset()
	require.NoError(t, runNetworksEnv(cmd, cfg, nil))
	assert.Contains(t, out.String(), "nothing to move")
}

func TestRunNetworksEnv_UnknownNetwork(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, config.ProjectFileName), []byte("[networks.mainnet]\nrpc_url = \"http://x\"\n"), 0644))

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	err := runNetworksEnv(cmd, &domainconfig.RuntimeConfig{ProjectRoot: root, NonInteractive: true}, []string{"goerli"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "goerli")
}
