package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/domain/config"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

func TestDefaultMigration(t *testing.T) {
	migration, err := NewMigrationLoader(&config.RuntimeConfig{}).Load(context.Background())
	require.NoError(t, err)

	ids := make([]string, len(migration.Steps))
	for i, step := range migration.Steps {
		ids[i] = step.ID
	}
	assert.Contains(t, ids, "BNTGovernance")
	assert.Contains(t, ids, "BancorNetwork")

	// the bundled migration must form a valid graph over the bundled templates
	graph, err := usecase.NewStepGraph(migration, domain.NewTemplateRegistry(domain.DefaultTemplates()...))
	require.NoError(t, err)

	v3, err := graph.TagClosure("V3")
	require.NoError(t, err)
	closure := make([]string, len(v3))
	for i, step := range v3 {
		closure[i] = step.ID
	}
	assert.Contains(t, closure, "BNT", "V3 depends on the V2 tokens")
	assert.Less(t, indexOf(closure, "MasterVault"), indexOf(closure, "BancorNetwork"))
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestParseMigration(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name: "valid",
			doc: `steps:
  - id: BNT
    contract: SmartToken
    args: ["Bancor", "BNT", "18"]
`,
		},
		{name: "empty document", doc: "", wantErr: "empty"},
		{name: "no steps", doc: "steps: []\n", wantErr: "no steps"},
		{
			name: "unknown field",
			doc: `steps:
  - id: BNT
    contract: SmartToken
    constructor: []
`,
			wantErr: "constructor",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			migration, err := ParseMigration([]byte(tt.doc))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, migration.Steps, 1)
			assert.Equal(t, []string{"Bancor", "BNT", "18"}, migration.Steps[0].Args)
		})
	}
}

func TestMigrationLoader_ProjectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migration.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`steps:
  - id: Settings
    contract: NetworkSettings
    args: ["0x0000000000000000000000000000000000000001"]
    roles:
      - kind: handoff
        role: ROLE_ADMIN
        to: foundation
`), 0644))

	loader := NewMigrationLoader(&config.RuntimeConfig{MigrationFile: path})
	assert.Equal(t, path, loader.Source())

	migration, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, migration.Steps, 1)
	require.Len(t, migration.Steps[0].Roles, 1)
	assert.Equal(t, domain.TransitionHandoff, migration.Steps[0].Roles[0].Kind)

	_, err = NewMigrationLoader(&config.RuntimeConfig{MigrationFile: path + ".missing"}).Load(context.Background())
	assert.Error(t, err)
}
