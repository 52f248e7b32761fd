//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-amm/internal/adapters"
	"github.com/trebuchet-org/treb-amm/internal/config"
	"github.com/trebuchet-org/treb-amm/internal/logging"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Orchestration
		ProvideTemplates,
		ProvideOrchestratorDeps,
		usecase.NewWorkspace,

		// Use cases
		usecase.NewDeploySystem,
		usecase.NewMigrateSystem,
		usecase.NewRunFork,
		usecase.NewVerifyMigration,
		usecase.NewSnapshotRoles,
		usecase.NewManageRole,
		usecase.NewCreatePool,
		usecase.NewListArtifacts,
		usecase.NewShowArtifact,
		usecase.NewShowHistory,
		usecase.NewListNetworks,
		usecase.NewVerifyFormulas,
		wire.Struct(new(Params), "*"),

		// App
		NewApp,
	)
	return nil, nil
}
