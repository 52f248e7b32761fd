package app

import (
	"log/slog"
	"time"

	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/domain/config"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Shared dependencies
	Selector usecase.InteractiveSelector
	Progress usecase.ProgressSink

	// Use cases
	DeploySystem    *usecase.DeploySystem
	MigrateSystem   *usecase.MigrateSystem
	RunFork         *usecase.RunFork
	VerifyMigration *usecase.VerifyMigration
	SnapshotRoles   *usecase.SnapshotRoles
	ManageRole      *usecase.ManageRole
	CreatePool      *usecase.CreatePool
	ListArtifacts   *usecase.ListArtifacts
	ShowArtifact    *usecase.ShowArtifact
	ShowHistory     *usecase.ShowHistory
	ListNetworks    *usecase.ListNetworks
	VerifyFormulas  *usecase.VerifyFormulas
}

// Params groups the use cases wire hands to NewApp
type Params struct {
	DeploySystem    *usecase.DeploySystem
	MigrateSystem   *usecase.MigrateSystem
	RunFork         *usecase.RunFork
	VerifyMigration *usecase.VerifyMigration
	SnapshotRoles   *usecase.SnapshotRoles
	ManageRole      *usecase.ManageRole
	CreatePool      *usecase.CreatePool
	ListArtifacts   *usecase.ListArtifacts
	ShowArtifact    *usecase.ShowArtifact
	ShowHistory     *usecase.ShowHistory
	ListNetworks    *usecase.ListNetworks
	VerifyFormulas  *usecase.VerifyFormulas
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	selector usecase.InteractiveSelector,
	progress usecase.ProgressSink,
	params Params,
) (*App, error) {
	return &App{
		Config:          cfg,
		Log:             log,
		Selector:        selector,
		Progress:        progress,
		DeploySystem:    params.DeploySystem,
		MigrateSystem:   params.MigrateSystem,
		RunFork:         params.RunFork,
		VerifyMigration: params.VerifyMigration,
		SnapshotRoles:   params.SnapshotRoles,
		ManageRole:      params.ManageRole,
		CreatePool:      params.CreatePool,
		ListArtifacts:   params.ListArtifacts,
		ShowArtifact:    params.ShowArtifact,
		ShowHistory:     params.ShowHistory,
		ListNetworks:    params.ListNetworks,
		VerifyFormulas:  params.VerifyFormulas,
	}, nil
}

// ProvideTemplates returns the registry of contract templates the migration may reference
func ProvideTemplates() *domain.TemplateRegistry {
	return domain.NewTemplateRegistry(domain.DefaultTemplates()...)
}

// ProvideOrchestratorDeps collects the environment-independent collaborators of a run
func ProvideOrchestratorDeps(
	templates *domain.TemplateRegistry,
	artifacts usecase.ContractArtifacts,
	encoder usecase.ArgEncoder,
	decoder usecase.RevertDecoder,
	history usecase.HistoryStore,
	progress usecase.ProgressSink,
	log *slog.Logger,
) usecase.OrchestratorDeps {
	return usecase.OrchestratorDeps{
		Templates: templates,
		Artifacts: artifacts,
		Encoder:   encoder,
		Decoder:   decoder,
		History:   history,
		Progress:  progress,
		Log:       log,
		Clock:     time.Now,
	}
}
