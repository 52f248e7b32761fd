package usecase

import (
	"context"
	"fmt"

	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// MigrationSource loads the project's migration file
type MigrationSource interface {
	Load(ctx context.Context) (*domain.Migration, error)
}

// Workspace opens orchestrators for configured networks
type Workspace struct {
	envs       EnvironmentFactory
	migrations MigrationSource
	deps       OrchestratorDeps
}

// NewWorkspace creates a workspace
func NewWorkspace(envs EnvironmentFactory, migrations MigrationSource, deps OrchestratorDeps) *Workspace {
	return &Workspace{envs: envs, migrations: migrations, deps: deps}
}

// Graph loads and validates the migration
func (w *Workspace) Graph(ctx context.Context) (*StepGraph, error) {
	migration, err := w.migrations.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load migration: %w", err)
	}
	return NewStepGraph(migration, w.deps.Templates)
}

// Open binds an orchestrator to network. The graph is validated before connecting.
func (w *Workspace) Open(ctx context.Context, network string) (*Orchestrator, error) {
	graph, err := w.Graph(ctx)
	if err != nil {
		return nil, err
	}
	env, err := w.envs.Open(ctx, network)
	if err != nil {
		return nil, err
	}
	return NewOrchestrator(env, graph, w.deps), nil
}

// OpenFork binds an orchestrator to a fork of network served at rpcURL
func (w *Workspace) OpenFork(ctx context.Context, network, rpcURL string) (*Orchestrator, error) {
	graph, err := w.Graph(ctx)
	if err != nil {
		return nil, err
	}
	env, err := w.envs.OpenFork(ctx, network, rpcURL)
	if err != nil {
		return nil, err
	}
	return NewOrchestrator(env, graph, w.deps), nil
}

// Progress returns the workspace's progress sink
func (w *Workspace) Progress() ProgressSink {
	if w.deps.Progress == nil {
		return NopProgress{}
	}
	return w.deps.Progress
}
