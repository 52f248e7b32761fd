package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/go-cmp/cmp"
	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// RunForkParams contains parameters for an ephemeral fork run
type RunForkParams struct {
	// Network is the production network forked
	Network string
	Tag     string
	Port    int
	// Repeat runs the tag a second time from the same fork state and compares role snapshots
	Repeat bool
	Verify bool
}

// RunForkResult holds the outcome of a fork run
type RunForkResult struct {
	Network  string
	ForkURL  string
	Run      *RunTagResult
	Snapshot domain.RoleSnapshot
	Report   *VerificationReport
	// Diff is empty when the repeated run reproduced the snapshot
	Diff string
}

// RunFork rehearses a tag against a throwaway anvil fork of a production network
type RunFork struct {
	workspace *Workspace
	envs      EnvironmentFactory
	anvil     AnvilManager
	log       *slog.Logger
}

// NewRunFork creates the use case
func NewRunFork(workspace *Workspace, envs EnvironmentFactory, anvil AnvilManager, log *slog.Logger) *RunFork {
	return &RunFork{workspace: workspace, envs: envs, anvil: anvil, log: log}
}

// Execute starts anvil, runs the tag in production-fork mode and stops anvil
func (uc *RunFork) Execute(ctx context.Context, params RunForkParams) (result *RunForkResult, err error) {
	upstream, err := uc.envs.RPCURL(params.Network)
	if err != nil {
		return nil, err
	}
	port := params.Port
	if port == 0 {
		port = 8545
	}
	instance := &domain.AnvilInstance{
		Name:    "fork-" + params.Network,
		Port:    strconv.Itoa(port),
		ForkURL: upstream,
	}

	progress := uc.workspace.Progress()
	progress.OnProgress(ctx, ProgressEvent{Stage: StageForkStart, Message: fmt.Sprintf("Forking %s on port %d", params.Network, port), Spinner: true})
	if err := uc.anvil.Start(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to start fork of %s: %w", params.Network, err)
	}
	defer func() {
		progress.OnProgress(ctx, ProgressEvent{Stage: StageForkStop, Message: "Stopping fork"})
		if stopErr := uc.anvil.Stop(context.WithoutCancel(ctx), instance); stopErr != nil && err == nil {
			err = fmt.Errorf("failed to stop fork: %w", stopErr)
		}
	}()

	status, err := uc.anvil.GetStatus(ctx, instance)
	if err != nil {
		return nil, err
	}

	o, err := uc.workspace.OpenFork(ctx, params.Network, status.RPCURL)
	if err != nil {
		return nil, err
	}
	defer o.Env.Shutdown()

	result = &RunForkResult{Network: params.Network, ForkURL: status.RPCURL}

	var snapshotID string
	if params.Repeat {
		if snapshotID, err = uc.anvil.TakeSnapshot(ctx, instance); err != nil {
			return result, err
		}
	}

	if result.Run, result.Snapshot, err = uc.runOnce(ctx, o, params.Tag); err != nil {
		return result, err
	}

	if params.Verify {
		if result.Report, err = o.Verify(ctx, result.Run.Steps...); err != nil {
			return result, err
		}
	}

	if params.Repeat {
		if err := uc.anvil.RevertSnapshot(ctx, instance, snapshotID); err != nil {
			return result, err
		}
		_, second, err := uc.runOnce(ctx, o, params.Tag)
		if err != nil {
			return result, fmt.Errorf("repeated run: %w", err)
		}
		result.Diff = cmp.Diff(result.Snapshot, second)
		if result.Diff != "" {
			uc.log.Warn("fork runs diverged", "tag", params.Tag)
		}
	}
	return result, nil
}

// runOnce runs the tag from a clean scratch store and snapshots the resulting roles
func (uc *RunFork) runOnce(ctx context.Context, o *Orchestrator, tag string) (*RunTagResult, domain.RoleSnapshot, error) {
	run, err := o.Runner.RunTag(ctx, RunTagParams{Tag: tag, Reset: true})
	if err != nil {
		return run, nil, err
	}
	snapshot, err := o.SnapshotRoles(ctx, run.Steps...)
	if err != nil {
		return run, nil, err
	}
	return run, snapshot, nil
}
