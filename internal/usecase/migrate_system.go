package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// MigrateSystemParams contains parameters for a staged migration
type MigrateSystemParams struct {
	Network string
	// From is the tag whose closure must already be recorded
	From string
	// To is the tag layered on top
	To     string
	Verify bool
	Yes    bool
}

// MigrateSystem layers one tag on top of a recorded one
type MigrateSystem struct {
	workspace *Workspace
	confirmer Confirmer
}

// NewMigrateSystem creates the use case
func NewMigrateSystem(workspace *Workspace, confirmer Confirmer) *MigrateSystem {
	return &MigrateSystem{workspace: workspace, confirmer: confirmer}
}

// Execute requires every non-skipped step of From to be recorded, then runs To
func (uc *MigrateSystem) Execute(ctx context.Context, params MigrateSystemParams) (*DeploySystemResult, error) {
	o, err := uc.workspace.Open(ctx, params.Network)
	if err != nil {
		return nil, err
	}
	defer o.Env.Shutdown()

	base, err := o.Graph.TagClosure(params.From)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, step := range base {
		decision, err := o.Selector.Decide(ctx, step)
		if err != nil {
			return nil, err
		}
		if decision.Action == ActionSkip {
			continue
		}
		rec, err := o.Env.Store.Get(ctx, step.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			missing = append(missing, step.ID)
		case err != nil:
			return nil, fmt.Errorf("failed to read artifact %s: %w", step.ID, err)
		case !rec.Configured:
			missing = append(missing, step.ID)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: tag %s on %s lacks %v", domain.ErrIncompleteMigration, params.From, o.Env.Network, missing)
	}

	steps, err := o.Runner.Plan(params.To)
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf("Migrate %s from %s to %s (%d steps)?", o.Env.Network, params.From, params.To, len(steps))
	if err := confirmProduction(ctx, uc.confirmer, o.Env, params.Yes, prompt); err != nil {
		return nil, err
	}

	result := &DeploySystemResult{Network: o.Env.Network, Mode: o.Env.Mode}
	if result.Run, err = o.Runner.RunTag(ctx, RunTagParams{Tag: params.To}); err != nil {
		return result, err
	}
	if params.Verify {
		if result.Report, err = o.Verify(ctx, result.Run.Steps...); err != nil {
			return result, err
		}
	}
	return result, nil
}
