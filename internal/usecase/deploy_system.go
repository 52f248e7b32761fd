package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// ErrAborted is returned when the user declines a production broadcast
var ErrAborted = errors.New("aborted by user")

// DeploySystemParams contains parameters for deploying a tag
type DeploySystemParams struct {
	Network string
	Tag     string
	// Reset deletes the network's artifacts first; development and forks only
	Reset bool
	// Verify runs the post-migration checks of the tag closure
	Verify bool
	// Yes skips the production confirmation prompt
	Yes bool
}

// DeploySystemResult contains the outcome of a deployment
type DeploySystemResult struct {
	Network string
	Mode    domain.NetworkMode
	Run     *RunTagResult
	Report  *VerificationReport
}

// DeploySystem runs the closure of a tag on a network
type DeploySystem struct {
	workspace *Workspace
	confirmer Confirmer
}

// NewDeploySystem creates the use case
func NewDeploySystem(workspace *Workspace, confirmer Confirmer) *DeploySystem {
	return &DeploySystem{workspace: workspace, confirmer: confirmer}
}

// Execute deploys the tag
func (uc *DeploySystem) Execute(ctx context.Context, params DeploySystemParams) (*DeploySystemResult, error) {
	o, err := uc.workspace.Open(ctx, params.Network)
	if err != nil {
		return nil, err
	}
	defer o.Env.Shutdown()

	steps, err := o.Runner.Plan(params.Tag)
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf("Run %d steps of tag %s on production network %s?", len(steps), params.Tag, o.Env.Network)
	if err := confirmProduction(ctx, uc.confirmer, o.Env, params.Yes, prompt); err != nil {
		return nil, err
	}

	result := &DeploySystemResult{Network: o.Env.Network, Mode: o.Env.Mode}
	result.Run, err = o.Runner.RunTag(ctx, RunTagParams{Tag: params.Tag, Reset: params.Reset})
	if err != nil {
		return result, err
	}

	if params.Verify {
		if result.Report, err = o.Verify(ctx, result.Run.Steps...); err != nil {
			return result, err
		}
	}
	return result, nil
}

func confirmProduction(ctx context.Context, confirmer Confirmer, env *Environment, yes bool, prompt string) error {
	if !env.Mode.IsProduction() || env.Ephemeral || yes {
		return nil
	}
	if confirmer == nil {
		return fmt.Errorf("%w: production network %s requires confirmation", ErrAborted, env.Network)
	}
	ok, err := confirmer.Confirm(ctx, prompt)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}
	return nil
}
