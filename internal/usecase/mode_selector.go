package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// Environment bundles the collaborators bound to one network
type Environment struct {
	Network string
	Mode    domain.NetworkMode
	// ForkOf names the production network a fork rehearses
	ForkOf string

	Client ChainClient
	Store  ArtifactStore
	// Production is the canonical store of ForkOf, consulted in production-fork mode
	Production ArtifactStore
	// Ephemeral marks dry runs and throwaway forks: no history is recorded and no
	// confirmation is asked
	Ephemeral bool

	Close func() error
}

// Shutdown releases the environment's connections
func (e *Environment) Shutdown() error {
	if e == nil || e.Close == nil {
		return nil
	}
	return e.Close()
}

// Action is what the executor does with a step
type Action string

const (
	ActionRun    Action = "run"
	ActionSkip   Action = "skip"
	ActionReuse  Action = "reuse"
	ActionAttach Action = "attach"
)

// Decision is the mode selector's verdict for one step
type Decision struct {
	Action Action
	Reason string
	// Record is the production artifact reused by ActionReuse
	Record *domain.ArtifactRecord
	// Address is the pre-existing contract used by ActionAttach
	Address common.Address
}

// ModeSelector decides per step whether it runs on the active network
type ModeSelector struct {
	network    string
	mode       domain.NetworkMode
	forkOf     string
	production ArtifactStore
}

// NewModeSelector creates a selector for env
func NewModeSelector(env *Environment) *ModeSelector {
	return &ModeSelector{
		network:    env.Network,
		mode:       env.Mode,
		forkOf:     env.ForkOf,
		production: env.Production,
	}
}

// Mode returns the active network mode
func (s *ModeSelector) Mode() domain.NetworkMode {
	return s.mode
}

// AllowsTestEffects reports whether test supply minting and artifact resets may run
func (s *ModeSelector) AllowsTestEffects() bool {
	return s.mode.AllowsTestEffects()
}

// RequireTestEffects fails with ErrProductionForbidden on production networks
func (s *ModeSelector) RequireTestEffects(operation string) error {
	if !s.AllowsTestEffects() {
		return fmt.Errorf("%s on %s: %w", operation, s.network, domain.ErrProductionForbidden)
	}
	return nil
}

// Decide classifies step for the active network
func (s *ModeSelector) Decide(ctx context.Context, step *domain.DeploymentStep) (Decision, error) {
	if step.DevOnly && s.mode.IsProduction() {
		return Decision{Action: ActionSkip, Reason: "development-only step on a production network"}, nil
	}

	for _, network := range []string{s.network, s.forkOf} {
		if network == "" {
			continue
		}
		if raw, ok := step.Attach[network]; ok {
			if !common.IsHexAddress(raw) {
				return Decision{}, fmt.Errorf("step %s attach address %q: %w", step.ID, raw, domain.ErrInvalidAddress)
			}
			return Decision{
				Action:  ActionAttach,
				Address: common.HexToAddress(raw),
				Reason:  fmt.Sprintf("attached to existing %s contract", network),
			}, nil
		}
	}

	if s.mode == domain.ModeProductionFork && s.production != nil {
		rec, err := s.production.Get(ctx, step.ID)
		switch {
		case err == nil:
			return Decision{
				Action: ActionReuse,
				Record: rec,
				Reason: fmt.Sprintf("already deployed on %s", s.production.Network()),
			}, nil
		case !errors.Is(err, domain.ErrNotFound):
			return Decision{}, fmt.Errorf("failed to read production artifact %s: %w", step.ID, err)
		}
	}

	return Decision{Action: ActionRun}, nil
}
