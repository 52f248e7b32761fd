package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// SnapshotRoles reads the holders of every role on the recorded contracts of steps.
// With no steps, the whole migration is read.
func (o *Orchestrator) SnapshotRoles(ctx context.Context, steps ...*domain.DeploymentStep) (domain.RoleSnapshot, error) {
	if len(steps) == 0 {
		steps = o.Graph.Order()
	}

	snapshot := domain.RoleSnapshot{}
	for _, step := range steps {
		rec, err := o.Env.Store.Get(ctx, step.ID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read artifact %s: %w", step.ID, err)
		}

		h, err := o.Handles.For(rec)
		if err != nil {
			return nil, err
		}
		var roles *RolesHandle
		switch h := h.(type) {
		case *RolesHandle:
			roles = h
		case *GovernanceHandle:
			roles = h.RolesHandle
		default:
			continue
		}

		for _, role := range roles.Space().Roles() {
			members, err := roles.Members(ctx, role)
			if err != nil {
				return nil, err
			}
			for _, m := range members {
				snapshot.Add(domain.RoleGrant{Target: rec.Identity, Role: role, Holder: m})
			}
		}
	}
	return snapshot, nil
}

// SnapshotRolesParams selects the contracts to read
type SnapshotRolesParams struct {
	Network string
	// Tag restricts the snapshot to a tag closure
	Tag string
}

// SnapshotRolesResult holds a role snapshot
type SnapshotRolesResult struct {
	Network  string
	Snapshot domain.RoleSnapshot
}

// SnapshotRoles reads the role assignment of a network
type SnapshotRoles struct {
	workspace *Workspace
}

// NewSnapshotRoles creates the use case
func NewSnapshotRoles(workspace *Workspace) *SnapshotRoles {
	return &SnapshotRoles{workspace: workspace}
}

// Execute reads the snapshot
func (uc *SnapshotRoles) Execute(ctx context.Context, params SnapshotRolesParams) (*SnapshotRolesResult, error) {
	o, err := uc.workspace.Open(ctx, params.Network)
	if err != nil {
		return nil, err
	}
	defer o.Env.Shutdown()

	var steps []*domain.DeploymentStep
	if params.Tag != "" {
		if steps, err = o.Graph.TagClosure(params.Tag); err != nil {
			return nil, err
		}
	}
	snapshot, err := o.SnapshotRoles(ctx, steps...)
	if err != nil {
		return nil, err
	}
	return &SnapshotRolesResult{Network: o.Env.Network, Snapshot: snapshot}, nil
}
