package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ManageRoleParams contains parameters for granting or revoking a role outside a migration
type ManageRoleParams struct {
	Network  string
	Identity string
	Role     string
	// Account is an account name, hex address or reference
	Account string
	// By sends the transaction; defaults to the deployer
	By     string
	Revoke bool
	Yes    bool
}

// ManageRoleResult describes the applied change
type ManageRoleResult struct {
	Identity string
	Role     string
	Account  common.Address
	Revoked  bool
	// Holders is the role's holder set afterwards
	Holders []common.Address
}

// ManageRole grants or revokes a single role
type ManageRole struct {
	workspace *Workspace
	confirmer Confirmer
}

// NewManageRole creates the use case
func NewManageRole(workspace *Workspace, confirmer Confirmer) *ManageRole {
	return &ManageRole{workspace: workspace, confirmer: confirmer}
}

// Execute applies the change
func (uc *ManageRole) Execute(ctx context.Context, params ManageRoleParams) (*ManageRoleResult, error) {
	o, err := uc.workspace.Open(ctx, params.Network)
	if err != nil {
		return nil, err
	}
	defer o.Env.Shutdown()

	if _, err := o.Graph.Lookup(params.Identity); err != nil {
		return nil, err
	}
	rec, err := o.Executor.recorded(ctx, params.Identity, params.Identity)
	if err != nil {
		return nil, err
	}
	h, err := o.Handles.Roles(rec)
	if err != nil {
		return nil, err
	}
	account, err := o.Executor.resolveAccount(ctx, params.Identity, params.Account)
	if err != nil {
		return nil, err
	}
	by := params.By
	if by == "" {
		by = "deployer"
	}
	sender, err := o.Executor.resolveAccount(ctx, params.Identity, by)
	if err != nil {
		return nil, err
	}

	verb := "Grant"
	if params.Revoke {
		verb = "Revoke"
	}
	prompt := fmt.Sprintf("%s %s on %s for %s on production network %s?", verb, params.Role, params.Identity, account.Hex(), o.Env.Network)
	if err := confirmProduction(ctx, uc.confirmer, o.Env, params.Yes, prompt); err != nil {
		return nil, err
	}

	session := o.NewSession()
	if params.Revoke {
		err = o.Roles.Revoke(ctx, session, rec, params.Role, account, sender)
	} else {
		err = o.Roles.Grant(ctx, session, rec, params.Role, account, sender)
	}
	if err != nil {
		return nil, err
	}

	holders, err := h.Members(ctx, params.Role)
	if err != nil {
		return nil, err
	}
	return &ManageRoleResult{
		Identity: params.Identity,
		Role:     params.Role,
		Account:  account,
		Revoked:  params.Revoke,
		Holders:  holders,
	}, nil
}
