package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// DefaultTestSupply is minted to the governor on networks that allow test effects (1e27 base units)
var DefaultTestSupply = new(big.Int).Exp(big.NewInt(10), big.NewInt(27), nil)

// RoleEngine applies role transitions as ordered transactions
type RoleEngine struct {
	handles  *HandleFactory
	tx       *Transactor
	selector *ModeSelector
	log      *slog.Logger
}

// NewRoleEngine creates a role engine
func NewRoleEngine(handles *HandleFactory, tx *Transactor, selector *ModeSelector, log *slog.Logger) *RoleEngine {
	if log == nil {
		log = slog.Default()
	}
	return &RoleEngine{handles: handles, tx: tx, selector: selector, log: log}
}

// Grant gives role to account, sent by by. Granting a held role is a no-op.
func (e *RoleEngine) Grant(ctx context.Context, session *domain.Session, rec *domain.ArtifactRecord, role string, account, by common.Address) error {
	h, err := e.handles.Roles(rec)
	if err != nil {
		return err
	}
	held, err := h.HasRole(ctx, role, account)
	if err != nil {
		return err
	}
	if held {
		e.log.Debug("role already held", "identity", rec.Identity, "role", role, "account", account.Hex())
		return nil
	}

	data, err := h.GrantData(role, account)
	if err != nil {
		return err
	}
	desc := fmt.Sprintf("%s.grantRole(%s, %s)", rec.Identity, role, account.Hex())
	_, err = e.tx.Execute(ctx, session, rec.Identity, CallRequest{From: by, To: rec.Address, Data: data}, desc, h.ABI())
	return err
}

// Revoke removes role from account, sent by by. Revoking an absent role is a no-op.
func (e *RoleEngine) Revoke(ctx context.Context, session *domain.Session, rec *domain.ArtifactRecord, role string, account, by common.Address) error {
	h, err := e.handles.Roles(rec)
	if err != nil {
		return err
	}
	held, err := h.HasRole(ctx, role, account)
	if err != nil {
		return err
	}
	if !held {
		e.log.Debug("role not held", "identity", rec.Identity, "role", role, "account", account.Hex())
		return nil
	}

	data, err := h.RevokeData(role, account)
	if err != nil {
		return err
	}
	desc := fmt.Sprintf("%s.revokeRole(%s, %s)", rec.Identity, role, account.Hex())
	_, err = e.tx.Execute(ctx, session, rec.Identity, CallRequest{From: by, To: rec.Address, Data: data}, desc, h.ABI())
	return err
}

// Transfer moves role from one account to another: the grant always precedes the revoke so the
// role never goes unheld. by sends both transactions.
func (e *RoleEngine) Transfer(ctx context.Context, session *domain.Session, rec *domain.ArtifactRecord, role string, from, to, by common.Address) error {
	if from == to {
		return nil
	}
	if err := e.Grant(ctx, session, rec, role, to, by); err != nil {
		return err
	}
	if err := e.Revoke(ctx, session, rec, role, from, by); err != nil {
		return err
	}

	h, err := e.handles.Roles(rec)
	if err != nil {
		return err
	}
	toHolds, err := h.HasRole(ctx, role, to)
	if err != nil {
		return err
	}
	fromHolds, err := h.HasRole(ctx, role, from)
	if err != nil {
		return err
	}
	if !toHolds || fromHolds {
		return fmt.Errorf("%s: hand-off of %s from %s to %s incomplete", rec.Identity, role, from.Hex(), to.Hex())
	}
	return nil
}

// HandOffAdmin transfers every self-administered role of rec's role space from one account to another
func (e *RoleEngine) HandOffAdmin(ctx context.Context, session *domain.Session, rec *domain.ArtifactRecord, from, to common.Address) error {
	h, err := e.handles.Roles(rec)
	if err != nil {
		return err
	}
	space := h.Space()
	for _, role := range space.Roles() {
		if space.AdminOf(role) != role {
			continue
		}
		if err := e.Transfer(ctx, session, rec, role, from, to, from); err != nil {
			return err
		}
	}
	return nil
}

// TokenGovernanceParams configures the token-governance sequence
type TokenGovernanceParams struct {
	// Deployer holds the supervisor role granted at construction
	Deployer   common.Address
	Foundation common.Address
	// Governor receives the governor role; defaults to Deployer
	Governor common.Address
	// TestSupply is minted to the governor where test effects are allowed; nil means DefaultTestSupply
	TestSupply *big.Int
	// RetainMinter leaves the governor holding the minter role after the test mint
	RetainMinter bool
}

// TokenGovernanceSequence hands supervision to the foundation, appoints the governor and, on
// networks that allow test effects, mints the test supply.
func (e *RoleEngine) TokenGovernanceSequence(ctx context.Context, session *domain.Session, rec *domain.ArtifactRecord, p TokenGovernanceParams) error {
	gov, err := e.handles.Governance(rec)
	if err != nil {
		return err
	}
	governor := p.Governor
	if governor == (common.Address{}) {
		governor = p.Deployer
	}

	if err := e.Transfer(ctx, session, rec, domain.RoleSupervisor, p.Deployer, p.Foundation, p.Deployer); err != nil {
		return err
	}
	if err := e.Grant(ctx, session, rec, domain.RoleGovernor, governor, p.Foundation); err != nil {
		return err
	}

	if !e.selector.AllowsTestEffects() {
		e.log.Info("test supply not minted on production network", "identity", rec.Identity)
		return nil
	}

	supply := p.TestSupply
	if supply == nil {
		supply = DefaultTestSupply
	}
	if supply.Sign() == 0 {
		return nil
	}

	if err := e.Grant(ctx, session, rec, domain.RoleMinter, governor, governor); err != nil {
		return err
	}
	desc := fmt.Sprintf("%s.mint(%s, %s)", rec.Identity, governor.Hex(), supply)
	req := CallRequest{From: governor, To: rec.Address, Data: gov.MintData(governor, supply)}
	if _, err := e.tx.Execute(ctx, session, rec.Identity, req, desc, gov.MintABI(), gov.ABI()); err != nil {
		return err
	}
	if err := e.Revoke(ctx, session, rec, domain.RoleMinter, governor, governor); err != nil {
		return err
	}
	if p.RetainMinter {
		return e.Grant(ctx, session, rec, domain.RoleMinter, governor, governor)
	}
	return nil
}
