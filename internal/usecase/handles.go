package usecase

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/domain/bindings"
)

// Handle is a typed view of a recorded contract; the concrete type follows the template kind
type Handle interface {
	Identity() string
	Address() common.Address
	Template() domain.Template
}

type contractRef struct {
	identity string
	address  common.Address
	template domain.Template
	client   ChainClient
}

func (c contractRef) Identity() string          { return c.identity }
func (c contractRef) Address() common.Address   { return c.address }
func (c contractRef) Template() domain.Template { return c.template }

func (c contractRef) call(ctx context.Context, data []byte) ([]byte, error) {
	out, err := c.client.Call(ctx, c.address, data)
	if err != nil {
		return nil, fmt.Errorf("call %s at %s: %w", c.identity, c.address.Hex(), err)
	}
	return out, nil
}

// PlainHandle is a contract without a managed surface
type PlainHandle struct {
	contractRef
}

// RolesHandle reads and builds role calls on an access-controlled contract
type RolesHandle struct {
	contractRef
	access *bindings.AccessControl
}

// Space returns the role space of the contract
func (h *RolesHandle) Space() domain.RoleSpace {
	return h.template.Roles
}

// ABI returns the role surface ABI
func (h *RolesHandle) ABI() *abi.ABI {
	return h.access.ABI()
}

func (h *RolesHandle) checkRole(role string) error {
	if !h.template.Roles.Contains(role) {
		return fmt.Errorf("%w %s for %s (%s)", domain.ErrUnknownRole, role, h.identity, h.template.Name)
	}
	return nil
}

// HasRole reports whether account holds role
func (h *RolesHandle) HasRole(ctx context.Context, role string, account common.Address) (bool, error) {
	if err := h.checkRole(role); err != nil {
		return false, err
	}
	out, err := h.call(ctx, h.access.PackHasRole(domain.RoleID(role), account))
	if err != nil {
		return false, err
	}
	return h.access.UnpackHasRole(out)
}

// Members enumerates the holders of role
func (h *RolesHandle) Members(ctx context.Context, role string) ([]common.Address, error) {
	if err := h.checkRole(role); err != nil {
		return nil, err
	}
	id := domain.RoleID(role)
	out, err := h.call(ctx, h.access.PackGetRoleMemberCount(id))
	if err != nil {
		return nil, err
	}
	count, err := h.access.UnpackGetRoleMemberCount(out)
	if err != nil {
		return nil, fmt.Errorf("decode member count of %s on %s: %w", role, h.identity, err)
	}

	members := make([]common.Address, 0, count.Int64())
	for i := int64(0); i < count.Int64(); i++ {
		out, err := h.call(ctx, h.access.PackGetRoleMember(id, big.NewInt(i)))
		if err != nil {
			return nil, err
		}
		member, err := h.access.UnpackGetRoleMember(out)
		if err != nil {
			return nil, fmt.Errorf("decode member %d of %s on %s: %w", i, role, h.identity, err)
		}
		members = append(members, member)
	}
	return members, nil
}

// GrantData encodes grantRole(role, account)
func (h *RolesHandle) GrantData(role string, account common.Address) ([]byte, error) {
	if err := h.checkRole(role); err != nil {
		return nil, err
	}
	return h.access.PackGrantRole(domain.RoleID(role), account), nil
}

// RevokeData encodes revokeRole(role, account)
func (h *RolesHandle) RevokeData(role string, account common.Address) ([]byte, error) {
	if err := h.checkRole(role); err != nil {
		return nil, err
	}
	return h.access.PackRevokeRole(domain.RoleID(role), account), nil
}

// TokenHandle reads balances of a token
type TokenHandle struct {
	contractRef
	token *bindings.TokenGovernance
}

// BalanceOf returns the balance of account
func (h *TokenHandle) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	out, err := h.call(ctx, h.token.PackBalanceOf(account))
	if err != nil {
		return nil, err
	}
	return h.token.UnpackBalanceOf(out)
}

// TotalSupply returns the token supply
func (h *TokenHandle) TotalSupply(ctx context.Context) (*big.Int, error) {
	out, err := h.call(ctx, h.token.PackTotalSupply())
	if err != nil {
		return nil, err
	}
	return h.token.UnpackTotalSupply(out)
}

// GovernanceHandle is a token-governance contract: a role surface plus minting
type GovernanceHandle struct {
	*RolesHandle
	gov *bindings.TokenGovernance
}

// MintData encodes mint(to, amount)
func (h *GovernanceHandle) MintData(to common.Address, amount *big.Int) []byte {
	return h.gov.PackMint(to, amount)
}

// MintABI returns the minting surface ABI
func (h *GovernanceHandle) MintABI() *abi.ABI {
	return h.gov.ABI()
}

// Token returns a handle of the governed token
func (h *GovernanceHandle) Token(ctx context.Context) (*TokenHandle, error) {
	out, err := h.call(ctx, h.gov.PackToken())
	if err != nil {
		return nil, err
	}
	addr, err := h.gov.UnpackToken(out)
	if err != nil {
		return nil, fmt.Errorf("decode token of %s: %w", h.identity, err)
	}
	return &TokenHandle{
		contractRef: contractRef{
			identity: h.identity + ".token",
			address:  addr,
			template: domain.Template{Name: "token", Kind: domain.KindToken},
			client:   h.client,
		},
		token: h.gov,
	}, nil
}

// HandleFactory builds typed handles for recorded contracts through the template registry
type HandleFactory struct {
	templates *domain.TemplateRegistry
	client    ChainClient
	access    *bindings.AccessControl
	gov       *bindings.TokenGovernance
}

// NewHandleFactory creates a factory bound to client
func NewHandleFactory(templates *domain.TemplateRegistry, client ChainClient) *HandleFactory {
	return &HandleFactory{
		templates: templates,
		client:    client,
		access:    bindings.NewAccessControl(),
		gov:       bindings.NewTokenGovernance(),
	}
}

// For returns the handle variant of rec's template
func (f *HandleFactory) For(rec *domain.ArtifactRecord) (Handle, error) {
	if rec == nil || rec.Skipped {
		return nil, fmt.Errorf("%w: no deployed contract", domain.ErrNotFound)
	}
	tmpl, err := f.templates.Lookup(rec.TemplateName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rec.Identity, err)
	}
	ref := contractRef{identity: rec.Identity, address: rec.Address, template: tmpl, client: f.client}

	switch tmpl.Kind {
	case domain.KindAccessControlled:
		return &RolesHandle{contractRef: ref, access: f.access}, nil
	case domain.KindTokenGovernance:
		return &GovernanceHandle{RolesHandle: &RolesHandle{contractRef: ref, access: f.access}, gov: f.gov}, nil
	case domain.KindToken:
		return &TokenHandle{contractRef: ref, token: f.gov}, nil
	case domain.KindPlain, domain.KindProxy:
		return &PlainHandle{contractRef: ref}, nil
	}
	return nil, fmt.Errorf("%s: unsupported template kind %q", rec.Identity, tmpl.Kind)
}

// Roles returns the role surface of rec
func (f *HandleFactory) Roles(rec *domain.ArtifactRecord) (*RolesHandle, error) {
	h, err := f.For(rec)
	if err != nil {
		return nil, err
	}
	switch h := h.(type) {
	case *RolesHandle:
		return h, nil
	case *GovernanceHandle:
		return h.RolesHandle, nil
	}
	return nil, fmt.Errorf("%s (%s) has no roles", rec.Identity, rec.TemplateName)
}

// Governance returns the token-governance handle of rec
func (f *HandleFactory) Governance(rec *domain.ArtifactRecord) (*GovernanceHandle, error) {
	h, err := f.For(rec)
	if err != nil {
		return nil, err
	}
	if g, ok := h.(*GovernanceHandle); ok {
		return g, nil
	}
	return nil, fmt.Errorf("%s (%s) is not a token-governance contract", rec.Identity, rec.TemplateName)
}

// Token returns the token handle of rec
func (f *HandleFactory) Token(rec *domain.ArtifactRecord) (*TokenHandle, error) {
	h, err := f.For(rec)
	if err != nil {
		return nil, err
	}
	if t, ok := h.(*TokenHandle); ok {
		return t, nil
	}
	return nil, fmt.Errorf("%s (%s) is not a token", rec.Identity, rec.TemplateName)
}
