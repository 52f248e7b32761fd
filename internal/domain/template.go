package domain

import (
	"fmt"
	"sort"
)

// TemplateKind is the closed set of contract handle variants
type TemplateKind string

const (
	KindPlain            TemplateKind = "plain"
	KindToken            TemplateKind = "token"
	KindTokenGovernance  TemplateKind = "token-governance"
	KindAccessControlled TemplateKind = "access-controlled"
	KindProxy            TemplateKind = "proxy"
)

// Template describes a deployable contract type
type Template struct {
	Name string
	Kind TemplateKind
	// Roles is the role space of access-controlled and governance templates
	Roles RoleSpace
	// CreatorRole is granted to the deploying account by the constructor
	CreatorRole string
}

// HasRoles reports whether handles of this template manage roles
func (t Template) HasRoles() bool {
	return t.Kind == KindAccessControlled || t.Kind == KindTokenGovernance
}

// TemplateRegistry maps template names to their kinds
type TemplateRegistry struct {
	templates map[string]Template
}

// NewTemplateRegistry creates a registry holding templates
func NewTemplateRegistry(templates ...Template) *TemplateRegistry {
	r := &TemplateRegistry{templates: make(map[string]Template, len(templates))}
	for _, t := range templates {
		r.templates[t.Name] = t
	}
	return r
}

// Lookup finds a template by name
func (r *TemplateRegistry) Lookup(name string) (Template, error) {
	t, ok := r.templates[name]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	return t, nil
}

// Names lists registered templates, sorted
func (r *TemplateRegistry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultTemplates are the contract types of the AMM system
func DefaultTemplates() []Template {
	accessControlled := func(name string, roles RoleSpace) Template {
		return Template{Name: name, Kind: KindAccessControlled, Roles: roles, CreatorRole: RoleAdmin}
	}
	return []Template{
		{Name: "SmartToken", Kind: KindToken},
		{Name: "TestERC20Token", Kind: KindToken},
		{Name: "TokenGovernance", Kind: KindTokenGovernance, Roles: TokenGovernanceRoles, CreatorRole: RoleSupervisor},
		accessControlled("NetworkSettings", AdminRoles),
		accessControlled("MasterVault", VaultRoles),
		accessControlled("ExternalProtectionVault", VaultRoles),
		accessControlled("ExternalRewardsVault", VaultRoles),
		accessControlled("PoolTokenFactory", AdminRoles),
		accessControlled("PendingWithdrawals", AdminRoles),
		accessControlled("StandardRewards", AdminRoles),
		accessControlled("BancorNetwork", NetworkRoles),
		{Name: "PoolCollection", Kind: KindPlain},
		{Name: "PoolMigrator", Kind: KindPlain},
		{Name: "BancorNetworkInfo", Kind: KindPlain},
		{Name: "ProxyAdmin", Kind: KindPlain},
		{Name: "FormulaHarness", Kind: KindPlain},
		{Name: "TransparentUpgradeableProxyImmutable", Kind: KindProxy},
	}
}
