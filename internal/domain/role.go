package domain

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Role names. Identifiers are keccak256 of the name, except the default admin role.
const (
	RoleDefaultAdmin = "DEFAULT_ADMIN_ROLE"

	// shared admin role space
	RoleAdmin = "ROLE_ADMIN"

	// vault role space
	RoleAssetManager        = "ROLE_ASSET_MANAGER"
	RoleNetworkTokenManager = "ROLE_NETWORK_TOKEN_MANAGER"

	// network role space
	RoleMigrationManager  = "ROLE_MIGRATION_MANAGER"
	RoleEmergencyStopper  = "ROLE_EMERGENCY_STOPPER"
	RoleNetworkFeeManager = "ROLE_NETWORK_FEE_MANAGER"

	// token-governance tiers: supervisor administers governor, governor administers minter
	RoleSupervisor = "ROLE_SUPERVISOR"
	RoleGovernor   = "ROLE_GOVERNOR"
	RoleMinter     = "ROLE_MINTER"
)

// RoleID returns the on-chain identifier of a role name
func RoleID(name string) common.Hash {
	if name == RoleDefaultAdmin {
		return common.Hash{}
	}
	return crypto.Keccak256Hash([]byte(name))
}

// RoleSpace is the set of roles of one contract family and the admin of each role
type RoleSpace struct {
	Family string
	// Admins maps each role to the role that may grant and revoke it
	Admins map[string]string
}

// Roles returns the role names in the space, sorted
func (s RoleSpace) Roles() []string {
	roles := make([]string, 0, len(s.Admins))
	for role := range s.Admins {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// Contains reports whether role belongs to the space
func (s RoleSpace) Contains(role string) bool {
	_, ok := s.Admins[role]
	return ok
}

// AdminOf returns the administering role
func (s RoleSpace) AdminOf(role string) string {
	return s.Admins[role]
}

// Role spaces of the known contract families
var (
	TokenGovernanceRoles = RoleSpace{
		Family: "token-governance",
		Admins: map[string]string{
			RoleSupervisor: RoleSupervisor,
			RoleGovernor:   RoleSupervisor,
			RoleMinter:     RoleGovernor,
		},
	}

	AdminRoles = RoleSpace{
		Family: "admin",
		Admins: map[string]string{RoleAdmin: RoleAdmin},
	}

	VaultRoles = RoleSpace{
		Family: "vault",
		Admins: map[string]string{
			RoleAdmin:               RoleAdmin,
			RoleAssetManager:        RoleAdmin,
			RoleNetworkTokenManager: RoleAdmin,
		},
	}

	NetworkRoles = RoleSpace{
		Family: "network",
		Admins: map[string]string{
			RoleAdmin:             RoleAdmin,
			RoleMigrationManager:  RoleAdmin,
			RoleEmergencyStopper:  RoleAdmin,
			RoleNetworkFeeManager: RoleAdmin,
		},
	}
)

// RoleGrant is one holder of one role on one contract
type RoleGrant struct {
	Target string
	Role   string
	Holder common.Address
}

// RoleSnapshot maps identity to role to the sorted holder list
type RoleSnapshot map[string]map[string][]common.Address

// Add records a holder, keeping holder lists sorted
func (s RoleSnapshot) Add(grant RoleGrant) {
	roles, ok := s[grant.Target]
	if !ok {
		roles = map[string][]common.Address{}
		s[grant.Target] = roles
	}
	holders := append(roles[grant.Role], grant.Holder)
	sort.Slice(holders, func(i, j int) bool { return bytes.Compare(holders[i][:], holders[j][:]) < 0 })
	roles[grant.Role] = holders
}

// Grants flattens the snapshot in identity, role and holder order
func (s RoleSnapshot) Grants() []RoleGrant {
	targets := make([]string, 0, len(s))
	for target := range s {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	var grants []RoleGrant
	for _, target := range targets {
		roles := make([]string, 0, len(s[target]))
		for role := range s[target] {
			roles = append(roles, role)
		}
		sort.Strings(roles)
		for _, role := range roles {
			for _, holder := range s[target][role] {
				grants = append(grants, RoleGrant{Target: target, Role: role, Holder: holder})
			}
		}
	}
	return grants
}

// HeldBy returns the roles holder has on target, sorted
func (s RoleSnapshot) HeldBy(target string, holder common.Address) []string {
	var roles []string
	for role, holders := range s[target] {
		for _, h := range holders {
			if h == holder {
				roles = append(roles, role)
				break
			}
		}
	}
	sort.Strings(roles)
	return roles
}
