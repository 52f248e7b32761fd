package domain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestRoleID(t *testing.T) {
	assert.Equal(t, common.Hash{}, RoleID(RoleDefaultAdmin))
	assert.NotEqual(t, common.Hash{}, RoleID(RoleAdmin))
	assert.Equal(t, RoleID(RoleAdmin), RoleID("ROLE_ADMIN"))
	assert.NotEqual(t, RoleID(RoleGovernor), RoleID(RoleMinter))
}

func TestRoleSpaces(t *testing.T) {
	assert.Equal(t, []string{RoleGovernor, RoleMinter, RoleSupervisor}, TokenGovernanceRoles.Roles())
	assert.Equal(t, RoleSupervisor, TokenGovernanceRoles.AdminOf(RoleGovernor))
	assert.Equal(t, RoleGovernor, TokenGovernanceRoles.AdminOf(RoleMinter))
	assert.False(t, TokenGovernanceRoles.Contains(RoleAdmin))

	for _, role := range NetworkRoles.Roles() {
		assert.Equal(t, RoleAdmin, NetworkRoles.AdminOf(role))
	}
	assert.True(t, VaultRoles.Contains(RoleAssetManager))
	assert.False(t, AdminRoles.Contains(RoleAssetManager))
}

func TestRoleSnapshot(t *testing.T) {
	a := common.HexToAddress("0x0000000000000000000000000000000000000001")
	b := common.HexToAddress("0x0000000000000000000000000000000000000002")

	snap := RoleSnapshot{}
	snap.Add(RoleGrant{Target: "Vault", Role: RoleAssetManager, Holder: b})
	snap.Add(RoleGrant{Target: "Vault", Role: RoleAssetManager, Holder: a})
	snap.Add(RoleGrant{Target: "Vault", Role: RoleAdmin, Holder: b})
	snap.Add(RoleGrant{Target: "BNTGovernance", Role: RoleSupervisor, Holder: a})

	assert.Equal(t, []common.Address{a, b}, snap["Vault"][RoleAssetManager])
	assert.Equal(t, []RoleGrant{
		{Target: "BNTGovernance", Role: RoleSupervisor, Holder: a},
		{Target: "Vault", Role: RoleAdmin, Holder: b},
		{Target: "Vault", Role: RoleAssetManager, Holder: a},
		{Target: "Vault", Role: RoleAssetManager, Holder: b},
	}, snap.Grants())

	assert.Equal(t, []string{RoleAdmin, RoleAssetManager}, snap.HeldBy("Vault", b))
	assert.Equal(t, []string{RoleAssetManager}, snap.HeldBy("Vault", a))
	assert.Empty(t, snap.HeldBy("Missing", a))
}
