package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		in   string
		want Ref
	}{
		{"${artifact:BNT}", Ref{Kind: RefArtifact, Name: "BNT", Raw: "${artifact:BNT}"}},
		{"  ${account:foundation} ", Ref{Kind: RefAccount, Name: "foundation", Raw: "${account:foundation}"}},
		{"${role:ROLE_ADMIN}", Ref{Kind: RefRole, Name: "ROLE_ADMIN", Raw: "${role:ROLE_ADMIN}"}},
		{"0x1234", Ref{Kind: RefLiteral, Raw: "0x1234"}},
		{"[${artifact:BNT}]", Ref{Kind: RefLiteral, Raw: "[${artifact:BNT}]"}},
		{"${contract:BNT}", Ref{Kind: RefLiteral, Raw: "${contract:BNT}"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRef(tt.in))
		})
	}
}

func TestFindAndExpandRefs(t *testing.T) {
	s := "[${artifact:BNT},${account:foundation},1000]"
	refs := FindRefs(s)
	require.Len(t, refs, 2)
	assert.Equal(t, RefArtifact, refs[0].Kind)
	assert.Equal(t, "foundation", refs[1].Name)

	out, err := ExpandRefs(s, func(r Ref) (string, error) {
		return strings.ToUpper(r.Name), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "[BNT,FOUNDATION,1000]", out)

	boom := errors.New("boom")
	calls := 0
	_, err = ExpandRefs(s, func(Ref) (string, error) {
		calls++
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDeploymentStep_ArtifactRefs(t *testing.T) {
	step := &DeploymentStep{
		ID:   "Network",
		Args: []string{"${artifact:BNT}", "${account:deployer}"},
		Proxy: &ProxyConfig{
			Admin: "${artifact:ProxyAdmin}",
			Init:  &CallConfig{Method: "initialize", Args: []string{"${artifact:BNT}"}},
		},
		Setup: []CallConfig{{Target: "${artifact:Settings}", Method: "setX", Args: []string{"[${artifact:Vault}]"}}},
		Roles: []RoleTransitionConfig{{Kind: TransitionGrant, Role: RoleAdmin, To: "${artifact:Vault}"}},
	}
	assert.Equal(t, []string{"BNT", "ProxyAdmin", "Settings", "Vault"}, step.ArtifactRefs())
	assert.Equal(t, DefaultSender, step.Sender())

	step.From = "foundation"
	assert.Equal(t, "foundation", step.Sender())
}

func TestDeploymentStep_HasTag(t *testing.T) {
	step := &DeploymentStep{Tags: []string{"V2", "core"}}
	assert.True(t, step.HasTag("core"))
	assert.False(t, step.HasTag("V3"))
}
