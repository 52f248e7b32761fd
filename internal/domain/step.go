package domain

import (
	"regexp"
	"strings"
)

// DefaultSender is the account used by steps that name none
const DefaultSender = "deployer"

// Migration is the ordered list of steps declared in a migration file
type Migration struct {
	Steps []*DeploymentStep `yaml:"steps"`
}

// DeploymentStep represents one unit of on-chain setup work
type DeploymentStep struct {
	// ID is the logical identity the resulting artifact is recorded under
	ID string `yaml:"id"`
	// Contract is the template deployed for this identity
	Contract string   `yaml:"contract"`
	Args     []string `yaml:"args,omitempty"`
	From     string   `yaml:"from,omitempty"`
	Deps     []string `yaml:"deps,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`

	// DevOnly steps are skipped on production networks
	DevOnly bool `yaml:"devOnly,omitempty"`

	// Attach maps network names to pre-existing addresses used instead of deploying
	Attach map[string]string `yaml:"attach,omitempty"`

	Proxy  *ProxyConfig           `yaml:"proxy,omitempty"`
	Setup  []CallConfig           `yaml:"setup,omitempty"`
	Roles  []RoleTransitionConfig `yaml:"roles,omitempty"`
	Expect *Expectations          `yaml:"expect,omitempty"`
}

// ProxyConfig deploys Contract as the implementation behind an upgradeable proxy
type ProxyConfig struct {
	Contract string      `yaml:"contract"`
	Admin    string      `yaml:"admin"`
	Init     *CallConfig `yaml:"init,omitempty"`
}

// CallConfig is a state-changing call made after deployment
type CallConfig struct {
	Method      string   `yaml:"method"`
	Args        []string `yaml:"args,omitempty"`
	From        string   `yaml:"from,omitempty"`
	Target      string   `yaml:"target,omitempty"`
	TestOnly    bool     `yaml:"testOnly,omitempty"`
	Description string   `yaml:"description,omitempty"`
}

// RoleTransitionKind names a role transition sequence
type RoleTransitionKind string

const (
	// TransitionHandoff grants Role to To, then revokes it from From
	TransitionHandoff RoleTransitionKind = "handoff"
	TransitionGrant   RoleTransitionKind = "grant"
	TransitionRevoke  RoleTransitionKind = "revoke"
	// TransitionTokenGovernance runs the supervisor/governor/minter sequence
	TransitionTokenGovernance RoleTransitionKind = "token-governance"
)

// RoleTransitionConfig declares a role transition applied after deployment
type RoleTransitionConfig struct {
	Kind     RoleTransitionKind `yaml:"kind"`
	Role     string             `yaml:"role,omitempty"`
	From     string             `yaml:"from,omitempty"`
	To       string             `yaml:"to,omitempty"`
	By       string             `yaml:"by,omitempty"`
	TestOnly bool               `yaml:"testOnly,omitempty"`

	// token-governance settings
	Foundation   string `yaml:"foundation,omitempty"`
	Governor     string `yaml:"governor,omitempty"`
	TestSupply   string `yaml:"testSupply,omitempty"`
	RetainMinter bool   `yaml:"retainMinter,omitempty"`
}

// Expectations declares the post-migration state verified for a step
type Expectations struct {
	// Roles maps a role name to the exact set of holders
	Roles map[string][]string `yaml:"roles,omitempty"`
	// Addresses maps an address-returning view method to the expected reference
	Addresses map[string]string `yaml:"addresses,omitempty"`
	// Values maps a numeric view method to its expected decimal value
	Values map[string]string `yaml:"values,omitempty"`
	// Retained lists roles the sender keeps by intent on every network
	Retained []string `yaml:"retained,omitempty"`
	// TestRetained lists roles the deployer may keep on non-production networks
	TestRetained []string `yaml:"testRetained,omitempty"`
}

// Sender returns the step's sending account name
func (s *DeploymentStep) Sender() string {
	if s.From == "" {
		return DefaultSender
	}
	return s.From
}

// HasTag reports whether the step carries tag
func (s *DeploymentStep) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ArtifactRefs lists every ${artifact:X} reference the step makes, in order of appearance
func (s *DeploymentStep) ArtifactRefs() []string {
	var values []string
	values = append(values, s.Args...)
	if s.Proxy != nil {
		values = append(values, s.Proxy.Admin)
		if s.Proxy.Init != nil {
			values = append(values, s.Proxy.Init.Args...)
		}
	}
	for _, call := range s.Setup {
		values = append(values, call.Target)
		values = append(values, call.Args...)
	}
	for _, role := range s.Roles {
		values = append(values, role.From, role.To, role.By, role.Foundation, role.Governor)
	}

	var refs []string
	seen := map[string]bool{}
	for _, v := range values {
		for _, ref := range FindRefs(v) {
			if ref.Kind == RefArtifact && !seen[ref.Name] {
				seen[ref.Name] = true
				refs = append(refs, ref.Name)
			}
		}
	}
	return refs
}

// RefKind is the namespace of a ${kind:name} reference
type RefKind string

const (
	RefLiteral  RefKind = ""
	RefArtifact RefKind = "artifact"
	RefAccount  RefKind = "account"
	RefRole     RefKind = "role"
)

// Ref is a parsed argument reference
type Ref struct {
	Kind RefKind
	Name string
	Raw  string
}

var refPattern = regexp.MustCompile(`\$\{(artifact|account|role):([A-Za-z0-9_.\-]+)\}`)

// ParseRef parses a whole-value reference; anything else is a literal
func ParseRef(s string) Ref {
	s = strings.TrimSpace(s)
	m := refPattern.FindStringSubmatch(s)
	if m == nil || m[0] != s {
		return Ref{Kind: RefLiteral, Raw: s}
	}
	return Ref{Kind: RefKind(m[1]), Name: m[2], Raw: s}
}

// FindRefs returns every reference embedded in s, including inside array literals
func FindRefs(s string) []Ref {
	var refs []Ref
	for _, m := range refPattern.FindAllStringSubmatch(s, -1) {
		refs = append(refs, Ref{Kind: RefKind(m[1]), Name: m[2], Raw: m[0]})
	}
	return refs
}

// ExpandRefs replaces every embedded reference using resolve
func ExpandRefs(s string, resolve func(Ref) (string, error)) (string, error) {
	var firstErr error
	out := refPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}
		v, err := resolve(ParseRef(match))
		if err != nil {
			firstErr = err
			return match
		}
		return v
	})
	return out, firstErr
}
