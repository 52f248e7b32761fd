package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string
	// ConfigFile is the treb-amm.toml that was loaded, empty when running on defaults
	ConfigFile string

	// Paths from the [migration] section, absolute
	MigrationFile  string // empty selects the embedded default migration
	DeploymentsDir string
	ArtifactsDir   string

	// Context settings
	Network string // empty if not specified

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool
	Timeout        time.Duration
	DryRun         bool
	Yes            bool

	// Resolved sections of treb-amm.toml
	Networks     map[string]NetworkConfig
	Accounts     map[string]AccountConfig
	Verification VerificationConfig
}

// NetworkConfig is one [networks.<name>] entry
type NetworkConfig struct {
	Name    string `toml:"-" json:"name"`
	RPCURL  string `toml:"rpc_url" json:"rpcUrl"`
	ChainID uint64 `toml:"chain_id,omitempty" json:"chainId,omitempty"`
	// Mode is production, production-fork or development
	Mode string `toml:"mode,omitempty" json:"mode,omitempty"`
	// ForkOf names the production network this one forks
	ForkOf string `toml:"fork_of,omitempty" json:"forkOf,omitempty"`
}

// AccountConfig is one [accounts.<name>] entry. Without a private key the account must be
// unlocked on the node.
type AccountConfig struct {
	Address    string `toml:"address,omitempty" json:"address,omitempty"`
	PrivateKey string `toml:"private_key,omitempty" json:"-"` //nolint:gosec // holds env var reference, not a literal secret
}

// MigrationConfig is the [migration] section
type MigrationConfig struct {
	File           string `toml:"file,omitempty"`
	DeploymentsDir string `toml:"deployments_dir,omitempty"`
	ArtifactsDir   string `toml:"artifacts_dir,omitempty"`
}

// VerificationConfig is the [verification] section
type VerificationConfig struct {
	Tolerances string `toml:"tolerances,omitempty" json:"tolerances,omitempty"`
	TablesDir  string `toml:"tables_dir,omitempty" json:"tablesDir,omitempty"`
	QuickRows  int    `toml:"quick_rows,omitempty" json:"quickRows,omitempty"`
	// Harness is the artifact identity of the deployed formula test contract
	Harness string `toml:"harness,omitempty" json:"harness,omitempty"`
}

// ProjectFile is the raw shape of treb-amm.toml
type ProjectFile struct {
	Migration    MigrationConfig          `toml:"migration"`
	Networks     map[string]NetworkConfig `toml:"networks"`
	Accounts     map[string]AccountConfig `toml:"accounts"`
	Verification VerificationConfig       `toml:"verification"`
}
