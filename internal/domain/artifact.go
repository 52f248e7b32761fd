package domain

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ArtifactRecord represents one deployed or attached contract on a network
type ArtifactRecord struct {
	Identity     string         `json:"identity"`
	Address      common.Address `json:"address"`
	TemplateName string         `json:"templateName"`
	// DeployTxHash is nil when the record attaches to a pre-existing address
	DeployTxHash *common.Hash `json:"deployTxHash"`

	Implementation *common.Address `json:"implementation,omitempty"`
	BlockNumber    uint64          `json:"blockNumber,omitempty"`
	DeployedAt     time.Time       `json:"deployedAt"`
	ABI            json.RawMessage `json:"abi,omitempty"`

	// Configured is set once the step's setup calls and role transitions have completed
	Configured bool `json:"configured"`

	// Skipped marks the sentinel returned for steps the network mode skips; never persisted
	Skipped bool `json:"-"`
}

// SkippedRecord is the sentinel for a step that does not run on the current network
func SkippedRecord(identity, template string) *ArtifactRecord {
	return &ArtifactRecord{Identity: identity, TemplateName: template, Skipped: true}
}

// Attached reports whether the record points at a contract this tool did not deploy
func (r *ArtifactRecord) Attached() bool {
	return r.DeployTxHash == nil
}

// ImplementationIdentity is the identity under which a proxy's implementation is recorded
func ImplementationIdentity(identity string) string {
	return identity + "_Implementation"
}
