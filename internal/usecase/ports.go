package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// ArtifactStore persists one ArtifactRecord per identity for a single network
type ArtifactStore interface {
	// Get returns domain.ErrNotFound when no record exists
	Get(ctx context.Context, identity string) (*domain.ArtifactRecord, error)
	Put(ctx context.Context, record *domain.ArtifactRecord) error
	Exists(ctx context.Context, identity string) (bool, error)
	List(ctx context.Context) ([]*domain.ArtifactRecord, error)
	// Reset deletes every record; only permitted on networks that allow test effects
	Reset(ctx context.Context) error
	Network() string
}

// ArtifactStoreFactory opens the artifact store of a network
type ArtifactStoreFactory interface {
	Open(network string) (ArtifactStore, error)
}

// HistoryStore persists the per-network history log
type HistoryStore interface {
	// Load returns nil without error when the network has no history file yet
	Load(ctx context.Context, network string) (*domain.HistoryLog, error)
	Save(ctx context.Context, network string, log *domain.HistoryLog) error
}

// DeployRequest creates a contract
type DeployRequest struct {
	From     common.Address
	Template domain.Template
	ABI      *abi.ABI
	Bytecode []byte
	// ConstructorArgs is the ABI-encoded argument tail appended to Bytecode
	ConstructorArgs []byte
}

// CallRequest is a state-changing call
type CallRequest struct {
	From common.Address
	To   common.Address
	Data []byte
}

// ChainClient is the node capability the orchestrator consumes
type ChainClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	// Account resolves a named account to its address
	Account(ctx context.Context, name string) (common.Address, error)
	Deploy(ctx context.Context, req DeployRequest) (common.Hash, error)
	Send(ctx context.Context, req CallRequest) (common.Hash, error)
	WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	// IncreaseTime advances the block timestamp on development chains
	IncreaseTime(ctx context.Context, seconds uint64) error
}

// ContractArtifact is the compiled output of a contract template
type ContractArtifact struct {
	Name     string
	ABI      *abi.ABI
	RawABI   []byte
	Bytecode []byte
}

// ContractArtifacts looks up compiled contracts by template name
type ContractArtifacts interface {
	Artifact(ctx context.Context, name string) (*ContractArtifact, error)
}

// ArgEncoder converts textual migration arguments into ABI values
type ArgEncoder interface {
	EncodeConstructor(contract *abi.ABI, args []string) ([]byte, error)
	EncodeCall(contract *abi.ABI, method string, args []string) ([]byte, error)
	// FormatArgs renders encoded constructor arguments for the history log
	FormatArgs(contract *abi.ABI, encoded []byte) ([]string, error)
}

// RevertDecoder turns a failed call or transaction error into a readable reason
type RevertDecoder interface {
	Describe(err error, abis ...*abi.ABI) error
}

// AnvilManager runs local anvil nodes for ephemeral forks
type AnvilManager interface {
	Start(ctx context.Context, instance *domain.AnvilInstance) error
	Stop(ctx context.Context, instance *domain.AnvilInstance) error
	GetStatus(ctx context.Context, instance *domain.AnvilInstance) (*domain.AnvilStatus, error)
	TakeSnapshot(ctx context.Context, instance *domain.AnvilInstance) (string, error)
	RevertSnapshot(ctx context.Context, instance *domain.AnvilInstance, snapshotID string) error
}

// EnvironmentFactory builds the chain-facing collaborators of a network
type EnvironmentFactory interface {
	// Open connects to a configured network
	Open(ctx context.Context, network string) (*Environment, error)
	// OpenFork connects to a fork of network served at rpcURL; artifacts go to a scratch store
	OpenFork(ctx context.Context, network, rpcURL string) (*Environment, error)
	// RPCURL returns the configured endpoint of network
	RPCURL(network string) (string, error)
}

// NetworkResolver resolves configured networks
type NetworkResolver interface {
	GetNetworks(ctx context.Context) []string
	// ResolveNetwork fills in the chain id, querying the node when it is not configured
	ResolveNetwork(ctx context.Context, name string) (*domain.NetworkInfo, error)
}

// Confirmer asks the user before broadcasting to a production network
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// InteractiveSelector picks one record among candidates
type InteractiveSelector interface {
	SelectArtifact(ctx context.Context, records []*domain.ArtifactRecord, prompt string) (*domain.ArtifactRecord, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// Progress stages emitted by the orchestrator
const (
	StagePlan       = "plan"
	StageStep       = "step"
	StageDecision   = "decision"
	StageDeploying  = "deploying"
	StageDeployed   = "deployed"
	StageExecuting  = "executing"
	StageExecuted   = "executed"
	StageCompleted  = "completed"
	StageVerifying  = "verifying"
	StageForkStart  = "fork_start"
	StageForkStop   = "fork_stop"
	StageFormula    = "formula"
	StageFormulaRun = "formula_run"
)

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
