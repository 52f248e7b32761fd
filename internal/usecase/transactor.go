package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// Transactor sends transactions, waits for them and records them in the history log
type Transactor struct {
	client   ChainClient
	decoder  RevertDecoder
	history  *HistoryRecorder
	progress ProgressSink
	log      *slog.Logger
}

// NewTransactor creates a transactor
func NewTransactor(client ChainClient, decoder RevertDecoder, history *HistoryRecorder, progress ProgressSink, log *slog.Logger) *Transactor {
	if progress == nil {
		progress = NopProgress{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Transactor{
		client:   client,
		decoder:  decoder,
		history:  history,
		progress: progress,
		log:      log,
	}
}

// Deployment is a mined contract creation
type Deployment struct {
	Address common.Address
	TxHash  common.Hash
	Receipt *types.Receipt
}

// Deploy creates a contract and files a DEPLOY entry. params are the constructor arguments as
// written to the history log.
func (t *Transactor) Deploy(ctx context.Context, session *domain.Session, identity string, req DeployRequest, params []string) (*Deployment, error) {
	t.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageDeploying,
		Message: fmt.Sprintf("Deploying %s (%s)", identity, req.Template.Name),
		Spinner: true,
	})

	hash, err := t.client.Deploy(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: deploy %s: %w", identity, req.Template.Name, t.describe(err, req.ABI))
	}
	receipt, err := t.wait(ctx, identity, "deploy "+req.Template.Name, hash)
	if err != nil {
		return nil, err
	}

	if err := t.history.RecordDeploy(ctx, session, identity, req.Template.Name, params, hash); err != nil {
		return nil, err
	}

	t.log.Info("deployed", "identity", identity, "template", req.Template.Name, "address", receipt.ContractAddress.Hex(), "tx", hash.Hex())
	t.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageDeployed,
		Message:  fmt.Sprintf("%s deployed at %s", identity, receipt.ContractAddress.Hex()),
		Metadata: receipt.ContractAddress,
	})
	return &Deployment{Address: receipt.ContractAddress, TxHash: hash, Receipt: receipt}, nil
}

// Execute sends a state-changing call and files an EXECUTE entry
func (t *Transactor) Execute(ctx context.Context, session *domain.Session, identity string, req CallRequest, description string, abis ...*abi.ABI) (*types.Receipt, error) {
	t.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageExecuting,
		Message: description,
		Spinner: true,
	})

	hash, err := t.client.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", identity, description, t.describe(err, abis...))
	}
	receipt, err := t.wait(ctx, identity, description, hash)
	if err != nil {
		return nil, err
	}

	if err := t.history.RecordExecute(ctx, session, description, hash); err != nil {
		return nil, err
	}

	t.log.Info("executed", "identity", identity, "call", description, "tx", hash.Hex())
	t.progress.OnProgress(ctx, ProgressEvent{Stage: StageExecuted, Message: description})
	return receipt, nil
}

func (t *Transactor) wait(ctx context.Context, identity, description string, hash common.Hash) (*types.Receipt, error) {
	receipt, err := t.client.WaitForReceipt(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("%s: waiting for %s: %w", identity, hash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &domain.ExecutionError{
			Identity:    identity,
			Description: description,
			TxHash:      hash,
			Receipt:     receipt,
		}
	}
	return receipt, nil
}

func (t *Transactor) describe(err error, abis ...*abi.ABI) error {
	if t.decoder == nil {
		return err
	}
	return t.decoder.Describe(err, abis...)
}
