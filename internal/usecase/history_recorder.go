package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// HistoryRecorder appends transactions of a session to the network's history log
type HistoryRecorder struct {
	store HistoryStore
	mu    sync.Mutex
}

// NewHistoryRecorder creates a recorder over store
func NewHistoryRecorder(store HistoryStore) *HistoryRecorder {
	return &HistoryRecorder{store: store}
}

// Record files entry under session
func (r *HistoryRecorder) Record(ctx context.Context, session *domain.Session, entry domain.HistoryEntry) error {
	if r == nil || r.store == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	log, err := r.store.Load(ctx, session.Network)
	if err != nil {
		return fmt.Errorf("failed to load history for %s: %w", session.Network, err)
	}

	updated := domain.AppendEntry(domain.ClassifyHistory(log, session), session, entry)
	if err := r.store.Save(ctx, session.Network, updated); err != nil {
		return fmt.Errorf("failed to save history for %s: %w", session.Network, err)
	}
	return nil
}

// RecordDeploy files a DEPLOY entry
func (r *HistoryRecorder) RecordDeploy(ctx context.Context, session *domain.Session, identity, template string, params []string, tx common.Hash) error {
	return r.Record(ctx, session, domain.HistoryEntry{
		Type:              domain.HistoryDeploy,
		ContractName:      identity,
		ContractType:      template,
		ConstructorParams: params,
		Tx:                tx.Hex(),
	})
}

// RecordExecute files an EXECUTE entry
func (r *HistoryRecorder) RecordExecute(ctx context.Context, session *domain.Session, description string, tx common.Hash) error {
	return r.Record(ctx, session, domain.HistoryEntry{
		Type:                 domain.HistoryExecute,
		ExecutionDescription: description,
		Tx:                   tx.Hex(),
	})
}
