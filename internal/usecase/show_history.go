package usecase

import (
	"context"

	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// ShowHistoryParams selects history sessions
type ShowHistoryParams struct {
	Network string
	// Limit keeps the newest sessions only; zero keeps all
	Limit int
}

// ShowHistory reads the history log of a network
type ShowHistory struct {
	history HistoryStore
}

// NewShowHistory creates the use case
func NewShowHistory(history HistoryStore) *ShowHistory {
	return &ShowHistory{history: history}
}

// Execute returns the sessions newest first
func (uc *ShowHistory) Execute(ctx context.Context, params ShowHistoryParams) ([]domain.HistorySession, error) {
	log, err := uc.history.Load(ctx, params.Network)
	if err != nil {
		return nil, err
	}
	if log == nil {
		return nil, nil
	}
	sessions := log.Sessions
	if params.Limit > 0 && len(sessions) > params.Limit {
		sessions = sessions[:params.Limit]
	}
	return sessions, nil
}
