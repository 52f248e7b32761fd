package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/domain/config"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// HistoryStoreAdapter keeps the history log of each network in <deployments>/history/<network>.json
type HistoryStoreAdapter struct {
	dir string
}

// NewHistoryStoreAdapter creates a history store from the runtime config
func NewHistoryStoreAdapter(cfg *config.RuntimeConfig) *HistoryStoreAdapter {
	return &HistoryStoreAdapter{dir: filepath.Join(cfg.DeploymentsDir, "history")}
}

func (s *HistoryStoreAdapter) path(network string) (string, error) {
	if err := validateNetwork(network); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, network+".json"), nil
}

// Load reads the log of network. Returns nil if no history file exists yet.
func (s *HistoryStoreAdapter) Load(_ context.Context, network string) (*domain.HistoryLog, error) {
	path, err := s.path(network)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var log domain.HistoryLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}
	return &log, nil
}

// Save writes the log of network
func (s *HistoryStoreAdapter) Save(_ context.Context, network string, log *domain.HistoryLog) error {
	path, err := s.path(network)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	return writeFileAtomic(path, data)
}

var _ usecase.HistoryStore = (*HistoryStoreAdapter)(nil)
