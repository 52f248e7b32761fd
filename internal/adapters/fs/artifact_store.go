package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/domain/config"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// ArtifactStoreAdapter keeps one JSON file per identity under <deployments>/<network>/
type ArtifactStoreAdapter struct {
	network string
	dir     string
}

// NewArtifactStoreAdapter opens the store of network rooted at deploymentsDir
func NewArtifactStoreAdapter(deploymentsDir, network string) (*ArtifactStoreAdapter, error) {
	if err := validateNetwork(network); err != nil {
		return nil, err
	}
	return &ArtifactStoreAdapter{
		network: network,
		dir:     filepath.Join(deploymentsDir, network),
	}, nil
}

// validateNetwork rejects names that would leave the deployments directory
func validateNetwork(network string) error {
	if network == "" || strings.ContainsAny(network, `/\`) || network == "." || network == ".." {
		return fmt.Errorf("invalid network name %q", network)
	}
	return nil
}

// Network returns the network the store belongs to
func (s *ArtifactStoreAdapter) Network() string {
	return s.network
}

// Dir returns the directory holding the records
func (s *ArtifactStoreAdapter) Dir() string {
	return s.dir
}

func (s *ArtifactStoreAdapter) path(identity string) (string, error) {
	if identity == "" || strings.ContainsAny(identity, `/\`) || strings.HasPrefix(identity, ".") {
		return "", fmt.Errorf("invalid artifact identity %q", identity)
	}
	return filepath.Join(s.dir, identity+".json"), nil
}

// Get reads the record of identity
func (s *ArtifactStoreAdapter) Get(_ context.Context, identity string) (*domain.ArtifactRecord, error) {
	path, err := s.path(identity)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: artifact %s on %s", domain.ErrNotFound, identity, s.network)
		}
		return nil, fmt.Errorf("failed to read artifact file: %w", err)
	}

	var rec domain.ArtifactRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse artifact file %s: %w", path, err)
	}
	return &rec, nil
}

// Put writes the record, replacing any previous one
func (s *ArtifactStoreAdapter) Put(_ context.Context, rec *domain.ArtifactRecord) error {
	if rec.Skipped {
		return fmt.Errorf("refusing to persist skipped step %s", rec.Identity)
	}
	path, err := s.path(rec.Identity)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}
	return writeFileAtomic(path, data)
}

// Exists reports whether identity has a record
func (s *ArtifactStoreAdapter) Exists(_ context.Context, identity string) (bool, error) {
	path, err := s.path(identity)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat artifact file: %w", err)
}

// List returns every record sorted by identity
func (s *ArtifactStoreAdapter) List(ctx context.Context) ([]*domain.ArtifactRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)

	records := make([]*domain.ArtifactRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Reset deletes the network's records
func (s *ArtifactStoreAdapter) Reset(_ context.Context) error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to reset artifacts of %s: %w", s.network, err)
	}
	return nil
}

// writeFileAtomic replaces path through a temporary file in the same directory
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ArtifactStoreFactory opens artifact stores under the configured deployments directory
type ArtifactStoreFactory struct {
	deploymentsDir string
}

// NewArtifactStoreFactory creates a factory from the runtime config
func NewArtifactStoreFactory(cfg *config.RuntimeConfig) *ArtifactStoreFactory {
	return &ArtifactStoreFactory{deploymentsDir: cfg.DeploymentsDir}
}

// Open opens the store of network
func (f *ArtifactStoreFactory) Open(network string) (usecase.ArtifactStore, error) {
	return NewArtifactStoreAdapter(f.deploymentsDir, network)
}

var (
	_ usecase.ArtifactStore        = (*ArtifactStoreAdapter)(nil)
	_ usecase.ArtifactStoreFactory = (*ArtifactStoreFactory)(nil)
)
