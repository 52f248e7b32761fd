package config

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/domain/config"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
	"gopkg.in/yaml.v3"
)

//go:embed defaults/migration.yaml
var defaultMigration []byte

// DefaultMigration returns the bundled migration file
func DefaultMigration() []byte {
	return bytes.Clone(defaultMigration)
}

// MigrationLoader reads the project's migration file, falling back to the bundled one
type MigrationLoader struct {
	path string
}

// NewMigrationLoader creates a loader for the configured migration file
func NewMigrationLoader(cfg *config.RuntimeConfig) *MigrationLoader {
	return &MigrationLoader{path: cfg.MigrationFile}
}

// Source names where the migration is read from
func (l *MigrationLoader) Source() string {
	if l.path == "" {
		return "bundled default migration"
	}
	return l.path
}

// Load parses the migration
func (l *MigrationLoader) Load(_ context.Context) (*domain.Migration, error) {
	data := defaultMigration
	if l.path != "" {
		var err error
		if data, err = os.ReadFile(l.path); err != nil {
			return nil, fmt.Errorf("failed to read migration file: %w", err)
		}
	}
	migration, err := ParseMigration(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.Source(), err)
	}
	return migration, nil
}

// ParseMigration decodes a migration document; unknown fields are rejected
func ParseMigration(data []byte) (*domain.Migration, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var migration domain.Migration
	if err := dec.Decode(&migration); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("migration is empty")
		}
		return nil, err
	}
	if len(migration.Steps) == 0 {
		return nil, fmt.Errorf("migration declares no steps")
	}
	for i, step := range migration.Steps {
		if step == nil {
			return nil, fmt.Errorf("step %d is empty", i+1)
		}
	}
	return &migration, nil
}

var _ usecase.MigrationSource = (*MigrationLoader)(nil)
