package forge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/trebuchet-org/treb-amm/internal/domain/config"
)

// ForgeAdapter runs forge in the project root
type ForgeAdapter struct {
	log         *slog.Logger
	projectRoot string
}

// NewForgeAdapter creates a new forge executor
func NewForgeAdapter(cfg *config.RuntimeConfig, log *slog.Logger) *ForgeAdapter {
	return &ForgeAdapter{
		log:         log.With("component", "ForgeAdapter"),
		projectRoot: cfg.ProjectRoot,
	}
}

// Build runs forge build. Projects without a foundry.toml have nothing to build.
func (f *ForgeAdapter) Build(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(f.projectRoot, "foundry.toml")); err != nil {
		return fmt.Errorf("no foundry.toml in %s", f.projectRoot)
	}
	if _, err := exec.LookPath("forge"); err != nil {
		return fmt.Errorf("forge not found in PATH: %w", err)
	}

	start := time.Now()
	f.log.Debug("running forge build", "dir", f.projectRoot)

	cmd := exec.CommandContext(ctx, "forge", "build")
	cmd.Dir = f.projectRoot

	output, err := cmd.CombinedOutput()
	duration := time.Since(start)

	if err != nil {
		f.log.Error("forge build failed", "error", err, "output", string(output), "duration", duration)
		return fmt.Errorf("forge build failed: %w\nOutput: %s", err, string(output))
	}

	f.log.Debug("forge build completed successfully", "duration", duration)
	return nil
}
