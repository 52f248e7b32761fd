package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-amm/internal/domain/config"
)

const (
	// DataDirName holds local state such as config.local.json
	DataDirName = ".treb-amm"
	// DefaultMigrationFile is picked up from the project root when [migration] names no file
	DefaultMigrationFile = "migration.yaml"
)

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	loadDotEnv(projectRoot)

	file, path, err := LoadProjectFile(projectRoot)
	if err != nil {
		return nil, err
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        filepath.Join(projectRoot, DataDirName),
		ConfigFile:     path,
		Network:        v.GetString("network"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		JSON:           v.GetBool("json"),
		Timeout:        v.GetDuration("timeout"),
		DryRun:         v.GetBool("dry_run"),
		Yes:            v.GetBool("yes"),
		Networks:       file.Networks,
		Accounts:       file.Accounts,
		Verification:   file.Verification,
	}
	if cfg.Networks == nil {
		cfg.Networks = map[string]config.NetworkConfig{}
	}
	if cfg.Accounts == nil {
		cfg.Accounts = map[string]config.AccountConfig{}
	}

	cfg.MigrationFile = resolvePath(projectRoot, file.Migration.File)
	if cfg.MigrationFile == "" {
		candidate := filepath.Join(projectRoot, DefaultMigrationFile)
		if _, err := os.Stat(candidate); err == nil {
			cfg.MigrationFile = candidate
		}
	}
	cfg.DeploymentsDir = resolvePath(projectRoot, defaultString(file.Migration.DeploymentsDir, "deployments"))
	cfg.ArtifactsDir = resolvePath(projectRoot, defaultString(file.Migration.ArtifactsDir, "out"))
	cfg.Verification.Tolerances = resolvePath(projectRoot, cfg.Verification.Tolerances)
	cfg.Verification.TablesDir = resolvePath(projectRoot, cfg.Verification.TablesDir)

	return cfg, nil
}

// FindProjectRoot walks up from the current directory to the first directory holding
// treb-amm.toml or foundry.toml
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, marker := range []string{ProjectFileName, "foundry.toml"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a treb-amm project (%s or foundry.toml not found)", ProjectFileName)
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	// config.local.json keeps per-checkout defaults such as the network
	v.SetConfigName("config.local")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, DataDirName))

	v.SetEnvPrefix("TREB_AMM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("timeout", "10m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	_ = v.ReadInConfig()

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	})

	return v
}

func resolvePath(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
