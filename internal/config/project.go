package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/domain/config"
)

// ProjectFileName is the project configuration file searched for from the working directory
const ProjectFileName = "treb-amm.toml"

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.\-]*$`)

// loadDotEnv loads .env then .env.local; variables already set in the environment win
func loadDotEnv(projectRoot string) {
	for _, name := range []string{".env", ".env.local"} {
		envFile := filepath.Join(projectRoot, name)
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
		}
	}
}

// LoadProjectFile reads treb-amm.toml with ${VAR} references expanded. A project without the
// file yields an empty configuration and an empty path.
func LoadProjectFile(projectRoot string) (*config.ProjectFile, string, error) {
	path := filepath.Join(projectRoot, ProjectFileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return &config.ProjectFile{}, "", nil
	}

	var file config.ProjectFile
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse %s: %w", ProjectFileName, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, "", fmt.Errorf("%s: unknown keys: %s", ProjectFileName, strings.Join(keys, ", "))
	}

	expandProjectFile(&file)
	if err := validateProjectFile(&file); err != nil {
		return nil, "", fmt.Errorf("%s: %w", ProjectFileName, err)
	}
	return &file, path, nil
}

func expandProjectFile(file *config.ProjectFile) {
	file.Migration.File = os.ExpandEnv(file.Migration.File)
	file.Migration.DeploymentsDir = os.ExpandEnv(file.Migration.DeploymentsDir)
	file.Migration.ArtifactsDir = os.ExpandEnv(file.Migration.ArtifactsDir)

	for name, network := range file.Networks {
		network.Name = name
		network.RPCURL = os.ExpandEnv(network.RPCURL)
		file.Networks[name] = network
	}
	for name, account := range file.Accounts {
		account.Address = os.ExpandEnv(account.Address)
		account.PrivateKey = os.ExpandEnv(account.PrivateKey)
		file.Accounts[name] = account
	}

	file.Verification.Tolerances = os.ExpandEnv(file.Verification.Tolerances)
	file.Verification.TablesDir = os.ExpandEnv(file.Verification.TablesDir)
}

func validateProjectFile(file *config.ProjectFile) error {
	names := make([]string, 0, len(file.Networks))
	for name := range file.Networks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		network := file.Networks[name]
		if !namePattern.MatchString(name) {
			return fmt.Errorf("invalid network name %q", name)
		}
		mode, err := domain.ParseNetworkMode(network.Mode)
		if err != nil {
			return fmt.Errorf("network %s: %w", name, err)
		}
		if network.ForkOf == "" {
			continue
		}
		if mode != domain.ModeProductionFork {
			return fmt.Errorf("network %s: fork_of requires mode %q", name, domain.ModeProductionFork)
		}
		upstream, ok := file.Networks[network.ForkOf]
		if !ok {
			return fmt.Errorf("network %s: fork_of names unknown network %q", name, network.ForkOf)
		}
		if upstream.Mode != string(domain.ModeProduction) {
			return fmt.Errorf("network %s: fork_of must name a production network, %s is %q", name, network.ForkOf, upstream.Mode)
		}
	}

	for name := range file.Accounts {
		if !namePattern.MatchString(name) {
			return fmt.Errorf("invalid account name %q", name)
		}
	}
	if file.Verification.QuickRows < 0 {
		return fmt.Errorf("verification.quick_rows must not be negative")
	}
	return nil
}
