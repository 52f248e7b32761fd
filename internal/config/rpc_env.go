package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

// envVarPattern matches ${VAR_NAME} patterns in TOML values
var envVarPattern = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// DetectEnvVar checks if a raw TOML value is a simple ${VAR_NAME} reference.
// Returns the variable name and true if the value is a pure env var reference.
func DetectEnvVar(rawValue string) (string, bool) {
	matches := envVarPattern.FindStringSubmatch(rawValue)
	if len(matches) == 2 {
		return matches[1], true
	}
	return "", false
}

// GenerateEnvVarName generates a conventional env var name for a network's RPC URL.
// Convention: uppercase, dashes/dots to underscores, append _RPC_URL.
// Examples: sepolia -> SEPOLIA_RPC_URL, celo-sepolia -> CELO_SEPOLIA_RPC_URL
func GenerateEnvVarName(networkName string) string {
	name := strings.ToUpper(networkName)
	name = strings.NewReplacer("-", "_", ".", "_").Replace(name)
	return name + "_RPC_URL"
}

// LoadRawRPCEndpoints reads treb-amm.toml and returns each network's rpc_url without env var expansion.
func LoadRawRPCEndpoints(projectRoot string) (map[string]string, error) {
	var raw struct {
		Networks map[string]struct {
			RPCURL string `toml:"rpc_url"`
		} `toml:"networks"`
	}
	if _, err := toml.DecodeFile(filepath.Join(projectRoot, ProjectFileName), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ProjectFileName, err)
	}

	endpoints := make(map[string]string, len(raw.Networks))
	for name, network := range raw.Networks {
		endpoints[name] = network.RPCURL
	}
	return endpoints, nil
}

// LoadRawRPCEndpoint reads a single raw rpc_url value from treb-amm.toml (before env var expansion).
func LoadRawRPCEndpoint(projectRoot string, networkName string) (string, error) {
	endpoints, err := LoadRawRPCEndpoints(projectRoot)
	if err != nil {
		return "", err
	}

	raw, ok := endpoints[networkName]
	if !ok {
		return "", fmt.Errorf("network '%s' not found in %s [networks]", networkName, ProjectFileName)
	}

	return raw, nil
}

// MigrateRPCEndpoint replaces a hardcoded rpc_url in treb-amm.toml with an env var reference
// and appends the env var assignment to .env. It returns the variable name.
func MigrateRPCEndpoint(projectRoot, networkName, rawURL string) (string, error) {
	envVarName := GenerateEnvVarName(networkName)

	if err := updateProjectTOML(projectRoot, networkName, rawURL, envVarName); err != nil {
		return "", fmt.Errorf("failed to update %s: %w", ProjectFileName, err)
	}

	if err := appendToEnvFile(projectRoot, envVarName, rawURL); err != nil {
		return "", fmt.Errorf("failed to update .env: %w", err)
	}

	return envVarName, nil
}

// updateProjectTOML replaces the rpc_url line inside the [networks.<name>] table.
func updateProjectTOML(projectRoot, networkName, oldValue, envVarName string) error {
	path := filepath.Join(projectRoot, ProjectFileName)

	data, err := os.ReadFile(path) //nolint:gosec // internal path
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", ProjectFileName, err)
	}

	header := fmt.Sprintf("[networks.%s]", networkName)
	oldEntry := fmt.Sprintf(`rpc_url = "%s"`, oldValue)
	newEntry := fmt.Sprintf(`rpc_url = "${%s}"`, envVarName)

	lines := strings.Split(string(data), "\n")
	inTable, replaced := false, false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			inTable = trimmed == header
			continue
		}
		if inTable && trimmed == oldEntry {
			lines[i] = strings.Replace(line, oldEntry, newEntry, 1)
			replaced = true
			break
		}
	}
	if !replaced {
		return fmt.Errorf("could not find entry '%s' under %s", oldEntry, header)
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644); err != nil { //nolint:gosec // internal path
		return fmt.Errorf("failed to write %s: %w", ProjectFileName, err)
	}

	return nil
}

// appendToEnvFile appends an env var assignment to the .env file.
func appendToEnvFile(projectRoot, envVarName, value string) error {
	envPath := filepath.Join(projectRoot, ".env")

	// Read existing content to check for duplicates and trailing newline
	existing, err := os.ReadFile(envPath) //nolint:gosec // internal path
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read .env: %w", err)
	}

	entry := fmt.Sprintf("%s=%s", envVarName, value)

	// Check if already exists
	if strings.Contains(string(existing), envVarName+"=") {
		return nil // Already present
	}

	// Open for appending (create if not exists)
	f, err := os.OpenFile(envPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //nolint:gosec // internal path
	if err != nil {
		return fmt.Errorf("failed to open .env: %w", err)
	}
	defer f.Close()

	// Ensure we start on a new line if file has content
	prefix := ""
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		prefix = "\n"
	}

	if _, err := fmt.Fprintf(f, "%s%s\n", prefix, entry); err != nil {
		return fmt.Errorf("failed to write to .env: %w", err)
	}

	return nil
}
