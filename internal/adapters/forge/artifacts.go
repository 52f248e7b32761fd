package forge

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/domain/config"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

//go:embed embedded/*.json
var embedded embed.FS

// artifactJSON is the subset of a forge build artifact read here
type artifactJSON struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode struct {
		Object string `json:"object"`
	} `json:"bytecode"`
}

// ArtifactsAdapter reads compiled contracts from the forge output directory
// (<out>/<Name>.sol/<Name>.json). Templates missing from the build fall back to the bundled
// interface-only artifacts, which carry an ABI but no bytecode and can only serve dry runs.
type ArtifactsAdapter struct {
	outDir string
	forge  *ForgeAdapter
	log    *slog.Logger

	mu    sync.Mutex
	cache map[string]*usecase.ContractArtifact
	built bool
}

// NewArtifactsAdapter creates an artifact reader from the runtime config
func NewArtifactsAdapter(cfg *config.RuntimeConfig, forge *ForgeAdapter, log *slog.Logger) *ArtifactsAdapter {
	return &ArtifactsAdapter{
		outDir: cfg.ArtifactsDir,
		forge:  forge,
		log:    log.With("component", "ArtifactsAdapter"),
		cache:  make(map[string]*usecase.ContractArtifact),
	}
}

// NewEmbeddedArtifacts returns a reader over the bundled interface-only artifacts
func NewEmbeddedArtifacts() *ArtifactsAdapter {
	return &ArtifactsAdapter{
		log:   slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
		cache: make(map[string]*usecase.ContractArtifact),
		built: true,
	}
}

// Artifact returns the compiled artifact of the named contract
func (a *ArtifactsAdapter) Artifact(ctx context.Context, name string) (*usecase.ContractArtifact, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if art, ok := a.cache[name]; ok {
		return art, nil
	}

	data, err := a.readBuild(name)
	if errors.Is(err, domain.ErrNotFound) && !a.built && a.forge != nil {
		// compile once per process, then retry
		a.built = true
		if buildErr := a.forge.Build(ctx); buildErr != nil {
			a.log.Warn("forge build failed, using bundled interfaces", "error", buildErr)
		} else {
			data, err = a.readBuild(name)
		}
	}
	if errors.Is(err, domain.ErrNotFound) {
		data, err = embedded.ReadFile("embedded/" + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("%w: no compiled artifact for %s", domain.ErrNotFound, name)
		}
		a.log.Debug("using bundled interface artifact", "contract", name)
	} else if err != nil {
		return nil, err
	}

	art, err := parseArtifact(name, data)
	if err != nil {
		return nil, err
	}
	a.cache[name] = art
	return art, nil
}

// readBuild finds <Name>.json anywhere under the output directory, preferring <Name>.sol/
func (a *ArtifactsAdapter) readBuild(name string) ([]byte, error) {
	if a.outDir == "" {
		return nil, domain.ErrNotFound
	}

	direct := filepath.Join(a.outDir, name+".sol", name+".json")
	if data, err := os.ReadFile(direct); err == nil {
		return data, nil
	}

	var found string
	err := filepath.WalkDir(a.outDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() && strings.HasPrefix(d.Name(), ".") && path != a.outDir {
			return filepath.SkipDir
		}
		if !d.IsDir() && d.Name() == name+".json" {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", a.outDir, err)
	}
	if found == "" {
		return nil, domain.ErrNotFound
	}
	return os.ReadFile(found)
}

func parseArtifact(name string, data []byte) (*usecase.ContractArtifact, error) {
	var raw artifactJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", name, err)
	}
	if len(raw.ABI) == 0 {
		return nil, fmt.Errorf("artifact %s has no abi", name)
	}
	parsed, err := abi.JSON(strings.NewReader(string(raw.ABI)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse abi of %s: %w", name, err)
	}

	var bytecode []byte
	if obj := raw.Bytecode.Object; obj != "" && obj != "0x" {
		if !strings.HasPrefix(obj, "0x") {
			obj = "0x" + obj
		}
		if bytecode, err = hexutil.Decode(obj); err != nil {
			return nil, fmt.Errorf("artifact %s has invalid bytecode (unlinked libraries?): %w", name, err)
		}
	}

	return &usecase.ContractArtifact{
		Name:     name,
		ABI:      &parsed,
		RawABI:   raw.ABI,
		Bytecode: bytecode,
	}, nil
}

var _ usecase.ContractArtifacts = (*ArtifactsAdapter)(nil)
