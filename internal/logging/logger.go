package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/wire"
	"github.com/trebuchet-org/treb-amm/internal/domain/config"
)

// LevelEnv overrides the log level; --debug takes precedence
const LevelEnv = "TREB_AMM_LOG_LEVEL"

var LoggingSet = wire.NewSet(
	NewLogger,
)

// NewLogger creates the process logger. Logs always go to stderr so that --json output on
// stdout stays machine readable.
func NewLogger(cfg *config.RuntimeConfig) *slog.Logger {
	return newLogger(os.Stderr, cfg)
}

func newLogger(w io.Writer, cfg *config.RuntimeConfig) *slog.Logger {
	level, _ := ParseLevel(os.Getenv(LevelEnv))

	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}
	if cfg.Debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	log := slog.New(handler)
	if cfg.Network != "" {
		log = log.With("network", cfg.Network)
	}
	return log
}

// ParseLevel maps a level name to a slog level. Unknown names report false and yield info.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	// timestamps add noise to interactive runs
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	if a.Key == slog.SourceKey {
		if source, ok := a.Value.Any().(*slog.Source); ok {
			source.File = shortPath(source.File)
		}
	}
	return a
}

// shortPath trims a source path to the module-relative path, or the file name outside the module
func shortPath(file string) string {
	file = filepath.ToSlash(file)
	if idx := strings.Index(file, "treb-amm/"); idx != -1 {
		return file[idx+len("treb-amm/"):]
	}
	return filepath.Base(file)
}
