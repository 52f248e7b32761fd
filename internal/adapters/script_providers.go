package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/treb-amm/internal/adapters/anvil"
	"github.com/trebuchet-org/treb-amm/internal/adapters/environment"
	"github.com/trebuchet-org/treb-amm/internal/adapters/progress"
	"github.com/trebuchet-org/treb-amm/internal/domain/config"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// ProvideProgressSink picks the spinner for interactive terminals. JSON output stays clean.
func ProvideProgressSink(cfg *config.RuntimeConfig) usecase.ProgressSink {
	return progress.NewSink(cfg.NonInteractive || cfg.JSON)
}

// ChainAdapters provides everything that talks to a node: environments, the formula harness
// and local anvil forks
var ChainAdapters = wire.NewSet(
	environment.NewFactory,
	wire.Bind(new(usecase.EnvironmentFactory), new(*environment.Factory)),

	environment.NewHarnessFactory,
	wire.Bind(new(usecase.FormulaCalculatorFactory), new(*environment.HarnessFactory)),

	anvil.NewManager,
	wire.Bind(new(usecase.AnvilManager), new(*anvil.Manager)),

	ProvideProgressSink,
)
