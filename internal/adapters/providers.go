package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/treb-amm/internal/adapters/abi"
	adapterconfig "github.com/trebuchet-org/treb-amm/internal/adapters/config"
	"github.com/trebuchet-org/treb-amm/internal/adapters/forge"
	"github.com/trebuchet-org/treb-amm/internal/adapters/fs"
	"github.com/trebuchet-org/treb-amm/internal/adapters/interactive"
	"github.com/trebuchet-org/treb-amm/internal/config"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewArtifactStoreFactory,
	wire.Bind(new(usecase.ArtifactStoreFactory), new(*fs.ArtifactStoreFactory)),

	fs.NewHistoryStoreAdapter,
	wire.Bind(new(usecase.HistoryStore), new(*fs.HistoryStoreAdapter)),
)

// ForgeSet provides forge-based implementations
var ForgeSet = wire.NewSet(
	forge.NewForgeAdapter,
	forge.NewArtifactsAdapter,
	wire.Bind(new(usecase.ContractArtifacts), new(*forge.ArtifactsAdapter)),
)

// ABISet provides argument encoding and revert decoding
var ABISet = wire.NewSet(
	abi.NewArgEncoder,
	wire.Bind(new(usecase.ArgEncoder), new(*abi.ArgEncoder)),

	abi.NewRevertDecoder,
	wire.Bind(new(usecase.RevertDecoder), new(*abi.RevertDecoder)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.InteractiveSelector), new(*interactive.SelectorAdapter)),
	wire.Bind(new(usecase.Confirmer), new(*interactive.SelectorAdapter)),
)

// ConfigSet provides configuration-based implementations
var ConfigSet = wire.NewSet(
	config.ProvideNetworkResolver,

	adapterconfig.NewNetworkResolverAdapter,
	wire.Bind(new(usecase.NetworkResolver), new(*adapterconfig.NetworkResolverAdapter)),

	config.NewMigrationLoader,
	wire.Bind(new(usecase.MigrationSource), new(*config.MigrationLoader)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	ForgeSet,
	ABISet,
	InteractiveSet,
	ConfigSet,
	ChainAdapters,
)
