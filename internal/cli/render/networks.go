package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out io.Writer
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer) *NetworksRenderer {
	return &NetworksRenderer{out: out}
}

// RenderNetworksList renders the configured networks with their mode and artifact count
func (r *NetworksRenderer) RenderNetworksList(result *usecase.ListNetworksResult) error {
	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured in treb-amm.toml [networks]")
		return nil
	}

	fmt.Fprintln(r.out, "🌐 Available Networks:")
	fmt.Fprintln(r.out)

	t := newTable("", "NETWORK", "CHAIN ID", "MODE", "ARTIFACTS")
	for _, network := range result.Networks {
		if network.Error != nil {
			t.AppendRow(table.Row{status(false), network.Name, "", "", failStyle.Sprintf("error: %v", network.Error)})
			continue
		}
		mode := Title(string(network.Mode))
		if network.ForkOf != "" {
			mode += faintStyle.Sprintf(" of %s", network.ForkOf)
		}
		t.AppendRow(table.Row{status(true), network.Name, network.ChainID, mode, network.Artifacts})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}
