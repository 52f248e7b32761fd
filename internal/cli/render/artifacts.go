package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// ArtifactsRenderer renders artifact listings and single records
type ArtifactsRenderer struct {
	out io.Writer
}

// NewArtifactsRenderer creates a new artifacts renderer
func NewArtifactsRenderer(out io.Writer) *ArtifactsRenderer {
	return &ArtifactsRenderer{out: out}
}

// RenderList prints one row per record
func (r *ArtifactsRenderer) RenderList(result *usecase.ListArtifactsResult) error {
	if len(result.Artifacts) == 0 {
		fmt.Fprintf(r.out, "No artifacts recorded for %s\n", result.Network)
		return nil
	}

	printSection(r.out, "Artifacts on %s", result.Network)
	t := newTable("IDENTITY", "TEMPLATE", "ADDRESS", "BLOCK", "CONFIGURED")
	for _, rec := range result.Artifacts {
		block := faintStyle.Sprint("attached")
		if !rec.Attached() {
			block = fmt.Sprint(rec.BlockNumber)
		}
		t.AppendRow(table.Row{
			identityStyle.Sprint(rec.Identity),
			templateStyle.Sprint(rec.TemplateName),
			formatAddress(rec.Address),
			block,
			status(rec.Configured),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	faintStyle.Fprintf(r.out, "%s\n", plural(len(result.Artifacts), "artifact"))
	return nil
}

// RenderShow prints one record in detail
func (r *ArtifactsRenderer) RenderShow(result *usecase.ShowArtifactResult) error {
	rec := result.Record
	printSection(r.out, "%s on %s", rec.Identity, result.Network)

	field := func(name, value string) {
		fmt.Fprintf(r.out, "  %-16s %s\n", name+":", value)
	}
	field("Template", templateStyle.Sprint(rec.TemplateName))
	field("Address", formatAddress(rec.Address))
	if rec.Implementation != nil {
		field("Implementation", formatAddress(*rec.Implementation))
	}
	if rec.Attached() {
		field("Origin", "attached to a pre-existing contract")
	} else {
		field("Deploy tx", rec.DeployTxHash.Hex())
		field("Block", fmt.Sprint(rec.BlockNumber))
	}
	if !rec.DeployedAt.IsZero() {
		field("Recorded", rec.DeployedAt.Format("2006-01-02 15:04:05 MST"))
	}
	field("Configured", status(rec.Configured))

	if result.Deploy != nil {
		r.renderDeploy(result.Deploy)
	}
	return nil
}

func (r *ArtifactsRenderer) renderDeploy(entry *domain.HistoryEntry) {
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "  Deployed as %s", entry.ContractName)
	if entry.ContractType != "" {
		fmt.Fprintf(r.out, " (%s)", entry.ContractType)
	}
	fmt.Fprintln(r.out)
	if len(entry.ConstructorParams) > 0 {
		fmt.Fprintf(r.out, "  Constructor:     %s\n", strings.Join(entry.ConstructorParams, ", "))
	}
}
