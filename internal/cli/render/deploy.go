package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// DeployRenderer renders the outcome of deploy and migrate runs
type DeployRenderer struct {
	out io.Writer
}

// NewDeployRenderer creates a new deploy renderer
func NewDeployRenderer(out io.Writer) *DeployRenderer {
	return &DeployRenderer{out: out}
}

// Render prints the executed steps and, when present, the verification report
func (r *DeployRenderer) Render(result *usecase.DeploySystemResult) error {
	printSection(r.out, "%s (%s)", result.Network, Title(string(result.Mode)))
	if err := r.RenderRun(result.Run); err != nil {
		return err
	}
	if result.Report != nil {
		fmt.Fprintln(r.out)
		return NewVerifyRenderer(r.out).Render(result.Report)
	}
	return nil
}

// RenderRun prints one row per step of a tag run in execution order
func (r *DeployRenderer) RenderRun(run *usecase.RunTagResult) error {
	if run == nil || len(run.Steps) == 0 {
		fmt.Fprintln(r.out, "Nothing to run")
		return nil
	}

	t := newTable("STEP", "TEMPLATE", "ADDRESS", "STATUS")
	for _, step := range run.Steps {
		rec := run.Records[step.ID]
		t.AppendRow(table.Row{
			identityStyle.Sprint(step.ID),
			templateStyle.Sprint(step.Contract),
			r.address(rec),
			r.stepStatus(run, step, rec),
		})
	}
	fmt.Fprintln(r.out, t.Render())

	if run.Session != nil {
		faintStyle.Fprintf(r.out, "\nsession %s: %s, %d skipped\n",
			run.Session.ID, plural(len(run.Steps), "step"), len(run.Skipped))
	}
	return nil
}

func (r *DeployRenderer) address(rec *domain.ArtifactRecord) string {
	if rec == nil || rec.Skipped {
		return faintStyle.Sprint("-")
	}
	return formatAddress(rec.Address)
}

func (r *DeployRenderer) stepStatus(run *usecase.RunTagResult, step *domain.DeploymentStep, rec *domain.ArtifactRecord) string {
	switch {
	case lo.Contains(run.Skipped, step.ID) || rec == nil || rec.Skipped:
		return faintStyle.Sprint("skipped")
	case rec.Attached():
		return templateStyle.Sprint("attached")
	case !rec.Configured:
		return warnStyle.Sprint("deployed, not configured")
	default:
		return passStyle.Sprint("ready")
	}
}
