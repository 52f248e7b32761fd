package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// ForkRenderer handles rendering of fork command results
type ForkRenderer struct {
	out   io.Writer
	names map[string]string
}

// NewForkRenderer creates a new ForkRenderer
func NewForkRenderer(out io.Writer, names map[string]string) *ForkRenderer {
	return &ForkRenderer{out: out, names: names}
}

// Render prints the rehearsal: executed steps, role snapshot, report and repeat diff
func (r *ForkRenderer) Render(result *usecase.RunForkResult) error {
	printSection(r.out, "Fork of %s", result.Network)
	fmt.Fprintf(r.out, "  Fork URL:  %s\n\n", result.ForkURL)

	if err := NewDeployRenderer(r.out).RenderRun(result.Run); err != nil {
		return err
	}
	fmt.Fprintln(r.out)
	if err := NewRolesRenderer(r.out, r.names).RenderSnapshot(result.Network+" fork", result.Snapshot); err != nil {
		return err
	}
	if result.Report != nil {
		fmt.Fprintln(r.out)
		if err := NewVerifyRenderer(r.out).Render(result.Report); err != nil {
			return err
		}
	}

	if result.Diff != "" {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, FormatWarning("Repeated run produced a different role assignment:"))
		fmt.Fprintln(r.out, result.Diff)
	}
	return nil
}
