package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// maxListedFailures caps the failures printed per table
const maxListedFailures = 10

// FormulasRenderer renders formula verification results
type FormulasRenderer struct {
	out io.Writer
}

// NewFormulasRenderer creates a new formulas renderer
func NewFormulasRenderer(out io.Writer) *FormulasRenderer {
	return &FormulasRenderer{out: out}
}

// Render prints one row per table, then the first failures of each failing table
func (r *FormulasRenderer) Render(result *usecase.VerifyFormulasResult) error {
	printSection(r.out, "Formula verification against %s (%s)", result.Backend, result.Mode)

	t := newTable("", "FORMULA", "TABLE", "ROWS", "CASES", "FAILED")
	for _, report := range result.Reports {
		t.AppendRow(table.Row{
			status(report.Passed()),
			report.Formula,
			report.Table,
			report.Rows,
			len(report.Results),
			len(report.Failures()),
		})
	}
	fmt.Fprintln(r.out, t.Render())

	for _, report := range result.Reports {
		failures := report.Failures()
		if len(failures) == 0 {
			continue
		}
		fmt.Fprintln(r.out)
		printSection(r.out, "%s / %s", report.Formula, report.Table)
		for i, f := range failures {
			if i == maxListedFailures {
				faintStyle.Fprintf(r.out, "  ... and %d more\n", len(failures)-maxListedFailures)
				break
			}
			fmt.Fprintf(r.out, "  row %d [%s]: %s\n", f.Case.Index, f.Branch, failStyle.Sprint(f.Err))
		}
	}

	fmt.Fprintln(r.out)
	if result.Passed() {
		fmt.Fprintln(r.out, FormatSuccess("All formula tables passed"))
	} else {
		fmt.Fprintln(r.out, FormatError("formula verification failed"))
	}
	return nil
}
