package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// VerifyRenderer handles rendering of verification reports
type VerifyRenderer struct {
	out io.Writer
	// FailuresOnly hides passing checks
	FailuresOnly bool
}

// NewVerifyRenderer creates a new verify renderer
func NewVerifyRenderer(out io.Writer) *VerifyRenderer {
	return &VerifyRenderer{out: out}
}

// Render prints the checks grouped by identity and a summary line
func (r *VerifyRenderer) Render(report *usecase.VerificationReport) error {
	checks := report.Checks
	if r.FailuresOnly {
		checks = report.Failures()
	}

	printSection(r.out, "Verification of %s (%s)", report.Network, Title(string(report.Mode)))
	if len(checks) > 0 {
		t := newTable("", "CONTRACT", "CHECK", "EXPECTED", "ACTUAL")
		last := ""
		for _, c := range checks {
			identity := c.Identity
			if identity == last {
				identity = ""
			} else {
				last = identity
			}
			actual := c.Actual
			if !c.Passed {
				actual = failStyle.Sprint(actual)
			}
			t.AppendRow(table.Row{status(c.Passed), identityStyle.Sprint(identity), c.Check, c.Expected, actual})
		}
		fmt.Fprintln(r.out, t.Render())
	}

	failed := len(report.Failures())
	if failed == 0 {
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%s passed", plural(len(report.Checks), "check"))))
		return nil
	}
	fmt.Fprintln(r.out, FormatError(fmt.Sprintf("%d of %s failed", failed, plural(len(report.Checks), "check"))))
	return nil
}
