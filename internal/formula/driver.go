package formula

import (
	"context"
	"fmt"
)

// Mode selects how much of each table is replayed
type Mode int

const (
	// ModeQuick replays the first QuickRows rows of every table
	ModeQuick Mode = iota
	// ModeStress replays every row
	ModeStress
)

// DefaultQuickRows is the quick-mode row count when none is configured
const DefaultQuickRows = 25

func (m Mode) String() string {
	if m == ModeStress {
		return "stress"
	}
	return "quick"
}

// DriverOptions controls table truncation
type DriverOptions struct {
	Mode      Mode
	QuickRows int
}

func (o DriverOptions) limit(total int) int {
	if o.Mode == ModeStress {
		return total
	}
	n := o.QuickRows
	if n <= 0 {
		n = DefaultQuickRows
	}
	if n > total {
		return total
	}
	return n
}

// Predicate selects the branch, and so the entry point, for a case
type Predicate func(c Case) (string, error)

// Handler checks one case against the chosen branch
type Handler func(ctx context.Context, c Case, branch string) error

// CaseResult is the outcome of one case
type CaseResult struct {
	Case   Case
	Branch string
	Exact  bool
	Err    error
}

// Report collects the outcomes of one table run
type Report struct {
	Table   string
	Formula string
	Mode    Mode
	Rows    int
	Results []CaseResult
}

// Failures returns the failed cases in table order
func (r *Report) Failures() []CaseResult {
	var failed []CaseResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Passed reports whether every replayed case passed
func (r *Report) Passed() bool {
	return len(r.Failures()) == 0
}

// ForEachCase routes every replayed row through predicate and dispatches it to exact for rows
// carrying an exact or revert status, or to approx otherwise. A failing case never stops the
// remaining ones; only context cancellation does.
func ForEachCase(ctx context.Context, table *Table, predicate Predicate, exact, approx Handler, opts DriverOptions) (*Report, error) {
	report := &Report{
		Table:   table.Name(),
		Formula: table.Formula.Name,
		Mode:    opts.Mode,
		Rows:    len(table.Cases),
	}

	for _, c := range table.Cases[:opts.limit(len(table.Cases))] {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res := CaseResult{Case: c, Exact: c.Status.Exact || c.Status.Revert != ""}
		branch, err := predicate(c)
		switch {
		case err != nil:
			res.Err = fmt.Errorf("predicate: %w", err)
		case c.Status.Branch != "" && c.Status.Branch != branch:
			res.Err = fmt.Errorf("%w: row says %q, predicate selects %q", ErrBranchMismatch, c.Status.Branch, branch)
		default:
			res.Branch = branch
			if res.Exact {
				res.Err = exact(ctx, c, branch)
			} else {
				res.Err = approx(ctx, c, branch)
			}
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}
