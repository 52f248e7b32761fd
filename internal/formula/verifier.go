package formula

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Verifier replays tables and sweeps through a Calculator and compares against the reference
type Verifier struct {
	calc       Calculator
	tolerances Tolerances
	opts       DriverOptions
	log        *slog.Logger
}

// NewVerifier creates a verifier
func NewVerifier(calc Calculator, tolerances Tolerances, opts DriverOptions, log *slog.Logger) *Verifier {
	if log == nil {
		log = slog.Default()
	}
	return &Verifier{
		calc:       calc,
		tolerances: tolerances,
		opts:       opts,
		log:        log.With("component", "formula-verifier"),
	}
}

// VerifyTable replays a table
func (v *Verifier) VerifyTable(ctx context.Context, table *Table) (*Report, error) {
	f := table.Formula
	predicate := func(c Case) (string, error) { return f.Branch(c.Inputs) }

	exact := func(ctx context.Context, c Case, branch string) error {
		return v.check(ctx, f, c, branch, func(string) ToleranceSpec { return ToleranceSpec{} })
	}
	approx := func(ctx context.Context, c Case, branch string) error {
		return v.check(ctx, f, c, branch, func(field string) ToleranceSpec { return v.tolerances.For(f.Name, field) })
	}

	report, err := ForEachCase(ctx, table, predicate, exact, approx, v.opts)
	if report != nil {
		v.log.Debug("table replayed",
			"table", report.Table,
			"mode", report.Mode.String(),
			"cases", len(report.Results),
			"failures", len(report.Failures()))
	}
	return report, err
}

// VerifySweep replays a formula's parameter grid
func (v *Verifier) VerifySweep(ctx context.Context, f *Formula) (*Report, error) {
	return v.VerifyTable(ctx, SweepTable(f))
}

// check runs the entry point chosen by branch and compares every output
func (v *Verifier) check(ctx context.Context, f *Formula, c Case, branch string, specFor func(string) ToleranceSpec) error {
	expected, wantRevert := v.expected(f, c, branch)
	actual, err := f.Actual(ctx, v.calc, branch, c.Inputs)

	if wantRevert != "" {
		if err == nil {
			return fmt.Errorf("expected revert %s, call succeeded", wantRevert)
		}
		if reason, ok := RevertReason(err); !ok || reason != wantRevert {
			return fmt.Errorf("expected revert %s: %w", wantRevert, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", entryPoint(f, branch), err)
	}
	if expected == nil {
		return fmt.Errorf("no expected values for %s", f.Name)
	}

	var errs []error
	for _, field := range f.Outputs {
		want, ok := expected[field]
		if !ok {
			continue
		}
		got, ok := actual[field]
		if !ok {
			errs = append(errs, fmt.Errorf("%s: missing output %q", entryPoint(f, branch), field))
			continue
		}
		if err := Compare(got, want, specFor(field)); err != nil {
			var violation *ToleranceViolation
			if errors.As(err, &violation) {
				violation.Formula = entryPoint(f, branch)
				violation.Field = field
				violation.Case = c.Index
				violation.Inputs = c.Inputs.String()
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// expected returns the row's recorded outputs, filling gaps from the reference evaluator.
// A non-empty revert reason means the case must revert.
func (v *Verifier) expected(f *Formula, c Case, branch string) (Values, string) {
	if c.Status.Revert != "" {
		return nil, c.Status.Revert
	}

	missing := lo.Filter(f.Outputs, func(field string, _ int) bool {
		_, ok := c.Expected[field]
		return !ok
	})
	if len(missing) == 0 {
		return c.Expected, ""
	}

	ref, err := f.Reference(branch, c.Inputs)
	if err != nil {
		if reason, ok := RevertReason(err); ok {
			return nil, reason
		}
		v.log.Warn("reference evaluation failed", "formula", f.Name, "case", c.Index, "error", err)
		return nil, ""
	}

	merged := lo.Assign(map[string]Value(ref), map[string]Value(c.Expected))
	return merged, ""
}

func entryPoint(f *Formula, branch string) string {
	if branch == "" {
		return f.Name
	}
	return f.Name + lo.Capitalize(branch)
}

// SuiteOptions selects what RunSuite replays
type SuiteOptions struct {
	// Formulas restricts the run to the named formulas; empty means all
	Formulas []string
	// Sweeps adds the parameter grid of every selected formula
	Sweeps bool
	// Concurrency bounds the number of tables replayed at once
	Concurrency int
}

// RunSuite replays the selected tables and sweeps concurrently. Reports come back in a fixed
// order: tables as given, then sweeps in registry order.
func (v *Verifier) RunSuite(ctx context.Context, tables []*Table, opts SuiteOptions) ([]*Report, error) {
	selected := func(name string) bool {
		return len(opts.Formulas) == 0 || lo.Contains(opts.Formulas, name)
	}
	for _, name := range opts.Formulas {
		if _, err := Lookup(name); err != nil {
			return nil, err
		}
	}

	var jobs []func(context.Context) (*Report, error)
	for _, table := range tables {
		if selected(table.Formula.Name) {
			jobs = append(jobs, func(ctx context.Context) (*Report, error) { return v.VerifyTable(ctx, table) })
		}
	}
	if opts.Sweeps {
		for _, f := range formulas {
			if selected(f.Name) {
				jobs = append(jobs, func(ctx context.Context) (*Report, error) { return v.VerifySweep(ctx, f) })
			}
		}
	}

	reports := make([]*Report, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for i, job := range jobs {
		g.Go(func() error {
			report, err := job(gctx)
			reports[i] = report
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
