package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trebuchet-org/treb-amm/internal/formula"
)

// FormulaCalculatorFactory connects to a deployed formula harness
type FormulaCalculatorFactory interface {
	// Open returns a calculator backed by network and a function releasing its connection
	Open(ctx context.Context, network string) (formula.Calculator, func() error, error)
}

// VerifyFormulasParams contains parameters for a formula verification run
type VerifyFormulasParams struct {
	// Network selects the on-chain harness; empty uses the fixed-point port
	Network  string
	Formulas []string
	// Stress replays every row instead of the quick subset
	Stress    bool
	Sweeps    bool
	QuickRows int
	// TablesDir adds project tables to the bundled ones
	TablesDir string
	// TolerancesFile overrides built-in tolerances field by field
	TolerancesFile string
	Concurrency    int
}

// VerifyFormulasResult holds the per-table reports
type VerifyFormulasResult struct {
	Backend string
	Mode    formula.Mode
	Reports []*formula.Report
}

// Passed reports whether every case of every table passed
func (r *VerifyFormulasResult) Passed() bool {
	for _, report := range r.Reports {
		if !report.Passed() {
			return false
		}
	}
	return true
}

// VerifyFormulas replays formula tables against the fixed-point port or a deployed harness
type VerifyFormulas struct {
	calculators FormulaCalculatorFactory
	progress    ProgressSink
	log         *slog.Logger
}

// NewVerifyFormulas creates the use case
func NewVerifyFormulas(calculators FormulaCalculatorFactory, progress ProgressSink, log *slog.Logger) *VerifyFormulas {
	if progress == nil {
		progress = NopProgress{}
	}
	return &VerifyFormulas{calculators: calculators, progress: progress, log: log}
}

// Execute runs the suite
func (uc *VerifyFormulas) Execute(ctx context.Context, params VerifyFormulasParams) (*VerifyFormulasResult, error) {
	tables, err := formula.BundledTables()
	if err != nil {
		return nil, err
	}
	if params.TablesDir != "" {
		extra, err := formula.LoadTablesDir(params.TablesDir)
		if err != nil {
			return nil, err
		}
		tables = append(tables, extra...)
	}

	tolerances := formula.DefaultTolerances()
	if params.TolerancesFile != "" {
		if tolerances, err = formula.LoadTolerances(params.TolerancesFile); err != nil {
			return nil, err
		}
	}

	var calc formula.Calculator = formula.NewFixedPoint()
	backend := "fixed-point"
	if params.Network != "" {
		if uc.calculators == nil {
			return nil, fmt.Errorf("no formula harness backend available for %s", params.Network)
		}
		c, closeFn, err := uc.calculators.Open(ctx, params.Network)
		if err != nil {
			return nil, err
		}
		defer closeFn()
		calc, backend = c, "harness@"+params.Network
	}

	mode := formula.ModeQuick
	if params.Stress {
		mode = formula.ModeStress
	}
	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageFormula,
		Total:   len(tables),
		Message: fmt.Sprintf("Verifying formulas (%s, %s)", backend, mode),
		Spinner: true,
	})

	verifier := formula.NewVerifier(calc, tolerances, formula.DriverOptions{Mode: mode, QuickRows: params.QuickRows}, uc.log)
	reports, err := verifier.RunSuite(ctx, tables, formula.SuiteOptions{
		Formulas:    params.Formulas,
		Sweeps:      params.Sweeps,
		Concurrency: params.Concurrency,
	})
	if err != nil {
		return nil, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageCompleted, Current: len(reports), Total: len(reports), Message: "Formula verification complete"})
	return &VerifyFormulasResult{Backend: backend, Mode: mode, Reports: reports}, nil
}
