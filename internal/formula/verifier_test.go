package formula

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testMode() DriverOptions {
	if testing.Short() {
		return DriverOptions{Mode: ModeQuick, QuickRows: 10}
	}
	return DriverOptions{Mode: ModeStress}
}

func assertReportsPass(t *testing.T, reports []*Report) {
	t.Helper()
	for _, report := range reports {
		for _, failure := range report.Failures() {
			t.Errorf("%s case %d (%s): %v", report.Table, failure.Case.Index, failure.Case.Inputs, failure.Err)
		}
	}
}

func TestBundledTablesPass(t *testing.T) {
	tables, err := BundledTables()
	require.NoError(t, err)

	v := NewVerifier(NewFixedPoint(), DefaultTolerances(), DriverOptions{Mode: ModeStress}, nil)
	reports, err := v.RunSuite(context.Background(), tables, SuiteOptions{Concurrency: 4})
	require.NoError(t, err)
	require.Len(t, reports, len(tables))
	assertReportsPass(t, reports)

	for i, report := range reports {
		assert.Equal(t, tables[i].Name(), report.Table, "reports keep table order")
		assert.Len(t, report.Results, len(tables[i].Cases))
	}
}

func TestSweepsPass(t *testing.T) {
	v := NewVerifier(NewFixedPoint(), DefaultTolerances(), testMode(), nil)
	reports, err := v.RunSuite(context.Background(), nil, SuiteOptions{Sweeps: true})
	require.NoError(t, err)
	require.Len(t, reports, len(Formulas()))
	assertReportsPass(t, reports)
}

func TestRunSuiteFormulaFilter(t *testing.T) {
	tables, err := BundledTables()
	require.NoError(t, err)

	v := NewVerifier(NewFixedPoint(), DefaultTolerances(), DriverOptions{Mode: ModeQuick, QuickRows: 2}, nil)
	reports, err := v.RunSuite(context.Background(), tables, SuiteOptions{Formulas: []string{"withdrawalAmounts"}, Sweeps: true})
	require.NoError(t, err)

	var names []string
	for _, r := range reports {
		names = append(names, r.Table)
	}
	assert.Equal(t, []string{"withdrawalAmounts.deficit", "withdrawalAmounts.surplus", "withdrawalAmounts.sweep"}, names)

	_, err = v.RunSuite(context.Background(), tables, SuiteOptions{Formulas: []string{"bogus"}})
	assert.ErrorIs(t, err, ErrUnknownFormula)
}

// recordingCalculator remembers which withdrawal entry point served each request
type recordingCalculator struct {
	*FixedPoint
	mu    sync.Mutex
	calls map[string][]string
}

func newRecordingCalculator() *recordingCalculator {
	return &recordingCalculator{FixedPoint: NewFixedPoint(), calls: map[string][]string{}}
}

func (r *recordingCalculator) record(entry string, in WithdrawalInputs) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := in.TknVaultBalance.Dec() + "/" + in.TknExcessBalance.Dec() + "/" + in.TknStakedBalance.Dec()
	r.calls[key] = append(r.calls[key], entry)
}

func (r *recordingCalculator) WithdrawalAmountsSurplus(ctx context.Context, in WithdrawalInputs) (*WithdrawalAmounts, error) {
	r.record(BranchSurplus, in)
	return r.FixedPoint.WithdrawalAmountsSurplus(ctx, in)
}

func (r *recordingCalculator) WithdrawalAmountsDeficit(ctx context.Context, in WithdrawalInputs) (*WithdrawalAmounts, error) {
	r.record(BranchDeficit, in)
	return r.FixedPoint.WithdrawalAmountsDeficit(ctx, in)
}

func TestWithdrawalRouting(t *testing.T) {
	calc := newRecordingCalculator()
	v := NewVerifier(calc, DefaultTolerances(), DriverOptions{Mode: ModeStress}, nil)

	report, err := v.VerifySweep(context.Background(), withdrawalAmountsFormula)
	require.NoError(t, err)
	assertReportsPass(t, []*Report{report})

	for key, entries := range calc.calls {
		var b, c, e uint256.Int
		parts := splitKey(key)
		require.NoError(t, b.SetFromDecimal(parts[0]))
		require.NoError(t, c.SetFromDecimal(parts[1]))
		require.NoError(t, e.SetFromDecimal(parts[2]))

		want := BranchDeficit
		if !new(uint256.Int).Add(&b, &c).Lt(&e) {
			want = BranchSurplus
		}
		for _, got := range entries {
			assert.Equal(t, want, got, "pool %s", key)
		}
	}

	for _, res := range report.Results {
		want, err := withdrawalAmountsFormula.Branch(res.Case.Inputs)
		require.NoError(t, err)
		assert.Equal(t, want, res.Branch)
	}
}

func splitKey(key string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			parts = append(parts, key[start:i])
			start = i + 1
		}
	}
	return append(parts, key[start:])
}

func TestDeficitRowNeverComparedAgainstSurplus(t *testing.T) {
	row := Values{
		"a": num(1000), "b": num(600), "c": num(100), "e": num(1000),
		"w": num(0), "p": num(2000), "n": num(0), "x": num(10),
	}
	branch, err := withdrawalAmountsFormula.Branch(row)
	require.NoError(t, err)
	assert.Equal(t, BranchDeficit, branch)

	calc := newRecordingCalculator()
	table := &Table{Formula: withdrawalAmountsFormula, Scenario: "routing", Source: "routing", Cases: []Case{
		{Index: 0, Inputs: row, Expected: Values{}},
	}}
	report, err := NewVerifier(calc, DefaultTolerances(), DriverOptions{Mode: ModeStress}, nil).VerifyTable(context.Background(), table)
	require.NoError(t, err)
	assert.True(t, report.Passed())
	assert.Equal(t, map[string][]string{"600/100/1000": {BranchDeficit}}, calc.calls)

	// the surplus reference disagrees with the deficit result, so misrouting would be caught
	surplus, err := withdrawalAmountsFormula.Reference(BranchSurplus, row)
	require.NoError(t, err)
	deficit, err := withdrawalAmountsFormula.Actual(context.Background(), NewFixedPoint(), BranchDeficit, row)
	require.NoError(t, err)
	assert.Error(t, Compare(deficit["s"], surplus["s"], DefaultTolerances().For("withdrawalAmounts", "s")))
}

func TestVerifierReportsViolationsWithContext(t *testing.T) {
	table, err := ParseTable("flatRewards.wrong.json", []byte(`[
		{"totalRewards": "1000", "elapsed": "432000", "duration": "864000", "reward": "501", "exact": true},
		{"totalRewards": "1000", "elapsed": "1", "duration": "0", "revert": "InvalidParam"},
		{"totalRewards": "1000", "elapsed": "1", "duration": "10", "revert": "ZeroValue"},
		{"totalRewards": "1000", "elapsed": "1", "duration": "3", "reward": "333.3"}
	]`))
	require.NoError(t, err)

	report, err := NewVerifier(NewFixedPoint(), DefaultTolerances(), DriverOptions{Mode: ModeStress}, nil).VerifyTable(context.Background(), table)
	require.NoError(t, err)

	failures := report.Failures()
	require.Len(t, failures, 3, "the approximate row passes")

	var violation *ToleranceViolation
	require.True(t, errors.As(failures[0].Err, &violation))
	assert.Equal(t, "flatRewards", violation.Formula)
	assert.Equal(t, "reward", violation.Field)
	assert.Equal(t, 0, violation.Case)
	assert.Contains(t, violation.Inputs, "duration=864000")

	assert.ErrorIs(t, failures[1].Err, ErrZeroValue)
	assert.Contains(t, failures[2].Err.Error(), "call succeeded")
}

type revertingCalculator struct {
	*FixedPoint
}

func (revertingCalculator) FlatRewards(context.Context, *uint256.Int, *uint256.Int, *uint256.Int) (*uint256.Int, error) {
	return nil, NewRevert("Paused")
}

func TestVerifierSurfacesUnexpectedReverts(t *testing.T) {
	table := flatTable(1)
	report, err := NewVerifier(revertingCalculator{NewFixedPoint()}, DefaultTolerances(), DriverOptions{Mode: ModeStress}, nil).VerifyTable(context.Background(), table)
	require.NoError(t, err)

	require.Len(t, report.Failures(), 1)
	reason, ok := RevertReason(report.Failures()[0].Err)
	require.True(t, ok)
	assert.Equal(t, "Paused", reason)
}
