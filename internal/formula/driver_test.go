package formula

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatTable(n int) *Table {
	table := &Table{Formula: flatRewardsFormula, Scenario: "generated", Source: "generated"}
	for i := 0; i < n; i++ {
		table.Cases = append(table.Cases, Case{
			Index:    i,
			Inputs:   Values{"totalRewards": num(1000), "elapsed": num(int64(i)), "duration": num(int64(n))},
			Expected: Values{},
		})
	}
	return table
}

func TestForEachCaseModes(t *testing.T) {
	ctx := context.Background()
	table := flatTable(40)
	count := func(context.Context, Case, string) error { return nil }
	predicate := func(Case) (string, error) { return "", nil }

	tests := []struct {
		name string
		opts DriverOptions
		want int
	}{
		{name: "quick default", opts: DriverOptions{Mode: ModeQuick}, want: DefaultQuickRows},
		{name: "quick configured", opts: DriverOptions{Mode: ModeQuick, QuickRows: 5}, want: 5},
		{name: "quick larger than table", opts: DriverOptions{Mode: ModeQuick, QuickRows: 100}, want: 40},
		{name: "stress", opts: DriverOptions{Mode: ModeStress, QuickRows: 5}, want: 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := ForEachCase(ctx, table, predicate, count, count, tt.opts)
			require.NoError(t, err)
			assert.Len(t, report.Results, tt.want)
			assert.Equal(t, 40, report.Rows)
			for i, res := range report.Results {
				assert.Equal(t, i, res.Case.Index, "quick mode keeps the first rows")
			}
		})
	}
}

func TestForEachCaseDispatch(t *testing.T) {
	ctx := context.Background()
	table := flatTable(4)
	table.Cases[1].Status.Exact = true
	table.Cases[2].Status.Revert = "ZeroValue"
	table.Cases[3].Status.Branch = "surplus"

	var exactRows, approxRows []int
	exact := func(_ context.Context, c Case, _ string) error {
		exactRows = append(exactRows, c.Index)
		return nil
	}
	approx := func(_ context.Context, c Case, _ string) error {
		approxRows = append(approxRows, c.Index)
		return errors.New("boom")
	}
	predicate := func(Case) (string, error) { return "", nil }

	report, err := ForEachCase(ctx, table, predicate, exact, approx, DriverOptions{Mode: ModeStress})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, exactRows)
	assert.Equal(t, []int{0}, approxRows, "the branch mismatch row never reaches a handler")

	failures := report.Failures()
	require.Len(t, failures, 2, "a failing case does not stop the table")
	assert.Equal(t, 0, failures[0].Case.Index)
	assert.ErrorIs(t, failures[1].Err, ErrBranchMismatch)
	assert.False(t, report.Passed())
}

func TestForEachCaseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok := func(context.Context, Case, string) error { return nil }
	report, err := ForEachCase(ctx, flatTable(3), func(Case) (string, error) { return "", nil }, ok, ok, DriverOptions{Mode: ModeStress})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Results)
}
