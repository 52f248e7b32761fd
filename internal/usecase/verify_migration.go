package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// VerificationCheck is one assertion about the post-migration state
type VerificationCheck struct {
	Identity string
	Check    string
	Expected string
	Actual   string
	Passed   bool
}

// VerificationReport collects every check of a verification run
type VerificationReport struct {
	Network string
	Mode    domain.NetworkMode
	Checks  []VerificationCheck
}

// Passed reports whether every check passed
func (r *VerificationReport) Passed() bool {
	return len(r.Failures()) == 0
}

// Failures returns the failed checks
func (r *VerificationReport) Failures() []VerificationCheck {
	return lo.Filter(r.Checks, func(c VerificationCheck, _ int) bool { return !c.Passed })
}

func (r *VerificationReport) add(identity, check, expected, actual string, passed bool) {
	r.Checks = append(r.Checks, VerificationCheck{
		Identity: identity,
		Check:    check,
		Expected: expected,
		Actual:   actual,
		Passed:   passed,
	})
}

// Verify checks the recorded state of steps against their expect blocks and asserts that no
// sender kept an elevated role it was not allowed to retain. Read errors abort; mismatches are
// collected into the report.
func (o *Orchestrator) Verify(ctx context.Context, steps ...*domain.DeploymentStep) (*VerificationReport, error) {
	if len(steps) == 0 {
		steps = o.Graph.Order()
	}
	report := &VerificationReport{Network: o.Env.Network, Mode: o.Env.Mode}

	for _, step := range steps {
		o.Executor.progress.OnProgress(ctx, ProgressEvent{Stage: StageVerifying, Message: step.ID})

		decision, err := o.Selector.Decide(ctx, step)
		if err != nil {
			return nil, err
		}
		if decision.Action == ActionSkip {
			continue
		}

		rec, err := o.Env.Store.Get(ctx, step.ID)
		if errors.Is(err, domain.ErrNotFound) {
			report.add(step.ID, "recorded", "artifact", "missing", false)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read artifact %s: %w", step.ID, err)
		}
		report.add(step.ID, "configured", "true", fmt.Sprint(rec.Configured), rec.Configured)

		if err := o.verifyResidualRoles(ctx, report, step, rec); err != nil {
			return nil, err
		}
		if step.Expect == nil {
			continue
		}
		if err := o.verifyRoles(ctx, report, step, rec); err != nil {
			return nil, err
		}
		if err := o.verifyViews(ctx, report, step, rec); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func (o *Orchestrator) verifyRoles(ctx context.Context, report *VerificationReport, step *domain.DeploymentStep, rec *domain.ArtifactRecord) error {
	if len(step.Expect.Roles) == 0 {
		return nil
	}
	h, err := o.Handles.Roles(rec)
	if err != nil {
		return err
	}

	roles := lo.Keys(step.Expect.Roles)
	sort.Strings(roles)
	for _, role := range roles {
		var want []common.Address
		for _, holder := range step.Expect.Roles[role] {
			addr, err := o.Executor.resolveAccount(ctx, step.ID, holder)
			if err != nil {
				return err
			}
			want = append(want, addr)
		}
		got, err := h.Members(ctx, role)
		if err != nil {
			return err
		}
		expected, actual := addressSet(want), addressSet(got)
		report.add(step.ID, "role "+role, expected, actual, expected == actual)
	}
	return nil
}

func (o *Orchestrator) verifyViews(ctx context.Context, report *VerificationReport, step *domain.DeploymentStep, rec *domain.ArtifactRecord) error {
	if len(step.Expect.Addresses) == 0 && len(step.Expect.Values) == 0 {
		return nil
	}
	contract, err := o.Executor.abiOf(ctx, rec)
	if err != nil {
		return fmt.Errorf("%s: %w", step.ID, err)
	}

	read := func(method string) (interface{}, error) {
		data, err := contract.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("%s: pack %s: %w", step.ID, method, err)
		}
		out, err := o.Env.Client.Call(ctx, rec.Address, data)
		if err != nil {
			return nil, fmt.Errorf("%s: call %s: %w", step.ID, method, err)
		}
		values, err := contract.Unpack(method, out)
		if err != nil {
			return nil, fmt.Errorf("%s: unpack %s: %w", step.ID, method, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("%s: %s returns nothing", step.ID, method)
		}
		return values[0], nil
	}

	methods := lo.Keys(step.Expect.Addresses)
	sort.Strings(methods)
	for _, method := range methods {
		want, err := o.Executor.resolveAccount(ctx, step.ID, step.Expect.Addresses[method])
		if err != nil {
			return err
		}
		v, err := read(method)
		if err != nil {
			return err
		}
		got, ok := v.(common.Address)
		if !ok {
			return fmt.Errorf("%s: %s does not return an address", step.ID, method)
		}
		report.add(step.ID, method+"()", want.Hex(), got.Hex(), want == got)
	}

	methods = lo.Keys(step.Expect.Values)
	sort.Strings(methods)
	for _, method := range methods {
		want := step.Expect.Values[method]
		v, err := read(method)
		if err != nil {
			return err
		}
		actual := fmt.Sprint(v)
		passed := actual == want
		if n, ok := v.(*big.Int); ok {
			if w, ok := new(big.Int).SetString(want, 0); ok {
				passed = n.Cmp(w) == 0
			}
		}
		report.add(step.ID, method+"()", want, actual, passed)
	}
	return nil
}

// verifyResidualRoles fails for every role the step's sender still holds, except roles the
// migration retains for test networks
func (o *Orchestrator) verifyResidualRoles(ctx context.Context, report *VerificationReport, step *domain.DeploymentStep, rec *domain.ArtifactRecord) error {
	if rec.Attached() {
		return nil
	}
	h, err := o.Handles.Roles(rec)
	if err != nil {
		return nil
	}
	sender, err := o.Env.Client.Account(ctx, step.Sender())
	if err != nil {
		return err
	}

	var retained []string
	if step.Expect != nil {
		retained = append(retained, step.Expect.Retained...)
		if o.Selector.AllowsTestEffects() {
			retained = append(retained, step.Expect.TestRetained...)
		}
	}

	var residual []string
	for _, role := range h.Space().Roles() {
		held, err := h.HasRole(ctx, role, sender)
		if err != nil {
			return err
		}
		if held && !lo.Contains(retained, role) {
			residual = append(residual, role)
		}
	}
	actual := "none"
	if len(residual) > 0 {
		actual = strings.Join(residual, ", ")
	}
	report.add(step.ID, "residual roles of "+step.Sender(), "none", actual, len(residual) == 0)
	return nil
}

func addressSet(addrs []common.Address) string {
	hexes := lo.Uniq(lo.Map(addrs, func(a common.Address, _ int) string { return a.Hex() }))
	sort.Strings(hexes)
	return "{" + strings.Join(hexes, ", ") + "}"
}

// VerifyMigrationParams selects what to verify
type VerifyMigrationParams struct {
	Network string
	// Tag restricts verification to a tag closure
	Tag string
}

// VerifyMigration checks the post-migration state of a network
type VerifyMigration struct {
	workspace *Workspace
}

// NewVerifyMigration creates the use case
func NewVerifyMigration(workspace *Workspace) *VerifyMigration {
	return &VerifyMigration{workspace: workspace}
}

// Execute runs the checks
func (uc *VerifyMigration) Execute(ctx context.Context, params VerifyMigrationParams) (*VerificationReport, error) {
	o, err := uc.workspace.Open(ctx, params.Network)
	if err != nil {
		return nil, err
	}
	defer o.Env.Shutdown()

	var steps []*domain.DeploymentStep
	if params.Tag != "" {
		if steps, err = o.Graph.TagClosure(params.Tag); err != nil {
			return nil, err
		}
	}
	return o.Verify(ctx, steps...)
}
