package usecase

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// StepExecutor runs migration steps idempotently against one environment
type StepExecutor struct {
	graph     *StepGraph
	templates *domain.TemplateRegistry
	env       *Environment
	selector  *ModeSelector
	artifacts ContractArtifacts
	encoder   ArgEncoder
	tx        *Transactor
	roles     *RoleEngine
	progress  ProgressSink
	log       *slog.Logger
	now       func() time.Time
}

// Run makes identity exist on the environment's network. A persisted identity is returned as is;
// otherwise its dependencies run first, then the mode selector decides how the step is satisfied.
// Steps the network skips yield domain.SkippedRecord.
func (x *StepExecutor) Run(ctx context.Context, session *domain.Session, identity string) (*domain.ArtifactRecord, error) {
	return x.run(ctx, session, identity, map[string]*domain.ArtifactRecord{})
}

func (x *StepExecutor) run(ctx context.Context, session *domain.Session, identity string, done map[string]*domain.ArtifactRecord) (*domain.ArtifactRecord, error) {
	if rec, ok := done[identity]; ok {
		return rec, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	step, err := x.graph.Lookup(identity)
	if err != nil {
		return nil, err
	}

	rec, err := x.env.Store.Get(ctx, identity)
	switch {
	case err == nil && rec.Configured:
		x.decided(ctx, identity, "exists", rec.Address.Hex())
		done[identity] = rec
		return rec, nil
	case err == nil:
		x.log.Warn("resuming configuration of a partially configured artifact", "identity", identity)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("failed to read artifact %s: %w", identity, err)
	}

	for _, dep := range x.graph.Dependencies(identity) {
		if _, err := x.run(ctx, session, dep, done); err != nil {
			return nil, err
		}
	}

	if rec != nil {
		rec, err = x.configure(ctx, session, step, rec)
		if err != nil {
			return nil, err
		}
		done[identity] = rec
		return rec, nil
	}

	decision, err := x.selector.Decide(ctx, step)
	if err != nil {
		return nil, err
	}
	x.decided(ctx, identity, string(decision.Action), decision.Reason)

	switch decision.Action {
	case ActionSkip:
		rec = domain.SkippedRecord(step.ID, step.Contract)
	case ActionReuse:
		copied := *decision.Record
		rec = &copied
		if err := x.env.Store.Put(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to record reused artifact %s: %w", identity, err)
		}
	case ActionAttach:
		if rec, err = x.attach(ctx, step, decision.Address); err != nil {
			return nil, err
		}
	default:
		if rec, err = x.deploy(ctx, session, step); err != nil {
			return nil, err
		}
		if rec, err = x.configure(ctx, session, step, rec); err != nil {
			return nil, err
		}
	}

	done[identity] = rec
	return rec, nil
}

func (x *StepExecutor) decided(ctx context.Context, identity, action, reason string) {
	x.log.Debug("step decision", "identity", identity, "action", action, "reason", reason)
	x.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageDecision,
		Message:  fmt.Sprintf("%s: %s", identity, action),
		Metadata: reason,
	})
}

func logicalContract(step *domain.DeploymentStep) string {
	if step.Proxy != nil {
		return step.Proxy.Contract
	}
	return step.Contract
}

func (x *StepExecutor) attach(ctx context.Context, step *domain.DeploymentStep, addr common.Address) (*domain.ArtifactRecord, error) {
	rec := &domain.ArtifactRecord{
		Identity:     step.ID,
		Address:      addr,
		TemplateName: logicalContract(step),
		DeployedAt:   x.now().UTC().Truncate(time.Second),
		Configured:   true,
	}
	if art, err := x.artifacts.Artifact(ctx, rec.TemplateName); err == nil {
		rec.ABI = art.RawABI
	}
	if err := x.env.Store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to record attached artifact %s: %w", step.ID, err)
	}
	return rec, nil
}

// deploy creates the step's contract (implementation and proxy for proxy steps) and persists
// the record before any configuration runs
func (x *StepExecutor) deploy(ctx context.Context, session *domain.Session, step *domain.DeploymentStep) (*domain.ArtifactRecord, error) {
	sender, err := x.env.Client.Account(ctx, step.Sender())
	if err != nil {
		return nil, fmt.Errorf("step %s: %w", step.ID, err)
	}
	args, err := x.resolveArgs(ctx, step.ID, step.Args)
	if err != nil {
		return nil, err
	}

	var rec *domain.ArtifactRecord
	if step.Proxy == nil {
		art, d, err := x.create(ctx, session, step.ID, step.Contract, sender, args)
		if err != nil {
			return nil, err
		}
		rec = x.newRecord(step.ID, step.Contract, d, art)
	} else {
		impl, err := x.implementation(ctx, session, step, sender, args)
		if err != nil {
			return nil, err
		}
		implArt, err := x.artifacts.Artifact(ctx, step.Proxy.Contract)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", step.ID, err)
		}

		admin, err := x.resolveAddress(ctx, step.ID, step.Proxy.Admin)
		if err != nil {
			return nil, err
		}
		var initData []byte
		if init := step.Proxy.Init; init != nil {
			initArgs, err := x.resolveArgs(ctx, step.ID, init.Args)
			if err != nil {
				return nil, err
			}
			if initData, err = x.encoder.EncodeCall(implArt.ABI, init.Method, initArgs); err != nil {
				return nil, fmt.Errorf("step %s: encode %s: %w", step.ID, init.Method, err)
			}
		}

		proxyArgs := []string{impl.Address.Hex(), admin.Hex(), "0x" + hex.EncodeToString(initData)}
		_, d, err := x.create(ctx, session, step.ID, step.Contract, sender, proxyArgs)
		if err != nil {
			return nil, err
		}
		rec = x.newRecord(step.ID, step.Proxy.Contract, d, implArt)
		rec.Implementation = &impl.Address
	}

	if err := x.env.Store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to record artifact %s: %w", step.ID, err)
	}
	return rec, nil
}

// implementation returns the proxy step's implementation, deploying it unless already recorded
func (x *StepExecutor) implementation(ctx context.Context, session *domain.Session, step *domain.DeploymentStep, sender common.Address, args []string) (*domain.ArtifactRecord, error) {
	identity := domain.ImplementationIdentity(step.ID)
	rec, err := x.env.Store.Get(ctx, identity)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to read artifact %s: %w", identity, err)
	}

	art, d, err := x.create(ctx, session, identity, step.Proxy.Contract, sender, args)
	if err != nil {
		return nil, err
	}
	rec = x.newRecord(identity, step.Proxy.Contract, d, art)
	rec.Configured = true
	if err := x.env.Store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to record artifact %s: %w", identity, err)
	}
	return rec, nil
}

func (x *StepExecutor) newRecord(identity, template string, d *Deployment, art *ContractArtifact) *domain.ArtifactRecord {
	hash := d.TxHash
	rec := &domain.ArtifactRecord{
		Identity:     identity,
		Address:      d.Address,
		TemplateName: template,
		DeployTxHash: &hash,
		DeployedAt:   x.now().UTC().Truncate(time.Second),
		ABI:          art.RawABI,
	}
	if d.Receipt != nil && d.Receipt.BlockNumber != nil {
		rec.BlockNumber = d.Receipt.BlockNumber.Uint64()
	}
	return rec
}

func (x *StepExecutor) create(ctx context.Context, session *domain.Session, identity, template string, sender common.Address, args []string) (*ContractArtifact, *Deployment, error) {
	tmpl, err := x.templates.Lookup(template)
	if err != nil {
		return nil, nil, fmt.Errorf("step %s: %w", identity, err)
	}
	art, err := x.artifacts.Artifact(ctx, template)
	if err != nil {
		return nil, nil, fmt.Errorf("step %s: %w", identity, err)
	}
	encoded, err := x.encoder.EncodeConstructor(art.ABI, args)
	if err != nil {
		return nil, nil, fmt.Errorf("step %s: encode %s constructor: %w", identity, template, err)
	}
	params, err := x.encoder.FormatArgs(art.ABI, encoded)
	if err != nil {
		params = args
	}

	d, err := x.tx.Deploy(ctx, session, identity, DeployRequest{
		From:            sender,
		Template:        tmpl,
		ABI:             art.ABI,
		Bytecode:        art.Bytecode,
		ConstructorArgs: encoded,
	}, params)
	if err != nil {
		return nil, nil, err
	}
	return art, d, nil
}

// configure runs setup calls and role transitions, then marks the record configured
func (x *StepExecutor) configure(ctx context.Context, session *domain.Session, step *domain.DeploymentStep, rec *domain.ArtifactRecord) (*domain.ArtifactRecord, error) {
	for _, call := range step.Setup {
		if call.TestOnly && !x.selector.AllowsTestEffects() {
			x.log.Info("test-only call skipped", "identity", step.ID, "method", call.Method)
			continue
		}
		if err := x.setupCall(ctx, session, step, rec, call); err != nil {
			return nil, err
		}
	}

	for _, rt := range step.Roles {
		if rt.TestOnly && !x.selector.AllowsTestEffects() {
			x.log.Info("test-only role transition skipped", "identity", step.ID, "kind", rt.Kind, "role", rt.Role)
			continue
		}
		if err := x.transition(ctx, session, step, rec, rt); err != nil {
			return nil, err
		}
	}

	rec.Configured = true
	if err := x.env.Store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to record artifact %s: %w", step.ID, err)
	}
	return rec, nil
}

func (x *StepExecutor) setupCall(ctx context.Context, session *domain.Session, step *domain.DeploymentStep, rec *domain.ArtifactRecord, call domain.CallConfig) error {
	target := rec
	if call.Target != "" {
		ref := domain.ParseRef(call.Target)
		if ref.Kind != domain.RefArtifact {
			return fmt.Errorf("step %s: call target %q must reference an artifact", step.ID, call.Target)
		}
		t, err := x.recorded(ctx, step.ID, ref.Name)
		if err != nil {
			return err
		}
		target = t
	}

	contract, err := x.abiOf(ctx, target)
	if err != nil {
		return fmt.Errorf("step %s: %w", step.ID, err)
	}
	args, err := x.resolveArgs(ctx, step.ID, call.Args)
	if err != nil {
		return err
	}
	data, err := x.encoder.EncodeCall(contract, call.Method, args)
	if err != nil {
		return fmt.Errorf("step %s: encode %s: %w", step.ID, call.Method, err)
	}
	from, err := x.resolveAccount(ctx, step.ID, lo.Ternary(call.From != "", call.From, step.Sender()))
	if err != nil {
		return err
	}

	desc := call.Description
	if desc == "" {
		desc = fmt.Sprintf("%s.%s(%s)", target.Identity, call.Method, strings.Join(args, ", "))
	}
	_, err = x.tx.Execute(ctx, session, step.ID, CallRequest{From: from, To: target.Address, Data: data}, desc, contract)
	return err
}

func (x *StepExecutor) transition(ctx context.Context, session *domain.Session, step *domain.DeploymentStep, rec *domain.ArtifactRecord, rt domain.RoleTransitionConfig) error {
	account := func(raw, fallback string) (common.Address, error) {
		if raw == "" {
			raw = fallback
		}
		return x.resolveAccount(ctx, step.ID, raw)
	}

	switch rt.Kind {
	case domain.TransitionHandoff:
		from, err := account(rt.From, step.Sender())
		if err != nil {
			return err
		}
		to, err := account(rt.To, "")
		if err != nil {
			return err
		}
		by, err := account(rt.By, lo.Ternary(rt.From != "", rt.From, step.Sender()))
		if err != nil {
			return err
		}
		return x.roles.Transfer(ctx, session, rec, rt.Role, from, to, by)

	case domain.TransitionGrant:
		to, err := account(rt.To, "")
		if err != nil {
			return err
		}
		by, err := account(rt.By, step.Sender())
		if err != nil {
			return err
		}
		return x.roles.Grant(ctx, session, rec, rt.Role, to, by)

	case domain.TransitionRevoke:
		from, err := account(rt.From, step.Sender())
		if err != nil {
			return err
		}
		by, err := account(rt.By, step.Sender())
		if err != nil {
			return err
		}
		return x.roles.Revoke(ctx, session, rec, rt.Role, from, by)

	case domain.TransitionTokenGovernance:
		deployer, err := account("", step.Sender())
		if err != nil {
			return err
		}
		foundation, err := account(rt.Foundation, "")
		if err != nil {
			return err
		}
		governor, err := account(rt.Governor, step.Sender())
		if err != nil {
			return err
		}
		var supply *big.Int
		if rt.TestSupply != "" {
			var ok bool
			if supply, ok = new(big.Int).SetString(rt.TestSupply, 0); !ok || supply.Sign() < 0 {
				return fmt.Errorf("step %s: invalid test supply %q", step.ID, rt.TestSupply)
			}
		}
		return x.roles.TokenGovernanceSequence(ctx, session, rec, TokenGovernanceParams{
			Deployer:     deployer,
			Foundation:   foundation,
			Governor:     governor,
			TestSupply:   supply,
			RetainMinter: rt.RetainMinter,
		})
	}
	return fmt.Errorf("step %s: unknown role transition %q", step.ID, rt.Kind)
}

// recorded returns the persisted artifact a step references
func (x *StepExecutor) recorded(ctx context.Context, stepID, identity string) (*domain.ArtifactRecord, error) {
	rec, err := x.env.Store.Get(ctx, identity)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("step %s: artifact %s is not deployed on %s (skipped on this network?): %w",
			stepID, identity, x.env.Network, err)
	}
	if err != nil {
		return nil, fmt.Errorf("step %s: failed to read artifact %s: %w", stepID, identity, err)
	}
	return rec, nil
}

// resolveArgs expands ${artifact:X}, ${account:X} and ${role:X} references
func (x *StepExecutor) resolveArgs(ctx context.Context, stepID string, args []string) ([]string, error) {
	out := make([]string, len(args))
	for i, arg := range args {
		v, err := domain.ExpandRefs(arg, func(ref domain.Ref) (string, error) {
			switch ref.Kind {
			case domain.RefArtifact:
				rec, err := x.recorded(ctx, stepID, ref.Name)
				if err != nil {
					return "", err
				}
				return rec.Address.Hex(), nil
			case domain.RefAccount:
				addr, err := x.env.Client.Account(ctx, ref.Name)
				if err != nil {
					return "", fmt.Errorf("step %s: %w", stepID, err)
				}
				return addr.Hex(), nil
			case domain.RefRole:
				return domain.RoleID(ref.Name).Hex(), nil
			}
			return ref.Raw, nil
		})
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (x *StepExecutor) resolveAddress(ctx context.Context, stepID, raw string) (common.Address, error) {
	vals, err := x.resolveArgs(ctx, stepID, []string{raw})
	if err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(vals[0]) {
		return common.Address{}, fmt.Errorf("step %s: %q: %w", stepID, raw, domain.ErrInvalidAddress)
	}
	return common.HexToAddress(vals[0]), nil
}

// resolveAccount accepts a reference, a hex address or a bare account name
func (x *StepExecutor) resolveAccount(ctx context.Context, stepID, raw string) (common.Address, error) {
	if raw == "" {
		return common.Address{}, fmt.Errorf("step %s: missing account", stepID)
	}
	if strings.Contains(raw, "${") || common.IsHexAddress(raw) {
		return x.resolveAddress(ctx, stepID, raw)
	}
	addr, err := x.env.Client.Account(ctx, raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("step %s: %w", stepID, err)
	}
	return addr, nil
}

// abiOf returns the ABI recorded with rec, falling back to the compiled template
func (x *StepExecutor) abiOf(ctx context.Context, rec *domain.ArtifactRecord) (*abi.ABI, error) {
	art, err := x.artifacts.Artifact(ctx, rec.TemplateName)
	if err == nil {
		return art.ABI, nil
	}
	if len(rec.ABI) == 0 {
		return nil, err
	}
	parsed, perr := abi.JSON(strings.NewReader(string(rec.ABI)))
	if perr != nil {
		return nil, fmt.Errorf("%s: parse recorded ABI: %w", rec.Identity, perr)
	}
	return &parsed, nil
}
