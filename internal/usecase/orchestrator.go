package usecase

import (
	"log/slog"
	"time"

	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// OrchestratorDeps are the environment-independent collaborators of an orchestration run
type OrchestratorDeps struct {
	Templates *domain.TemplateRegistry
	Artifacts ContractArtifacts
	Encoder   ArgEncoder
	Decoder   RevertDecoder
	History   HistoryStore
	Progress  ProgressSink
	Log       *slog.Logger
	Clock     func() time.Time
}

// Orchestrator wires the step executor, role engine and tag runner to one environment
type Orchestrator struct {
	Env      *Environment
	Graph    *StepGraph
	Selector *ModeSelector
	Handles  *HandleFactory
	Roles    *RoleEngine
	Executor *StepExecutor
	Runner   *TagRunner
	History  *HistoryRecorder
	Tx       *Transactor
}

// NewOrchestrator binds deps to env
func NewOrchestrator(env *Environment, graph *StepGraph, deps OrchestratorDeps) *Orchestrator {
	if deps.Progress == nil {
		deps.Progress = NopProgress{}
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	log := deps.Log.With("network", env.Network, "mode", string(env.Mode))

	selector := NewModeSelector(env)
	history := NewHistoryRecorder(deps.History)
	if env.Ephemeral {
		history = NewHistoryRecorder(nil)
	}
	tx := NewTransactor(env.Client, deps.Decoder, history, deps.Progress, log)
	handles := NewHandleFactory(deps.Templates, env.Client)
	roles := NewRoleEngine(handles, tx, selector, log)

	executor := &StepExecutor{
		graph:     graph,
		templates: deps.Templates,
		env:       env,
		selector:  selector,
		artifacts: deps.Artifacts,
		encoder:   deps.Encoder,
		tx:        tx,
		roles:     roles,
		progress:  deps.Progress,
		log:       log,
		now:       deps.Clock,
	}

	return &Orchestrator{
		Env:      env,
		Graph:    graph,
		Selector: selector,
		Handles:  handles,
		Roles:    roles,
		Executor: executor,
		Runner:   NewTagRunner(graph, executor, env, selector, deps.Progress, deps.Clock, log),
		History:  history,
		Tx:       tx,
	}
}

// NewSession starts a history session on the orchestrator's network
func (o *Orchestrator) NewSession() *domain.Session {
	return domain.NewSession(o.Env.Network, o.Env.Mode, o.Runner.now())
}
