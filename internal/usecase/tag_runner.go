package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// TagRunner executes the dependency closure of a tag
type TagRunner struct {
	graph    *StepGraph
	executor *StepExecutor
	env      *Environment
	selector *ModeSelector
	progress ProgressSink
	now      func() time.Time
	log      *slog.Logger
}

// NewTagRunner creates a tag runner
func NewTagRunner(graph *StepGraph, executor *StepExecutor, env *Environment, selector *ModeSelector, progress ProgressSink, now func() time.Time, log *slog.Logger) *TagRunner {
	return &TagRunner{
		graph:    graph,
		executor: executor,
		env:      env,
		selector: selector,
		progress: progress,
		now:      now,
		log:      log,
	}
}

// RunTagParams selects the tag closure to run
type RunTagParams struct {
	Tag string
	// Reset deletes every persisted artifact first; refused on production networks
	Reset bool
	// Session groups history entries; a new session is started when nil
	Session *domain.Session
}

// RunTagResult holds the outcome of a tag run
type RunTagResult struct {
	Session *domain.Session
	// Steps is the executed closure in execution order
	Steps   []*domain.DeploymentStep
	Records map[string]*domain.ArtifactRecord
	Skipped []string
}

// Plan returns the closure RunTag would execute, without touching the chain
func (r *TagRunner) Plan(tag string) ([]*domain.DeploymentStep, error) {
	return r.graph.TagClosure(tag)
}

// RunTag executes every step reachable from the steps tagged params.Tag in dependency order
func (r *TagRunner) RunTag(ctx context.Context, params RunTagParams) (*RunTagResult, error) {
	steps, err := r.graph.TagClosure(params.Tag)
	if err != nil {
		return nil, err
	}

	if params.Reset {
		if err := r.selector.RequireTestEffects("artifact reset"); err != nil {
			return nil, err
		}
		if err := r.env.Store.Reset(ctx); err != nil {
			return nil, fmt.Errorf("failed to reset artifacts on %s: %w", r.env.Network, err)
		}
		r.log.Info("artifacts reset", "tag", params.Tag)
	}

	session := params.Session
	if session == nil {
		session = domain.NewSession(r.env.Network, r.env.Mode, r.now())
	}

	r.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StagePlan,
		Total:   len(steps),
		Message: fmt.Sprintf("Running tag %s: %d steps on %s", params.Tag, len(steps), r.env.Network),
		Metadata: lo.Map(steps, func(s *domain.DeploymentStep, _ int) string {
			return s.ID
		}),
	})

	result := &RunTagResult{
		Session: session,
		Steps:   steps,
		Records: make(map[string]*domain.ArtifactRecord, len(steps)),
	}
	for i, step := range steps {
		r.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageStep,
			Current: i + 1,
			Total:   len(steps),
			Message: step.ID,
		})
		rec, err := r.executor.Run(ctx, session, step.ID)
		if err != nil {
			return result, err
		}
		result.Records[step.ID] = rec
		if rec.Skipped {
			result.Skipped = append(result.Skipped, step.ID)
		}
	}

	r.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageCompleted,
		Current: len(steps),
		Total:   len(steps),
		Message: fmt.Sprintf("Tag %s complete", params.Tag),
	})
	return result, nil
}
