package usecase

import (
	"fmt"
	"sort"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// StepGraph is the validated, acyclic dependency graph of a migration.
// Edges are the declared dependencies followed by the artifacts a step references.
type StepGraph struct {
	steps []*domain.DeploymentStep
	index map[string]int
	edges map[string][]string
}

// NewStepGraph builds the graph once and rejects unknown dependencies, unknown
// templates and cycles before anything is executed
func NewStepGraph(migration *domain.Migration, templates *domain.TemplateRegistry) (*StepGraph, error) {
	if migration == nil || len(migration.Steps) == 0 {
		return nil, fmt.Errorf("migration declares no steps")
	}

	g := &StepGraph{
		steps: migration.Steps,
		index: make(map[string]int, len(migration.Steps)),
		edges: make(map[string][]string, len(migration.Steps)),
	}

	for i, step := range migration.Steps {
		if step.ID == "" {
			return nil, fmt.Errorf("step %d has no id", i)
		}
		if _, dup := g.index[step.ID]; dup {
			return nil, fmt.Errorf("%w: step %s is declared twice", domain.ErrAlreadyExists, step.ID)
		}
		g.index[step.ID] = i
	}

	for _, step := range migration.Steps {
		if err := validateTemplates(step, templates); err != nil {
			return nil, err
		}

		var edges []string
		for _, dep := range step.Deps {
			if dep == step.ID {
				return nil, fmt.Errorf("step %s cannot depend on itself", step.ID)
			}
			if _, ok := g.index[dep]; !ok {
				return nil, &domain.DependencyResolutionError{
					Step:        step.ID,
					Dependency:  dep,
					Suggestions: g.suggest(dep),
				}
			}
			edges = append(edges, dep)
		}
		for _, ref := range step.ArtifactRefs() {
			if ref == step.ID {
				continue
			}
			if _, ok := g.index[ref]; !ok {
				return nil, &domain.DependencyResolutionError{
					Step:        step.ID,
					Dependency:  ref,
					Suggestions: g.suggest(ref),
				}
			}
			edges = append(edges, ref)
		}
		g.edges[step.ID] = lo.Uniq(edges)
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, &domain.CycleError{Steps: cycle}
	}

	return g, nil
}

func validateTemplates(step *domain.DeploymentStep, templates *domain.TemplateRegistry) error {
	tmpl, err := templates.Lookup(step.Contract)
	if err != nil {
		return fmt.Errorf("step %s: %w", step.ID, err)
	}

	logical := tmpl
	if step.Proxy != nil {
		if tmpl.Kind != domain.KindProxy {
			return fmt.Errorf("step %s: proxy steps must deploy a proxy template, %s is %s", step.ID, tmpl.Name, tmpl.Kind)
		}
		if logical, err = templates.Lookup(step.Proxy.Contract); err != nil {
			return fmt.Errorf("step %s: %w", step.ID, err)
		}
	}

	for _, rt := range step.Roles {
		switch rt.Kind {
		case domain.TransitionHandoff, domain.TransitionGrant, domain.TransitionRevoke:
			if !logical.HasRoles() {
				return fmt.Errorf("step %s: %s has no roles", step.ID, logical.Name)
			}
			if !logical.Roles.Contains(rt.Role) {
				return fmt.Errorf("step %s: %w %s for %s", step.ID, domain.ErrUnknownRole, rt.Role, logical.Name)
			}
		case domain.TransitionTokenGovernance:
			if logical.Kind != domain.KindTokenGovernance {
				return fmt.Errorf("step %s: token-governance transition on %s template %s", step.ID, logical.Kind, logical.Name)
			}
		default:
			return fmt.Errorf("step %s: unknown role transition %q", step.ID, rt.Kind)
		}
	}
	return nil
}

// findCycle returns the steps of the first cycle found, in edge order
func (g *StepGraph) findCycle() []string {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(g.steps))
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		state[id] = visiting
		stack = append(stack, id)
		for _, dep := range g.edges[id] {
			switch state[dep] {
			case visiting:
				start := lo.IndexOf(stack, dep)
				cycle = append(append([]string{}, stack[start:]...), dep)
				return true
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return false
	}

	for _, step := range g.steps {
		if state[step.ID] == unvisited && visit(step.ID) {
			return cycle
		}
	}
	return nil
}

func (g *StepGraph) suggest(name string) []string {
	ids := lo.Map(g.steps, func(s *domain.DeploymentStep, _ int) string { return s.ID })
	var out []string
	for _, m := range fuzzy.Find(name, ids) {
		out = append(out, m.Str)
	}
	for _, id := range ids {
		if len(fuzzy.Find(id, []string{name})) > 0 {
			out = append(out, id)
		}
	}
	out = lo.Uniq(out)
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

// Steps returns the steps in declaration order
func (g *StepGraph) Steps() []*domain.DeploymentStep {
	return g.steps
}

// Lookup returns the step declared under id
func (g *StepGraph) Lookup(id string) (*domain.DeploymentStep, error) {
	i, ok := g.index[id]
	if !ok {
		if suggestions := g.suggest(id); len(suggestions) > 0 {
			return nil, fmt.Errorf("%w: step %s (did you mean %v?)", domain.ErrNotFound, id, suggestions)
		}
		return nil, fmt.Errorf("%w: step %s", domain.ErrNotFound, id)
	}
	return g.steps[i], nil
}

// Dependencies returns the identities id must run after, declared first
func (g *StepGraph) Dependencies(id string) []string {
	return g.edges[id]
}

// Closure returns ids and everything they depend on in execution order:
// dependencies before dependents, siblings in declaration order
func (g *StepGraph) Closure(ids ...string) ([]*domain.DeploymentStep, error) {
	seen := make(map[string]bool, len(g.steps))
	var order []*domain.DeploymentStep

	var visit func(id string)
	visit = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		for _, dep := range g.edges[id] {
			visit(dep)
		}
		order = append(order, g.steps[g.index[id]])
	}

	for _, id := range ids {
		if _, err := g.Lookup(id); err != nil {
			return nil, err
		}
		visit(id)
	}
	return order, nil
}

// Order returns every step in execution order
func (g *StepGraph) Order() []*domain.DeploymentStep {
	order, _ := g.Closure(lo.Map(g.steps, func(s *domain.DeploymentStep, _ int) string { return s.ID })...)
	return order
}

// TaggedSteps returns the steps carrying tag in declaration order
func (g *StepGraph) TaggedSteps(tag string) []*domain.DeploymentStep {
	return lo.Filter(g.steps, func(s *domain.DeploymentStep, _ int) bool { return s.HasTag(tag) })
}

// TagClosure returns the execution order of every step reachable from the steps tagged tag
func (g *StepGraph) TagClosure(tag string) ([]*domain.DeploymentStep, error) {
	roots := g.TaggedSteps(tag)
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no steps tagged %q (known tags: %v)", domain.ErrNotFound, tag, g.Tags())
	}
	return g.Closure(lo.Map(roots, func(s *domain.DeploymentStep, _ int) string { return s.ID })...)
}

// Tags returns every tag used in the migration, sorted
func (g *StepGraph) Tags() []string {
	tags := lo.Uniq(lo.FlatMap(g.steps, func(s *domain.DeploymentStep, _ int) []string { return s.Tags }))
	sort.Strings(tags)
	return tags
}
