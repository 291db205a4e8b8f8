package rules

import (
	stderrors "errors"
	"sort"

	"github.com/arthur-debert/packsmith/pkg/dag"
	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/arthur-debert/packsmith/pkg/logging"
	"github.com/arthur-debert/packsmith/pkg/placeholders"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Engine holds the registered conditions
type Engine struct {
	conditions map[string]Condition
	order      []string
	fs         afero.Fs
	logger     zerolog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithFS sets the filesystem used by file existence checks
func WithFS(fs afero.Fs) Option {
	return func(e *Engine) {
		e.fs = fs
	}
}

// NewEngine creates an engine with no conditions
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		conditions: make(map[string]Condition),
		fs:         afero.NewOsFs(),
		logger:     logging.GetLogger("rules.engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Add registers a condition under its id
func (e *Engine) Add(c Condition) error {
	id := c.ID()
	if id == "" {
		return errors.New(errors.ErrConditionInvalid, "condition has no id")
	}
	if _, exists := e.conditions[id]; exists {
		return errors.Newf(errors.ErrConditionInvalid, "condition %q is defined more than once", id)
	}
	e.conditions[id] = c
	e.order = append(e.order, id)
	return nil
}

// Condition returns a registered condition
func (e *Engine) Condition(id string) (Condition, bool) {
	c, ok := e.conditions[id]
	return c, ok
}

// IDs returns the registered ids in registration order
func (e *Engine) IDs() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Len returns the number of registered conditions
func (e *Engine) Len() int {
	return len(e.conditions)
}

// IsConditionTrue evaluates a condition id or expression against ctx.
// Referencing an undefined id is a configuration error.
func (e *Engine) IsConditionTrue(expr string, ctx Context) (bool, error) {
	ev := &Evaluator{engine: e, ctx: ctx, active: make(map[string]bool)}

	if _, ok := e.conditions[expr]; ok {
		return ev.evaluateID(expr)
	}

	cond, err := ParseExpression(expr)
	if err != nil {
		return false, err
	}
	result, err := cond.Evaluate(ev)
	if err != nil {
		return false, err
	}

	e.logger.Trace().Str("expression", expr).Bool("result", result).Msg("Evaluated condition expression")
	return result, nil
}

// Known reports whether every id referenced by the expression is registered
func (e *Engine) Known(expr string) error {
	if _, ok := e.conditions[expr]; ok {
		return nil
	}
	cond, err := ParseExpression(expr)
	if err != nil {
		return err
	}
	for _, id := range cond.Dependencies().Conditions {
		if _, ok := e.conditions[id]; !ok {
			return errors.Newf(errors.ErrConditionUnknown, "condition %q is not defined", id).
				WithDetail("expression", expr)
		}
	}
	return nil
}

// Validate checks that every ref resolves and that no condition refers back
// to itself through a chain of refs.
func (e *Engine) Validate() error {
	g := dag.New()
	for _, id := range e.order {
		g.AddNode(id)
		for _, ref := range e.conditions[id].Dependencies().Conditions {
			if _, ok := e.conditions[ref]; !ok {
				return errors.Newf(errors.ErrConditionUnknown,
					"condition %q refers to undefined condition %q", id, ref)
			}
			g.AddEdge(id, ref)
		}
	}

	if _, err := g.Order(); err != nil {
		var cycle *dag.CycleError
		if stderrors.As(err, &cycle) {
			return errors.Wrap(err, errors.ErrConditionInvalid, "condition references form a cycle").
				WithDetail("cycle", cycle.Cycle)
		}
		return errors.Wrap(err, errors.ErrInternal, "failed to order conditions")
	}
	return nil
}

// Variables returns the variable names an id or expression reads, following
// refs transitively. The result is sorted.
func (e *Engine) Variables(expr string) ([]string, error) {
	var root Condition
	if c, ok := e.conditions[expr]; ok {
		root = c
	} else {
		parsed, err := ParseExpression(expr)
		if err != nil {
			return nil, err
		}
		root = parsed
	}

	names := make(map[string]bool)
	visited := make(map[string]bool)
	pending := []Condition{root}

	for len(pending) > 0 {
		c := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		deps := c.Dependencies()
		for _, v := range deps.Variables {
			names[v] = true
		}
		for _, ref := range deps.Conditions {
			if visited[ref] {
				continue
			}
			visited[ref] = true
			target, ok := e.conditions[ref]
			if !ok {
				return nil, errors.Newf(errors.ErrConditionUnknown, "condition %q is not defined", ref)
			}
			pending = append(pending, target)
		}
	}

	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// Evaluator carries the state of a single evaluation
type Evaluator struct {
	engine *Engine
	ctx    Context
	active map[string]bool
}

// Variable reads a variable from the evaluation context
func (ev *Evaluator) Variable(name string) (string, bool) {
	if ev.ctx == nil {
		return "", false
	}
	return ev.ctx.Variable(name)
}

// Expand substitutes variable references using the evaluation context
func (ev *Evaluator) Expand(s string) string {
	return placeholders.Expand(s, ev.Variable)
}

// PackSelected reports whether the context has the pack selected
func (ev *Evaluator) PackSelected(name string) bool {
	sel, ok := ev.ctx.(PackSelection)
	return ok && sel.IsPackSelected(name)
}

// FS returns the filesystem for file checks
func (ev *Evaluator) FS() afero.Fs {
	return ev.engine.fs
}

func (ev *Evaluator) evaluateID(id string) (bool, error) {
	c, ok := ev.engine.conditions[id]
	if !ok {
		return false, errors.Newf(errors.ErrConditionUnknown, "condition %q is not defined", id)
	}
	if ev.active[id] {
		return false, errors.Newf(errors.ErrConditionInvalid, "condition %q refers to itself", id)
	}

	ev.active[id] = true
	result, err := c.Evaluate(ev)
	delete(ev.active, id)
	if err != nil {
		return false, err
	}

	ev.engine.logger.Trace().Str("condition", id).Bool("result", result).Msg("Evaluated condition")
	return result, nil
}

func referencedNames(s string) []string {
	return placeholders.References(s)
}
