package packs

import (
	stderrors "errors"
	"strings"

	"github.com/arthur-debert/packsmith/pkg/dag"
	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/arthur-debert/packsmith/pkg/logging"
)

// ConditionFunc evaluates a pack condition
type ConditionFunc func(condition string) (bool, error)

// Validate checks names, dependencies and dependency cycles
func Validate(packs []*Pack) error {
	_, err := dependencyGraph(packs)
	return err
}

func dependencyGraph(packs []*Pack) (*dag.Graph, error) {
	byName := make(map[string]*Pack, len(packs))
	for _, p := range packs {
		if p.Name == "" {
			return nil, errors.New(errors.ErrPackInvalid, "pack has no name")
		}
		if !validName(p.Name) {
			return nil, errors.Newf(errors.ErrPackInvalid, "pack name %q must not contain path separators or \"..\"", p.Name).
				WithDetail("pack", p.Name)
		}
		if _, dup := byName[p.Name]; dup {
			return nil, errors.Newf(errors.ErrPackInvalid, "pack %q is defined more than once", p.Name)
		}
		byName[p.Name] = p
	}

	g := dag.New()
	for _, p := range packs {
		g.AddNode(p.Name)
		for _, dep := range p.Depends {
			if _, ok := byName[dep]; !ok {
				return nil, errors.Newf(errors.ErrPackNotFound, "pack %q depends on unknown pack %q", p.Name, dep).
					WithDetail("available", Names(packs))
			}
			g.AddEdge(p.Name, dep)
		}
	}

	if _, err := g.Order(); err != nil {
		var cycle *dag.CycleError
		if stderrors.As(err, &cycle) {
			return nil, errors.Wrap(err, errors.ErrCyclicDependency, "pack dependencies form a cycle").
				WithDetail("cycle", cycle.Cycle)
		}
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to order packs")
	}
	return g, nil
}

// validName reports whether name can be used in archive entry and file names
func validName(name string) bool {
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

// Preselected returns the names of required and preselected packs
func Preselected(packs []*Pack) []string {
	var names []string
	for _, p := range packs {
		if p.Required || p.Preselected {
			names = append(names, p.Name)
		}
	}
	return names
}

// Resolve computes the packs to install: every required pack, every
// requested pack, and everything they depend on, with dependencies first.
// Packs whose condition is false are left out. Unknown requested names are
// an error.
func Resolve(packs []*Pack, requested []string, cond ConditionFunc) ([]*Pack, error) {
	logger := logging.GetLogger("packs.selection")

	g, err := dependencyGraph(packs)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*Pack, len(packs))
	for _, p := range packs {
		byName[p.Name] = p
	}

	var roots []string
	var notFound []string
	for _, p := range packs {
		if p.Required {
			roots = append(roots, p.Name)
		}
	}
	for _, name := range requested {
		if _, ok := byName[name]; !ok {
			notFound = append(notFound, name)
			continue
		}
		roots = append(roots, name)
	}
	if len(notFound) > 0 {
		return nil, errors.New(errors.ErrPackNotFound, "pack(s) not found").
			WithDetail("notFound", notFound).
			WithDetail("available", Names(packs))
	}

	if len(roots) == 0 {
		return nil, nil
	}

	order, err := g.OrderFrom(roots...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to order selected packs")
	}

	selected := make([]*Pack, 0, len(order))
	for _, name := range order {
		p := byName[name]
		if p.Condition != "" && cond != nil {
			ok, err := cond(p.Condition)
			if err != nil {
				return nil, errors.Wrapf(err, errors.GetErrorCode(err), "condition of pack %q", p.Name)
			}
			if !ok {
				logger.Debug().Str("pack", p.Name).Str("condition", p.Condition).Msg("Skipping pack, condition is false")
				continue
			}
		}
		selected = append(selected, p)
	}

	logger.Info().
		Int("selected", len(selected)).
		Int("total", len(packs)).
		Msg("Resolved pack selection")

	return selected, nil
}
