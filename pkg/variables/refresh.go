package variables

import (
	stderrors "errors"

	"github.com/arthur-debert/packsmith/pkg/dag"
	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/arthur-debert/packsmith/pkg/logging"
	"github.com/arthur-debert/packsmith/pkg/rules"
)

// Refresh recomputes every dynamic variable, evaluating conditions against
// the store itself.
func (v *Variables) Refresh() error {
	return v.RefreshWith(v)
}

// RefreshWith recomputes every dynamic variable in dependency order,
// evaluating conditions against ctx. Callers that also track pack selection
// pass a context that implements rules.PackSelection.
func (v *Variables) RefreshWith(ctx rules.Context) error {
	if len(v.dynOrder) == 0 {
		return nil
	}

	done := logging.LogOperationStart(v.logger, "refresh")
	defer done()

	order, err := v.refreshOrder()
	if err != nil {
		return err
	}

	changed := 0
	for _, name := range order {
		if v.pinned[name] {
			v.logger.Trace().Str("variable", name).Msg("Skipping pinned variable")
			continue
		}

		applied, err := v.refreshOne(name, ctx)
		if err != nil {
			return err
		}
		if applied {
			changed++
		}
	}

	v.logger.Debug().
		Int("dynamic", len(order)).
		Int("applied", changed).
		Msg("Refreshed dynamic variables")
	return nil
}

// refreshOne applies the first declaration of name whose condition holds
func (v *Variables) refreshOne(name string, ctx rules.Context) (bool, error) {
	for i, dv := range v.dynamic[name] {
		if dv.Condition != "" {
			ok, err := v.conditionTrue(dv, ctx)
			if err != nil {
				return false, err
			}
			if !ok {
				continue
			}
		}

		value, err := dv.Evaluate(v)
		if err != nil {
			if dv.IgnoreFailure {
				v.logger.Debug().Err(err).Str("variable", name).Int("declaration", i).
					Msg("Ignoring failed dynamic variable declaration")
				continue
			}
			return false, err
		}

		v.values[name] = value
		if dv.CheckOnce {
			v.pinned[name] = true
		}
		v.logger.Trace().Str("variable", name).Str("value", value).Int("declaration", i).
			Msg("Applied dynamic variable")
		return true, nil
	}
	return false, nil
}

func (v *Variables) conditionTrue(dv *DynamicVariable, ctx rules.Context) (bool, error) {
	if v.rules == nil {
		return false, errors.Newf(errors.ErrConditionUnknown,
			"dynamic variable %q uses condition %q but no conditions are defined", dv.Name, dv.Condition)
	}
	ok, err := v.rules.IsConditionTrue(dv.Condition, ctx)
	if err != nil {
		return false, errors.Wrapf(err, errors.GetErrorCode(err),
			"condition of dynamic variable %q", dv.Name)
	}
	return ok, nil
}

// refreshOrder builds the dependency graph between dynamic variables and
// orders it so referenced variables are computed first.
func (v *Variables) refreshOrder() ([]string, error) {
	g := dag.New()
	for _, name := range v.dynOrder {
		g.AddNode(name)
	}

	for _, name := range v.dynOrder {
		deps, err := v.dependencies(name)
		if err != nil {
			return nil, err
		}
		for _, dep := range deps {
			if _, dynamic := v.dynamic[dep]; dynamic {
				g.AddEdge(name, dep)
			}
		}
	}

	order, err := g.Order()
	if err != nil {
		var cycle *dag.CycleError
		if stderrors.As(err, &cycle) {
			return nil, errors.Wrap(err, errors.ErrCyclicDependency, "dynamic variables reference each other").
				WithDetail("cycle", cycle.Cycle)
		}
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to order dynamic variables")
	}
	return order, nil
}

func (v *Variables) dependencies(name string) ([]string, error) {
	var deps []string
	for _, dv := range v.dynamic[name] {
		deps = append(deps, dv.References()...)
		if dv.Condition == "" || v.rules == nil {
			continue
		}
		condVars, err := v.rules.Variables(dv.Condition)
		if err != nil {
			return nil, errors.Wrapf(err, errors.GetErrorCode(err),
				"condition of dynamic variable %q", name)
		}
		// A condition may read the variable it guards, e.g. to set a
		// default only while unset. That is not a value dependency.
		for _, c := range condVars {
			if c != name {
				deps = append(deps, c)
			}
		}
	}
	return deps, nil
}
