package variables

import (
	"github.com/arthur-debert/packsmith/pkg/errors"
)

// DynamicVariable is one declaration of a recomputed variable
type DynamicVariable struct {
	Name      string
	Source    ValueSource
	Filters   []Filter
	Condition string

	// CheckOnce pins the value after the declaration is applied once
	CheckOnce bool

	// IgnoreFailure skips the declaration when its source or filters fail
	IgnoreFailure bool
}

// Evaluate computes the declaration's value from the current store
func (d *DynamicVariable) Evaluate(v *Variables) (string, error) {
	value, err := d.Source.Resolve(v)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrVariableResolve,
			"failed to resolve dynamic variable %q", d.Name)
	}

	for _, f := range d.Filters {
		value, err = f.Apply(value, v)
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrVariableResolve,
				"filter failed for dynamic variable %q", d.Name)
		}
	}

	return value, nil
}

// References returns the variable names the source and filters read
func (d *DynamicVariable) References() []string {
	refs := d.Source.References()
	for _, f := range d.Filters {
		refs = append(refs, f.References()...)
	}
	return refs
}
