package descriptor

import (
	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/arthur-debert/packsmith/pkg/rules"
	"github.com/arthur-debert/packsmith/pkg/variables"
)

// Rules registers the descriptor's conditions in a new engine and checks
// their references.
func (d *Descriptor) Rules(opts ...rules.Option) (*rules.Engine, error) {
	engine := rules.NewEngine(opts...)
	for _, c := range d.Conditions {
		if err := engine.Add(c); err != nil {
			return nil, err
		}
	}
	if err := engine.Validate(); err != nil {
		return nil, err
	}
	return engine, nil
}

// NewVariables creates a store holding the static variables and the
// dynamic declarations, in document order.
func (d *Descriptor) NewVariables(engine *rules.Engine, opts ...variables.Option) (*variables.Variables, error) {
	v := variables.New(engine, opts...)
	for _, sv := range d.Variables {
		v.Set(sv.Name, sv.Value)
	}
	for _, dv := range d.DynamicVariables {
		if err := v.AddDynamic(dv); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Validate checks that every condition referenced by packs, files and
// dynamic variables is defined, and that the conditions themselves are
// consistent.
func (d *Descriptor) Validate() error {
	engine, err := d.Rules()
	if err != nil {
		return err
	}

	check := func(expr, owner string) error {
		if expr == "" {
			return nil
		}
		if err := engine.Known(expr); err != nil {
			return errors.Wrapf(err, errors.GetErrorCode(err), "%s", owner).
				WithDetail("condition", expr)
		}
		return nil
	}

	for _, dv := range d.DynamicVariables {
		if err := check(dv.Condition, "dynamic variable "+dv.Name); err != nil {
			return err
		}
	}

	seen := make(map[string]bool, len(d.Packs))
	for _, p := range d.Packs {
		if seen[p.Name] {
			return errors.Newf(errors.ErrDescriptorInvalid, "pack %q is declared more than once", p.Name)
		}
		seen[p.Name] = true

		if err := check(p.Condition, "pack "+p.Name); err != nil {
			return err
		}
		for _, f := range p.Files {
			if err := check(f.Condition, "file "+f.Src+" of pack "+p.Name); err != nil {
				return err
			}
		}
		for _, fs := range p.FileSets {
			if err := check(fs.Condition, "fileset "+fs.Dir+" of pack "+p.Name); err != nil {
				return err
			}
		}
	}
	return nil
}
