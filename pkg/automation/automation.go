// Package automation records the choices of an installation and replays
// them for unattended installs.
package automation

import (
	"io"
	"sort"

	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/beevik/etree"
)

// Target is an installation whose choices can be recorded and replayed
type Target interface {
	Variables() map[string]string
	SelectedPacks() []string
	Set(name, value string)
	SelectOnly(names []string) error
}

// Variable is a recorded variable value
type Variable struct {
	Name  string
	Value string
}

// Record is an auto-install file
type Record struct {
	Variables []Variable
	Packs     []string
}

// Capture records the current variables, sorted by name, and the selection
func Capture(t Target, exclude ...string) *Record {
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}

	values := t.Variables()
	names := make([]string, 0, len(values))
	for name := range values {
		if !skip[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	r := &Record{Packs: t.SelectedPacks()}
	for _, name := range names {
		r.Variables = append(r.Variables, Variable{Name: name, Value: values[name]})
	}
	return r
}

// Apply sets the recorded variables, then replaces the pack selection
func Apply(t Target, r *Record) error {
	for _, v := range r.Variables {
		t.Set(v.Name, v.Value)
	}
	if err := t.SelectOnly(r.Packs); err != nil {
		return errors.Wrap(err, errors.GetErrorCode(err), "failed to apply recorded pack selection")
	}
	return nil
}

// Save writes the record as XML
func Save(w io.Writer, r *Record) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("automation")

	vars := root.CreateElement("variables")
	for _, v := range r.Variables {
		el := vars.CreateElement("variable")
		el.CreateAttr("name", v.Name)
		el.CreateAttr("value", v.Value)
	}
	ps := root.CreateElement("packs")
	for _, name := range r.Packs {
		ps.CreateElement("pack").CreateAttr("name", name)
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "failed to write automation record")
	}
	return nil
}

// Load reads a record written by Save
func Load(r io.Reader) (*Record, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "automation record is not well-formed XML")
	}
	root := doc.SelectElement("automation")
	if root == nil {
		return nil, errors.New(errors.ErrInvalidInput, "automation record has no <automation> element")
	}

	rec := &Record{}
	if vars := root.SelectElement("variables"); vars != nil {
		for _, el := range vars.SelectElements("variable") {
			name := el.SelectAttrValue("name", "")
			if name == "" {
				return nil, errors.New(errors.ErrInvalidInput, "recorded variable has no name").
					WithDetail("element", el.GetPath())
			}
			rec.Variables = append(rec.Variables, Variable{Name: name, Value: el.SelectAttrValue("value", "")})
		}
	}
	if ps := root.SelectElement("packs"); ps != nil {
		for _, el := range ps.SelectElements("pack") {
			if name := el.SelectAttrValue("name", ""); name != "" {
				rec.Packs = append(rec.Packs, name)
			}
		}
	}
	return rec, nil
}
