// Package descriptor reads the XML installation descriptor (install.xml)
// that declares the application info, variables, conditions and packs of
// an installer.
package descriptor

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/arthur-debert/packsmith/pkg/rules"
	"github.com/arthur-debert/packsmith/pkg/variables"
	"github.com/beevik/etree"
	"github.com/spf13/afero"
)

// Info is the <info> section
type Info struct {
	AppName    string
	AppVersion string
	URL        string
}

// Variable is a static <variable> from the <variables> section
type Variable struct {
	Name  string
	Value string
}

// FileSpec is a single <file> of a pack
type FileSpec struct {
	Src       string
	Target    string
	TargetDir string
	Parse     bool
	Condition string
}

// FileSetSpec is a <fileset> of a pack. Includes and excludes are
// doublestar patterns relative to Dir.
type FileSetSpec struct {
	Dir       string
	TargetDir string
	Includes  []string
	Excludes  []string
	Parse     bool
	Condition string
}

// PackSpec is a <pack> before its file specs are expanded
type PackSpec struct {
	Name        string
	ID          string
	Description string
	LangPackID  string
	Required    bool
	Preselected bool
	Hidden      bool
	External    bool
	Condition   string
	Depends     []string
	Files       []FileSpec
	FileSets    []FileSetSpec
}

// Descriptor is a parsed install.xml
type Descriptor struct {
	Info             Info
	Variables        []Variable
	DynamicVariables []*variables.DynamicVariable
	Conditions       []rules.Condition
	Packs            []*PackSpec

	// Raw is the document as read, embedded into the installer unchanged
	Raw []byte
}

// ParseFile reads and parses a descriptor from fs
func ParseFile(fs afero.Fs, path string) (*Descriptor, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileNotFound, "failed to read descriptor %s", path)
	}
	d, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, errors.GetErrorCode(err), "descriptor %s", path)
	}
	return d, nil
}

// Parse reads a descriptor document
func Parse(r io.Reader) (*Descriptor, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDescriptorParse, "failed to read descriptor")
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrDescriptorParse, "descriptor is not well-formed XML")
	}
	root := doc.SelectElement("installation")
	if root == nil {
		return nil, errors.New(errors.ErrDescriptorParse, "descriptor has no <installation> element")
	}

	d := &Descriptor{Raw: raw}

	if info := root.SelectElement("info"); info != nil {
		d.Info = Info{
			AppName:    childText(info, "appname"),
			AppVersion: childText(info, "appversion"),
			URL:        childText(info, "url"),
		}
	}

	if vars := root.SelectElement("variables"); vars != nil {
		for _, el := range vars.SelectElements("variable") {
			name, err := requiredAttr(el, "name")
			if err != nil {
				return nil, err
			}
			d.Variables = append(d.Variables, Variable{Name: name, Value: el.SelectAttrValue("value", "")})
		}
	}

	if dyn := root.SelectElement("dynamicvariables"); dyn != nil {
		for _, el := range dyn.SelectElements("variable") {
			dv, err := parseDynamic(el)
			if err != nil {
				return nil, err
			}
			d.DynamicVariables = append(d.DynamicVariables, dv)
		}
	}

	if conds := root.SelectElement("conditions"); conds != nil {
		for _, el := range conds.SelectElements("condition") {
			c, err := parseCondition(el, true)
			if err != nil {
				return nil, err
			}
			d.Conditions = append(d.Conditions, c)
		}
	}

	if ps := root.SelectElement("packs"); ps != nil {
		for _, el := range ps.SelectElements("pack") {
			p, err := parsePack(el)
			if err != nil {
				return nil, err
			}
			d.Packs = append(d.Packs, p)
		}
	}

	return d, nil
}

func parsePack(el *etree.Element) (*PackSpec, error) {
	name, err := requiredAttr(el, "name")
	if err != nil {
		return nil, err
	}
	p := &PackSpec{
		Name:        name,
		ID:          el.SelectAttrValue("id", ""),
		LangPackID:  el.SelectAttrValue("langpack", ""),
		Condition:   el.SelectAttrValue("condition", ""),
		Description: strings.TrimSpace(childText(el, "description")),
	}
	flags := []struct {
		attr string
		dst  *bool
	}{
		{"required", &p.Required},
		{"preselected", &p.Preselected},
		{"hidden", &p.Hidden},
		{"external", &p.External},
	}
	for _, f := range flags {
		if *f.dst, err = boolAttr(el, f.attr); err != nil {
			return nil, err
		}
	}

	for _, dep := range el.SelectElements("depends") {
		packName, err := requiredAttr(dep, "packname")
		if err != nil {
			return nil, err
		}
		p.Depends = append(p.Depends, packName)
	}

	for _, fe := range el.SelectElements("file") {
		src, err := requiredAttr(fe, "src")
		if err != nil {
			return nil, err
		}
		spec := FileSpec{
			Src:       src,
			Target:    fe.SelectAttrValue("target", ""),
			TargetDir: fe.SelectAttrValue("targetdir", ""),
			Condition: fe.SelectAttrValue("condition", ""),
		}
		if spec.Target == "" && spec.TargetDir == "" {
			return nil, invalid(fe, "file needs a target or targetdir attribute")
		}
		if spec.Parse, err = boolAttr(fe, "parse"); err != nil {
			return nil, err
		}
		p.Files = append(p.Files, spec)
	}

	for _, set := range el.SelectElements("fileset") {
		dir, err := requiredAttr(set, "dir")
		if err != nil {
			return nil, err
		}
		targetDir, err := requiredAttr(set, "targetdir")
		if err != nil {
			return nil, err
		}
		spec := FileSetSpec{
			Dir:       dir,
			TargetDir: targetDir,
			Includes:  splitPatterns(set.SelectAttrValue("includes", "")),
			Excludes:  splitPatterns(set.SelectAttrValue("excludes", "")),
			Condition: set.SelectAttrValue("condition", ""),
		}
		for _, inc := range set.SelectElements("include") {
			spec.Includes = append(spec.Includes, inc.SelectAttrValue("name", ""))
		}
		for _, exc := range set.SelectElements("exclude") {
			spec.Excludes = append(spec.Excludes, exc.SelectAttrValue("name", ""))
		}
		if spec.Parse, err = boolAttr(set, "parse"); err != nil {
			return nil, err
		}
		p.FileSets = append(p.FileSets, spec)
	}

	return p, nil
}

// splitPatterns splits a comma or space separated pattern list
func splitPatterns(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

func childText(el *etree.Element, tag string) string {
	if c := el.SelectElement(tag); c != nil {
		return c.Text()
	}
	return ""
}

func requiredAttr(el *etree.Element, key string) (string, error) {
	v := el.SelectAttrValue(key, "")
	if v == "" {
		return "", invalid(el, "missing required attribute %q", key)
	}
	return v, nil
}

// boolAttr accepts yes/no as well as the strconv forms
func boolAttr(el *etree.Element, key string) (bool, error) {
	raw := strings.ToLower(strings.TrimSpace(el.SelectAttrValue(key, "")))
	switch raw {
	case "":
		return false, nil
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, invalid(el, "attribute %q must be a boolean, got %q", key, raw)
	}
	return v, nil
}

// invalid reports a descriptor error with the element's location
func invalid(el *etree.Element, format string, args ...interface{}) error {
	path := el.GetPath()
	return errors.Newf(errors.ErrDescriptorInvalid, "%s (at %s)", fmt.Sprintf(format, args...), path).
		WithDetail("element", path)
}
