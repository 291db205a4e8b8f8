package descriptor

import (
	"github.com/arthur-debert/packsmith/pkg/variables"
	"github.com/beevik/etree"
)

// parseDynamic reads a <variable> of <dynamicvariables>. Exactly one of the
// value, environment or file attributes selects the source.
func parseDynamic(el *etree.Element) (*variables.DynamicVariable, error) {
	name, err := requiredAttr(el, "name")
	if err != nil {
		return nil, err
	}
	dv := &variables.DynamicVariable{
		Name:      name,
		Condition: el.SelectAttrValue("condition", ""),
	}
	if dv.CheckOnce, err = boolAttr(el, "checkonce"); err != nil {
		return nil, err
	}
	if dv.IgnoreFailure, err = boolAttr(el, "ignorefailure"); err != nil {
		return nil, err
	}

	var sources []variables.ValueSource
	if a := el.SelectAttr("value"); a != nil {
		sources = append(sources, variables.PlainValue{Template: a.Value})
	} else if v := el.SelectElement("value"); v != nil {
		sources = append(sources, variables.PlainValue{Template: v.Text()})
	}
	if env := el.SelectAttrValue("environment", ""); env != "" {
		sources = append(sources, variables.EnvironmentValue{Name: env})
	}
	if file := el.SelectAttrValue("file", ""); file != "" {
		format, err := variables.ParseFileFormat(el.SelectAttrValue("type", ""))
		if err != nil {
			return nil, invalid(el, "%v", err)
		}
		key, err := requiredAttr(el, "key")
		if err != nil {
			return nil, err
		}
		sources = append(sources, variables.ConfigFileValue{Path: file, Key: key, Format: format})
	}

	switch len(sources) {
	case 0:
		return nil, invalid(el, "dynamic variable %q has no value, environment or file source", name)
	case 1:
		dv.Source = sources[0]
	default:
		return nil, invalid(el, "dynamic variable %q has more than one source", name)
	}

	if filters := el.SelectElement("filters"); filters != nil {
		for _, fe := range filters.ChildElements() {
			f, err := parseFilter(fe)
			if err != nil {
				return nil, err
			}
			dv.Filters = append(dv.Filters, f)
		}
	}
	return dv, nil
}

func parseFilter(el *etree.Element) (variables.Filter, error) {
	switch el.Tag {
	case "regex":
		pattern, err := requiredAttr(el, "regexp")
		if err != nil {
			return nil, err
		}
		f := variables.RegexFilter{
			Pattern: pattern,
			Select:  el.SelectAttrValue("select", ""),
			Replace: el.SelectAttrValue("replace", ""),
			Default: el.SelectAttrValue("defaultvalue", ""),
		}
		if f.Select == "" && el.SelectAttr("replace") == nil {
			return nil, invalid(el, "regex filter needs a select or replace attribute")
		}
		if f.Global, err = boolAttr(el, "global"); err != nil {
			return nil, err
		}
		caseSensitive := true
		if el.SelectAttr("casesensitive") != nil {
			if caseSensitive, err = boolAttr(el, "casesensitive"); err != nil {
				return nil, err
			}
		}
		f.CaseInsensitive = !caseSensitive
		return f, nil

	case "location":
		return variables.LocationFilter{BaseDir: el.SelectAttrValue("basedir", "")}, nil
	}
	return nil, invalid(el, "unknown filter %q", el.Tag)
}
