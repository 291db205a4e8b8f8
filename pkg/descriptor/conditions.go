package descriptor

import (
	"strings"

	"github.com/arthur-debert/packsmith/pkg/rules"
	"github.com/beevik/etree"
)

// parseCondition reads a <condition> element. Top-level conditions must
// carry an id; inline children of composites may omit it.
func parseCondition(el *etree.Element, topLevel bool) (rules.Condition, error) {
	id := el.SelectAttrValue("id", "")
	if topLevel && id == "" {
		return nil, invalid(el, "condition has no id")
	}
	base := rules.Base{ConditionID: id}

	typ := strings.ToLower(el.SelectAttrValue("type", ""))
	switch typ {
	case "variable":
		name, err := requiredChild(el, "name")
		if err != nil {
			return nil, err
		}
		return &rules.VariableCondition{Base: base, Name: name, Value: childText(el, "value")}, nil

	case "compare":
		op, err := rules.ParseOperator(childText(el, "operator"))
		if err != nil {
			return nil, invalid(el, "%v", err)
		}
		return &rules.CompareCondition{
			Base:     base,
			Arg1:     childText(el, "arg1"),
			Arg2:     childText(el, "arg2"),
			Operator: op,
		}, nil

	case "contains":
		name, err := requiredChild(el, "variable")
		if err != nil {
			return nil, err
		}
		regex, err := boolAttr(el, "regex")
		if err != nil {
			return nil, err
		}
		c := &rules.ContainsCondition{Base: base, Variable: name, Value: childText(el, "value"), Regex: regex}
		if err := c.Compile(); err != nil {
			return nil, invalid(el, "%v", err)
		}
		return c, nil

	case "empty":
		name, err := requiredChild(el, "variable")
		if err != nil {
			return nil, err
		}
		return &rules.EmptyCondition{Base: base, Variable: name}, nil

	case "exists":
		c := &rules.ExistsCondition{Base: base, Variable: childText(el, "variable"), File: childText(el, "file")}
		if c.Variable == "" && c.File == "" {
			return nil, invalid(el, "exists condition needs a <variable> or <file>")
		}
		return c, nil

	case "packselection":
		name, err := requiredChild(el, "name")
		if err != nil {
			return nil, err
		}
		return &rules.PackSelectionCondition{Base: base, Pack: name}, nil

	case "ref":
		ref, err := requiredAttr(el, "refid")
		if err != nil {
			return nil, err
		}
		return &rules.RefCondition{Base: base, Ref: ref}, nil

	case "and", "or", "xor":
		children, err := parseChildren(el)
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			return nil, invalid(el, "%s condition has no children", typ)
		}
		switch typ {
		case "and":
			return &rules.AndCondition{Base: base, Children: children}, nil
		case "or":
			return &rules.OrCondition{Base: base, Children: children}, nil
		default:
			return &rules.XorCondition{Base: base, Children: children}, nil
		}

	case "not":
		children, err := parseChildren(el)
		if err != nil {
			return nil, err
		}
		if len(children) != 1 {
			return nil, invalid(el, "not condition needs exactly one child, got %d", len(children))
		}
		return &rules.NotCondition{Base: base, Child: children[0]}, nil

	case "":
		return nil, invalid(el, "condition %q has no type", id)
	}
	return nil, invalid(el, "unknown condition type %q", typ)
}

func parseChildren(el *etree.Element) ([]rules.Condition, error) {
	var out []rules.Condition
	for _, child := range el.SelectElements("condition") {
		c, err := parseCondition(child, false)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func requiredChild(el *etree.Element, tag string) (string, error) {
	v := strings.TrimSpace(childText(el, tag))
	if v == "" {
		return "", invalid(el, "missing required <%s>", tag)
	}
	return v, nil
}
