package rules

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/arthur-debert/packsmith/pkg/errors"
)

// Context supplies variable values to condition evaluation
type Context interface {
	Variable(name string) (string, bool)
}

// PackSelection is implemented by contexts that track which packs are
// selected. Contexts without it make every packselection condition false.
type PackSelection interface {
	IsPackSelected(name string) bool
}

// Dependencies lists what a condition reads directly
type Dependencies struct {
	Variables  []string
	Conditions []string
}

func (d *Dependencies) merge(other Dependencies) {
	d.Variables = append(d.Variables, other.Variables...)
	d.Conditions = append(d.Conditions, other.Conditions...)
}

// Condition is a boolean predicate. Inline children of composites have an
// empty ID.
type Condition interface {
	ID() string
	Type() string
	Evaluate(ev *Evaluator) (bool, error)
	Dependencies() Dependencies
}

// Base carries the condition id
type Base struct {
	ConditionID string
}

// ID returns the condition id
func (b Base) ID() string { return b.ConditionID }

// VariableCondition is true when Name is set to exactly Value
type VariableCondition struct {
	Base
	Name  string
	Value string
}

func (c *VariableCondition) Type() string { return "variable" }

func (c *VariableCondition) Evaluate(ev *Evaluator) (bool, error) {
	v, ok := ev.Variable(c.Name)
	return ok && v == c.Value, nil
}

func (c *VariableCondition) Dependencies() Dependencies {
	return Dependencies{Variables: []string{c.Name}}
}

// Operator is a compare condition operator
type Operator string

const (
	OpEqual        Operator = "eq"
	OpNotEqual     Operator = "ne"
	OpLess         Operator = "lt"
	OpLessEqual    Operator = "le"
	OpGreater      Operator = "gt"
	OpGreaterEqual Operator = "ge"
)

// ParseOperator accepts the short names and their symbolic forms
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "eq", "==", "=", "":
		return OpEqual, nil
	case "ne", "!=":
		return OpNotEqual, nil
	case "lt", "<":
		return OpLess, nil
	case "le", "<=":
		return OpLessEqual, nil
	case "gt", ">":
		return OpGreater, nil
	case "ge", ">=":
		return OpGreaterEqual, nil
	}
	return "", errors.Newf(errors.ErrConditionInvalid, "unknown compare operator %q", s)
}

// CompareCondition compares two arguments after variable expansion.
// Both sides are compared numerically when both parse as numbers.
type CompareCondition struct {
	Base
	Arg1     string
	Arg2     string
	Operator Operator
}

func (c *CompareCondition) Type() string { return "compare" }

func (c *CompareCondition) Evaluate(ev *Evaluator) (bool, error) {
	left := ev.Expand(c.Arg1)
	right := ev.Expand(c.Arg2)

	cmp := strings.Compare(left, right)
	lf, lerr := strconv.ParseFloat(strings.TrimSpace(left), 64)
	rf, rerr := strconv.ParseFloat(strings.TrimSpace(right), 64)
	if lerr == nil && rerr == nil {
		switch {
		case lf < rf:
			cmp = -1
		case lf > rf:
			cmp = 1
		default:
			cmp = 0
		}
	}

	switch c.Operator {
	case OpEqual, "":
		return cmp == 0, nil
	case OpNotEqual:
		return cmp != 0, nil
	case OpLess:
		return cmp < 0, nil
	case OpLessEqual:
		return cmp <= 0, nil
	case OpGreater:
		return cmp > 0, nil
	case OpGreaterEqual:
		return cmp >= 0, nil
	}
	return false, errors.Newf(errors.ErrConditionInvalid, "unknown compare operator %q", c.Operator)
}

func (c *CompareCondition) Dependencies() Dependencies {
	return Dependencies{Variables: append(referencedNames(c.Arg1), referencedNames(c.Arg2)...)}
}

// ContainsCondition is true when the variable contains Value, or matches it
// as a regular expression when Regex is set. An unset variable never matches.
type ContainsCondition struct {
	Base
	Variable string
	Value    string
	Regex    bool

	// Pattern is the compiled Value when Regex is set, see Compile
	Pattern *regexp.Regexp
}

// Compile checks and compiles the pattern of a regex condition
func (c *ContainsCondition) Compile() error {
	if !c.Regex {
		return nil
	}
	re, err := regexp.Compile(c.Value)
	if err != nil {
		return errors.Wrapf(err, errors.ErrConditionInvalid,
			"condition %q has an invalid pattern", c.ConditionID)
	}
	c.Pattern = re
	return nil
}

func (c *ContainsCondition) Type() string { return "contains" }

func (c *ContainsCondition) Evaluate(ev *Evaluator) (bool, error) {
	v, ok := ev.Variable(c.Variable)
	if !ok {
		return false, nil
	}
	if !c.Regex {
		return strings.Contains(v, c.Value), nil
	}
	re := c.Pattern
	if re == nil {
		var err error
		if re, err = regexp.Compile(c.Value); err != nil {
			return false, errors.Wrapf(err, errors.ErrConditionInvalid,
				"condition %q has an invalid pattern", c.ConditionID)
		}
	}
	return re.MatchString(v), nil
}

func (c *ContainsCondition) Dependencies() Dependencies {
	return Dependencies{Variables: []string{c.Variable}}
}

// EmptyCondition is true when the variable is unset or empty
type EmptyCondition struct {
	Base
	Variable string
}

func (c *EmptyCondition) Type() string { return "empty" }

func (c *EmptyCondition) Evaluate(ev *Evaluator) (bool, error) {
	v, ok := ev.Variable(c.Variable)
	return !ok || v == "", nil
}

func (c *EmptyCondition) Dependencies() Dependencies {
	return Dependencies{Variables: []string{c.Variable}}
}

// ExistsCondition checks that a variable is set, or that a file exists when
// File is given. File is expanded before the check.
type ExistsCondition struct {
	Base
	Variable string
	File     string
}

func (c *ExistsCondition) Type() string { return "exists" }

func (c *ExistsCondition) Evaluate(ev *Evaluator) (bool, error) {
	if c.File != "" {
		_, err := ev.FS().Stat(ev.Expand(c.File))
		return err == nil, nil
	}
	_, ok := ev.Variable(c.Variable)
	return ok, nil
}

func (c *ExistsCondition) Dependencies() Dependencies {
	if c.File != "" {
		return Dependencies{Variables: referencedNames(c.File)}
	}
	return Dependencies{Variables: []string{c.Variable}}
}

// PackSelectionCondition is true when the named pack is selected
type PackSelectionCondition struct {
	Base
	Pack string
}

func (c *PackSelectionCondition) Type() string { return "packselection" }

func (c *PackSelectionCondition) Evaluate(ev *Evaluator) (bool, error) {
	return ev.PackSelected(c.Pack), nil
}

func (c *PackSelectionCondition) Dependencies() Dependencies {
	return Dependencies{}
}
