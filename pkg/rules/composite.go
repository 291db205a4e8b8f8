package rules

// RefCondition evaluates another registered condition
type RefCondition struct {
	Base
	Ref string
}

func (c *RefCondition) Type() string { return "ref" }

func (c *RefCondition) Evaluate(ev *Evaluator) (bool, error) {
	return ev.evaluateID(c.Ref)
}

func (c *RefCondition) Dependencies() Dependencies {
	return Dependencies{Conditions: []string{c.Ref}}
}

// AndCondition is true when every child is true. Evaluation stops at the
// first false child.
type AndCondition struct {
	Base
	Children []Condition
}

func (c *AndCondition) Type() string { return "and" }

func (c *AndCondition) Evaluate(ev *Evaluator) (bool, error) {
	for _, child := range c.Children {
		ok, err := child.Evaluate(ev)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (c *AndCondition) Dependencies() Dependencies {
	return childDependencies(c.Children)
}

// OrCondition is true when any child is true
type OrCondition struct {
	Base
	Children []Condition
}

func (c *OrCondition) Type() string { return "or" }

func (c *OrCondition) Evaluate(ev *Evaluator) (bool, error) {
	for _, child := range c.Children {
		ok, err := child.Evaluate(ev)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (c *OrCondition) Dependencies() Dependencies {
	return childDependencies(c.Children)
}

// XorCondition is true when exactly one child is true
type XorCondition struct {
	Base
	Children []Condition
}

func (c *XorCondition) Type() string { return "xor" }

func (c *XorCondition) Evaluate(ev *Evaluator) (bool, error) {
	count := 0
	for _, child := range c.Children {
		ok, err := child.Evaluate(ev)
		if err != nil {
			return false, err
		}
		if ok {
			count++
		}
	}
	return count == 1, nil
}

func (c *XorCondition) Dependencies() Dependencies {
	return childDependencies(c.Children)
}

// NotCondition negates its child
type NotCondition struct {
	Base
	Child Condition
}

func (c *NotCondition) Type() string { return "not" }

func (c *NotCondition) Evaluate(ev *Evaluator) (bool, error) {
	ok, err := c.Child.Evaluate(ev)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (c *NotCondition) Dependencies() Dependencies {
	return c.Child.Dependencies()
}

func childDependencies(children []Condition) Dependencies {
	var deps Dependencies
	for _, child := range children {
		deps.merge(child.Dependencies())
	}
	return deps
}
