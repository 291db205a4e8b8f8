package rules

import (
	"strings"

	"github.com/arthur-debert/packsmith/pkg/errors"
)

// ParseExpression parses a condition expression into a condition tree whose
// leaves are refs. A bare id parses to a single RefCondition.
func ParseExpression(expr string) (Condition, error) {
	p := &exprParser{input: expr}
	p.next()

	if p.tok.kind == tokEOF {
		return nil, errors.New(errors.ErrConditionInvalid, "empty condition expression")
	}

	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %q", p.tok.text)
	}
	return cond, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokAnd
	tokOr
	tokXor
	tokNot
	tokOpen
	tokClose
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type exprParser struct {
	input string
	pos   int
	tok   token
}

const operatorChars = "+|\\!()"

var operatorKinds = map[byte]tokenKind{
	'+':  tokAnd,
	'|':  tokOr,
	'\\': tokXor,
	'!':  tokNot,
	'(':  tokOpen,
	')':  tokClose,
}

func (p *exprParser) next() {
	for p.pos < len(p.input) && isSpace(p.input[p.pos]) {
		p.pos++
	}
	if p.pos >= len(p.input) {
		p.tok = token{kind: tokEOF, pos: p.pos}
		return
	}

	start := p.pos
	c := p.input[p.pos]
	if kind, ok := operatorKinds[c]; ok {
		p.pos++
		p.tok = token{kind: kind, text: string(c), pos: start}
		return
	}

	for p.pos < len(p.input) && !isSpace(p.input[p.pos]) && !strings.ContainsRune(operatorChars, rune(p.input[p.pos])) {
		p.pos++
	}
	p.tok = token{kind: tokIdent, text: p.input[start:p.pos], pos: start}
}

func (p *exprParser) parseOr() (Condition, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	children := []Condition{left}
	for p.tok.kind == tokOr {
		p.next()
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return &OrCondition{Children: children}, nil
}

func (p *exprParser) parseXor() (Condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []Condition{left}
	for p.tok.kind == tokXor {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return &XorCondition{Children: children}, nil
}

func (p *exprParser) parseAnd() (Condition, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	children := []Condition{left}
	for p.tok.kind == tokAnd {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return &AndCondition{Children: children}, nil
}

func (p *exprParser) parseUnary() (Condition, error) {
	if p.tok.kind == tokNot {
		p.next()
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &NotCondition{Child: child}, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (Condition, error) {
	switch p.tok.kind {
	case tokIdent:
		ref := &RefCondition{Ref: p.tok.text}
		p.next()
		return ref, nil
	case tokOpen:
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokClose {
			return nil, p.errorf("missing closing parenthesis")
		}
		p.next()
		return inner, nil
	case tokEOF:
		return nil, p.errorf("unexpected end of expression")
	}
	return nil, p.errorf("unexpected %q", p.tok.text)
}

func (p *exprParser) errorf(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrConditionInvalid, format, args...).
		WithDetail("expression", p.input).
		WithDetail("position", p.tok.pos)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
