package capability

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidExpression is wrapped by every parse failure.
var ErrInvalidExpression = errors.New("invalid capability expression")

// Predicate reports whether a capability set satisfies an expression.
type Predicate func(Set) bool

// Always matches every project.
func Always(Set) bool { return true }

// ExpressionError describes where parsing an applicability expression failed.
type ExpressionError struct {
	Expr string
	Pos  int
	Msg  string
}

// Error implements the error interface.
func (e *ExpressionError) Error() string {
	return fmt.Sprintf("%s at offset %d in %q", e.Msg, e.Pos, e.Expr)
}

// Unwrap returns ErrInvalidExpression.
func (e *ExpressionError) Unwrap() error {
	return ErrInvalidExpression
}

// ParseExpression compiles an applicability expression.
//
// Grammar, lowest precedence first:
//
//	or   = and { "|" and }
//	and  = not { "&" not }
//	not  = "!" not | atom
//	atom = name | "(" or ")"
//
// Names are matched case-insensitively. An empty expression matches everything.
func ParseExpression(expr string) (Predicate, error) {
	if strings.TrimSpace(expr) == "" {
		return Always, nil
	}
	p := &exprParser{src: expr}
	pred, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.fail("unexpected %q", p.src[p.pos])
	}
	return pred, nil
}

// MustParseExpression is like ParseExpression but panics on error.
// Use only with constant expressions.
func MustParseExpression(expr string) Predicate {
	pred, err := ParseExpression(expr)
	if err != nil {
		panic(err)
	}
	return pred
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) fail(format string, args ...any) error {
	return &ExpressionError{Expr: p.src, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) parseOr() (Predicate, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek() == '|' {
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l, r := left, right
		left = func(s Set) bool { return l(s) || r(s) }
	}
	return left, nil
}

func (p *exprParser) parseAnd() (Predicate, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek() == '&' {
		p.pos++
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		l, r := left, right
		left = func(s Set) bool { return l(s) && r(s) }
	}
	return left, nil
}

func (p *exprParser) parseNot() (Predicate, error) {
	if p.peek() == '!' {
		p.pos++
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return func(s Set) bool { return !inner(s) }, nil
	}
	return p.parseAtom()
}

func (p *exprParser) parseAtom() (Predicate, error) {
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, p.fail("missing ')'")
		}
		p.pos++
		return inner, nil
	case c == 0:
		return nil, p.fail("unexpected end of expression")
	case isNameByte(c):
		start := p.pos
		for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
			p.pos++
		}
		name := p.src[start:p.pos]
		return func(s Set) bool { return s.Contains(name) }, nil
	default:
		return nil, p.fail("unexpected %q", c)
	}
}

func isNameByte(c byte) bool {
	return c == '.' || c == '_' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
