// Package expr compiles the boolean conditions that select rule table rows.
//
// A condition combines flag names with !, &&, || and parentheses. A flag may
// also be compared with a literal, as in `extranjero == true` or
// `sin_telefono != false`. && binds tighter than ||. Flags missing from the
// evaluated set read as false.
package expr

import (
	"fmt"
	"slices"
	"strings"
)

type predicate func(flags map[string]bool) bool

// Program is a compiled condition.
type Program struct {
	source string
	test   predicate
	idents []string
}

// Compile parses source. An empty condition always matches.
func Compile(source string) (*Program, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return &Program{}, nil
	}
	lex, err := scan(source)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: lex, seen: map[string]bool{}}
	test, err := p.disjunction()
	if err != nil {
		return nil, err
	}
	if tok, ok := p.peek(); ok {
		return nil, fmt.Errorf("rules/expr: unexpected token %q", tok)
	}
	idents := make([]string, 0, len(p.seen))
	for name := range p.seen {
		idents = append(idents, name)
	}
	slices.Sort(idents)
	return &Program{source: source, test: test, idents: idents}, nil
}

// MustCompile is Compile for conditions known at build time.
func MustCompile(source string) *Program {
	program, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return program
}

// Eval reports whether the condition holds for flags.
func (p *Program) Eval(flags map[string]bool) bool {
	if p == nil || p.test == nil {
		return true
	}
	return p.test(flags)
}

// Identifiers lists the flag names the condition reads, sorted.
func (p *Program) Identifiers() []string {
	if p == nil {
		return nil
	}
	return slices.Clone(p.idents)
}

func (p *Program) String() string {
	if p == nil {
		return ""
	}
	return p.source
}

var operators = []string{"&&", "||", "==", "!=", "!", "(", ")"}

// scan splits source into operators and words.
func scan(source string) ([]string, error) {
	var out []string
	for rest := source; rest != ""; {
		if c := rest[0]; c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			rest = rest[1:]
			continue
		}
		if op, ok := leadingOperator(rest); ok {
			out = append(out, op)
			rest = rest[len(op):]
			continue
		}
		n := 0
		for n < len(rest) && isWordByte(rest[n]) {
			n++
		}
		if n == 0 {
			switch rest[0] {
			case '=', '&', '|':
				return nil, fmt.Errorf("rules/expr: single %q, use %q", rest[:1], strings.Repeat(rest[:1], 2))
			}
			return nil, fmt.Errorf("rules/expr: unexpected character %q", rest[0])
		}
		out = append(out, rest[:n])
		rest = rest[n:]
	}
	return out, nil
}

func leadingOperator(s string) (string, bool) {
	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			return op, true
		}
	}
	return "", false
}

func isWordByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return c == '_' || c == '.' || c == '-'
}

func isWord(tok string) bool { return tok != "" && isWordByte(tok[0]) }

type parser struct {
	toks []string
	pos  int
	seen map[string]bool
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.toks) {
		return "", false
	}
	return p.toks[p.pos], true
}

func (p *parser) accept(tok string) bool {
	if next, ok := p.peek(); ok && next == tok {
		p.pos++
		return true
	}
	return false
}

func (p *parser) disjunction() (predicate, error) {
	left, err := p.conjunction()
	for err == nil && p.accept("||") {
		var right predicate
		if right, err = p.conjunction(); err == nil {
			l := left
			left = func(f map[string]bool) bool { return l(f) || right(f) }
		}
	}
	return left, err
}

func (p *parser) conjunction() (predicate, error) {
	left, err := p.unary()
	for err == nil && p.accept("&&") {
		var right predicate
		if right, err = p.unary(); err == nil {
			l := left
			left = func(f map[string]bool) bool { return l(f) && right(f) }
		}
	}
	return left, err
}

func (p *parser) unary() (predicate, error) {
	if !p.accept("!") {
		return p.operand()
	}
	inner, err := p.unary()
	if err != nil {
		return nil, err
	}
	return func(f map[string]bool) bool { return !inner(f) }, nil
}

func (p *parser) operand() (predicate, error) {
	if p.accept("(") {
		inner, err := p.disjunction()
		if err != nil {
			return nil, err
		}
		if !p.accept(")") {
			return nil, fmt.Errorf("rules/expr: missing ')'")
		}
		return inner, nil
	}

	name, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("rules/expr: condition ends early")
	}
	if !isWord(name) || isLiteral(name) {
		return nil, fmt.Errorf("rules/expr: expected a flag, got %q", name)
	}
	p.pos++
	p.seen[name] = true

	negate := false
	switch {
	case p.accept("=="):
	case p.accept("!="):
		negate = true
	default:
		return func(f map[string]bool) bool { return f[name] }, nil
	}
	lit, _ := p.peek()
	if !isLiteral(lit) {
		return nil, fmt.Errorf("rules/expr: %s must be compared with true or false", name)
	}
	p.pos++
	want := strings.EqualFold(lit, "true")
	return func(f map[string]bool) bool { return (f[name] == want) != negate }, nil
}

func isLiteral(tok string) bool {
	return strings.EqualFold(tok, "true") || strings.EqualFold(tok, "false")
}
