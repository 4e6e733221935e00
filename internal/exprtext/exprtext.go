// Package exprtext implements the textual surface form consumed by
// cmd/plannerctl and the table-driven tests: S-expression-like prefix
// forms for facts (pred(a1, a2)=v), world-state modifications (assign,
// increase, decrease, forall, and), and conditions (and, or, not, exists,
// forall, comparisons). Operators are written in prefix form only; no infix
// expression syntax (a & b, a + b, a - b) is parsed, and = appears infix only
// as the =v fluent suffix of a fact. It is a thin recursive-descent parser
// over text/scanner, never imported by the core packages.
package exprtext

import (
	"fmt"
	"strconv"
	"strings"
	"text/scanner"

	"contextualplanner/internal/condition"
	"contextualplanner/internal/fact"
	"contextualplanner/internal/ontology"
	"contextualplanner/internal/perr"
	"contextualplanner/internal/wsm"
)

// Symbols resolves the names a parsed expression references against a
// domain's vocabulary and a problem's known entities/parameters.
type Symbols struct {
	Ontology   *ontology.Ontology
	Parameters map[string]*ontology.Parameter
	Entities   map[string]*ontology.Entity
}

func (s *Symbols) value(name string) (ontology.Value, error) {
	if strings.HasPrefix(name, "?") {
		pname := strings.TrimPrefix(name, "?")
		if p, ok := s.Parameters[pname]; ok {
			return p, nil
		}
		return nil, perr.New(perr.UnknownSymbol, "unknown parameter %q", name)
	}
	if name == "*" {
		return ontology.AnyValue, nil
	}
	if e, ok := s.Entities[name]; ok {
		return e, nil
	}
	if e, ok := s.Ontology.Constants[name]; ok {
		return e, nil
	}
	if n, err := strconv.Atoi(name); err == nil {
		return ontology.NewNumberEntity(n), nil
	}
	return nil, perr.New(perr.UnknownSymbol, "unknown symbol %q", name)
}

func (s *Symbols) predicate(name string) (*ontology.Predicate, error) {
	p, ok := s.Ontology.Predicates[name]
	if !ok {
		return nil, perr.New(perr.UnknownSymbol, "unknown predicate %q", name)
	}
	return p, nil
}

func (s *Symbols) parameter(name string) (*ontology.Parameter, error) {
	pname := strings.TrimPrefix(name, "?")
	p, ok := s.Parameters[pname]
	if !ok {
		return nil, perr.New(perr.UnknownSymbol, "unknown parameter %q", name)
	}
	return p, nil
}

// parser is a single-use recursive-descent reader over one input string.
type parser struct {
	sc  scanner.Scanner
	sym *Symbols
	tok rune
	err error
}

func newParser(input string, sym *Symbols) *parser {
	p := &parser{sym: sym}
	p.sc.Init(strings.NewReader(input))
	p.sc.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats
	p.sc.Whitespace = 1<<'\t' | 1<<'\n' | 1<<'\r' | 1<<' '
	p.advance()
	return p
}

func (p *parser) advance() { p.tok = p.sc.Scan() }

func (p *parser) text() string { return p.sc.TokenText() }

func (p *parser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = perr.New(perr.ParseError, format, args...)
	}
}

func (p *parser) expect(s string) {
	if p.text() != s {
		p.fail("expected %q, got %q at position %d", s, p.text(), p.sc.Pos().Column)
		return
	}
	p.advance()
}

func (p *parser) ident() string {
	if p.tok != scanner.Ident {
		p.fail("expected identifier, got %q", p.text())
		return ""
	}
	name := p.text()
	p.advance()
	return name
}

// token reads either a plain identifier or a "?name" parameter reference;
// text/scanner treats '?' as its own rune since it is not a valid
// identifier-start character, so a parameter reference arrives as two
// tokens that token re-glues.
func (p *parser) token() string {
	if p.tok == '?' {
		p.advance()
		name := "?" + p.text()
		p.advance()
		return name
	}
	return p.ident()
}

// ParseFact parses "pred(a1, a2, ...)" optionally followed by "=value".
func ParseFact(input string, sym *Symbols) (fact.Fact, error) {
	p := newParser(input, sym)
	f := p.parseFact()
	if p.err != nil {
		return fact.Fact{}, p.err
	}
	return f, nil
}

// ParseFactOptional parses an optionally-negated fact: "!pred(...)" or
// "pred(...)".
func ParseFactOptional(input string, sym *Symbols) (fact.FactOptional, error) {
	p := newParser(input, sym)
	fo := p.parseFactOptional()
	if p.err != nil {
		return fact.FactOptional{}, p.err
	}
	return fo, nil
}

func (p *parser) parseFactOptional() fact.FactOptional {
	negated := false
	if p.tok == '!' {
		negated = true
		p.advance()
	}
	f := p.parseFact()
	return fact.FactOptional{Fact: f, IsNegated: negated}
}

func (p *parser) parseFact() fact.Fact {
	name := p.token()
	pred, err := p.sym.predicate(name)
	if err != nil {
		p.fail("%v", err)
		return fact.Fact{}
	}
	p.expect("(")
	var args []ontology.Value
	for p.text() != ")" {
		args = append(args, p.parseValue())
		if p.text() == "," {
			p.advance()
		}
	}
	p.expect(")")
	var fluent ontology.Value
	if p.text() == "=" {
		p.advance()
		fluent = p.parseValue()
	}
	return fact.Fact{Predicate: pred, Args: args, Fluent: fluent}
}

func (p *parser) parseValue() ontology.Value {
	name := p.token()
	v, err := p.sym.value(name)
	if err != nil {
		p.fail("%v", err)
		return nil
	}
	return v
}

// ParseCondition parses the condition grammar: and/or/not/imply/exists/
// forall/comparisons over facts, and bare fact leaves.
func ParseCondition(input string, sym *Symbols) (*condition.Condition, error) {
	p := newParser(input, sym)
	c := p.parseCondition()
	if p.err != nil {
		return nil, p.err
	}
	return c, nil
}

// opRune detects the punctuation-rune operators (=, >, >=, <, <=), which
// text/scanner reports as individual runes rather than identifiers; it
// consumes the operator (including a following '=' for the two-character
// forms) and returns its Condition constructor. '!' is handled by the
// caller since it is ambiguous between "!=" and a negated fact leaf.
func (p *parser) opRune() (func(l, r *condition.Condition) *condition.Condition, bool) {
	switch p.tok {
	case '=':
		p.advance()
		return condition.Eq, true
	case '>':
		p.advance()
		if p.tok == '=' {
			p.advance()
			return condition.Ge, true
		}
		return condition.Gt, true
	case '<':
		p.advance()
		if p.tok == '=' {
			p.advance()
			return condition.Le, true
		}
		return condition.Lt, true
	}
	return nil, false
}

func (p *parser) parseCondition() *condition.Condition {
	if p.tok == scanner.Int {
		n, _ := strconv.Atoi(p.text())
		p.advance()
		return condition.Num(n)
	}
	if p.tok == '!' {
		p.advance()
		if p.tok == '=' {
			p.advance()
			return p.parseBinaryConditionBody(condition.Ne)
		}
		fo := p.parseFactOptionalAfterBang()
		return condition.Fact(fo)
	}
	if ctor, ok := p.opRune(); ok {
		return p.parseBinaryConditionBody(ctor)
	}
	name := p.token()
	switch name {
	case "and", "or", "imply":
		return p.parseBinaryCondition(name)
	case "not":
		p.expect("(")
		inner := p.parseCondition()
		p.expect(")")
		return condition.Not(inner)
	case "exists", "forall":
		p.expect("(")
		pname := p.token()
		param, err := p.sym.parameter(pname)
		if err != nil {
			p.fail("%v", err)
			return nil
		}
		p.expect(",")
		body := p.parseCondition()
		p.expect(")")
		if name == "exists" {
			return condition.Exists(param, body)
		}
		return condition.Forall(param, body)
	default:
		pred, err := p.sym.predicate(name)
		if err != nil {
			p.fail("%v", err)
			return nil
		}
		f := p.parseFactArgsAndFluent(pred)
		return condition.Fact(fact.FactOptional{Fact: f})
	}
}

func (p *parser) parseFactOptionalAfterBang() fact.FactOptional {
	name := p.token()
	pred, err := p.sym.predicate(name)
	if err != nil {
		p.fail("%v", err)
		return fact.FactOptional{}
	}
	f := p.parseFactArgsAndFluent(pred)
	return fact.FactOptional{Fact: f, IsNegated: true}
}

func (p *parser) parseFactArgsAndFluent(pred *ontology.Predicate) fact.Fact {
	p.expect("(")
	var args []ontology.Value
	for p.text() != ")" {
		args = append(args, p.parseValue())
		if p.text() == "," {
			p.advance()
		}
	}
	p.expect(")")
	var fluent ontology.Value
	if p.text() == "=" {
		p.advance()
		fluent = p.parseValue()
	}
	return fact.Fact{Predicate: pred, Args: args, Fluent: fluent}
}

var conditionWordOps = map[string]func(l, r *condition.Condition) *condition.Condition{
	"and": condition.And, "or": condition.Or, "imply": condition.Imply,
}

func (p *parser) parseBinaryCondition(op string) *condition.Condition {
	ctor, ok := conditionWordOps[op]
	if !ok {
		p.fail("unknown binary operator %q", op)
		return nil
	}
	return p.parseBinaryConditionBody(ctor)
}

func (p *parser) parseBinaryConditionBody(ctor func(l, r *condition.Condition) *condition.Condition) *condition.Condition {
	p.expect("(")
	l := p.parseCondition()
	p.expect(",")
	r := p.parseCondition()
	p.expect(")")
	return ctor(l, r)
}

// ParseWSM parses the world-state-modification grammar: and/assign/
// increase/decrease/forall over fact leaves and numeric/fluent
// expressions.
func ParseWSM(input string, sym *Symbols) (*wsm.WSM, error) {
	p := newParser(input, sym)
	w := p.parseWSM()
	if p.err != nil {
		return nil, p.err
	}
	return w, nil
}

func (p *parser) parseWSM() *wsm.WSM {
	if p.tok == scanner.Int {
		n, _ := strconv.Atoi(p.text())
		p.advance()
		return wsm.Num(n)
	}
	if p.tok == '?' {
		name := p.token()
		param, err := p.sym.parameter(name)
		if err != nil {
			p.fail("%v", err)
			return nil
		}
		return wsm.ParamRef(param)
	}
	if p.tok == '!' {
		p.advance()
		fo := p.parseFactOptionalAfterBang()
		return wsm.FactNode(fo)
	}
	// '+'/'-' are punctuation runes, not identifiers; handle them before
	// falling into the identifier-keyed switch below.
	if p.tok == '+' {
		p.advance()
		return p.parseWSMBinary(wsm.Plus)
	}
	if p.tok == '-' {
		p.advance()
		return p.parseWSMBinary(wsm.Minus)
	}
	name := p.token()
	switch name {
	case "and":
		p.expect("(")
		l := p.parseWSM()
		p.expect(",")
		r := p.parseWSM()
		p.expect(")")
		return wsm.And(l, r)
	case "assign":
		return p.parseWSMBinary(wsm.Assign)
	case "increase":
		return p.parseWSMBinary(wsm.Increase)
	case "decrease":
		return p.parseWSMBinary(wsm.Decrease)
	case wsm.Undefined:
		pred := &ontology.Predicate{Name: wsm.Undefined}
		return wsm.FactNode(fact.FactOptional{Fact: fact.Fact{Predicate: pred}})
	case "forall":
		p.expect("(")
		pname := p.token()
		param, err := p.sym.parameter(pname)
		if err != nil {
			p.fail("%v", err)
			return nil
		}
		p.expect(",")
		pattern := p.parseWSM()
		p.expect(",")
		body := p.parseWSM()
		p.expect(")")
		return wsm.ForAllNode(param, pattern, body)
	default:
		pred, err := p.sym.predicate(name)
		if err != nil {
			p.fail("%v", err)
			return nil
		}
		f := p.parseFactArgsAndFluent(pred)
		return wsm.FactNode(fact.FactOptional{Fact: f})
	}
}

func (p *parser) parseWSMBinary(ctor func(l, r *wsm.WSM) *wsm.WSM) *wsm.WSM {
	p.expect("(")
	l := p.parseWSM()
	p.expect(",")
	r := p.parseWSM()
	p.expect(")")
	return ctor(l, r)
}

// Format renders any of fact.Fact, fact.FactOptional, *condition.Condition,
// *wsm.WSM back to the textual grammar, the inverse of the parse
// functions above — they already implement String() in exactly the
// grammar this package parses, so Format simply delegates.
func Format(v fmt.Stringer) string {
	if v == nil {
		return ""
	}
	return v.String()
}
