// Package condition implements the Condition sum type of the planner's
// logical layer: a tree of AND/OR/NOT/IMPLY/comparison/EXISTS/FORALL nodes
// over fact-optionals and integer/fluent expressions, plus its evaluator.
package condition

import (
	"fmt"

	"contextualplanner/internal/fact"
	"contextualplanner/internal/ontology"
)

// Kind tags the node type of a Condition.
type Kind int

const (
	KindFact Kind = iota
	KindNumber
	KindAnd
	KindOr
	KindNot
	KindImply
	KindEquals
	KindDifferent
	KindSuperior
	KindSuperiorOrEqual
	KindInferior
	KindInferiorOrEqual
	KindPlus
	KindMinus
	KindExists
	KindForall
)

func (k Kind) String() string {
	switch k {
	case KindFact:
		return "FACT"
	case KindNumber:
		return "NUMBER"
	case KindAnd:
		return "AND"
	case KindOr:
		return "OR"
	case KindNot:
		return "NOT"
	case KindImply:
		return "IMPLY"
	case KindEquals:
		return "EQUALS"
	case KindDifferent:
		return "DIFFERENT"
	case KindSuperior:
		return "SUPERIOR"
	case KindSuperiorOrEqual:
		return "SUPERIOR_OR_EQUAL"
	case KindInferior:
		return "INFERIOR"
	case KindInferiorOrEqual:
		return "INFERIOR_OR_EQUAL"
	case KindPlus:
		return "PLUS"
	case KindMinus:
		return "MINUS"
	case KindExists:
		return "EXISTS"
	case KindForall:
		return "FORALL"
	}
	return "?"
}

// Condition is a node of the condition tree. Leaves are KindFact (wrapping
// a fact.FactOptional) and KindNumber (wrapping a literal). Everything
// else is an interior node over Left (and, for binary nodes, Right).
// EXISTS/FORALL additionally carry the auxiliary Param they bind.
type Condition struct {
	Kind    Kind
	FactOpt fact.FactOptional
	Number  int
	Left    *Condition
	Right   *Condition
	Param   *ontology.Parameter
}

// Fact builds a leaf condition over a fact-optional.
func Fact(fo fact.FactOptional) *Condition { return &Condition{Kind: KindFact, FactOpt: fo} }

// Num builds a literal-integer leaf.
func Num(n int) *Condition { return &Condition{Kind: KindNumber, Number: n} }

// And/Or/Not/Imply and the comparison/arithmetic constructors build
// interior nodes.
func And(l, r *Condition) *Condition    { return &Condition{Kind: KindAnd, Left: l, Right: r} }
func Or(l, r *Condition) *Condition     { return &Condition{Kind: KindOr, Left: l, Right: r} }
func Not(l *Condition) *Condition       { return &Condition{Kind: KindNot, Left: l} }
func Imply(l, r *Condition) *Condition  { return &Condition{Kind: KindImply, Left: l, Right: r} }
func Eq(l, r *Condition) *Condition     { return &Condition{Kind: KindEquals, Left: l, Right: r} }
func Ne(l, r *Condition) *Condition     { return &Condition{Kind: KindDifferent, Left: l, Right: r} }
func Gt(l, r *Condition) *Condition     { return &Condition{Kind: KindSuperior, Left: l, Right: r} }
func Ge(l, r *Condition) *Condition     { return &Condition{Kind: KindSuperiorOrEqual, Left: l, Right: r} }
func Lt(l, r *Condition) *Condition     { return &Condition{Kind: KindInferior, Left: l, Right: r} }
func Le(l, r *Condition) *Condition     { return &Condition{Kind: KindInferiorOrEqual, Left: l, Right: r} }
func Plus(l, r *Condition) *Condition   { return &Condition{Kind: KindPlus, Left: l, Right: r} }
func Minus(l, r *Condition) *Condition  { return &Condition{Kind: KindMinus, Left: l, Right: r} }
func Exists(p *ontology.Parameter, body *Condition) *Condition {
	return &Condition{Kind: KindExists, Param: p, Left: body}
}
func Forall(p *ontology.Parameter, body *Condition) *Condition {
	return &Condition{Kind: KindForall, Param: p, Left: body}
}

// WorldView is the minimal read interface the evaluator needs from a world
// state. worldstate.WorldState implements it; this package never imports
// worldstate, keeping the dependency direction leaf-ward.
type WorldView interface {
	IsFactOptionalSatisfied(fo fact.FactOptional) bool
	FluentValue(f fact.Fact) (ontology.Value, bool)
	CandidateArgValues(pattern fact.Fact, argIndex int) []*ontology.Entity
	AllKnownEntitiesOfType(t *ontology.Type) []*ontology.Entity
}

// String renders the condition in the distilled spec's prefix-ish form,
// close enough to be reparsed by the exprtext package.
func (c *Condition) String() string {
	if c == nil {
		return ""
	}
	switch c.Kind {
	case KindFact:
		return c.FactOpt.String()
	case KindNumber:
		return fmt.Sprintf("%d", c.Number)
	case KindNot:
		return fmt.Sprintf("not(%s)", c.Left)
	case KindExists:
		return fmt.Sprintf("exists(?%s, %s)", c.Param.Name, c.Left)
	case KindForall:
		return fmt.Sprintf("forall(?%s, %s)", c.Param.Name, c.Left)
	default:
		op := map[Kind]string{
			KindAnd: "and", KindOr: "or", KindImply: "imply",
			KindEquals: "=", KindDifferent: "!=", KindSuperior: ">",
			KindSuperiorOrEqual: ">=", KindInferior: "<", KindInferiorOrEqual: "<=",
			KindPlus: "+", KindMinus: "-",
		}[c.Kind]
		return fmt.Sprintf("%s(%s, %s)", op, c.Left, c.Right)
	}
}

// ForEachFactLeaf visits every KindFact leaf of the tree in left-to-right
// order, invoking cb with its fact-optional.
func (c *Condition) ForEachFactLeaf(cb func(fact.FactOptional)) {
	if c == nil {
		return
	}
	switch c.Kind {
	case KindFact:
		cb(c.FactOpt)
	case KindNot, KindExists, KindForall:
		c.Left.ForEachFactLeaf(cb)
	case KindNumber:
	default:
		c.Left.ForEachFactLeaf(cb)
		c.Right.ForEachFactLeaf(cb)
	}
}

// FindConditionCandidateFromFactFromEffect iterates the condition's leaves,
// invoking cb with each one; used by the search to back-derive parameter
// values from a candidate effect fact.
func (c *Condition) FindConditionCandidateFromFactFromEffect(cb func(fact.FactOptional)) {
	c.ForEachFactLeaf(cb)
}

// ContainsFactOptional reports true iff at least one leaf of the condition
// could unify with fo: same predicate and negation flag, with parameters in
// either side treated as holes.
func (c *Condition) ContainsFactOptional(fo fact.FactOptional) bool {
	if c == nil {
		return false
	}
	found := false
	c.ForEachFactLeaf(func(leaf fact.FactOptional) {
		if found {
			return
		}
		if leaf.IsNegated != fo.IsNegated {
			return
		}
		if leaf.Fact.Predicate != fo.Fact.Predicate {
			return
		}
		if unifiable(leaf.Fact, fo.Fact) {
			found = true
		}
	})
	return found
}

func unifiable(a, b fact.Fact) bool {
	if a.Predicate != b.Predicate || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		ag, aGround := a.Args[i].(*ontology.Entity)
		bg, bGround := b.Args[i].(*ontology.Entity)
		if aGround && bGround && ag.Name != bg.Name && !ontology.IsAnyValue(ag) && !ontology.IsAnyValue(bg) {
			return false
		}
	}
	return true
}
