// Package wsm implements the WorldStateModification sum type: the tree of
// effect nodes (AND, ASSIGN, FORALL, INCREASE, DECREASE, PLUS, MINUS) and
// leaf facts/numbers that actions and events apply to a world state.
package wsm

import (
	"fmt"

	"contextualplanner/internal/fact"
	"contextualplanner/internal/ontology"
)

type Kind int

const (
	KindFact Kind = iota
	KindNumber
	KindAnd
	KindAssign
	KindForall
	KindIncrease
	KindDecrease
	KindPlus
	KindMinus
	KindParamRef
)

// WSM is a node of the world-state-modification tree.
type WSM struct {
	Kind    Kind
	FactOpt fact.FactOptional // KindFact: the fact to add (!IsNegated) or remove (IsNegated)
	Number  int
	Left    *WSM // ASSIGN/INCREASE/DECREASE: lhs fact node; FORALL: pattern fact node; PLUS/MINUS: left operand
	Right   *WSM // ASSIGN/INCREASE/DECREASE: rhs expr; FORALL: body; PLUS/MINUS: right operand
	Param   *ontology.Parameter
}

func FactNode(fo fact.FactOptional) *WSM { return &WSM{Kind: KindFact, FactOpt: fo} }
func Num(n int) *WSM                     { return &WSM{Kind: KindNumber, Number: n} }
func And(l, r *WSM) *WSM                 { return &WSM{Kind: KindAnd, Left: l, Right: r} }
func Assign(lhs, rhs *WSM) *WSM          { return &WSM{Kind: KindAssign, Left: lhs, Right: rhs} }
func Increase(lhs, rhs *WSM) *WSM        { return &WSM{Kind: KindIncrease, Left: lhs, Right: rhs} }
func Decrease(lhs, rhs *WSM) *WSM        { return &WSM{Kind: KindDecrease, Left: lhs, Right: rhs} }
func Plus(l, r *WSM) *WSM                { return &WSM{Kind: KindPlus, Left: l, Right: r} }
func Minus(l, r *WSM) *WSM               { return &WSM{Kind: KindMinus, Left: l, Right: r} }
func ForAllNode(p *ontology.Parameter, pattern, body *WSM) *WSM {
	return &WSM{Kind: KindForall, Param: p, Left: pattern, Right: body}
}

// ParamRef builds a bare-parameter rhs expression, e.g. the "?t" of
// assign(pred_d, ?t) where the event binds ?t structurally rather than
// reading it off a fact.
func ParamRef(p *ontology.Parameter) *WSM { return &WSM{Kind: KindParamRef, Param: p} }

// Undefined is the reserved rhs token meaning "remove the fluent".
const Undefined = "undefined"

func (w *WSM) String() string {
	if w == nil {
		return ""
	}
	switch w.Kind {
	case KindFact:
		return w.FactOpt.String()
	case KindNumber:
		return fmt.Sprintf("%d", w.Number)
	case KindAnd:
		return fmt.Sprintf("and(%s, %s)", w.Left, w.Right)
	case KindAssign:
		return fmt.Sprintf("assign(%s, %s)", w.Left, w.Right)
	case KindIncrease:
		return fmt.Sprintf("increase(%s, %s)", w.Left, w.Right)
	case KindDecrease:
		return fmt.Sprintf("decrease(%s, %s)", w.Left, w.Right)
	case KindPlus:
		return fmt.Sprintf("+(%s, %s)", w.Left, w.Right)
	case KindMinus:
		return fmt.Sprintf("-(%s, %s)", w.Left, w.Right)
	case KindForall:
		return fmt.Sprintf("forall(?%s, %s, %s)", w.Param.Name, w.Left, w.Right)
	case KindParamRef:
		return "?" + w.Param.Name
	}
	return "?"
}

// IsEmpty reports whether the modification is absent.
func (w *WSM) IsEmpty() bool { return w == nil }

// ForEachLeaf visits the fact leaves the modification writes, in
// left-to-right order: KindFact nodes, the lhs of ASSIGN/INCREASE/DECREASE
// and the body of FORALL. Fact nodes inside a rhs expression and a FORALL's
// pattern are not visited.
func (w *WSM) ForEachLeaf(cb func(fact.FactOptional)) {
	if w == nil {
		return
	}
	switch w.Kind {
	case KindFact:
		cb(w.FactOpt)
	case KindAnd:
		w.Left.ForEachLeaf(cb)
		w.Right.ForEachLeaf(cb)
	case KindAssign, KindIncrease, KindDecrease:
		w.Left.ForEachLeaf(cb)
	case KindForall:
		w.Right.ForEachLeaf(cb)
	}
}

// HasFact reports whether f appears (positively or negatively) anywhere in
// the modification tree.
func (w *WSM) HasFact(f fact.Fact) bool {
	if w == nil {
		return false
	}
	found := false
	w.ForEachLeaf(func(fo fact.FactOptional) {
		if fo.Fact.MatchesArgs(f) {
			found = true
		}
	})
	return found
}

// Concat builds the AND-concatenation of two modifications, tolerating nil
// on either side.
func Concat(a, b *WSM) *WSM {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return And(a, b)
}
