package condition

import (
	"contextualplanner/internal/fact"
	"contextualplanner/internal/ontology"
)

// IsTrue evaluates the condition against world, optionally filling
// paramsOut with the set of ground values each EXISTS/FORALL-free
// parameter referenced by a leaf fact could take for the condition to
// hold. bindings carries parameter values already known by the caller
// (e.g. from an enclosing action's partially-solved parameters).
func (c *Condition) IsTrue(world WorldView, bindings ontology.ParamBindings, paramsOut ontology.ParamBindings) bool {
	if c == nil {
		return true
	}
	switch c.Kind {
	case KindFact:
		return evalFactOptional(world, c.FactOpt, bindings, paramsOut)
	case KindNumber:
		return c.Number != 0
	case KindAnd:
		return c.Left.IsTrue(world, bindings, paramsOut) && c.Right.IsTrue(world, bindings, paramsOut)
	case KindOr:
		return c.Left.IsTrue(world, bindings, paramsOut) || c.Right.IsTrue(world, bindings, paramsOut)
	case KindNot:
		return !c.Left.IsTrue(world, bindings, nil)
	case KindImply:
		if !c.Left.IsTrue(world, bindings, nil) {
			return true
		}
		return c.Right.IsTrue(world, bindings, paramsOut)
	case KindExists:
		for _, e := range world.AllKnownEntitiesOfType(c.Param.Type) {
			sub := bindings.Clone()
			sub.Add(c.Param.Name, e)
			if c.Left.IsTrue(world, sub, nil) {
				if paramsOut != nil {
					paramsOut.Add(c.Param.Name, e)
				}
				return true
			}
		}
		return false
	case KindForall:
		entities := world.AllKnownEntitiesOfType(c.Param.Type)
		for _, e := range entities {
			sub := bindings.Clone()
			sub.Add(c.Param.Name, e)
			if !c.Left.IsTrue(world, sub, nil) {
				return false
			}
		}
		return true
	case KindEquals, KindDifferent, KindSuperior, KindSuperiorOrEqual, KindInferior, KindInferiorOrEqual:
		lv, lok := reduceFluentValue(world, c.Left, bindings)
		rv, rok := reduceFluentValue(world, c.Right, bindings)
		if !lok || !rok {
			return c.Kind == KindDifferent
		}
		if ln, lnum := ontology.AsNumber(lv); lnum {
			if rn, rnum := ontology.AsNumber(rv); rnum {
				return compare(c.Kind, ln, rn)
			}
		}
		// Non-numeric fluents (entities) only support equality, not ordering.
		switch c.Kind {
		case KindEquals:
			return lv.ValueName() == rv.ValueName()
		case KindDifferent:
			return lv.ValueName() != rv.ValueName()
		default:
			return false
		}
	case KindPlus, KindMinus:
		_, ok := reduceValue(world, c, bindings)
		return ok
	}
	return false
}

// CanBecomeTrue is the optimistic variant used by the search to prune
// branches: it ignores the negative half of removed facts, i.e. NOT nodes
// and negated fact leaves are treated as optimistically satisfiable.
func (c *Condition) CanBecomeTrue(world WorldView, bindings ontology.ParamBindings) bool {
	if c == nil {
		return true
	}
	switch c.Kind {
	case KindFact:
		if c.FactOpt.IsNegated {
			return true
		}
		return evalFactOptional(world, c.FactOpt, bindings, nil)
	case KindNumber:
		return true
	case KindAnd:
		return c.Left.CanBecomeTrue(world, bindings) && c.Right.CanBecomeTrue(world, bindings)
	case KindOr:
		return c.Left.CanBecomeTrue(world, bindings) || c.Right.CanBecomeTrue(world, bindings)
	case KindNot:
		return true
	case KindImply:
		return true
	case KindExists:
		for _, e := range world.AllKnownEntitiesOfType(c.Param.Type) {
			sub := bindings.Clone()
			sub.Add(c.Param.Name, e)
			if c.Left.CanBecomeTrue(world, sub) {
				return true
			}
		}
		return len(world.AllKnownEntitiesOfType(c.Param.Type)) == 0
	case KindForall:
		return true
	default:
		return true
	}
}

func evalFactOptional(world WorldView, fo fact.FactOptional, bindings ontology.ParamBindings, paramsOut ontology.ParamBindings) bool {
	if fo.Fact.IsGround() {
		sat := world.IsFactOptionalSatisfied(fo)
		return sat
	}
	ground, ok := groundFact(fo.Fact, bindings)
	if ok {
		return world.IsFactOptionalSatisfied(fact.FactOptional{Fact: ground, IsNegated: fo.IsNegated})
	}
	// Under-constrained: enumerate candidates for each unbound parameter
	// slot from the world index and test each combination.
	found := false
	for i, a := range fo.Fact.Args {
		p, isParam := a.(*ontology.Parameter)
		if !isParam {
			continue
		}
		for _, cand := range world.CandidateArgValues(fo.Fact, i) {
			sub := bindings.Clone()
			sub.Add(p.Name, cand)
			if evalFactOptional(world, fo, sub, nil) {
				found = true
				if paramsOut != nil {
					paramsOut.Add(p.Name, cand)
				}
			}
		}
		break
	}
	if !found && fo.IsNegated {
		return true
	}
	return found
}

func groundFact(f fact.Fact, bindings ontology.ParamBindings) (fact.Fact, bool) {
	args := make([]ontology.Value, len(f.Args))
	for i, a := range f.Args {
		if p, ok := a.(*ontology.Parameter); ok {
			set := bindings.Values(p.Name)
			if len(set) != 1 {
				return fact.Fact{}, false
			}
			for _, e := range set {
				args[i] = e
			}
		} else {
			args[i] = a
		}
	}
	fluent := f.Fluent
	if p, ok := fluent.(*ontology.Parameter); ok {
		set := bindings.Values(p.Name)
		if len(set) != 1 {
			return fact.Fact{}, false
		}
		for _, e := range set {
			fluent = e
		}
	}
	return fact.Fact{Predicate: f.Predicate, Args: args, Fluent: fluent}, true
}

func reduceValue(world WorldView, c *Condition, bindings ontology.ParamBindings) (int, bool) {
	if c == nil {
		return 0, false
	}
	switch c.Kind {
	case KindNumber:
		return c.Number, true
	case KindFact:
		ground, ok := groundFact(c.FactOpt.Fact, bindings)
		if !ok {
			return 0, false
		}
		v, ok := world.FluentValue(ground)
		if !ok {
			return 0, false
		}
		n, ok := ontology.AsNumber(v)
		return n, ok
	case KindPlus:
		l, lok := reduceValue(world, c.Left, bindings)
		r, rok := reduceValue(world, c.Right, bindings)
		return l + r, lok && rok
	case KindMinus:
		l, lok := reduceValue(world, c.Left, bindings)
		r, rok := reduceValue(world, c.Right, bindings)
		return l - r, lok && rok
	}
	return 0, false
}

// reduceFluentValue reduces c to a raw value, preserving entity identity
// rather than forcing a numeric reduction — callers that only handle
// numbers should fall back to reduceValue instead.
func reduceFluentValue(world WorldView, c *Condition, bindings ontology.ParamBindings) (ontology.Value, bool) {
	if c == nil {
		return nil, false
	}
	switch c.Kind {
	case KindNumber:
		return ontology.NewNumberEntity(c.Number), true
	case KindFact:
		ground, ok := groundFact(c.FactOpt.Fact, bindings)
		if !ok {
			return nil, false
		}
		return world.FluentValue(ground)
	case KindPlus, KindMinus:
		n, ok := reduceValue(world, c, bindings)
		if !ok {
			return nil, false
		}
		return ontology.NewNumberEntity(n), true
	}
	return nil, false
}

func compare(k Kind, l, r int) bool {
	switch k {
	case KindEquals:
		return l == r
	case KindDifferent:
		return l != r
	case KindSuperior:
		return l > r
	case KindSuperiorOrEqual:
		return l >= r
	case KindInferior:
		return l < r
	case KindInferiorOrEqual:
		return l <= r
	}
	return false
}
