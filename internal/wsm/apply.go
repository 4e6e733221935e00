package wsm

import (
	"contextualplanner/internal/fact"
	"contextualplanner/internal/ontology"
	"contextualplanner/internal/perr"
)

// FactStore is the minimal write/read interface a world-state-like object
// must provide for a WSM to be applied to it. worldstate.WorldState
// implements it; this package never imports worldstate.
type FactStore interface {
	AddFact(f fact.Fact)
	RemoveFactsMatchingArgs(f fact.Fact)
	FluentValue(f fact.Fact) (ontology.Value, bool)
	CandidateArgValues(pattern fact.Fact, argIndex int) []*ontology.Entity
	AllKnownEntitiesOfType(t *ontology.Type) []*ontology.Entity
}

// ApplyTo applies the modification to store under bindings, left-to-right
// for AND nodes, per the semantics in the spec's §4.3.
func (w *WSM) ApplyTo(store FactStore, bindings ontology.ParamBindings) error {
	if w == nil {
		return nil
	}
	switch w.Kind {
	case KindAnd:
		if err := w.Left.ApplyTo(store, bindings); err != nil {
			return err
		}
		return w.Right.ApplyTo(store, bindings)
	case KindFact:
		ground, ok := groundFact(w.FactOpt.Fact, bindings)
		if !ok {
			return perr.New(perr.PlannerInternal, "cannot ground fact %s for apply", w.FactOpt.Fact)
		}
		if w.FactOpt.IsNegated {
			store.RemoveFactsMatchingArgs(ground)
		} else {
			store.AddFact(ground)
		}
		return nil
	case KindAssign:
		lhs, ok := groundFact(w.Left.FactOpt.Fact, bindings)
		if !ok {
			return perr.New(perr.PlannerInternal, "cannot ground assign lhs")
		}
		if isUndefined(w.Right) {
			store.RemoveFactsMatchingArgs(lhs)
			return nil
		}
		v, ok := reduceToValue(store, w.Right, bindings)
		if !ok {
			return perr.New(perr.PlannerInternal, "cannot reduce assign rhs")
		}
		lhs.Fluent = v
		store.AddFact(lhs)
		return nil
	case KindIncrease, KindDecrease:
		lhs, ok := groundFact(w.Left.FactOpt.Fact, bindings)
		if !ok {
			return perr.New(perr.PlannerInternal, "cannot ground increase/decrease lhs")
		}
		delta, ok := reduceToInt(store, w.Right, bindings)
		if !ok {
			return perr.New(perr.PlannerInternal, "cannot reduce increase/decrease rhs")
		}
		cur := 0
		if v, ok := store.FluentValue(lhs); ok {
			if n, ok := ontology.AsNumber(v); ok {
				cur = n
			}
		}
		if w.Kind == KindIncrease {
			cur += delta
		} else {
			cur -= delta
		}
		lhs.Fluent = ontology.NewNumberEntity(cur)
		store.AddFact(lhs)
		return nil
	case KindForall:
		for _, e := range candidatesForPattern(store, w.Left.FactOpt.Fact, w.Param) {
			sub := bindings.Clone()
			sub.Add(w.Param.Name, e)
			if err := w.Right.ApplyTo(store, sub); err != nil {
				return err
			}
		}
		return nil
	}
	return perr.New(perr.PlannerInternal, "unknown wsm kind %d", w.Kind)
}

// ForAll visits each effect fact-optional the modification *would* produce
// under bindings, with numeric rhs resolved to concrete post-effect
// fluents, without mutating store.
func (w *WSM) ForAll(store FactStore, bindings ontology.ParamBindings, cb func(fact.FactOptional)) {
	if w == nil {
		return
	}
	switch w.Kind {
	case KindAnd:
		w.Left.ForAll(store, bindings, cb)
		w.Right.ForAll(store, bindings, cb)
	case KindFact:
		ground, ok := groundFact(w.FactOpt.Fact, bindings)
		if ok {
			cb(fact.FactOptional{Fact: ground, IsNegated: w.FactOpt.IsNegated})
		} else {
			cb(w.FactOpt)
		}
	case KindAssign:
		lhs, ok := groundFact(w.Left.FactOpt.Fact, bindings)
		if !ok {
			return
		}
		if isUndefined(w.Right) {
			cb(fact.FactOptional{Fact: lhs, IsNegated: true})
			return
		}
		if v, ok := reduceToValue(store, w.Right, bindings); ok {
			lhs.Fluent = v
		} else if w.Right.Kind == KindParamRef {
			lhs.Fluent = w.Right.Param
		}
		cb(fact.FactOptional{Fact: lhs})
	case KindIncrease, KindDecrease:
		lhs, ok := groundFact(w.Left.FactOpt.Fact, bindings)
		if !ok {
			return
		}
		cur := 0
		if v, ok := store.FluentValue(lhs); ok {
			if n, ok := ontology.AsNumber(v); ok {
				cur = n
			}
		}
		if delta, ok := reduceToInt(store, w.Right, bindings); ok {
			if w.Kind == KindIncrease {
				cur += delta
			} else {
				cur -= delta
			}
		}
		lhs.Fluent = ontology.NewNumberEntity(cur)
		cb(fact.FactOptional{Fact: lhs})
	case KindForall:
		for _, e := range candidatesForPattern(store, w.Left.FactOpt.Fact, w.Param) {
			sub := bindings.Clone()
			sub.Add(w.Param.Name, e)
			w.Right.ForAll(store, sub, cb)
		}
	}
}

// CanSatisfyObjective asks whether this effect, under bindings, can produce
// a fact-optional accepted by cb. It walks the leaves ForAll reports; cb
// receives each produced fact-optional and the bindings passed in here (not
// the per-entity bindings a FORALL uses internally), and returns true if
// that closes the caller's objective.
func (w *WSM) CanSatisfyObjective(store FactStore, bindings ontology.ParamBindings, cb func(fact.FactOptional, ontology.ParamBindings) bool) bool {
	if w == nil {
		return false
	}
	satisfied := false
	w.ForAll(store, bindings, func(fo fact.FactOptional) {
		if satisfied {
			return
		}
		if cb(fo, bindings) {
			satisfied = true
		}
	})
	return satisfied
}

func isUndefined(rhs *WSM) bool {
	return rhs != nil && rhs.Kind == KindFact && rhs.FactOpt.Fact.Predicate != nil && rhs.FactOpt.Fact.Predicate.Name == Undefined
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

func reduceToValue(store FactStore, rhs *WSM, bindings ontology.ParamBindings) (ontology.Value, bool) {
	if rhs == nil {
		return nil, false
	}
	switch rhs.Kind {
	case KindNumber:
		return ontology.NewNumberEntity(rhs.Number), true
	case KindFact:
		ground, ok := groundFact(rhs.FactOpt.Fact, bindings)
		if !ok {
			return nil, false
		}
		if ground.Fluent != nil {
			return ground.Fluent, true
		}
		return store.FluentValue(ground)
	case KindParamRef:
		set := bindings.Values(rhs.Param.Name)
		if len(set) != 1 {
			return nil, false
		}
		for _, e := range set {
			return e, true
		}
		return nil, false
	case KindPlus:
		l, lok := reduceToInt(store, rhs.Left, bindings)
		r, rok := reduceToInt(store, rhs.Right, bindings)
		if !lok || !rok {
			return nil, false
		}
		return ontology.NewNumberEntity(l + r), true
	case KindMinus:
		l, lok := reduceToInt(store, rhs.Left, bindings)
		r, rok := reduceToInt(store, rhs.Right, bindings)
		if !lok || !rok {
			return nil, false
		}
		return ontology.NewNumberEntity(l - r), true
	}
	return nil, false
}

func reduceToInt(store FactStore, rhs *WSM, bindings ontology.ParamBindings) (int, bool) {
	v, ok := reduceToValue(store, rhs, bindings)
	if !ok {
		return 0, false
	}
	return ontology.AsNumber(v)
}

func candidatesForPattern(store FactStore, pattern fact.Fact, p *ontology.Parameter) []*ontology.Entity {
	for i, a := range pattern.Args {
		if pp, ok := a.(*ontology.Parameter); ok && pp.Name == p.Name {
			return store.CandidateArgValues(pattern, i)
		}
	}
	return store.AllKnownEntitiesOfType(p.Type)
}
