package worldstate

import (
	"contextualplanner/internal/condition"
	"contextualplanner/internal/fact"
	"contextualplanner/internal/ontology"
)

// RefreshCacheIfNeeded recomputes the reachable-facts closure (§4.5) when
// the world has been mutated since the last computation. It is a no-op
// without a domain set.
func (ws *WorldState) RefreshCacheIfNeeded() {
	if !ws.needsReachableRefresh || ws.dom == nil {
		ws.needsReachableRefresh = false
		return
	}
	ws.reachable = ws.computeReachable()
	ws.needsReachableRefresh = false
}

// IsReachable reports whether f could become true by some chain of
// action/event applications from the current world state, per the most
// recent refresh. Callers needing an up-to-date answer must call
// RefreshCacheIfNeeded first.
func (ws *WorldState) IsReachable(f fact.Fact) bool {
	if ws.reachable == nil {
		return true // no closure computed yet: optimistic default
	}
	return ws.reachable[f.Signature()+"|"+f.ArgsKey()]
}

// reachableView is a condition.WorldView backed by a growing reachable-fact
// set: presence is judged ignoring fluent value (facts are "reachable" once
// their arguments are, regardless of which fluent value they would carry),
// matching the "reachableFactsWithAnyValue" half of §4.5 — the concrete
// variant collapses into the same set here, documented as a deliberate
// simplification.
type reachableView struct {
	ws     *WorldState
	byArgs map[string]fact.Fact // signature|ArgsKey -> representative fact
	bySig  map[string]map[string]bool
}

func newReachableView(ws *WorldState) *reachableView {
	return &reachableView{ws: ws, byArgs: map[string]fact.Fact{}, bySig: map[string]map[string]bool{}}
}

func (v *reachableView) add(f fact.Fact) bool {
	key := f.Signature() + "|" + f.ArgsKey()
	if _, ok := v.byArgs[key]; ok {
		return false
	}
	v.byArgs[key] = f
	if v.bySig[f.Signature()] == nil {
		v.bySig[f.Signature()] = map[string]bool{}
	}
	v.bySig[f.Signature()][key] = true
	return true
}

func (v *reachableView) IsFactOptionalSatisfied(fo fact.FactOptional) bool {
	key := fo.Fact.Signature() + "|" + fo.Fact.ArgsKey()
	_, present := v.byArgs[key]
	if fo.IsNegated {
		return true // §4.5: negative literals are never required to be removable
	}
	return present
}

func (v *reachableView) FluentValue(f fact.Fact) (ontology.Value, bool) {
	existing, ok := v.byArgs[f.Signature()+"|"+f.ArgsKey()]
	if !ok || existing.Fluent == nil {
		return nil, false
	}
	return existing.Fluent, true
}

func (v *reachableView) CandidateArgValues(pattern fact.Fact, argIndex int) []*ontology.Entity {
	seen := map[string]bool{}
	var out []*ontology.Entity
	for key := range v.bySig[pattern.Signature()] {
		f := v.byArgs[key]
		if !patternMatchesExceptIndex(pattern, f, argIndex) {
			continue
		}
		e, ok := f.Args[argIndex].(*ontology.Entity)
		if !ok || seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		out = append(out, e)
	}
	return out
}

func patternMatchesExceptIndex(pattern, f fact.Fact, argIndex int) bool {
	if len(pattern.Args) != len(f.Args) {
		return false
	}
	for i, a := range pattern.Args {
		if i == argIndex {
			continue
		}
		if !ontology.IsGround(a) {
			continue
		}
		if a.ValueName() != f.Args[i].ValueName() {
			return false
		}
	}
	return true
}

func (v *reachableView) AllKnownEntitiesOfType(t *ontology.Type) []*ontology.Entity {
	return v.ws.AllKnownEntitiesOfType(t)
}

var _ condition.WorldView = (*reachableView)(nil)

// computeReachable runs the monotone fixpoint of §4.5: seed with current
// facts, then repeatedly add every fact an action or event whose
// precondition can become true (optimistically) might produce, until no
// change.
func (ws *WorldState) computeReachable() map[string]bool {
	view := newReachableView(ws)
	for _, f := range ws.facts {
		view.add(f)
	}
	if ws.dom == nil {
		return finalizeReachable(view)
	}

	for {
		changed := false
		for _, a := range ws.dom.Actions() {
			if !a.CanBeUsedByPlanner {
				continue
			}
			bindings := ontology.NewParamBindings()
			if !a.Preconditions.CanBecomeTrue(view, bindings) {
				continue
			}
			for _, produced := range producibleFacts(ws, a.Parameters, a.Effect.AllFactOptionalsThatCanBeModified()) {
				if view.add(produced) {
					changed = true
				}
			}
		}
		for _, setID := range ws.dom.EventSetIDsSorted() {
			for _, e := range ws.dom.EventsIn(setID) {
				bindings := ontology.NewParamBindings()
				if !e.Condition.CanBecomeTrue(view, bindings) {
					continue
				}
				var leaves []fact.FactOptional
				e.FactsToModify.ForEachLeaf(func(fo fact.FactOptional) { leaves = append(leaves, fo) })
				for _, produced := range producibleFacts(ws, e.Parameters, leaves) {
					if view.add(produced) {
						changed = true
					}
				}
			}
		}
		if !changed {
			break
		}
	}
	return finalizeReachable(view)
}

func finalizeReachable(view *reachableView) map[string]bool {
	out := make(map[string]bool, len(view.byArgs))
	for k := range view.byArgs {
		out[k] = true
	}
	return out
}

// producibleFacts expands the positive leaves of an effect over every
// concrete combination of its owning action/event's formal parameters,
// since the reachable-facts closure has no parameter bindings of its own to
// work from.
func producibleFacts(ws *WorldState, params []*ontology.Parameter, leaves []fact.FactOptional) []fact.Fact {
	var out []fact.Fact
	for _, fo := range leaves {
		if fo.IsNegated {
			continue
		}
		out = append(out, expandParams(ws, params, fo.Fact)...)
	}
	return out
}

func expandParams(ws *WorldState, params []*ontology.Parameter, f fact.Fact) []fact.Fact {
	unbound := map[string]*ontology.Parameter{}
	collect := func(v ontology.Value) {
		if p, ok := v.(*ontology.Parameter); ok {
			unbound[p.Name] = p
		}
	}
	for _, a := range f.Args {
		collect(a)
	}
	collect(f.Fluent)
	if len(unbound) == 0 {
		return []fact.Fact{f}
	}
	names := make([]string, 0, len(unbound))
	for n := range unbound {
		names = append(names, n)
	}
	results := []fact.Fact{f}
	for _, name := range names {
		p := unbound[name]
		cands := ws.AllKnownEntitiesOfType(p.Type)
		if len(cands) == 0 {
			return nil
		}
		var next []fact.Fact
		for _, r := range results {
			for _, c := range cands {
				next = append(next, r.ReplaceArgument(p.ValueName(), c))
			}
		}
		results = next
	}
	_ = params
	return results
}
