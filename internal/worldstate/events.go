package worldstate

import (
	"sort"

	"contextualplanner/internal/domainmodel"
	"contextualplanner/internal/ontology"
)

func sortedEvents(events map[domainmodel.EventID]*domainmodel.Event) []*domainmodel.Event {
	ids := make([]string, 0, len(events))
	byID := map[string]*domainmodel.Event{}
	for id, e := range events {
		ids = append(ids, string(id))
		byID[string(id)] = e
	}
	sort.Strings(ids)
	out := make([]*domainmodel.Event, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out
}

// firstSatisfyingBinding finds the first parameter binding (in deterministic
// entity order) under which e.Condition holds, by cartesian enumeration over
// e.Parameters. Event parameter lists are expected to be small.
func (ws *WorldState) firstSatisfyingBinding(e *domainmodel.Event) (ontology.ParamBindings, bool) {
	if e.Condition == nil {
		return ontology.NewParamBindings(), true
	}
	bindings := ontology.NewParamBindings()
	return ws.bindNext(e.Parameters, 0, bindings, e)
}

func (ws *WorldState) bindNext(params []*ontology.Parameter, i int, bindings ontology.ParamBindings, e *domainmodel.Event) (ontology.ParamBindings, bool) {
	if i == len(params) {
		if e.Condition.IsTrue(ws, bindings, nil) {
			return bindings, true
		}
		return nil, false
	}
	p := params[i]
	for _, cand := range ws.AllKnownEntitiesOfType(p.Type) {
		sub := bindings.Clone()
		sub.Add(p.Name, cand)
		if result, ok := ws.bindNext(params, i+1, sub, e); ok {
			return result, true
		}
	}
	return nil, false
}
