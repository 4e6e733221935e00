// Package worldstate implements the WorldState described in the planner's
// §4.4: a set of ground facts indexed by predicate signature and by
// per-argument position, enforcing the fluent uniqueness invariant, and
// driving the event fixpoint (§4.7) after every mutation.
package worldstate

import (
	"contextualplanner/internal/condition"
	"contextualplanner/internal/domain"
	"contextualplanner/internal/fact"
	"contextualplanner/internal/ontology"
	"contextualplanner/internal/perr"
	"contextualplanner/internal/wsm"
)

// WorldState holds the ground facts known about a problem, plus the known
// entity universe used to resolve EXISTS/FORALL and candidate-argument
// lookups.
type WorldState struct {
	ont           *ontology.Ontology
	knownEntities map[string][]*ontology.Entity // by declared type name

	facts       map[string]fact.Fact          // ArgsKey -> fact (fluent uniqueness: one entry per ArgsKey)
	bySignature map[string]map[string]bool    // signature -> set of ArgsKey
	byArgPos    map[string]map[int]map[string]map[string]bool // signature -> argIndex -> argValueName -> set of ArgsKey

	dom *domain.Domain

	needsReachableRefresh bool
	reachable             map[string]bool // signature|argsKey of facts reachable by zero or more actions/events
}

// New builds an empty WorldState over the given ontology and known entity
// universe (problem-declared entities plus ontology constants).
func New(ont *ontology.Ontology, knownEntities map[string][]*ontology.Entity) *WorldState {
	ws := &WorldState{
		ont:           ont,
		knownEntities: map[string][]*ontology.Entity{},
		facts:         map[string]fact.Fact{},
		bySignature:   map[string]map[string]bool{},
		byArgPos:      map[string]map[int]map[string]map[string]bool{},
	}
	for t, es := range knownEntities {
		ws.knownEntities[t] = append([]*ontology.Entity(nil), es...)
	}
	for _, e := range ont.Constants {
		if containsEntity(ws.knownEntities[e.Type.Name], e) {
			continue
		}
		ws.knownEntities[e.Type.Name] = append(ws.knownEntities[e.Type.Name], e)
	}
	ws.needsReachableRefresh = true
	return ws
}

func containsEntity(list []*ontology.Entity, e *ontology.Entity) bool {
	for _, existing := range list {
		if existing == e {
			return true
		}
	}
	return false
}

// SetDomain associates the domain used to drive the event fixpoint and the
// reachable-facts closure. A WorldState with no domain set behaves as a bare
// fact store (no events, no closure).
func (ws *WorldState) SetDomain(d *domain.Domain) {
	ws.dom = d
	ws.needsReachableRefresh = true
}

// AssertFact inserts f (replacing any prior fact sharing its arguments, per
// the fluent uniqueness invariant) and runs the event fixpoint.
func (ws *WorldState) AssertFact(f fact.Fact) error {
	ws.addFactRaw(f)
	return ws.afterMutation()
}

// RetractFact removes any fact matching f's arguments and runs the event
// fixpoint.
func (ws *WorldState) RetractFact(f fact.Fact) error {
	ws.removeFactRaw(f)
	return ws.afterMutation()
}

// Modify applies w under bindings and runs the event fixpoint once the whole
// tree has been applied.
func (ws *WorldState) Modify(w *wsm.WSM, bindings ontology.ParamBindings) error {
	if err := w.ApplyTo(ws, bindings); err != nil {
		return err
	}
	return ws.afterMutation()
}

// AddFact is the raw, fixpoint-free mutator required by wsm.FactStore: it is
// called both directly by action-effect application (wrapped by Modify,
// which runs the fixpoint once at the end) and internally by the event
// fixpoint loop itself, which must not recurse into itself.
func (ws *WorldState) AddFact(f fact.Fact) { ws.addFactRaw(f) }

// RemoveFactsMatchingArgs is the raw counterpart of AddFact.
func (ws *WorldState) RemoveFactsMatchingArgs(f fact.Fact) { ws.removeFactRaw(f) }

func (ws *WorldState) addFactRaw(f fact.Fact) {
	key := f.ArgsKey()
	ws.facts[key] = f
	sig := f.Signature()
	if ws.bySignature[sig] == nil {
		ws.bySignature[sig] = map[string]bool{}
	}
	ws.bySignature[sig][key] = true
	if ws.byArgPos[sig] == nil {
		ws.byArgPos[sig] = map[int]map[string]map[string]bool{}
	}
	for i, a := range f.Args {
		if ws.byArgPos[sig][i] == nil {
			ws.byArgPos[sig][i] = map[string]map[string]bool{}
		}
		name := a.ValueName()
		if ws.byArgPos[sig][i][name] == nil {
			ws.byArgPos[sig][i][name] = map[string]bool{}
		}
		ws.byArgPos[sig][i][name][key] = true
	}
	ws.needsReachableRefresh = true
}

func (ws *WorldState) removeFactRaw(f fact.Fact) {
	sig := f.Signature()
	for key, existing := range ws.facts {
		if existing.Predicate != f.Predicate {
			continue
		}
		if !existing.MatchesArgs(f) {
			continue
		}
		delete(ws.facts, key)
		delete(ws.bySignature[sig], key)
		for i := range existing.Args {
			for name, set := range ws.byArgPos[sig][i] {
				delete(set, key)
				if len(set) == 0 {
					delete(ws.byArgPos[sig][i], name)
				}
			}
		}
	}
	ws.needsReachableRefresh = true
}

// FluentValue reads the current fluent of a ground fact, if any.
func (ws *WorldState) FluentValue(f fact.Fact) (ontology.Value, bool) {
	existing, ok := ws.facts[f.ArgsKey()]
	if !ok || existing.Fluent == nil {
		return nil, false
	}
	return existing.Fluent, true
}

// IsFactOptionalSatisfied implements condition.WorldView: a ground fact
// matches if present (for !IsNegated) or absent (for IsNegated), fluent
// compared when the pattern names one.
func (ws *WorldState) IsFactOptionalSatisfied(fo fact.FactOptional) bool {
	existing, ok := ws.facts[fo.Fact.ArgsKey()]
	matched := ok && existing.Equal(fo.Fact)
	if fo.IsNegated {
		return !matched
	}
	return matched
}

// CandidateArgValues enumerates the ground values seen at argIndex across
// every stored fact matching pattern's other, already-bound argument slots.
func (ws *WorldState) CandidateArgValues(pattern fact.Fact, argIndex int) []*ontology.Entity {
	sig := pattern.Signature()
	keys := ws.candidateKeys(pattern, sig, argIndex)
	seen := map[string]bool{}
	var out []*ontology.Entity
	for key := range keys {
		f := ws.facts[key]
		e, ok := f.Args[argIndex].(*ontology.Entity)
		if !ok || seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		out = append(out, e)
	}
	return out
}

// candidateKeys intersects, over every ground argument slot of pattern other
// than argIndex, the ArgsKey sets that agree with it.
func (ws *WorldState) candidateKeys(pattern fact.Fact, sig string, argIndex int) map[string]bool {
	var result map[string]bool
	intersect := func(keys map[string]bool) {
		if result == nil {
			result = map[string]bool{}
			for k := range keys {
				result[k] = true
			}
			return
		}
		for k := range result {
			if !keys[k] {
				delete(result, k)
			}
		}
	}
	hasBound := false
	for i, a := range pattern.Args {
		if i == argIndex {
			continue
		}
		if !ontology.IsGround(a) {
			continue
		}
		hasBound = true
		intersect(ws.byArgPos[sig][i][a.ValueName()])
	}
	if !hasBound {
		return ws.bySignature[sig]
	}
	return result
}

// AllKnownEntitiesOfType returns every known entity whose type is t or a
// subtype of t.
func (ws *WorldState) AllKnownEntitiesOfType(t *ontology.Type) []*ontology.Entity {
	var out []*ontology.Entity
	for _, list := range ws.knownEntities {
		for _, e := range list {
			if t.IsAssignableFrom(e.Type) {
				out = append(out, e)
			}
		}
	}
	return out
}

// DeclareEntity registers a problem entity so it becomes visible to
// EXISTS/FORALL and candidate-argument enumeration.
func (ws *WorldState) DeclareEntity(e *ontology.Entity) {
	ws.knownEntities[e.Type.Name] = append(ws.knownEntities[e.Type.Name], e)
	ws.needsReachableRefresh = true
}

// ExtractPotentialArgumentsOfAFactParameter enumerates the values paramName
// could take in factPattern such that the pattern matches some ground fact.
func (ws *WorldState) ExtractPotentialArgumentsOfAFactParameter(factPattern fact.Fact, paramName string) []*ontology.Entity {
	for i, a := range factPattern.Args {
		if p, ok := a.(*ontology.Parameter); ok && p.Name == paramName {
			return ws.CandidateArgValues(factPattern, i)
		}
	}
	return nil
}

// KnownEntities exposes the type-name -> entities universe, used by Clone
// to seed a fresh WorldState with the same entity visibility.
func (ws *WorldState) KnownEntities() map[string][]*ontology.Entity {
	out := make(map[string][]*ontology.Entity, len(ws.knownEntities))
	for t, es := range ws.knownEntities {
		out[t] = append([]*ontology.Entity(nil), es...)
	}
	return out
}

// FactsMapping exposes the raw ArgsKey -> Fact mapping for read-only
// diagnostics and the pattern-keyed lookups used elsewhere in the planner.
func (ws *WorldState) FactsMapping() map[string]fact.Fact { return ws.facts }

var _ condition.WorldView = (*WorldState)(nil)
var _ wsm.FactStore = (*WorldState)(nil)

func (ws *WorldState) afterMutation() error {
	ws.needsReachableRefresh = true
	if ws.dom != nil {
		if err := ws.runEventFixpoint(); err != nil {
			return err
		}
	}
	return nil
}

const eventFixpointLimit = 1000

// runEventFixpoint implements §4.7: repeatedly apply every satisfied event,
// in (setOfEventsId, eventId) order, until nothing changes or the iteration
// limit is exceeded.
func (ws *WorldState) runEventFixpoint() error {
	for iter := 0; iter < eventFixpointLimit; iter++ {
		changed, err := ws.runEventFixpointPass()
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
	}
	return perr.New(perr.EventDivergence, "event fixpoint exceeded %d iterations", eventFixpointLimit)
}

func (ws *WorldState) runEventFixpointPass() (bool, error) {
	for _, setID := range ws.dom.EventSetIDsSorted() {
		for _, e := range sortedEvents(ws.dom.EventsIn(setID)) {
			bindings, ok := ws.firstSatisfyingBinding(e)
			if !ok {
				continue
			}
			before := ws.snapshotKeys()
			if err := e.FactsToModify.ApplyTo(ws, bindings); err != nil {
				return false, err
			}
			if ws.factsChanged(before) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (ws *WorldState) snapshotKeys() map[string]string {
	out := make(map[string]string, len(ws.facts))
	for k, f := range ws.facts {
		out[k] = f.Key()
	}
	return out
}

func (ws *WorldState) factsChanged(before map[string]string) bool {
	if len(before) != len(ws.facts) {
		return true
	}
	for k, f := range ws.facts {
		if before[k] != f.Key() {
			return true
		}
	}
	return false
}
