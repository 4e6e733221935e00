// Package succession builds and exposes the fact→action/event succession
// index described in the spec's §4.8: for every effect leaf an action or
// event can produce, the set of downstream actions/events whose
// preconditions could consume it.
package succession

import (
	"contextualplanner/internal/domainmodel"
	"contextualplanner/internal/fact"
)

// Successions is the set of downstream actions and events an effect leaf
// could enable.
type Successions struct {
	Actions map[string]bool
	Events  map[domainmodel.SetOfEventsID]map[domainmodel.EventID]bool
}

func newSuccessions() Successions {
	return Successions{Actions: map[string]bool{}, Events: map[domainmodel.SetOfEventsID]map[domainmodel.EventID]bool{}}
}

func (s Successions) addEvent(set domainmodel.SetOfEventsID, id domainmodel.EventID) {
	m, ok := s.Events[set]
	if !ok {
		m = map[domainmodel.EventID]bool{}
		s.Events[set] = m
	}
	m[id] = true
}

// Empty reports whether the successions set names nothing.
func (s Successions) Empty() bool {
	if len(s.Actions) > 0 {
		return false
	}
	for _, m := range s.Events {
		if len(m) > 0 {
			return false
		}
	}
	return true
}

// LeafSuccession pairs one effect leaf with the downstream successions it
// enables.
type LeafSuccession struct {
	FactOptional fact.FactOptional
	Successions  Successions
}

// Cache is the rebuildable succession index for a whole domain.
type Cache struct {
	actionLeaves map[string][]LeafSuccession
	eventLeaves  map[domainmodel.SetOfEventsID]map[domainmodel.EventID][]LeafSuccession
}

// Build computes the cache from scratch over the given actions and event
// sets. It is always a from-scratch rebuild (the spec's invariant #2
// requires rebuild-from-scratch to equal the incremental result, which this
// satisfies trivially since there is only one code path).
func Build(actions map[string]*domainmodel.Action, eventSets map[domainmodel.SetOfEventsID]map[domainmodel.EventID]*domainmodel.Event) *Cache {
	c := &Cache{
		actionLeaves: map[string][]LeafSuccession{},
		eventLeaves:  map[domainmodel.SetOfEventsID]map[domainmodel.EventID][]LeafSuccession{},
	}

	computeFor := func(leaves []fact.FactOptional) []LeafSuccession {
		out := make([]LeafSuccession, 0, len(leaves))
		for _, fo := range leaves {
			succ := newSuccessions()
			for bID, b := range actions {
				if !b.CanBeUsedByPlanner {
					continue
				}
				if b.Preconditions.ContainsFactOptional(fo) {
					succ.Actions[bID] = true
				}
			}
			for setID, events := range eventSets {
				for eID, e := range events {
					if e.Condition.ContainsFactOptional(fo) {
						succ.addEvent(setID, eID)
					}
				}
			}
			out = append(out, LeafSuccession{FactOptional: fo, Successions: succ})
		}
		return out
	}

	for aID, a := range actions {
		leaves := a.Effect.AllFactOptionalsThatCanBeModified()
		perLeaf := computeFor(leaves)
		// container-id guard: an action never lists itself as its own
		// successor.
		for i := range perLeaf {
			delete(perLeaf[i].Successions.Actions, aID)
		}
		c.actionLeaves[aID] = perLeaf
	}

	for setID, events := range eventSets {
		byEvent := map[domainmodel.EventID][]LeafSuccession{}
		for eID, e := range events {
			var leaves []fact.FactOptional
			if e.FactsToModify != nil {
				e.FactsToModify.ForEachLeaf(func(fo fact.FactOptional) { leaves = append(leaves, fo) })
			}
			perLeaf := computeFor(leaves)
			for i := range perLeaf {
				delete(perLeaf[i].Successions.Events[setID], eID)
			}
			byEvent[eID] = perLeaf
		}
		c.eventLeaves[setID] = byEvent
	}

	return c
}

// ActionLeafSuccessions returns the per-effect-leaf successions for an
// action, in the same order as Action.Effect's leaves.
func (c *Cache) ActionLeafSuccessions(actionID string) []LeafSuccession {
	return c.actionLeaves[actionID]
}

// EventLeafSuccessions returns the per-effect-leaf successions for an
// event.
func (c *Cache) EventLeafSuccessions(set domainmodel.SetOfEventsID, id domainmodel.EventID) []LeafSuccession {
	return c.eventLeaves[set][id]
}

// AggregatedActionSuccessions unions every leaf's Successions.Actions for
// an action — this is the "succ(A)" of the spec's testable invariant #2.
func (c *Cache) AggregatedActionSuccessions(actionID string) map[string]bool {
	out := map[string]bool{}
	for _, ls := range c.actionLeaves[actionID] {
		for id := range ls.Successions.Actions {
			out[id] = true
		}
	}
	return out
}
