package domainmodel

import (
	"contextualplanner/internal/condition"
	"contextualplanner/internal/goal"
	"contextualplanner/internal/ontology"
	"contextualplanner/internal/wsm"
)

// SetOfEventsID groups events the way the original "SetOfInferences"
// groups them: a domain can own several named, independently
// enabled/disabled event sets.
type SetOfEventsID string

// EventID identifies one event within its set.
type EventID string

// Event is a passive rule: whenever Condition holds under some parameter
// binding, FactsToModify is applied and GoalsToAdd pushed, with no
// planner visibility of its own.
type Event struct {
	ID            EventID
	Parameters    []*ontology.Parameter
	Condition     *condition.Condition
	FactsToModify *wsm.WSM
	GoalsToAdd    map[int][]*goal.Goal
	// Reachable is recomputed by the reachable-facts closure: an event is
	// reachable iff it modifies something beyond unreachable facts and its
	// condition can be satisfied under the reachable-facts closure.
	Reachable bool
}

// ParamByName finds a formal parameter by name.
func (e *Event) ParamByName(name string) *ontology.Parameter {
	for _, p := range e.Parameters {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Empty reports whether the event does nothing.
func (e *Event) Empty() bool {
	return e.FactsToModify.IsEmpty() && len(e.GoalsToAdd) == 0
}
