// Package observer implements the synchronous callback hub described in
// §9's design notes ("a simple list of callbacks keyed by token") and the
// GoalsRemovedTracker supplemented from original_source/ (§12).
package observer

import (
	"contextualplanner/internal/fact"
	"contextualplanner/internal/goal"
)

// Token identifies a registered callback so it can be unregistered later.
type Token int

// Hub fans out the three change notifications named in the external
// interface (§6): facts, goals, and fluent-style variable changes.
// Callbacks fire synchronously on the caller's goroutine; per §5, a
// callback must not re-enter the problem that invoked it.
type Hub struct {
	nextToken int

	onFacts     map[Token]func(map[string]fact.Fact)
	onGoals     map[Token]func(map[int][]*goal.Goal)
	onVariables map[Token]func(map[string]string)
}

// New builds an empty hub.
func New() *Hub {
	return &Hub{
		onFacts:     map[Token]func(map[string]fact.Fact){},
		onGoals:     map[Token]func(map[int][]*goal.Goal){},
		onVariables: map[Token]func(map[string]string){},
	}
}

func (h *Hub) next() Token {
	h.nextToken++
	return Token(h.nextToken)
}

// OnFactsChanged registers cb, returning a token for Unregister.
func (h *Hub) OnFactsChanged(cb func(map[string]fact.Fact)) Token {
	t := h.next()
	h.onFacts[t] = cb
	return t
}

// OnGoalsChanged registers cb, returning a token for Unregister.
func (h *Hub) OnGoalsChanged(cb func(map[int][]*goal.Goal)) Token {
	t := h.next()
	h.onGoals[t] = cb
	return t
}

// OnVariablesToValueChanged registers cb, returning a token for Unregister.
func (h *Hub) OnVariablesToValueChanged(cb func(map[string]string)) Token {
	t := h.next()
	h.onVariables[t] = cb
	return t
}

// Unregister removes a previously registered callback, whichever kind it
// was.
func (h *Hub) Unregister(t Token) {
	delete(h.onFacts, t)
	delete(h.onGoals, t)
	delete(h.onVariables, t)
}

// FireFactsChanged notifies every registered fact observer.
func (h *Hub) FireFactsChanged(facts map[string]fact.Fact) {
	for _, cb := range h.onFacts {
		cb(facts)
	}
}

// FireGoalsChanged notifies every registered goal observer.
func (h *Hub) FireGoalsChanged(goals map[int][]*goal.Goal) {
	for _, cb := range h.onGoals {
		cb(goals)
	}
}

// FireVariablesToValueChanged notifies every registered variable observer.
func (h *Hub) FireVariablesToValueChanged(vars map[string]string) {
	for _, cb := range h.onVariables {
		cb(vars)
	}
}
