// Package problem bundles the mutable state a planning call operates over:
// a WorldState, a GoalStack, a Historical, and the Domain it was built
// against, per §5's ownership rule ("Problem owns its world state, goal
// stack, and historical exclusively").
package problem

import (
	"contextualplanner/internal/domain"
	"contextualplanner/internal/fact"
	"contextualplanner/internal/goal"
	"contextualplanner/internal/goalstack"
	"contextualplanner/internal/historical"
	"contextualplanner/internal/observer"
	"contextualplanner/internal/ontology"
	"contextualplanner/internal/wsm"
	"contextualplanner/internal/worldstate"
)

// Problem is the external interface's "newProblem()" result: a self
// contained planning context for one domain.
type Problem struct {
	dom        *domain.Domain
	world      *worldstate.WorldState
	goals      *goalstack.GoalStack
	historical *historical.Historical
	hub        *observer.Hub
}

// New builds a problem scoped to dom, with knownEntities visible to
// EXISTS/FORALL and candidate-argument lookups in addition to dom's
// ontology constants.
func New(dom *domain.Domain, knownEntities map[string][]*ontology.Entity) *Problem {
	ws := worldstate.New(dom.Ontology, knownEntities)
	ws.SetDomain(dom)
	p := &Problem{
		dom:        dom,
		world:      ws,
		goals:      goalstack.New(),
		historical: historical.New(),
		hub:        observer.New(),
	}
	p.goals.OnChanged(func(g map[int][]*goal.Goal) { p.hub.FireGoalsChanged(g) })
	return p
}

// Domain returns the domain this problem was built against.
func (p *Problem) Domain() *domain.Domain { return p.dom }

// World returns the problem's fact store.
func (p *Problem) World() *worldstate.WorldState { return p.world }

// Goals returns the problem's goal stack.
func (p *Problem) Goals() *goalstack.GoalStack { return p.goals }

// Historical returns the problem's local invocation history.
func (p *Problem) Historical() *historical.Historical { return p.historical }

// Observers returns the problem's notification hub.
func (p *Problem) Observers() *observer.Hub { return p.hub }

// AddFact asserts f and notifies fact observers.
func (p *Problem) AddFact(f fact.Fact) error {
	if err := p.world.AssertFact(f); err != nil {
		return err
	}
	p.hub.FireFactsChanged(p.world.FactsMapping())
	return nil
}

// RemoveFact retracts f and notifies fact observers.
func (p *Problem) RemoveFact(f fact.Fact) error {
	if err := p.world.RetractFact(f); err != nil {
		return err
	}
	p.hub.FireFactsChanged(p.world.FactsMapping())
	return nil
}

// ModifyFacts applies w and notifies fact observers.
func (p *Problem) ModifyFacts(w *wsm.WSM, bindings ontology.ParamBindings) error {
	if err := p.world.Modify(w, bindings); err != nil {
		return err
	}
	p.hub.FireFactsChanged(p.world.FactsMapping())
	return nil
}

// DeclareEntity registers a problem-scoped entity.
func (p *Problem) DeclareEntity(e *ontology.Entity) { p.world.DeclareEntity(e) }

// Clone deep-copies the problem for optimisation-pass simulation (§4.9.2):
// a fresh world state seeded from the same facts and entities, a goal
// stack snapshot, and a historical copy, all sharing the same (immutable
// during planning) domain.
func (p *Problem) Clone() *Problem {
	clone := &Problem{
		dom:        p.dom,
		world:      worldstate.New(p.dom.Ontology, p.world.KnownEntities()),
		goals:      goalstack.New(),
		historical: p.historical.Clone(),
		hub:        observer.New(),
	}
	clone.world.SetDomain(p.dom)
	for _, f := range p.world.FactsMapping() {
		clone.world.AddFact(f)
	}
	clone.goals.SetGoals(p.goals.Snapshot())
	return clone
}
