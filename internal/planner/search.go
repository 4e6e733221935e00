package planner

import (
	"sort"

	"contextualplanner/internal/condition"
	"contextualplanner/internal/domain"
	"contextualplanner/internal/domainmodel"
	"contextualplanner/internal/fact"
	"contextualplanner/internal/goal"
	"contextualplanner/internal/historical"
	"contextualplanner/internal/ontology"
	"contextualplanner/internal/problem"
	"contextualplanner/internal/succession"
	"contextualplanner/internal/worldstate"
	"contextualplanner/internal/wsm"
)

// firstUnsatisfiedLeaf returns the first fact-optional leaf of c (left to
// right) not currently satisfied by world, per §4.9.1's "find the first
// unsatisfied fact-optional target".
func firstUnsatisfiedLeaf(c *condition.Condition, world condition.WorldView) (fact.FactOptional, bool) {
	var target fact.FactOptional
	found := false
	c.ForEachFactLeaf(func(fo fact.FactOptional) {
		if found {
			return
		}
		if !world.IsFactOptionalSatisfied(fo) {
			target = fo
			found = true
		}
	})
	return target, found
}

// effectNode is the generic view canProduceTarget recurses over: an
// action's combined Effect/PotentialEffect trees, or an event's single
// FactsToModify tree, paired with the precomputed per-leaf Successions.
type effectNode struct {
	trees      []*wsm.WSM
	leaves     []fact.FactOptional
	successionOf func(fact.FactOptional) succession.Successions
}

func actionNode(dom *domain.Domain, a *domainmodel.Action) effectNode {
	leaves := a.Effect.AllFactOptionalsThatCanBeModified()
	lookup := map[string]succession.Successions{}
	for _, ls := range dom.Succession().ActionLeafSuccessions(a.ID) {
		lookup[ls.FactOptional.String()] = ls.Successions
	}
	return effectNode{
		trees:        []*wsm.WSM{a.Effect.Effect, a.Effect.PotentialEffect},
		leaves:       leaves,
		successionOf: func(fo fact.FactOptional) succession.Successions { return lookup[fo.String()] },
	}
}

func eventNode(dom *domain.Domain, setID domainmodel.SetOfEventsID, e *domainmodel.Event) effectNode {
	var leaves []fact.FactOptional
	e.FactsToModify.ForEachLeaf(func(fo fact.FactOptional) { leaves = append(leaves, fo) })
	lookup := map[string]succession.Successions{}
	for _, ls := range dom.Succession().EventLeafSuccessions(setID, e.ID) {
		lookup[ls.FactOptional.String()] = ls.Successions
	}
	return effectNode{
		trees:        []*wsm.WSM{e.FactsToModify},
		leaves:       leaves,
		successionOf: func(fo fact.FactOptional) succession.Successions { return lookup[fo.String()] },
	}
}

// canProduceTarget is §4.9.1's _lookForAPossibleEffect: can node, under some
// parameter binding, produce target directly, or through a chain of
// downstream successions? visited is the TreeOfAlreadyDonePath stand-in,
// keyed by "action:<id>" or "event:<set>|<id>" to prevent cycles. Bindings
// discovered for target's own arguments/fluent (e.g. an event's own
// parameter unifying with a concrete goal value) are recorded into out.
func canProduceTarget(dom *domain.Domain, store wsm.FactStore, node effectNode, target fact.FactOptional, visited map[string]bool, out ontology.ParamBindings) bool {
	for _, tree := range node.trees {
		if tree == nil {
			continue
		}
		if tree.CanSatisfyObjective(store, ontology.NewParamBindings(), func(fo fact.FactOptional, _ ontology.ParamBindings) bool {
			return unifyProducedWithTarget(fo, target, out)
		}) {
			return true
		}
	}
	for _, fo := range node.leaves {
		if fo.IsNegated {
			continue
		}
		succ := node.successionOf(fo)
		for actionID := range succ.Actions {
			key := "action:" + actionID
			if visited[key] {
				continue
			}
			visited[key] = true
			b, ok := dom.Actions()[actionID]
			if !ok {
				continue
			}
			if canProduceTarget(dom, store, actionNode(dom, b), target, visited, out) {
				return true
			}
		}
		for setID, evs := range succ.Events {
			for eID := range evs {
				key := "event:" + string(setID) + "|" + string(eID)
				if visited[key] {
					continue
				}
				visited[key] = true
				e, ok := dom.EventsIn(setID)[eID]
				if !ok {
					continue
				}
				if canProduceTarget(dom, store, eventNode(dom, setID, e), target, visited, out) {
					return true
				}
			}
		}
	}
	return false
}

// unifyProducedWithTarget reports whether produced could be the same
// fact-optional as target, recording any parameter->entity binding implied
// by produced's un-ground slots into out.
func unifyProducedWithTarget(produced, target fact.FactOptional, out ontology.ParamBindings) bool {
	if produced.IsNegated != target.IsNegated {
		return false
	}
	if produced.Fact.Predicate != target.Fact.Predicate {
		return false
	}
	if len(produced.Fact.Args) != len(target.Fact.Args) {
		return false
	}
	for i := range produced.Fact.Args {
		pa := produced.Fact.Args[i]
		ta := target.Fact.Args[i]
		if p, ok := pa.(*ontology.Parameter); ok {
			te, ok := ta.(*ontology.Entity)
			if !ok {
				return false
			}
			out.Add(p.Name, te)
			continue
		}
		if !ontology.IsAnyValue(pa) && !ontology.IsAnyValue(ta) && pa.ValueName() != ta.ValueName() {
			return false
		}
	}
	if target.Fact.Fluent == nil {
		return true
	}
	if produced.Fact.Fluent == nil {
		return false
	}
	if p, ok := produced.Fact.Fluent.(*ontology.Parameter); ok {
		te, ok := target.Fact.Fluent.(*ontology.Entity)
		if !ok {
			return false
		}
		out.Add(p.Name, te)
		return true
	}
	if ontology.IsAnyValue(produced.Fact.Fluent) || ontology.IsAnyValue(target.Fact.Fluent) {
		return true
	}
	return produced.Fact.Fluent.ValueName() == target.Fact.Fluent.ValueName()
}

// resolveBindings turns the partial constraints canProduceTarget discovered
// into a full binding for a's formal parameters, picking the
// lexicographically smallest candidate (deterministic, mirroring
// removeAPossibility's "drop an arbitrary element" in reverse: take one).
func resolveBindings(a *domainmodel.Action, p *problem.Problem, constraints ontology.ParamBindings) (map[string]*ontology.Entity, bool) {
	bindings := map[string]*ontology.Entity{}
	for _, prm := range a.Parameters {
		if vals := constraints.Values(prm.Name); len(vals) > 0 {
			bindings[prm.Name] = smallestOf(vals)
			continue
		}
		cands := p.World().AllKnownEntitiesOfType(prm.Type)
		if len(cands) == 0 {
			return nil, false
		}
		bindings[prm.Name] = smallestList(cands)
	}
	return bindings, true
}

func smallestOf(set map[string]*ontology.Entity) *ontology.Entity {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return set[names[0]]
}

func smallestList(list []*ontology.Entity) *ontology.Entity {
	best := list[0]
	for _, e := range list[1:] {
		if e.Name < best.Name {
			best = e
		}
	}
	return best
}

// presentPredicateNames collects the set of predicate names mentioned by
// some ground fact currently in world, the index CandidateActionIDs filters
// candidate actions by (§4.9.1's "for each ground fact f currently in the
// world, look up...").
func presentPredicateNames(world *worldstate.WorldState) map[string]bool {
	names := map[string]bool{}
	for _, f := range world.FactsMapping() {
		names[f.Predicate.Name] = true
	}
	return names
}

// nextActionForGoal implements §4.9.1 end to end for one goal: find the
// target leaf, enumerate candidate actions able to reach it (directly or
// through the succession graph), rank them, and return the best.
func nextActionForGoal(dom *domain.Domain, p *problem.Problem, g *goal.Goal, globalHistorical *historical.Historical, priority int) (*Invocation, bool) {
	target, ok := firstUnsatisfiedLeaf(g.Objective, p.World())
	if !ok {
		return nil, false
	}
	var best *Invocation
	var bestAction *domainmodel.Action
	for _, aid := range dom.CandidateActionIDs(presentPredicateNames(p.World())) {
		a := dom.Actions()[aid]
		if !a.CanBeUsedByPlanner {
			continue
		}
		out := ontology.NewParamBindings()
		visited := map[string]bool{"action:" + aid: true}
		if !canProduceTarget(dom, p.World(), actionNode(dom, a), target, visited, out) {
			continue
		}
		bindings, ok := resolveBindings(a, p, out)
		if !ok {
			continue
		}
		if !a.Preconditions.IsTrue(p.World(), toParamBindings(bindings), nil) {
			continue
		}
		candidate := &Invocation{ActionID: aid, Params: bindings, Goal: g, Priority: priority}
		if best == nil || isMoreImportantThan(p, candidate, best, a, bestAction, globalHistorical) {
			best = candidate
			bestAction = a
		}
	}
	return best, best != nil
}

// isMoreImportantThan implements §4.9.1's ranking: the optimisation pass
// first (when enabled and the two candidates' effects differ), then the
// isMoreImportantThan tiebreak chain.
func isMoreImportantThan(p *problem.Problem, a, b *Invocation, actA, actB *domainmodel.Action, globalHistorical *historical.Historical) bool {
	if enableOptimisation && actA.Effect.Effect.String() != actB.Effect.Effect.String() {
		simA, simB := p.Clone(), p.Clone()
		if err := applyInvocation(simA, *a); err == nil {
			if err := applyInvocation(simB, *b); err == nil {
				_, costA := evaluateCost(simA, globalHistorical, maxPlanSteps)
				_, costB := evaluateCost(simB, globalHistorical, maxPlanSteps)
				if costA.Better(costB) {
					return true
				}
				if costB.Better(costA) {
					return false
				}
			}
		}
	}
	if actA.HighImportanceOfNotRepeatingIt {
		ca, cb := p.Historical().Count(a.ActionID), p.Historical().Count(b.ActionID)
		if cb == 0 && ca > 0 {
			return false
		}
		if ca != cb {
			return ca < cb
		}
	} else {
		sa, ua := preferScore(actA.PreferInContext, p.World())
		sb, ub := preferScore(actB.PreferInContext, p.World())
		if sa != sb {
			return sa > sb
		}
		if ua != ub {
			return ua < ub
		}
	}
	ca, cb := p.Historical().Count(a.ActionID), p.Historical().Count(b.ActionID)
	if ca != cb {
		return ca < cb
	}
	if globalHistorical != nil {
		ga, gb := globalHistorical.Count(a.ActionID), globalHistorical.Count(b.ActionID)
		if ga != gb {
			return ga < gb
		}
	}
	return a.ActionID < b.ActionID
}

// preferScore counts how many leaves of cond are currently satisfied vs
// unsatisfied, for the "preferInContext hit counts" tiebreak.
func preferScore(cond *condition.Condition, world condition.WorldView) (satisfied, unsatisfied int) {
	cond.ForEachFactLeaf(func(fo fact.FactOptional) {
		if world.IsFactOptionalSatisfied(fo) {
			satisfied++
		} else {
			unsatisfied++
		}
	})
	return
}
