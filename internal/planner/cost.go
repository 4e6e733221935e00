package planner

import (
	"contextualplanner/internal/goal"
	"contextualplanner/internal/historical"
	"contextualplanner/internal/ontology"
	"contextualplanner/internal/problem"
)

// applyInvocation applies inv's action effect to sim (a cloned, disposable
// problem) and records the invocation in sim's historical, mirroring what
// notifyActionDone does to a real problem but without touching p.
func applyInvocation(sim *problem.Problem, inv Invocation) error {
	a, ok := sim.Domain().Actions()[inv.ActionID]
	if !ok {
		return nil
	}
	if err := sim.ModifyFacts(a.Effect.Effect, toParamBindings(inv.Params)); err != nil {
		return err
	}
	sim.Historical().Record(inv.ActionID)
	return nil
}

// evaluateCost runs the greedy loop of §4.9.3 to completion on a throwaway
// clone of p and returns the resulting plan and its PlanCost, without
// mutating p.
func evaluateCost(p *problem.Problem, globalHistorical *historical.Historical, maxSteps int) ([]Invocation, PlanCost) {
	sim := p.Clone()
	plan, _ := goalToPlan(sim, globalHistorical, maxSteps)

	cost := PlanCost{Success: true, NbActions: len(plan)}
	for _, goals := range sim.Goals().Snapshot() {
		for _, g := range goals {
			if isConditionSatisfied(g, sim) {
				cost.NbGoalsSatisfied++
			} else {
				cost.NbGoalsNotSatisfied++
				cost.Success = false
			}
		}
	}
	return plan, cost
}

func isConditionSatisfied(g *goal.Goal, p *problem.Problem) bool {
	return g.Objective.IsTrue(p.World(), ontology.NewParamBindings(), nil)
}
