package planner

import (
	"time"

	"contextualplanner/internal/domain"
	"contextualplanner/internal/domainmodel"
	"contextualplanner/internal/fact"
	"contextualplanner/internal/goal"
	"contextualplanner/internal/historical"
	"contextualplanner/internal/metrics"
	"contextualplanner/internal/ontology"
	"contextualplanner/internal/problem"
)

// maxPlanSteps and maxActionRepeats are the search-depth and repeat-branch
// limits used by every planning entry point below. enableOptimisation gates
// §4.9.1's cost-comparing optimisation pass in isMoreImportantThan. All
// three default to plannerconfig's own defaults and can be overridden at
// startup by SetLimits, so cmd/plannerd and cmd/plannerctl's
// PLANNER_MAX_PLAN_STEPS/PLANNER_MAX_ACTION_REPEATS/
// PLANNER_ENABLE_OPTIMISATION env vars actually reach the search.
var (
	maxPlanSteps       = 200
	maxActionRepeats   = 1
	enableOptimisation = false
)

// SetLimits overrides the search-depth and repeat-branch limits and the
// optimisation-pass toggle, normally called once at startup with the loaded
// plannerconfig.Config. Non-positive step/repeat values are ignored, leaving
// the current limit in place.
func SetLimits(maxSteps, maxRepeats int, optimise bool) {
	if maxSteps > 0 {
		maxPlanSteps = maxSteps
	}
	if maxRepeats > 0 {
		maxActionRepeats = maxRepeats
	}
	enableOptimisation = optimise
}

// pickNextInvocation scans priorities high to low, goals FIFO within a
// priority, and returns the first action nextActionForGoal can find for the
// first not-yet-satisfied goal, skipping invocations already tried more
// than once (repeated is the TreeOfAlreadyDonePath stand-in for whole
// invocations, per §4.9.3).
func pickNextInvocation(p *problem.Problem, globalHistorical *historical.Historical, repeated map[string]int) (*Invocation, bool) {
	for _, pri := range p.Goals().Priorities() {
		for _, g := range p.Goals().GoalsAt(pri) {
			if g.Objective.IsTrue(p.World(), ontology.NewParamBindings(), nil) {
				continue
			}
			inv, ok := nextActionForGoal(p.Domain(), p, g, globalHistorical, pri)
			if !ok {
				continue
			}
			if repeated[inv.Key()] > maxActionRepeats {
				continue
			}
			return inv, true
		}
	}
	return nil, false
}

// goalToPlan is the iterative form of §4.9.3's _goalToPlanRec: repeatedly
// pick and apply the best next invocation to sim until no goal can progress
// further or maxSteps is reached.
func goalToPlan(sim *problem.Problem, globalHistorical *historical.Historical, maxSteps int) ([]Invocation, error) {
	var plan []Invocation
	repeated := map[string]int{}
	for step := 0; step < maxSteps; step++ {
		inv, ok := pickNextInvocation(sim, globalHistorical, repeated)
		if !ok {
			break
		}
		repeated[inv.Key()]++
		if err := applyInvocation(sim, *inv); err != nil {
			return plan, err
		}
		plan = append(plan, *inv)
	}
	return plan, nil
}

// GoalToPlan plans for every goal currently on p's stack without mutating
// p, returning the resulting plan and its cost.
func GoalToPlan(p *problem.Problem, globalHistorical *historical.Historical) ([]Invocation, PlanCost) {
	start := time.Now()
	plan, cost := evaluateCost(p, globalHistorical, maxPlanSteps)
	metrics.RecordPlan(cost.Success, cost.NbActions, cost.NbGoalsNotSatisfied, time.Since(start).Seconds())
	return plan, cost
}

// PlanForMoreImportantGoalPossible plans only as far as needed to satisfy
// the single most important not-yet-satisfied goal (the first goal of the
// highest non-empty priority), leaving every other goal untouched.
func PlanForMoreImportantGoalPossible(p *problem.Problem, globalHistorical *historical.Historical) ([]Invocation, PlanCost) {
	sim := p.Clone()
	pri, g, ok := firstUnsatisfiedGoal(sim)
	if !ok {
		return nil, PlanCost{Success: true}
	}
	var plan []Invocation
	repeated := map[string]int{}
	for step := 0; step < maxPlanSteps; step++ {
		if g.Objective.IsTrue(sim.World(), ontology.NewParamBindings(), nil) {
			break
		}
		inv, ok := nextActionForGoal(sim.Domain(), sim, g, globalHistorical, pri)
		if !ok || repeated[inv.Key()] > maxActionRepeats {
			break
		}
		repeated[inv.Key()]++
		if err := applyInvocation(sim, *inv); err != nil {
			break
		}
		plan = append(plan, *inv)
	}
	cost := PlanCost{NbActions: len(plan)}
	if g.Objective.IsTrue(sim.World(), ontology.NewParamBindings(), nil) {
		cost.Success = true
		cost.NbGoalsSatisfied = 1
	} else {
		cost.NbGoalsNotSatisfied = 1
	}
	return plan, cost
}

// PlanForEveryGoals is GoalToPlan's name in the external interface (§6):
// an alias kept distinct because the two read differently at call sites.
func PlanForEveryGoals(p *problem.Problem, globalHistorical *historical.Historical) ([]Invocation, PlanCost) {
	return GoalToPlan(p, globalHistorical)
}

func firstUnsatisfiedGoal(p *problem.Problem) (int, *goal.Goal, bool) {
	for _, pri := range p.Goals().Priorities() {
		for _, g := range p.Goals().GoalsAt(pri) {
			if !g.Objective.IsTrue(p.World(), ontology.NewParamBindings(), nil) {
				return pri, g, true
			}
		}
	}
	return 0, nil, false
}

// LookForAnActionToDo returns the single next action the planner would take
// right now, without mutating p or applying its effect — the external
// interface's immediate-decision entry point.
func LookForAnActionToDo(p *problem.Problem, globalHistorical *historical.Historical) (*Invocation, bool) {
	return pickNextInvocation(p, globalHistorical, map[string]int{})
}

// ActionsToDoInParallelNow returns one action per not-yet-satisfied goal at
// the highest priority that has any, letting independent goals at the same
// priority be pursued concurrently. A candidate is dropped when its bound
// effect touches a fact that an earlier candidate in this batch reads in its
// precondition or writes in its effect, or when its bound precondition reads
// a fact an earlier candidate writes: such actions are not independent and
// cannot safely run in parallel. p is not mutated.
func ActionsToDoInParallelNow(p *problem.Problem, globalHistorical *historical.Historical) []Invocation {
	for _, pri := range p.Goals().Priorities() {
		var out []Invocation
		claimed := map[string]bool{}
		claimedPre := map[string]bool{}
		for _, g := range p.Goals().GoalsAt(pri) {
			if g.Objective.IsTrue(p.World(), ontology.NewParamBindings(), nil) {
				continue
			}
			inv, ok := nextActionForGoal(p.Domain(), p, g, globalHistorical, pri)
			if !ok {
				continue
			}
			a, ok := p.Domain().Actions()[inv.ActionID]
			if !ok {
				continue
			}
			keys := boundEffectKeys(a, *inv)
			pre := map[string]bool{}
			if a.Preconditions != nil {
				a.Preconditions.ForEachFactLeaf(func(fo fact.FactOptional) {
					if ground, ok := groundFactOptionalArgs(fo, inv.Params); ok {
						pre[ground.Signature()+"|"+ground.ArgsKey()] = true
					}
				})
			}
			if overlapsAny(keys, claimed) || overlapsAny(keys, claimedPre) || overlapsAny(pre, claimed) {
				continue
			}
			for k := range keys {
				claimed[k] = true
			}
			for k := range pre {
				claimedPre[k] = true
			}
			out = append(out, *inv)
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// boundEffectKeys grounds a's effect fact leaves (Effect, PotentialEffect and
// EffectAtStart) with inv's parameter bindings and returns their ArgsKeys, the
// fact-identity set independence is checked against. A leaf whose parameter
// isn't bound by inv is skipped rather than reported as a conflict.
func boundEffectKeys(a *domainmodel.Action, inv Invocation) map[string]bool {
	out := map[string]bool{}
	for _, fo := range a.Effect.AllFactOptionalsThatCanBeModified() {
		ground, ok := groundFactOptionalArgs(fo, inv.Params)
		if !ok {
			continue
		}
		out[ground.Signature()+"|"+ground.ArgsKey()] = true
	}
	return out
}

func groundFactOptionalArgs(fo fact.FactOptional, params map[string]*ontology.Entity) (fact.Fact, bool) {
	args := make([]ontology.Value, len(fo.Fact.Args))
	for i, a := range fo.Fact.Args {
		if p, ok := a.(*ontology.Parameter); ok {
			e, ok := params[p.Name]
			if !ok {
				return fact.Fact{}, false
			}
			args[i] = e
		} else {
			args[i] = a
		}
	}
	return fact.Fact{Predicate: fo.Fact.Predicate, Args: args}, true
}

func overlapsAny(keys, claimed map[string]bool) bool {
	for k := range keys {
		if claimed[k] {
			return true
		}
	}
	return false
}

// NotifyActionStarted applies inv's start effect (EffectAtStart, §4.9.4) to
// the real problem p and resets the goal's inactivity timeout clock.
func NotifyActionStarted(p *problem.Problem, dom *domain.Domain, inv Invocation, now time.Time) error {
	if inv.Goal != nil {
		inv.Goal.Touch(now)
	}
	a, ok := dom.Actions()[inv.ActionID]
	if !ok {
		return nil
	}
	return p.ModifyFacts(a.Effect.EffectAtStart, toParamBindings(inv.Params))
}

// NotifyActionDone applies inv's effect to the real problem p and records
// the invocation in p's historical, the external interface's commit point.
func NotifyActionDone(p *problem.Problem, inv Invocation) error {
	a, ok := p.Domain().Actions()[inv.ActionID]
	if !ok {
		return nil
	}
	if err := p.ModifyFacts(a.Effect.Effect, toParamBindings(inv.Params)); err != nil {
		return err
	}
	p.Historical().Record(inv.ActionID)
	metrics.RecordActionApplied(inv.ActionID)
	return nil
}
