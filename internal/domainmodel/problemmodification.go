// Package domainmodel defines the declarative pieces of a Domain: the
// Action and Event shapes, and the ProblemModification bundle their effect
// fields share.
package domainmodel

import (
	"contextualplanner/internal/fact"
	"contextualplanner/internal/goal"
	"contextualplanner/internal/wsm"
)

// ProblemModification bundles everything an action or event can do to a
// problem: the effect actually applied, a potential effect reasoned about
// only during planning, an at-start effect, and goals to push.
type ProblemModification struct {
	Effect                      *wsm.WSM
	PotentialEffect             *wsm.WSM
	EffectAtStart               *wsm.WSM
	GoalsToAdd                  map[int][]*goal.Goal
	GoalsToAddInCurrentPriority []*goal.Goal
}

// Empty reports whether the modification does nothing at all.
func (pm ProblemModification) Empty() bool {
	return pm.Effect.IsEmpty() && pm.PotentialEffect.IsEmpty() && pm.EffectAtStart.IsEmpty() &&
		len(pm.GoalsToAdd) == 0 && len(pm.GoalsToAddInCurrentPriority) == 0
}

// HasFact reports whether f is mentioned anywhere in the modification: its
// effect trees or the objectives of the goals it would push.
func (pm ProblemModification) HasFact(f fact.Fact) bool {
	if pm.Effect.HasFact(f) || pm.PotentialEffect.HasFact(f) || pm.EffectAtStart.HasFact(f) {
		return true
	}
	hasInGoals := func(goals []*goal.Goal) bool {
		for _, g := range goals {
			found := false
			g.Objective.ForEachFactLeaf(func(fo fact.FactOptional) {
				if fo.Fact.MatchesArgs(f) {
					found = true
				}
			})
			if found {
				return true
			}
		}
		return false
	}
	for _, goals := range pm.GoalsToAdd {
		if hasInGoals(goals) {
			return true
		}
	}
	return hasInGoals(pm.GoalsToAddInCurrentPriority)
}

// Add merges other into pm (AND-concatenating the effect trees and
// appending goal lists), mirroring ProblemModification::add in the
// original implementation.
func (pm *ProblemModification) Add(other ProblemModification) {
	pm.Effect = wsm.Concat(pm.Effect, other.Effect)
	pm.PotentialEffect = wsm.Concat(pm.PotentialEffect, other.PotentialEffect)
	pm.EffectAtStart = wsm.Concat(pm.EffectAtStart, other.EffectAtStart)
	if len(other.GoalsToAdd) > 0 {
		if pm.GoalsToAdd == nil {
			pm.GoalsToAdd = map[int][]*goal.Goal{}
		}
		for pri, goals := range other.GoalsToAdd {
			pm.GoalsToAdd[pri] = append(pm.GoalsToAdd[pri], goals...)
		}
	}
	pm.GoalsToAddInCurrentPriority = append(pm.GoalsToAddInCurrentPriority, other.GoalsToAddInCurrentPriority...)
}

// AllFactOptionalsThatCanBeModified enumerates every fact-optional leaf
// across all three effect trees, used to build the succession cache.
func (pm ProblemModification) AllFactOptionalsThatCanBeModified() []fact.FactOptional {
	var out []fact.FactOptional
	seen := map[string]bool{}
	add := func(fo fact.FactOptional) {
		key := fo.String()
		if !seen[key] {
			seen[key] = true
			out = append(out, fo)
		}
	}
	pm.Effect.ForEachLeaf(add)
	pm.PotentialEffect.ForEachLeaf(add)
	pm.EffectAtStart.ForEachLeaf(add)
	return out
}
