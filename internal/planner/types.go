// Package planner implements the forward-search core of §4.9: selecting
// the next action for a goal by probing the succession graph, comparing
// candidates, and driving the single- and multi-goal planning loops and the
// action-execution notifications of the external interface (§6).
package planner

import (
	"fmt"
	"sort"
	"strings"

	"contextualplanner/internal/goal"
	"contextualplanner/internal/ontology"
)

// Invocation is one concretely-bound action application: an action id, a
// resolved binding for each of its formal parameters, and the goal/priority
// it was chosen to serve (empty Goal for actions found outside any goal
// context, e.g. tests exercising the search directly).
type Invocation struct {
	ActionID string
	Params   map[string]*ontology.Entity
	Goal     *goal.Goal
	Priority int
}

// Key is a stable identity for an invocation, used by repetition guards.
func (inv Invocation) Key() string {
	names := make([]string, 0, len(inv.Params))
	for n := range inv.Params {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString(inv.ActionID)
	for _, n := range names {
		b.WriteByte('|')
		b.WriteString(n)
		b.WriteByte('=')
		b.WriteString(inv.Params[n].Name)
	}
	return b.String()
}

// String renders "id(?p1 -> v1, ?p2 -> v2)" with parameters sorted by name
// (or "id()" with none), the form planToStr joins.
func (inv Invocation) String() string {
	if len(inv.Params) == 0 {
		return inv.ActionID + "()"
	}
	names := make([]string, 0, len(inv.Params))
	for n := range inv.Params {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("?%s -> %s", n, inv.Params[n].Name)
	}
	return inv.ActionID + "(" + strings.Join(parts, ", ") + ")"
}

// PlanToStr joins a plan's invocations with sep, the external interface's
// planToStr.
func PlanToStr(plan []Invocation, sep string) string {
	parts := make([]string, len(plan))
	for i, inv := range plan {
		parts[i] = inv.String()
	}
	return strings.Join(parts, sep)
}

func toParamBindings(m map[string]*ontology.Entity) ontology.ParamBindings {
	b := ontology.NewParamBindings()
	for k, v := range m {
		b.Add(k, v)
	}
	return b
}

// PlanCost is the lexicographic comparison tuple of §4.9.2.
type PlanCost struct {
	Success             bool
	NbGoalsSatisfied    int
	NbGoalsNotSatisfied int
	NbActions           int
}

// Better reports whether c is preferable to other under the ordering of
// §4.9.2: success beats failure, then more goals satisfied, then more goals
// attempted-but-not-satisfied (a deliberate preference confirmed by
// scenario 3, see SPEC_FULL.md §9), then fewer actions.
func (c PlanCost) Better(other PlanCost) bool {
	if c.Success != other.Success {
		return c.Success
	}
	if c.NbGoalsSatisfied != other.NbGoalsSatisfied {
		return c.NbGoalsSatisfied > other.NbGoalsSatisfied
	}
	if c.NbGoalsNotSatisfied != other.NbGoalsNotSatisfied {
		return c.NbGoalsNotSatisfied > other.NbGoalsNotSatisfied
	}
	return c.NbActions < other.NbActions
}
