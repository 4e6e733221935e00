// Package goalstack implements the priority-ordered goal stack of §4.6: a
// map from priority to a FIFO list of goals, with persistence, timeout, and
// stackability rules governing how goals are dropped.
package goalstack

import (
	"sort"
	"time"

	"contextualplanner/internal/condition"
	"contextualplanner/internal/goal"
	"contextualplanner/internal/ontology"
)

// GoalStack holds goals grouped by priority, highest first.
type GoalStack struct {
	goals     map[int][]*goal.Goal
	onChanged func(map[int][]*goal.Goal)
}

// New builds an empty goal stack.
func New() *GoalStack {
	return &GoalStack{goals: map[int][]*goal.Goal{}}
}

// OnChanged registers the callback invoked (synchronously) whenever the
// goal set changes, mirroring the external onGoalsChanged observer hook.
func (gs *GoalStack) OnChanged(cb func(map[int][]*goal.Goal)) { gs.onChanged = cb }

func (gs *GoalStack) fireChanged() {
	if gs.onChanged != nil {
		gs.onChanged(gs.goals)
	}
}

// SetGoals replaces the whole stack.
func (gs *GoalStack) SetGoals(goals map[int][]*goal.Goal) {
	gs.goals = cloneMap(goals)
	gs.fireChanged()
}

// SetGoalsForAPriority replaces the goal list at one priority.
func (gs *GoalStack) SetGoalsForAPriority(goals []*goal.Goal, priority int) {
	if len(goals) == 0 {
		delete(gs.goals, priority)
	} else {
		gs.goals[priority] = append([]*goal.Goal(nil), goals...)
	}
	gs.fireChanged()
}

// AddGoals appends goals into their priorities, preserving FIFO order.
func (gs *GoalStack) AddGoals(goals map[int][]*goal.Goal) {
	for pri, list := range goals {
		gs.goals[pri] = append(gs.goals[pri], list...)
	}
	gs.fireChanged()
}

// PushFrontGoal inserts g at the front of its priority's FIFO queue.
func (gs *GoalStack) PushFrontGoal(g *goal.Goal, priority int) {
	gs.goals[priority] = append([]*goal.Goal{g}, gs.goals[priority]...)
	gs.fireChanged()
}

// PushBackGoal appends g at the back of its priority's FIFO queue.
func (gs *GoalStack) PushBackGoal(g *goal.Goal, priority int) {
	gs.goals[priority] = append(gs.goals[priority], g)
	gs.fireChanged()
}

// SetGoalPriority moves a goal (by id) to a new priority, pushing it to the
// front of the destination queue if pushFrontOnConflict, else the back.
func (gs *GoalStack) SetGoalPriority(id string, priority int, pushFrontOnConflict bool) {
	var moved *goal.Goal
	for pri, list := range gs.goals {
		for i, g := range list {
			if g.ID == id {
				moved = g
				gs.goals[pri] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	if moved == nil {
		return
	}
	if pushFrontOnConflict {
		gs.PushFrontGoal(moved, priority)
		return
	}
	gs.PushBackGoal(moved, priority)
}

// RemoveGoals drops every goal whose GroupID matches groupID.
func (gs *GoalStack) RemoveGoals(groupID string) {
	changed := false
	for pri, list := range gs.goals {
		var kept []*goal.Goal
		for _, g := range list {
			if g.GroupID == groupID {
				changed = true
				continue
			}
			kept = append(kept, g)
		}
		if len(kept) == 0 {
			delete(gs.goals, pri)
		} else {
			gs.goals[pri] = kept
		}
	}
	if changed {
		gs.fireChanged()
	}
}

// Priorities returns the stack's priorities, highest first.
func (gs *GoalStack) Priorities() []int {
	out := make([]int, 0, len(gs.goals))
	for p := range gs.goals {
		out = append(out, p)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// GoalsAt returns the FIFO queue at a priority.
func (gs *GoalStack) GoalsAt(priority int) []*goal.Goal { return gs.goals[priority] }

// Snapshot returns a defensive copy of the whole stack.
func (gs *GoalStack) Snapshot() map[int][]*goal.Goal { return cloneMap(gs.goals) }

// applyStackingRule drops non-stackable goals beyond the first in each
// priority, per §4.6.
func (gs *GoalStack) applyStackingRule() {
	changed := false
	for pri, list := range gs.goals {
		if len(list) < 2 {
			continue
		}
		kept := list[:1]
		for _, g := range list[1:] {
			if g.Stackable {
				kept = append(kept, g)
			} else {
				changed = true
			}
		}
		gs.goals[pri] = kept
	}
	if changed {
		gs.fireChanged()
	}
}

// IterateOnGoalsAndRemoveNonPersistent walks priorities high to low, goals
// FIFO within a priority. Each goal already satisfied by world and not
// persistent is dropped (observers notified); otherwise cb is invoked. If cb
// returns true, iteration stops.
func (gs *GoalStack) IterateOnGoalsAndRemoveNonPersistent(world condition.WorldView, now time.Time, cb func(g *goal.Goal, priority int) bool) {
	gs.applyStackingRule()
	for _, pri := range gs.Priorities() {
		list := gs.goals[pri]
		var kept []*goal.Goal
		stopped := false
		for _, g := range list {
			if stopped {
				kept = append(kept, g)
				continue
			}
			if g.IsTimedOut(now) {
				continue
			}
			if g.Objective.IsTrue(world, ontology.NewParamBindings(), nil) {
				if g.Persistent {
					kept = append(kept, g)
				}
				continue
			}
			kept = append(kept, g)
			if cb(g, pri) {
				g.Touch(now)
				stopped = true
			}
		}
		if len(kept) == 0 {
			delete(gs.goals, pri)
		} else {
			gs.goals[pri] = kept
		}
		if stopped {
			break
		}
	}
	gs.fireChanged()
}

// RemoveFirstGoalsThatAreAlreadySatisfied drops the prefix of satisfied,
// non-persistent goals one priority group at a time, returning the id of
// the last goal dropped ("" if none).
func (gs *GoalStack) RemoveFirstGoalsThatAreAlreadySatisfied(world condition.WorldView) string {
	last := ""
	for _, pri := range gs.Priorities() {
		list := gs.goals[pri]
		i := 0
		for i < len(list) {
			g := list[i]
			if g.Persistent || !g.Objective.IsTrue(world, ontology.NewParamBindings(), nil) {
				break
			}
			last = g.ID
			i++
		}
		if i == 0 {
			continue
		}
		if i == len(list) {
			delete(gs.goals, pri)
		} else {
			gs.goals[pri] = list[i:]
		}
		gs.fireChanged()
	}
	return last
}

func cloneMap(in map[int][]*goal.Goal) map[int][]*goal.Goal {
	out := make(map[int][]*goal.Goal, len(in))
	for k, v := range in {
		out[k] = append([]*goal.Goal(nil), v...)
	}
	return out
}
