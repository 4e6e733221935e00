package observer

import "contextualplanner/internal/goal"

// GoalsRemovedTracker diffs successive goal-stack snapshots and reports the
// ids of goals present in the previous snapshot but absent from the new
// one — supplemented from original_source/'s goal-removal notification,
// which the distilled spec only gestures at via scenario 6.
type GoalsRemovedTracker struct {
	last map[string]bool
}

// NewGoalsRemovedTracker seeds the tracker with an initial snapshot.
func NewGoalsRemovedTracker(initial map[int][]*goal.Goal) *GoalsRemovedTracker {
	t := &GoalsRemovedTracker{}
	t.last = t.capture(initial)
	return t
}

func (t *GoalsRemovedTracker) capture(snapshot map[int][]*goal.Goal) map[string]bool {
	ids := map[string]bool{}
	for _, list := range snapshot {
		for _, g := range list {
			ids[g.ID] = true
		}
	}
	return ids
}

// Update records a new snapshot and returns the ids removed since the last
// call (in no particular order).
func (t *GoalsRemovedTracker) Update(snapshot map[int][]*goal.Goal) []string {
	next := t.capture(snapshot)
	var removed []string
	for id := range t.last {
		if !next[id] {
			removed = append(removed, id)
		}
	}
	t.last = next
	return removed
}
