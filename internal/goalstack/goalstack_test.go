package goalstack

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contextualplanner/internal/condition"
	"contextualplanner/internal/fact"
	"contextualplanner/internal/goal"
	"contextualplanner/internal/ontology"
)

var personType = ontology.NewType("person", nil)
var axePred = &ontology.Predicate{Name: "has_axe", ParamTypes: []*ontology.Type{personType}}

func axeFact(name string) fact.Fact {
	return fact.Fact{Predicate: axePred, Args: []ontology.Value{&ontology.Entity{Name: name, Type: personType}}}
}

// fakeWorld implements condition.WorldView against a flat fact set.
type fakeWorld struct{ satisfied map[string]bool }

func (w *fakeWorld) IsFactOptionalSatisfied(fo fact.FactOptional) bool {
	sat := w.satisfied[fo.Fact.String()]
	if fo.IsNegated {
		return !sat
	}
	return sat
}
func (w *fakeWorld) FluentValue(fact.Fact) (ontology.Value, bool)                 { return nil, false }
func (w *fakeWorld) CandidateArgValues(fact.Fact, int) []*ontology.Entity         { return nil }
func (w *fakeWorld) AllKnownEntitiesOfType(*ontology.Type) []*ontology.Entity     { return nil }

func newGoal(id string, satisfiedFact fact.Fact, now time.Time) *goal.Goal {
	return goal.New(id, condition.Fact(fact.FactOptional{Fact: satisfiedFact}), now)
}

func TestSetGoalsReplacesAndFiresCallback(t *testing.T) {
	gs := New()
	var fired bool
	gs.OnChanged(func(map[int][]*goal.Goal) { fired = true })

	now := time.Now()
	gs.SetGoals(map[int][]*goal.Goal{0: {newGoal("g1", axeFact("alice"), now)}})

	assert.True(t, fired)
	assert.Equal(t, []int{0}, gs.Priorities())
}

func TestAddGoalsAppendsPreservingFIFO(t *testing.T) {
	gs := New()
	now := time.Now()
	g1 := newGoal("g1", axeFact("alice"), now)
	g2 := newGoal("g2", axeFact("bob"), now)

	gs.AddGoals(map[int][]*goal.Goal{0: {g1}})
	gs.AddGoals(map[int][]*goal.Goal{0: {g2}})

	list := gs.GoalsAt(0)
	require.Len(t, list, 2)
	assert.Equal(t, "g1", list[0].ID)
	assert.Equal(t, "g2", list[1].ID)
}

func TestPushFrontAndPushBack(t *testing.T) {
	gs := New()
	now := time.Now()
	g1 := newGoal("g1", axeFact("alice"), now)
	g2 := newGoal("g2", axeFact("bob"), now)

	gs.PushBackGoal(g1, 0)
	gs.PushFrontGoal(g2, 0)

	list := gs.GoalsAt(0)
	require.Len(t, list, 2)
	assert.Equal(t, "g2", list[0].ID)
}

func TestPrioritiesAreHighestFirst(t *testing.T) {
	gs := New()
	now := time.Now()
	gs.SetGoals(map[int][]*goal.Goal{
		0: {newGoal("low", axeFact("alice"), now)},
		5: {newGoal("high", axeFact("bob"), now)},
	})

	assert.Equal(t, []int{5, 0}, gs.Priorities())
}

func TestSetGoalPriorityMovesGoal(t *testing.T) {
	gs := New()
	now := time.Now()
	g := newGoal("g1", axeFact("alice"), now)
	gs.PushBackGoal(g, 0)

	gs.SetGoalPriority("g1", 3, true)

	assert.Empty(t, gs.GoalsAt(0))
	assert.Len(t, gs.GoalsAt(3), 1)
}

func TestSetGoalPriorityNoopForUnknownID(t *testing.T) {
	gs := New()
	gs.SetGoalPriority("missing", 3, true)
	assert.Empty(t, gs.GoalsAt(3))
}

func TestRemoveGoalsDropsByGroupID(t *testing.T) {
	gs := New()
	now := time.Now()
	g1 := newGoal("g1", axeFact("alice"), now)
	g1.GroupID = "wood"
	g2 := newGoal("g2", axeFact("bob"), now)
	gs.SetGoals(map[int][]*goal.Goal{0: {g1, g2}})

	gs.RemoveGoals("wood")

	list := gs.GoalsAt(0)
	require.Len(t, list, 1)
	assert.Equal(t, "g2", list[0].ID)
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	gs := New()
	now := time.Now()
	gs.SetGoals(map[int][]*goal.Goal{0: {newGoal("g1", axeFact("alice"), now)}})

	snap := gs.Snapshot()
	gs.PushBackGoal(newGoal("g2", axeFact("bob"), now), 0)

	assert.Len(t, snap[0], 1)
	assert.Len(t, gs.GoalsAt(0), 2)
}

func TestApplyStackingRuleDropsNonStackableBeyondFirst(t *testing.T) {
	gs := New()
	now := time.Now()
	g1 := newGoal("g1", axeFact("alice"), now)
	g2 := newGoal("g2", axeFact("bob"), now)
	g2.Stackable = false

	gs.SetGoals(map[int][]*goal.Goal{0: {g1, g2}})
	gs.applyStackingRule()

	assert.Len(t, gs.GoalsAt(0), 1)
}

func TestIterateOnGoalsAndRemoveNonPersistentDropsSatisfiedGoals(t *testing.T) {
	gs := New()
	now := time.Now()
	g1 := newGoal("g1", axeFact("alice"), now)
	gs.SetGoals(map[int][]*goal.Goal{0: {g1}})

	world := &fakeWorld{satisfied: map[string]bool{axeFact("alice").String(): true}}

	var visited []string
	gs.IterateOnGoalsAndRemoveNonPersistent(world, now, func(g *goal.Goal, pri int) bool {
		visited = append(visited, g.ID)
		return false
	})

	assert.Empty(t, visited)
	assert.Empty(t, gs.GoalsAt(0))
}

func TestIterateOnGoalsAndRemoveNonPersistentKeepsPersistentSatisfiedGoal(t *testing.T) {
	gs := New()
	now := time.Now()
	g1 := newGoal("g1", axeFact("alice"), now)
	g1.Persistent = true
	gs.SetGoals(map[int][]*goal.Goal{0: {g1}})

	world := &fakeWorld{satisfied: map[string]bool{axeFact("alice").String(): true}}

	gs.IterateOnGoalsAndRemoveNonPersistent(world, now, func(*goal.Goal, int) bool { return false })

	assert.Len(t, gs.GoalsAt(0), 1)
}

func TestIterateOnGoalsAndRemoveNonPersistentCallsBackForUnsatisfiedGoal(t *testing.T) {
	gs := New()
	now := time.Now()
	g1 := newGoal("g1", axeFact("alice"), now)
	gs.SetGoals(map[int][]*goal.Goal{0: {g1}})

	world := &fakeWorld{satisfied: map[string]bool{}}

	var visited []string
	gs.IterateOnGoalsAndRemoveNonPersistent(world, now, func(g *goal.Goal, pri int) bool {
		visited = append(visited, g.ID)
		return true
	})

	assert.Equal(t, []string{"g1"}, visited)
	assert.Len(t, gs.GoalsAt(0), 1)
}

func TestIterateOnGoalsAndRemoveNonPersistentSkipsTimedOutGoals(t *testing.T) {
	gs := New()
	now := time.Now()
	g1 := newGoal("g1", axeFact("alice"), now)
	g1.Timeout = time.Second
	gs.SetGoals(map[int][]*goal.Goal{0: {g1}})

	world := &fakeWorld{satisfied: map[string]bool{}}

	var visited []string
	gs.IterateOnGoalsAndRemoveNonPersistent(world, now.Add(time.Hour), func(g *goal.Goal, pri int) bool {
		visited = append(visited, g.ID)
		return false
	})

	assert.Empty(t, visited)
	assert.Empty(t, gs.GoalsAt(0))
}

func TestRemoveFirstGoalsThatAreAlreadySatisfiedDropsPrefixOnly(t *testing.T) {
	gs := New()
	now := time.Now()
	g1 := newGoal("g1", axeFact("alice"), now)
	g2 := newGoal("g2", axeFact("bob"), now)
	gs.SetGoals(map[int][]*goal.Goal{0: {g1, g2}})

	world := &fakeWorld{satisfied: map[string]bool{axeFact("alice").String(): true}}

	last := gs.RemoveFirstGoalsThatAreAlreadySatisfied(world)

	assert.Equal(t, "g1", last)
	list := gs.GoalsAt(0)
	require.Len(t, list, 1)
	assert.Equal(t, "g2", list[0].ID)
}

func TestRemoveFirstGoalsThatAreAlreadySatisfiedStopsAtPersistentGoal(t *testing.T) {
	gs := New()
	now := time.Now()
	g1 := newGoal("g1", axeFact("alice"), now)
	g1.Persistent = true
	g2 := newGoal("g2", axeFact("bob"), now)
	gs.SetGoals(map[int][]*goal.Goal{0: {g1, g2}})

	world := &fakeWorld{satisfied: map[string]bool{
		axeFact("alice").String(): true,
		axeFact("bob").String():   true,
	}}

	last := gs.RemoveFirstGoalsThatAreAlreadySatisfied(world)

	assert.Equal(t, "", last)
	assert.Len(t, gs.GoalsAt(0), 2)
}
