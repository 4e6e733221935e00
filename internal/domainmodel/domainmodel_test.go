package domainmodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"contextualplanner/internal/condition"
	"contextualplanner/internal/fact"
	"contextualplanner/internal/goal"
	"contextualplanner/internal/ontology"
	"contextualplanner/internal/wsm"
)

var personType = ontology.NewType("person", nil)
var axePred = &ontology.Predicate{Name: "has_axe", ParamTypes: []*ontology.Type{personType}}

func axeFact(name string) fact.Fact {
	return fact.Fact{Predicate: axePred, Args: []ontology.Value{&ontology.Entity{Name: name, Type: personType}}}
}

func TestActionValidateRejectsEmptyEffect(t *testing.T) {
	a := &Action{ID: "noop"}
	assert.False(t, a.Validate())
}

func TestActionValidateAcceptsNonEmptyEffect(t *testing.T) {
	a := &Action{ID: "chop", Effect: ProblemModification{Effect: wsm.FactNode(fact.FactOptional{Fact: axeFact("alice")})}}
	assert.True(t, a.Validate())
}

func TestActionParamByNameFindsFormalParameter(t *testing.T) {
	p := &ontology.Parameter{Name: "who", Type: personType}
	a := &Action{Parameters: []*ontology.Parameter{p}}

	assert.Same(t, p, a.ParamByName("who"))
	assert.Nil(t, a.ParamByName("missing"))
}

func TestEventEmptyReportsNoEffectAndNoGoals(t *testing.T) {
	e := &Event{}
	assert.True(t, e.Empty())

	e.FactsToModify = wsm.FactNode(fact.FactOptional{Fact: axeFact("alice")})
	assert.False(t, e.Empty())
}

func TestEventEmptyFalseWithOnlyGoals(t *testing.T) {
	e := &Event{GoalsToAdd: map[int][]*goal.Goal{0: {goal.New("g", nil, time.Time{})}}}
	assert.False(t, e.Empty())
}

func TestEventParamByName(t *testing.T) {
	p := &ontology.Parameter{Name: "who", Type: personType}
	e := &Event{Parameters: []*ontology.Parameter{p}}

	assert.Same(t, p, e.ParamByName("who"))
	assert.Nil(t, e.ParamByName("missing"))
}

func TestProblemModificationEmptyTrueForZeroValue(t *testing.T) {
	var pm ProblemModification
	assert.True(t, pm.Empty())
}

func TestProblemModificationEmptyFalseWithEffect(t *testing.T) {
	pm := ProblemModification{Effect: wsm.FactNode(fact.FactOptional{Fact: axeFact("alice")})}
	assert.False(t, pm.Empty())
}

func TestProblemModificationHasFactLooksInEffectTrees(t *testing.T) {
	pm := ProblemModification{PotentialEffect: wsm.FactNode(fact.FactOptional{Fact: axeFact("alice")})}
	assert.True(t, pm.HasFact(axeFact("alice")))
	assert.False(t, pm.HasFact(axeFact("bob")))
}

func TestProblemModificationHasFactLooksInGoalObjectives(t *testing.T) {
	obj := condition.Fact(fact.FactOptional{Fact: axeFact("alice")})
	g := goal.New("g", obj, time.Time{})
	pm := ProblemModification{GoalsToAddInCurrentPriority: []*goal.Goal{g}}

	assert.True(t, pm.HasFact(axeFact("alice")))
}

func TestProblemModificationAddConcatenatesEffectsAndGoals(t *testing.T) {
	a := ProblemModification{
		Effect:     wsm.FactNode(fact.FactOptional{Fact: axeFact("alice")}),
		GoalsToAdd: map[int][]*goal.Goal{0: {goal.New("g1", nil, time.Time{})}},
	}
	b := ProblemModification{
		Effect:                      wsm.FactNode(fact.FactOptional{Fact: axeFact("bob")}),
		GoalsToAdd:                  map[int][]*goal.Goal{0: {goal.New("g2", nil, time.Time{})}},
		GoalsToAddInCurrentPriority: []*goal.Goal{goal.New("g3", nil, time.Time{})},
	}

	a.Add(b)

	assert.Equal(t, wsm.KindAnd, a.Effect.Kind)
	assert.Len(t, a.GoalsToAdd[0], 2)
	assert.Len(t, a.GoalsToAddInCurrentPriority, 1)
}

func TestProblemModificationAllFactOptionalsThatCanBeModifiedDeduplicates(t *testing.T) {
	pm := ProblemModification{
		Effect:          wsm.FactNode(fact.FactOptional{Fact: axeFact("alice")}),
		PotentialEffect: wsm.FactNode(fact.FactOptional{Fact: axeFact("alice")}),
		EffectAtStart:   wsm.FactNode(fact.FactOptional{Fact: axeFact("bob")}),
	}

	out := pm.AllFactOptionalsThatCanBeModified()
	assert.Len(t, out, 2)
}
