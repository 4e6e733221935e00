package wsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contextualplanner/internal/fact"
	"contextualplanner/internal/ontology"
)

var personType = ontology.NewType("person", nil)

// fakeStore is a minimal in-memory FactStore for exercising ApplyTo/ForAll
// without pulling in the full worldstate package.
type fakeStore struct {
	facts []fact.Fact
}

func (s *fakeStore) AddFact(f fact.Fact) {
	for i, existing := range s.facts {
		if existing.MatchesArgs(f) {
			s.facts[i] = f
			return
		}
	}
	s.facts = append(s.facts, f)
}

func (s *fakeStore) RemoveFactsMatchingArgs(f fact.Fact) {
	kept := s.facts[:0]
	for _, existing := range s.facts {
		if !existing.MatchesArgs(f) {
			kept = append(kept, existing)
		}
	}
	s.facts = kept
}

func (s *fakeStore) FluentValue(f fact.Fact) (ontology.Value, bool) {
	for _, existing := range s.facts {
		if existing.MatchesArgs(f) && existing.Fluent != nil {
			return existing.Fluent, true
		}
	}
	return nil, false
}

func (s *fakeStore) CandidateArgValues(pattern fact.Fact, argIndex int) []*ontology.Entity {
	var out []*ontology.Entity
	seen := map[string]bool{}
	for _, existing := range s.facts {
		if existing.Signature() != pattern.Signature() || argIndex >= len(existing.Args) {
			continue
		}
		if e, ok := existing.Args[argIndex].(*ontology.Entity); ok && !seen[e.Name] {
			seen[e.Name] = true
			out = append(out, e)
		}
	}
	return out
}

func (s *fakeStore) AllKnownEntitiesOfType(t *ontology.Type) []*ontology.Entity {
	var out []*ontology.Entity
	seen := map[string]bool{}
	for _, existing := range s.facts {
		for _, a := range existing.Args {
			if e, ok := a.(*ontology.Entity); ok && t.IsAssignableFrom(e.Type) && !seen[e.Name] {
				seen[e.Name] = true
				out = append(out, e)
			}
		}
	}
	return out
}

var axePred = &ontology.Predicate{Name: "has_axe", ParamTypes: []*ontology.Type{personType}}
var woodPred = &ontology.Predicate{Name: "wood_count", ParamTypes: []*ontology.Type{personType}, FluentType: ontology.NumberType}

// hasAxePred and woodCountPred return the shared predicate singletons so
// facts built in different test helpers still compare equal by pointer,
// matching MatchesArgs' identity check on Fact.Predicate.
func hasAxePred() *ontology.Predicate { return axePred }
func woodCountPred() *ontology.Predicate { return woodPred }

func TestApplyToAddsFact(t *testing.T) {
	alice := &ontology.Entity{Name: "alice", Type: personType}
	store := &fakeStore{}
	bindings := ontology.NewParamBindings()

	w := FactNode(fact.FactOptional{Fact: fact.Fact{Predicate: hasAxePred(), Args: []ontology.Value{alice}}})
	require.NoError(t, w.ApplyTo(store, bindings))

	assert.Len(t, store.facts, 1)
	assert.Equal(t, "alice", store.facts[0].Args[0].ValueName())
}

func TestApplyToRemovesFactWhenNegated(t *testing.T) {
	alice := &ontology.Entity{Name: "alice", Type: personType}
	store := &fakeStore{facts: []fact.Fact{{Predicate: hasAxePred(), Args: []ontology.Value{alice}}}}
	bindings := ontology.NewParamBindings()

	w := FactNode(fact.FactOptional{Fact: fact.Fact{Predicate: hasAxePred(), Args: []ontology.Value{alice}}, IsNegated: true})
	require.NoError(t, w.ApplyTo(store, bindings))

	assert.Empty(t, store.facts)
}

func TestApplyToAndAppliesBothSidesInOrder(t *testing.T) {
	alice := &ontology.Entity{Name: "alice", Type: personType}
	store := &fakeStore{}
	bindings := ontology.NewParamBindings()

	left := FactNode(fact.FactOptional{Fact: fact.Fact{Predicate: hasAxePred(), Args: []ontology.Value{alice}}})
	right := Assign(
		FactNode(fact.FactOptional{Fact: fact.Fact{Predicate: woodCountPred(), Args: []ontology.Value{alice}}}),
		Num(5),
	)
	require.NoError(t, And(left, right).ApplyTo(store, bindings))

	assert.Len(t, store.facts, 2)
}

func TestApplyToAssignSetsFluent(t *testing.T) {
	alice := &ontology.Entity{Name: "alice", Type: personType}
	store := &fakeStore{}
	bindings := ontology.NewParamBindings()

	lhs := FactNode(fact.FactOptional{Fact: fact.Fact{Predicate: woodCountPred(), Args: []ontology.Value{alice}}})
	require.NoError(t, Assign(lhs, Num(7)).ApplyTo(store, bindings))

	v, ok := store.FluentValue(fact.Fact{Predicate: woodCountPred(), Args: []ontology.Value{alice}})
	require.True(t, ok)
	n, ok := ontology.AsNumber(v)
	require.True(t, ok)
	assert.Equal(t, 7, n)
}

func TestApplyToAssignUndefinedRemovesFluent(t *testing.T) {
	alice := &ontology.Entity{Name: "alice", Type: personType}
	store := &fakeStore{facts: []fact.Fact{{Predicate: woodCountPred(), Args: []ontology.Value{alice}, Fluent: ontology.NewNumberEntity(3)}}}
	bindings := ontology.NewParamBindings()

	undefined := FactNode(fact.FactOptional{Fact: fact.Fact{Predicate: &ontology.Predicate{Name: Undefined}}})
	lhs := FactNode(fact.FactOptional{Fact: fact.Fact{Predicate: woodCountPred(), Args: []ontology.Value{alice}}})
	require.NoError(t, Assign(lhs, undefined).ApplyTo(store, bindings))

	assert.Empty(t, store.facts)
}

func TestApplyToIncreaseAndDecrease(t *testing.T) {
	alice := &ontology.Entity{Name: "alice", Type: personType}
	store := &fakeStore{facts: []fact.Fact{{Predicate: woodCountPred(), Args: []ontology.Value{alice}, Fluent: ontology.NewNumberEntity(10)}}}
	bindings := ontology.NewParamBindings()

	lhs := FactNode(fact.FactOptional{Fact: fact.Fact{Predicate: woodCountPred(), Args: []ontology.Value{alice}}})
	require.NoError(t, Increase(lhs, Num(5)).ApplyTo(store, bindings))
	v, _ := store.FluentValue(fact.Fact{Predicate: woodCountPred(), Args: []ontology.Value{alice}})
	n, _ := ontology.AsNumber(v)
	assert.Equal(t, 15, n)

	require.NoError(t, Decrease(lhs, Num(3)).ApplyTo(store, bindings))
	v, _ = store.FluentValue(fact.Fact{Predicate: woodCountPred(), Args: []ontology.Value{alice}})
	n, _ = ontology.AsNumber(v)
	assert.Equal(t, 12, n)
}

func TestApplyToForallIteratesCandidates(t *testing.T) {
	alice := &ontology.Entity{Name: "alice", Type: personType}
	bob := &ontology.Entity{Name: "bob", Type: personType}
	store := &fakeStore{facts: []fact.Fact{
		{Predicate: hasAxePred(), Args: []ontology.Value{alice}},
		{Predicate: hasAxePred(), Args: []ontology.Value{bob}},
	}}
	bindings := ontology.NewParamBindings()

	p := &ontology.Parameter{Name: "p", Type: personType}
	pattern := FactNode(fact.FactOptional{Fact: fact.Fact{Predicate: hasAxePred(), Args: []ontology.Value{p}}})
	body := FactNode(fact.FactOptional{Fact: fact.Fact{Predicate: woodCountPred(), Args: []ontology.Value{p}}})

	require.NoError(t, ForAllNode(p, pattern, Assign(body, Num(1))).ApplyTo(store, bindings))

	aliceV, ok := store.FluentValue(fact.Fact{Predicate: woodCountPred(), Args: []ontology.Value{alice}})
	require.True(t, ok)
	n, _ := ontology.AsNumber(aliceV)
	assert.Equal(t, 1, n)

	bobV, ok := store.FluentValue(fact.Fact{Predicate: woodCountPred(), Args: []ontology.Value{bob}})
	require.True(t, ok)
	n, _ = ontology.AsNumber(bobV)
	assert.Equal(t, 1, n)
}

func TestApplyToOnNilWSMIsNoop(t *testing.T) {
	var w *WSM
	assert.NoError(t, w.ApplyTo(&fakeStore{}, ontology.NewParamBindings()))
}

func TestForAllReportsProducedFactOptionalsWithoutMutating(t *testing.T) {
	alice := &ontology.Entity{Name: "alice", Type: personType}
	store := &fakeStore{}
	bindings := ontology.NewParamBindings()

	w := FactNode(fact.FactOptional{Fact: fact.Fact{Predicate: hasAxePred(), Args: []ontology.Value{alice}}})

	var produced []fact.FactOptional
	w.ForAll(store, bindings, func(fo fact.FactOptional) { produced = append(produced, fo) })

	assert.Len(t, produced, 1)
	assert.Empty(t, store.facts)
}

func TestCanSatisfyObjectiveMatchesPredicate(t *testing.T) {
	alice := &ontology.Entity{Name: "alice", Type: personType}
	store := &fakeStore{}
	bindings := ontology.NewParamBindings()

	w := FactNode(fact.FactOptional{Fact: fact.Fact{Predicate: hasAxePred(), Args: []ontology.Value{alice}}})

	ok := w.CanSatisfyObjective(store, bindings, func(fo fact.FactOptional, _ ontology.ParamBindings) bool {
		return fo.Fact.Predicate.Name == "has_axe"
	})
	assert.True(t, ok)
}

func TestCanSatisfyObjectiveOnNilWSMIsFalse(t *testing.T) {
	var w *WSM
	ok := w.CanSatisfyObjective(&fakeStore{}, ontology.NewParamBindings(), func(fact.FactOptional, ontology.ParamBindings) bool { return true })
	assert.False(t, ok)
}

func TestWSMStringRendersEachKind(t *testing.T) {
	alice := &ontology.Entity{Name: "alice", Type: personType}
	fn := FactNode(fact.FactOptional{Fact: fact.Fact{Predicate: hasAxePred(), Args: []ontology.Value{alice}}})
	p := &ontology.Parameter{Name: "p", Type: personType}

	assert.Equal(t, "has_axe(alice)", fn.String())
	assert.Equal(t, "5", Num(5).String())
	assert.Equal(t, "and(has_axe(alice), 5)", And(fn, Num(5)).String())
	assert.Equal(t, "assign(has_axe(alice), 5)", Assign(fn, Num(5)).String())
	assert.Equal(t, "increase(has_axe(alice), 5)", Increase(fn, Num(5)).String())
	assert.Equal(t, "decrease(has_axe(alice), 5)", Decrease(fn, Num(5)).String())
	assert.Equal(t, "+(5, 5)", Plus(Num(5), Num(5)).String())
	assert.Equal(t, "-(5, 5)", Minus(Num(5), Num(5)).String())
	assert.Equal(t, "forall(?p, has_axe(alice), 5)", ForAllNode(p, fn, Num(5)).String())
	assert.Equal(t, "?p", ParamRef(p).String())
}

func TestWSMStringOnNilIsEmpty(t *testing.T) {
	var w *WSM
	assert.Equal(t, "", w.String())
}

func TestIsEmpty(t *testing.T) {
	var w *WSM
	assert.True(t, w.IsEmpty())
	assert.False(t, Num(1).IsEmpty())
}

func TestForEachLeafVisitsNestedNodes(t *testing.T) {
	alice := &ontology.Entity{Name: "alice", Type: personType}
	axe := FactNode(fact.FactOptional{Fact: fact.Fact{Predicate: hasAxePred(), Args: []ontology.Value{alice}}})
	wood := FactNode(fact.FactOptional{Fact: fact.Fact{Predicate: woodCountPred(), Args: []ontology.Value{alice}}})

	tree := And(axe, Assign(wood, Num(1)))

	var seen []string
	tree.ForEachLeaf(func(fo fact.FactOptional) { seen = append(seen, fo.Fact.Predicate.Name) })
	assert.Equal(t, []string{"has_axe", "wood_count"}, seen)
}

func TestHasFactMatchesIgnoringFluent(t *testing.T) {
	alice := &ontology.Entity{Name: "alice", Type: personType}
	w := FactNode(fact.FactOptional{Fact: fact.Fact{Predicate: woodCountPred(), Args: []ontology.Value{alice}, Fluent: ontology.NewNumberEntity(1)}})

	query := fact.Fact{Predicate: woodCountPred(), Args: []ontology.Value{alice}}
	assert.True(t, w.HasFact(query))
}

func TestHasFactOnNilWSMIsFalse(t *testing.T) {
	var w *WSM
	assert.False(t, w.HasFact(fact.Fact{}))
}

func TestConcatTreatsNilSidesAsIdentity(t *testing.T) {
	a := Num(1)
	assert.Same(t, a, Concat(a, nil))
	assert.Same(t, a, Concat(nil, a))

	b := Num(2)
	combined := Concat(a, b)
	assert.Equal(t, KindAnd, combined.Kind)
}
