package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"contextualplanner/internal/fact"
	"contextualplanner/internal/ontology"
)

var personType = ontology.NewType("person", nil)
var axePred = &ontology.Predicate{Name: "has_axe", ParamTypes: []*ontology.Type{personType}}

// hasAxeFact reuses the shared axePred singleton so facts built across
// separate calls still compare equal by pointer, matching the Predicate
// identity check that ContainsFactOptional's unifiable helper relies on.
func hasAxeFact(name string) fact.Fact {
	return fact.Fact{Predicate: axePred, Args: []ontology.Value{&ontology.Entity{Name: name, Type: personType}}}
}

func TestFactLeafStringRendersFactOptional(t *testing.T) {
	c := Fact(fact.FactOptional{Fact: hasAxeFact("alice")})
	assert.Equal(t, "has_axe(alice)", c.String())

	negated := Fact(fact.FactOptional{Fact: hasAxeFact("alice"), IsNegated: true})
	assert.Equal(t, "!has_axe(alice)", negated.String())
}

func TestNumberLeafString(t *testing.T) {
	assert.Equal(t, "3", Num(3).String())
}

func TestNotString(t *testing.T) {
	c := Not(Fact(fact.FactOptional{Fact: hasAxeFact("alice")}))
	assert.Equal(t, "not(has_axe(alice))", c.String())
}

func TestBinaryNodeStrings(t *testing.T) {
	left := Num(1)
	right := Num(2)

	assert.Equal(t, "and(1, 2)", And(left, right).String())
	assert.Equal(t, "or(1, 2)", Or(left, right).String())
	assert.Equal(t, "imply(1, 2)", Imply(left, right).String())
	assert.Equal(t, "=(1, 2)", Eq(left, right).String())
	assert.Equal(t, "!=(1, 2)", Ne(left, right).String())
	assert.Equal(t, ">(1, 2)", Gt(left, right).String())
	assert.Equal(t, ">=(1, 2)", Ge(left, right).String())
	assert.Equal(t, "<(1, 2)", Lt(left, right).String())
	assert.Equal(t, "<=(1, 2)", Le(left, right).String())
	assert.Equal(t, "+(1, 2)", Plus(left, right).String())
	assert.Equal(t, "-(1, 2)", Minus(left, right).String())
}

func TestExistsAndForallString(t *testing.T) {
	p := &ontology.Parameter{Name: "p", Type: personType}
	body := Fact(fact.FactOptional{Fact: hasAxeFact("alice")})

	assert.Equal(t, "exists(?p, has_axe(alice))", Exists(p, body).String())
	assert.Equal(t, "forall(?p, has_axe(alice))", Forall(p, body).String())
}

func TestNilConditionStringIsEmpty(t *testing.T) {
	var c *Condition
	assert.Equal(t, "", c.String())
}

func TestForEachFactLeafVisitsLeftToRight(t *testing.T) {
	a := Fact(fact.FactOptional{Fact: hasAxeFact("alice")})
	b := Fact(fact.FactOptional{Fact: hasAxeFact("bob")})
	tree := And(a, b)

	var seen []string
	tree.ForEachFactLeaf(func(fo fact.FactOptional) {
		seen = append(seen, fo.Fact.Args[0].ValueName())
	})
	assert.Equal(t, []string{"alice", "bob"}, seen)
}

func TestForEachFactLeafSkipsThroughNotExistsForall(t *testing.T) {
	leaf := Fact(fact.FactOptional{Fact: hasAxeFact("alice")})
	p := &ontology.Parameter{Name: "p", Type: personType}

	var count int
	Not(leaf).ForEachFactLeaf(func(fact.FactOptional) { count++ })
	assert.Equal(t, 1, count)

	count = 0
	Exists(p, leaf).ForEachFactLeaf(func(fact.FactOptional) { count++ })
	assert.Equal(t, 1, count)
}

func TestForEachFactLeafOnNilConditionDoesNothing(t *testing.T) {
	var c *Condition
	called := false
	c.ForEachFactLeaf(func(fact.FactOptional) { called = true })
	assert.False(t, called)
}

func TestContainsFactOptionalMatchesSameSignature(t *testing.T) {
	tree := And(
		Fact(fact.FactOptional{Fact: hasAxeFact("alice")}),
		Fact(fact.FactOptional{Fact: hasAxeFact("bob")}),
	)

	assert.True(t, tree.ContainsFactOptional(fact.FactOptional{Fact: hasAxeFact("bob")}))
}

func TestContainsFactOptionalRejectsDifferentNegation(t *testing.T) {
	tree := Fact(fact.FactOptional{Fact: hasAxeFact("alice")})

	assert.False(t, tree.ContainsFactOptional(fact.FactOptional{Fact: hasAxeFact("alice"), IsNegated: true}))
}

func TestContainsFactOptionalRejectsDifferentPredicate(t *testing.T) {
	tree := Fact(fact.FactOptional{Fact: hasAxeFact("alice")})

	otherPred := &ontology.Predicate{Name: "chopped", ParamTypes: []*ontology.Type{personType}}
	other := fact.Fact{Predicate: otherPred, Args: []ontology.Value{&ontology.Entity{Name: "tree_a", Type: personType}}}

	assert.False(t, tree.ContainsFactOptional(fact.FactOptional{Fact: other}))
}

func TestContainsFactOptionalTreatsWildcardArgsAsUnifiable(t *testing.T) {
	tree := Fact(fact.FactOptional{Fact: hasAxeFact("alice")})

	wildcard := fact.Fact{Predicate: axePred, Args: []ontology.Value{ontology.AnyValue}}

	assert.True(t, tree.ContainsFactOptional(fact.FactOptional{Fact: wildcard}))
}

func TestContainsFactOptionalOnNilConditionIsFalse(t *testing.T) {
	var c *Condition
	assert.False(t, c.ContainsFactOptional(fact.FactOptional{Fact: hasAxeFact("alice")}))
}

func TestKindStringCoversAllKinds(t *testing.T) {
	kinds := []Kind{
		KindFact, KindNumber, KindAnd, KindOr, KindNot, KindImply,
		KindEquals, KindDifferent, KindSuperior, KindSuperiorOrEqual,
		KindInferior, KindInferiorOrEqual, KindPlus, KindMinus, KindExists, KindForall,
	}
	for _, k := range kinds {
		assert.NotEqual(t, "?", k.String())
	}
	assert.Equal(t, "?", Kind(999).String())
}
