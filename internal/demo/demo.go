// Package demo builds a small, fixed domain (a lumberjack chopping trees
// to accumulate wood) shared by cmd/plannerd and cmd/plannerctl, so both
// binaries exercise the same concrete domain instead of each inventing
// their own. It plays the role the teacher's tests/e2e fixtures play for
// the game server: one small known-good world everything can be driven
// against.
package demo

import (
	"time"

	"contextualplanner/internal/condition"
	"contextualplanner/internal/domain"
	"contextualplanner/internal/domainmodel"
	"contextualplanner/internal/fact"
	"contextualplanner/internal/goal"
	"contextualplanner/internal/ontology"
	"contextualplanner/internal/problem"
	"contextualplanner/internal/wsm"
)

// Built bundles everything BuildDomain assembles, so callers don't have to
// re-derive predicate/type handles to declare problem-scoped entities.
type Built struct {
	Ontology    *ontology.Ontology
	Domain      *domain.Domain
	PersonType  *ontology.Type
	TreeType    *ontology.Type
	HasAxe      *ontology.Predicate
	Chopped     *ontology.Predicate
	WoodCount   *ontology.Predicate
}

// Build constructs the lumberjack domain: a Person can chop any
// not-yet-chopped Tree if they have an axe, gaining one wood per chop.
func Build() (*Built, error) {
	ont := ontology.New()
	personType, err := ont.AddType("person", "")
	if err != nil {
		return nil, err
	}
	treeType, err := ont.AddType("tree", "")
	if err != nil {
		return nil, err
	}

	hasAxe := &ontology.Predicate{Name: "has_axe", ParamTypes: []*ontology.Type{personType}}
	chopped := &ontology.Predicate{Name: "chopped", ParamTypes: []*ontology.Type{treeType}}
	woodCount := &ontology.Predicate{Name: "wood_count", ParamTypes: []*ontology.Type{personType}, FluentType: ontology.NumberType}

	for _, p := range []*ontology.Predicate{hasAxe, chopped, woodCount} {
		if err := ont.AddPredicate(p); err != nil {
			return nil, err
		}
	}

	pParam := &ontology.Parameter{Name: "p", Type: personType}
	tParam := &ontology.Parameter{Name: "t", Type: treeType}

	hasAxeFact, err := fact.New(hasAxe, []ontology.Value{pParam}, nil)
	if err != nil {
		return nil, err
	}
	choppedFact, err := fact.New(chopped, []ontology.Value{tParam}, nil)
	if err != nil {
		return nil, err
	}
	woodCountFact, err := fact.New(woodCount, []ontology.Value{pParam}, nil)
	if err != nil {
		return nil, err
	}

	precond := condition.And(
		condition.Fact(fact.FactOptional{Fact: hasAxeFact}),
		condition.Fact(fact.FactOptional{Fact: choppedFact, IsNegated: true}),
	)

	effect := wsm.And(
		wsm.FactNode(fact.FactOptional{Fact: choppedFact}),
		wsm.Increase(wsm.FactNode(fact.FactOptional{Fact: woodCountFact}), wsm.Num(1)),
	)

	chopWood := &domainmodel.Action{
		ID:                 "chop_wood",
		Parameters:         []*ontology.Parameter{pParam, tParam},
		Preconditions:      precond,
		Effect:             domainmodel.ProblemModification{Effect: effect},
		CanBeUsedByPlanner: true,
	}

	dom, err := domain.BuildDomain([]*domainmodel.Action{chopWood}, nil, ont)
	if err != nil {
		return nil, err
	}

	return &Built{
		Ontology:   ont,
		Domain:     dom,
		PersonType: personType,
		TreeType:   treeType,
		HasAxe:     hasAxe,
		Chopped:    chopped,
		WoodCount:  woodCount,
	}, nil
}

// NewProblem seeds a problem.Problem with nbTrees trees, one person
// "woodcutter" carrying an axe, and a goal of accumulating targetWood
// wood at GroupID "wood_goal" and priority 0.
func (b *Built) NewProblem(nbTrees, targetWood int) (*problem.Problem, error) {
	woodcutter := &ontology.Entity{Name: "woodcutter", Type: b.PersonType}
	trees := make([]*ontology.Entity, nbTrees)
	for i := range trees {
		trees[i] = &ontology.Entity{Name: treeName(i), Type: b.TreeType}
	}

	entities := map[string][]*ontology.Entity{
		b.PersonType.Name: {woodcutter},
		b.TreeType.Name:   trees,
	}
	p := problem.New(b.Domain, entities)

	hasAxeFact, err := fact.New(b.HasAxe, []ontology.Value{woodcutter}, nil)
	if err != nil {
		return nil, err
	}
	if err := p.AddFact(hasAxeFact); err != nil {
		return nil, err
	}

	woodCountFact, err := fact.New(b.WoodCount, []ontology.Value{woodcutter}, ontology.NewNumberEntity(0))
	if err != nil {
		return nil, err
	}
	if err := p.AddFact(woodCountFact); err != nil {
		return nil, err
	}

	goalWoodFact, err := fact.New(b.WoodCount, []ontology.Value{woodcutter}, nil)
	if err != nil {
		return nil, err
	}
	objective := condition.Ge(
		condition.Fact(fact.FactOptional{Fact: goalWoodFact}),
		condition.Num(targetWood),
	)
	g := goal.New("gather_wood", objective, time.Now())
	g.GroupID = "wood_goal"
	p.Goals().SetGoals(map[int][]*goal.Goal{0: {g}})

	return p, nil
}

func treeName(i int) string {
	names := []byte{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j'}
	if i < len(names) {
		return "tree_" + string(names[i])
	}
	return "tree_extra"
}
