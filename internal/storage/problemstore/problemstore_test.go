package problemstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contextualplanner/internal/demo"
	"contextualplanner/internal/exprtext"
	"contextualplanner/internal/fact"
)

// factsJSON/goalsJSON/symbolsFor are pure transformations of a Problem's
// observable state and are exercised directly; Append/History/Recent/
// SaveSnapshot/LoadLatestSnapshot need a live Postgres connection and are
// covered by the integration-tagged round trip test instead.

func TestFactsJSONRendersKnownFacts(t *testing.T) {
	built, err := demo.Build()
	require.NoError(t, err)
	p, err := built.NewProblem(2, 2)
	require.NoError(t, err)

	raw, err := factsJSON(p)
	require.NoError(t, err)

	var out []string
	require.NoError(t, json.Unmarshal(raw, &out))
	require.NotEmpty(t, out)
}

func TestGoalsJSONRendersGroupedByPriority(t *testing.T) {
	built, err := demo.Build()
	require.NoError(t, err)
	p, err := built.NewProblem(2, 2)
	require.NoError(t, err)

	raw, err := goalsJSON(p)
	require.NoError(t, err)

	var out []GoalRecord
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "gather_wood", out[0].ID)
	assert.Equal(t, 0, out[0].Priority)
	assert.Equal(t, "wood_goal", out[0].GroupID)
}

func TestFactsListAndGoalsListRoundTripThroughExprtext(t *testing.T) {
	built, err := demo.Build()
	require.NoError(t, err)
	p, err := built.NewProblem(2, 2)
	require.NoError(t, err)

	sym := symbolsFor(built.Domain, p.World().KnownEntities())

	for _, fs := range factsList(p) {
		f, err := exprtext.ParseFact(fs, sym)
		require.NoError(t, err)
		assert.True(t, p.World().IsFactOptionalSatisfied(fact.FactOptional{Fact: f}))
	}

	for _, gr := range goalsList(p) {
		cond, err := exprtext.ParseCondition(gr.Objective, sym)
		require.NoError(t, err)
		assert.NotNil(t, cond)
	}
}

func TestSchemaDeclaresExpectedTable(t *testing.T) {
	require.Contains(t, Schema, "problem_snapshots")
	require.Contains(t, Schema, "UNIQUE(problem_id, version)")
}
