package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contextualplanner/internal/demo"
	"contextualplanner/internal/historical"
	"contextualplanner/internal/plog"
)

func newTestDispatch(t *testing.T) func(string) bool {
	t.Helper()
	built, err := demo.Build()
	require.NoError(t, err)
	prob, err := built.NewProblem(2, 2)
	require.NoError(t, err)

	globalHistorical := historical.New()
	sym := symbolsFor(built, prob)
	hook := plog.NopHook()

	return func(line string) bool {
		return dispatch(line, prob, globalHistorical, sym, hook)
	}
}

func TestDispatchQuitStopsTheLoop(t *testing.T) {
	d := newTestDispatch(t)
	assert.False(t, d("quit"))
	assert.False(t, d("exit"))
}

func TestDispatchUnknownCommandContinues(t *testing.T) {
	d := newTestDispatch(t)
	assert.True(t, d("bogus"))
}

func TestDispatchAssertAddsFact(t *testing.T) {
	built, err := demo.Build()
	require.NoError(t, err)
	prob, err := built.NewProblem(2, 2)
	require.NoError(t, err)
	sym := symbolsFor(built, prob)
	globalHistorical := historical.New()
	hook := plog.NopHook()

	assert.True(t, dispatch("assert chopped(tree_a)", prob, globalHistorical, sym, hook))

	facts := prob.World().FactsMapping()
	var sawChopped bool
	for _, f := range facts {
		if f.Predicate.Name == "chopped" {
			sawChopped = true
		}
	}
	assert.True(t, sawChopped)
}

func TestDispatchNextAndDoneRoundTrip(t *testing.T) {
	built, err := demo.Build()
	require.NoError(t, err)
	prob, err := built.NewProblem(2, 2)
	require.NoError(t, err)
	sym := symbolsFor(built, prob)
	globalHistorical := historical.New()
	hook := plog.NopHook()

	assert.True(t, dispatch("next", prob, globalHistorical, sym, hook))
	assert.True(t, dispatch("done chop_wood", prob, globalHistorical, sym, hook))
}
