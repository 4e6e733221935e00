package plog

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopHookDiscardsEverything(t *testing.T) {
	h := NopHook()
	assert.NotPanics(t, func() {
		h.ActionSelected("chop_wood", "gather_wood", 0)
		h.EventFixpointIteration(1, true)
		h.GoalDropped("gather_wood", "timed out")
		h.PlanningFailed("gather_wood", errors.New("boom"))
	})
}

func newCapturingHook() (*ZerologHook, *bytes.Buffer) {
	var buf bytes.Buffer
	return &ZerologHook{Logger: zerolog.New(&buf).Level(zerolog.TraceLevel)}, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestZerologHookActionSelected(t *testing.T) {
	h, buf := newCapturingHook()
	h.ActionSelected("chop_wood", "gather_wood", 2)

	m := decodeLine(t, buf)
	assert.Equal(t, "chop_wood", m["action_id"])
	assert.Equal(t, "gather_wood", m["goal_id"])
	assert.Equal(t, float64(2), m["priority"])
	assert.Equal(t, "action selected", m["message"])
}

func TestZerologHookGoalDropped(t *testing.T) {
	h, buf := newCapturingHook()
	h.GoalDropped("gather_wood", "superseded")

	m := decodeLine(t, buf)
	assert.Equal(t, "gather_wood", m["goal_id"])
	assert.Equal(t, "superseded", m["reason"])
}

func TestZerologHookPlanningFailed(t *testing.T) {
	h, buf := newCapturingHook()
	h.PlanningFailed("gather_wood", errors.New("no action found"))

	m := decodeLine(t, buf)
	assert.Equal(t, "gather_wood", m["goal_id"])
	assert.Equal(t, "no action found", m["error"])
}

func TestNewZerologHookPretty(t *testing.T) {
	h := NewZerologHook(true)
	require.NotNil(t, h)
	assert.NotPanics(t, func() { h.ActionSelected("chop_wood", "gather_wood", 0) })
}
