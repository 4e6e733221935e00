// Package plog is the planner's optional logging extension point: a Hook
// with one method per decision event (action selection, event fixpoint
// iterations, goal drops, planning failures), mirroring the teacher's own
// pattern of keeping zerolog confined to cmd/*-service binaries and wiring
// it in at startup. The core packages do not import plog or call a Hook;
// cmd/plannerctl's runPlan calls PlanningFailed.
package plog

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Hook receives planner decision events. Call sites do not check for a nil
// Hook; NopHook() is the Hook to pass where no logging is wanted.
type Hook interface {
	ActionSelected(actionID string, goalID string, priority int)
	EventFixpointIteration(iteration int, changed bool)
	GoalDropped(goalID string, reason string)
	PlanningFailed(goalID string, err error)
}

type nopHook struct{}

func (nopHook) ActionSelected(string, string, int)       {}
func (nopHook) EventFixpointIteration(int, bool)         {}
func (nopHook) GoalDropped(string, string)                {}
func (nopHook) PlanningFailed(string, error)              {}

// NopHook returns a Hook that discards every event.
func NopHook() Hook { return nopHook{} }

// ZerologHook adapts zerolog.Logger to Hook, the logger the teacher's
// cmd/*-service binaries configure at startup (ConsoleWriter to stderr,
// unix time format).
type ZerologHook struct {
	Logger zerolog.Logger
}

// NewZerologHook builds a Hook writing structured JSON lines to stderr by
// default, console-formatted when pretty is true.
func NewZerologHook(pretty bool) *ZerologHook {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	var l zerolog.Logger
	if pretty {
		l = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		l = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return &ZerologHook{Logger: l}
}

func (h *ZerologHook) ActionSelected(actionID, goalID string, priority int) {
	h.Logger.Debug().Str("action_id", actionID).Str("goal_id", goalID).Int("priority", priority).Msg("action selected")
}

func (h *ZerologHook) EventFixpointIteration(iteration int, changed bool) {
	h.Logger.Trace().Int("iteration", iteration).Bool("changed", changed).Msg("event fixpoint iteration")
}

func (h *ZerologHook) GoalDropped(goalID, reason string) {
	h.Logger.Info().Str("goal_id", goalID).Str("reason", reason).Msg("goal dropped")
}

func (h *ZerologHook) PlanningFailed(goalID string, err error) {
	h.Logger.Warn().Str("goal_id", goalID).Err(err).Msg("planning failed")
}
