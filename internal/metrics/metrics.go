// Package metrics exposes package-level prometheus collectors for the
// planner's decision loop, grounded on the teacher's
// internal/ai/metrics/prometheus.go package-level promauto pattern.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	planAttemptsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contextualplanner_plan_attempts_total",
		Help: "Number of planning attempts, labelled by outcome.",
	}, []string{"outcome"})

	planDurationHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "contextualplanner_plan_duration_seconds",
		Help:    "Wall-clock time spent inside a single GoalToPlan/PlanForEveryGoals call.",
		Buckets: prometheus.DefBuckets,
	})

	planActionsHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "contextualplanner_plan_actions",
		Help:    "Number of actions in a computed plan.",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89},
	})

	goalsUnsatisfiedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "contextualplanner_goals_unsatisfied",
		Help: "Number of goals left unsatisfied by the most recent plan.",
	})

	actionsAppliedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contextualplanner_actions_applied_total",
		Help: "Number of action effects committed via NotifyActionDone, labelled by action id.",
	}, []string{"action_id"})
)

// RecordPlan records the outcome of one planning call: whether it
// succeeded, how many actions it produced, how many goals remain
// unsatisfied, and how long it took.
func RecordPlan(success bool, nbActions, nbGoalsUnsatisfied int, seconds float64) {
	outcome := "success"
	if !success {
		outcome = "partial"
	}
	planAttemptsCounter.WithLabelValues(outcome).Inc()
	planDurationHistogram.Observe(seconds)
	planActionsHistogram.Observe(float64(nbActions))
	goalsUnsatisfiedGauge.Set(float64(nbGoalsUnsatisfied))
}

// RecordActionApplied records one committed action effect.
func RecordActionApplied(actionID string) {
	actionsAppliedCounter.WithLabelValues(actionID).Inc()
}
