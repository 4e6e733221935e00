// Package natsobserver publishes internal/observer.Hub notifications onto
// NATS for cross-process consumers, grounded on the teacher's
// internal/ai/desire_engine.go pattern of wrapping a *nats.Conn and
// calling Publish with json.Marshal'd payloads, logging failures through
// zerolog rather than returning them (Publish is fire-and-forget the same
// way the teacher's handlers treat it).
package natsobserver

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"contextualplanner/internal/fact"
	"contextualplanner/internal/goal"
	"contextualplanner/internal/observer"
)

// Subjects used when publishing. Kept as constants rather than configured
// per-instance since every plannerd process shares one subject namespace.
const (
	SubjectFactsChanged     = "planner.facts.changed"
	SubjectGoalsChanged     = "planner.goals.changed"
	SubjectVariablesChanged = "planner.variables.changed"
)

type goalSummary struct {
	ID       string `json:"id"`
	Priority int    `json:"priority"`
}

// Publisher subscribes to a Hub and republishes its notifications onto
// NATS from a dedicated goroutine, never from inside the Hub's own
// synchronous callback (per §5's "a callback must not re-enter the
// problem" rule — blocking network I/O inside that callback would violate
// the same spirit even though it isn't reentrancy proper).
type Publisher struct {
	nc     *nats.Conn
	logger zerolog.Logger

	factsCh     chan map[string]fact.Fact
	goalsCh     chan map[int][]*goal.Goal
	variablesCh chan map[string]string
	done        chan struct{}
}

// New creates a Publisher bound to nc, buffering up to 64 pending
// notifications of each kind; once a buffer is full, the callbacks Attach
// registers drop each new notification of that kind (with a warning) and
// keep the ones already queued.
func New(nc *nats.Conn, logger zerolog.Logger) *Publisher {
	return &Publisher{
		nc:          nc,
		logger:      logger,
		factsCh:     make(chan map[string]fact.Fact, 64),
		goalsCh:     make(chan map[int][]*goal.Goal, 64),
		variablesCh: make(chan map[string]string, 64),
		done:        make(chan struct{}),
	}
}

// Attach registers callbacks on hub that hand notifications off to
// buffered channels, and starts the goroutine that drains them onto NATS.
// Returns the registered tokens so the caller can Unregister on shutdown.
func (p *Publisher) Attach(hub *observer.Hub) (factsTok, goalsTok, varsTok observer.Token) {
	factsTok = hub.OnFactsChanged(func(facts map[string]fact.Fact) {
		select {
		case p.factsCh <- facts:
		default:
			p.logger.Warn().Msg("dropping facts-changed notification, publisher backlog full")
		}
	})
	goalsTok = hub.OnGoalsChanged(func(goals map[int][]*goal.Goal) {
		select {
		case p.goalsCh <- goals:
		default:
			p.logger.Warn().Msg("dropping goals-changed notification, publisher backlog full")
		}
	})
	varsTok = hub.OnVariablesToValueChanged(func(vars map[string]string) {
		select {
		case p.variablesCh <- vars:
		default:
			p.logger.Warn().Msg("dropping variables-changed notification, publisher backlog full")
		}
	})
	go p.run()
	return factsTok, goalsTok, varsTok
}

// Close stops the drain goroutine. It does not close the underlying
// *nats.Conn, which callers may share across multiple Publishers.
func (p *Publisher) Close() { close(p.done) }

func (p *Publisher) run() {
	for {
		select {
		case <-p.done:
			return
		case facts := <-p.factsCh:
			p.publishFacts(facts)
		case goals := <-p.goalsCh:
			p.publishGoals(goals)
		case vars := <-p.variablesCh:
			p.publishVariables(vars)
		}
	}
}

func (p *Publisher) publishFacts(facts map[string]fact.Fact) {
	out := make(map[string]string, len(facts))
	for k, f := range facts {
		out[k] = f.String()
	}
	data, err := json.Marshal(out)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to marshal facts-changed payload")
		return
	}
	if err := p.nc.Publish(SubjectFactsChanged, data); err != nil {
		p.logger.Error().Err(err).Msg("failed to publish facts-changed")
	}
}

func (p *Publisher) publishGoals(goals map[int][]*goal.Goal) {
	out := map[int][]goalSummary{}
	for pri, gs := range goals {
		for _, g := range gs {
			out[pri] = append(out[pri], goalSummary{ID: g.ID, Priority: pri})
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to marshal goals-changed payload")
		return
	}
	if err := p.nc.Publish(SubjectGoalsChanged, data); err != nil {
		p.logger.Error().Err(err).Msg("failed to publish goals-changed")
	}
}

func (p *Publisher) publishVariables(vars map[string]string) {
	data, err := json.Marshal(vars)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to marshal variables-changed payload")
		return
	}
	if err := p.nc.Publish(SubjectVariablesChanged, data); err != nil {
		p.logger.Error().Err(err).Msg("failed to publish variables-changed")
	}
}
