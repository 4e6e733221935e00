// Package problemstore is an append-only audit/replay log of Problem
// snapshots, grounded on the teacher's internal/eventstore (a
// PostgresEventStore appending immutable rows keyed by aggregate id and
// version, queried back by aggregate, by type, or by time window).
// Snapshots here play the role of eventstore's Events: one planning
// session (one Problem) is the aggregate, each snapshot a new version.
package problemstore

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"contextualplanner/internal/domain"
	"contextualplanner/internal/exprtext"
	"contextualplanner/internal/goal"
	"contextualplanner/internal/ontology"
	"contextualplanner/internal/problem"
)

// Snapshot is one append-only record of a Problem's observable state at a
// point in time. Facts/Goals are stored as the JSON encoding of a
// []string / []GoalRecord (see FactStrings/GoalRecords) rather than decoded
// eagerly, so History/Recent's bulk listing queries don't pay the
// unmarshal cost for rows the caller only wants to browse.
type Snapshot struct {
	ID          int64           `json:"id"`
	ProblemID   string          `json:"problem_id"`
	Version     int64           `json:"version"`
	Timestamp   time.Time       `json:"timestamp"`
	Facts       json.RawMessage `json:"facts"`
	Goals       json.RawMessage `json:"goals"`
	ActionCount int             `json:"action_count"`
}

// FactStrings decodes Facts into the pddl-ish per-fact strings exprtext can
// parse back into fact.Fact values.
func (s Snapshot) FactStrings() ([]string, error) {
	var out []string
	err := json.Unmarshal(s.Facts, &out)
	return out, err
}

// GoalRecords decodes Goals into the per-goal records LoadLatestSnapshot
// reconstructs goal.Goal values from.
func (s Snapshot) GoalRecords() ([]GoalRecord, error) {
	var out []GoalRecord
	err := json.Unmarshal(s.Goals, &out)
	return out, err
}

// GoalRecord is the serialized form of one goal.Goal: enough to rebuild an
// equivalent goal via exprtext.ParseCondition given the same domain and
// known entities the original problem was built with.
type GoalRecord struct {
	ID         string `json:"id"`
	Priority   int    `json:"priority"`
	Objective  string `json:"objective"`
	GroupID    string `json:"group_id,omitempty"`
	Persistent bool   `json:"persistent,omitempty"`
	Stackable  bool   `json:"stackable"`
	TimeoutNS  int64  `json:"timeout_ns,omitempty"`
}

// Store appends and retrieves Problem snapshots in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an already-connected pgxpool.Pool, mirroring the teacher's
// NewPostgresEventStore(pool).
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Schema is the DDL cmd/plannerd runs at startup; kept as a constant
// rather than a migration tool since the teacher repo has none either.
const Schema = `
CREATE TABLE IF NOT EXISTS problem_snapshots (
	id SERIAL PRIMARY KEY,
	problem_id TEXT NOT NULL,
	version BIGINT NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL,
	facts JSONB NOT NULL,
	goals JSONB NOT NULL,
	action_count INT NOT NULL,
	UNIQUE(problem_id, version)
);
`

// EnsureSchema creates the problem_snapshots table if it doesn't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

// factsList renders p's world facts in exprtext's pddl-ish per-fact text
// form, sorted for a reproducible snapshot.
func factsList(p *problem.Problem) []string {
	facts := p.World().FactsMapping()
	keys := make([]string, 0, len(facts))
	for k := range facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = facts[k].String()
	}
	return out
}

// goalsList renders every goal in p's stack as a GoalRecord.
func goalsList(p *problem.Problem) []GoalRecord {
	snap := p.Goals().Snapshot()
	priorities := make([]int, 0, len(snap))
	for pri := range snap {
		priorities = append(priorities, pri)
	}
	sort.Ints(priorities)

	var out []GoalRecord
	for _, pri := range priorities {
		for _, g := range snap[pri] {
			out = append(out, GoalRecord{
				ID:         g.ID,
				Priority:   pri,
				Objective:  exprtext.Format(g.Objective),
				GroupID:    g.GroupID,
				Persistent: g.Persistent,
				Stackable:  g.Stackable,
				TimeoutNS:  int64(g.Timeout),
			})
		}
	}
	return out
}

func factsJSON(p *problem.Problem) (json.RawMessage, error) {
	return json.Marshal(factsList(p))
}

func goalsJSON(p *problem.Problem) (json.RawMessage, error) {
	return json.Marshal(goalsList(p))
}

// symbolsFor builds the exprtext vocabulary LoadLatestSnapshot parses
// saved facts/objectives against: dom's predicates/constants plus
// knownEntities by name, mirroring cmd/plannerctl's symbolsFor.
func symbolsFor(dom *domain.Domain, knownEntities map[string][]*ontology.Entity) *exprtext.Symbols {
	entities := map[string]*ontology.Entity{}
	for _, list := range knownEntities {
		for _, e := range list {
			entities[e.Name] = e
		}
	}
	return &exprtext.Symbols{Ontology: dom.Ontology, Parameters: map[string]*ontology.Parameter{}, Entities: entities}
}

// Append inserts the next snapshot for problemID, with version one past
// whatever was last stored — the same "append, never update" discipline as
// the teacher's AppendEvent.
func (s *Store) Append(ctx context.Context, problemID string, p *problem.Problem, actionCount int, at time.Time) error {
	facts, err := factsJSON(p)
	if err != nil {
		return err
	}
	goals, err := goalsJSON(p)
	if err != nil {
		return err
	}
	version, err := s.latestVersion(ctx, problemID)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO problem_snapshots (problem_id, version, timestamp, facts, goals, action_count)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.pool.Exec(ctx, query, problemID, version+1, at, facts, goals, actionCount)
	return err
}

// SaveSnapshot is Append under the name §11 documents for the
// save/load persistence pair.
func (s *Store) SaveSnapshot(ctx context.Context, problemID string, p *problem.Problem, actionCount int, at time.Time) error {
	return s.Append(ctx, problemID, p, actionCount, at)
}

// LoadLatestSnapshot reconstructs a *problem.Problem from problemID's most
// recent snapshot against dom and knownEntities — the same domain and
// entity set the original problem was built with, since neither is itself
// persisted (§13: the core has no notion of being serialized). Reports
// found=false with a nil error if problemID has no snapshot yet.
func (s *Store) LoadLatestSnapshot(ctx context.Context, problemID string, dom *domain.Domain, knownEntities map[string][]*ontology.Entity) (p *problem.Problem, found bool, err error) {
	query := `
		SELECT id, problem_id, version, timestamp, facts, goals, action_count
		FROM problem_snapshots
		WHERE problem_id = $1
		ORDER BY version DESC
		LIMIT 1
	`
	var snap Snapshot
	scanErr := s.pool.QueryRow(ctx, query, problemID).Scan(
		&snap.ID, &snap.ProblemID, &snap.Version, &snap.Timestamp, &snap.Facts, &snap.Goals, &snap.ActionCount)
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, scanErr
	}

	factStrs, err := snap.FactStrings()
	if err != nil {
		return nil, false, err
	}
	goalRecs, err := snap.GoalRecords()
	if err != nil {
		return nil, false, err
	}

	sym := symbolsFor(dom, knownEntities)
	out := problem.New(dom, knownEntities)

	for _, fs := range factStrs {
		f, err := exprtext.ParseFact(fs, sym)
		if err != nil {
			return nil, false, err
		}
		if err := out.AddFact(f); err != nil {
			return nil, false, err
		}
	}

	goals := map[int][]*goal.Goal{}
	for _, gr := range goalRecs {
		cond, err := exprtext.ParseCondition(gr.Objective, sym)
		if err != nil {
			return nil, false, err
		}
		g := goal.New(gr.ID, cond, snap.Timestamp)
		g.GroupID = gr.GroupID
		g.Persistent = gr.Persistent
		g.Stackable = gr.Stackable
		g.Timeout = time.Duration(gr.TimeoutNS)
		goals[gr.Priority] = append(goals[gr.Priority], g)
	}
	out.Goals().SetGoals(goals)

	return out, true, nil
}

func (s *Store) latestVersion(ctx context.Context, problemID string) (int64, error) {
	var version int64
	query := `SELECT COALESCE(MAX(version), 0) FROM problem_snapshots WHERE problem_id = $1`
	if err := s.pool.QueryRow(ctx, query, problemID).Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

// History returns every snapshot recorded for problemID whose version is at
// least fromVersion, oldest first.
func (s *Store) History(ctx context.Context, problemID string, fromVersion int64) ([]Snapshot, error) {
	query := `
		SELECT id, problem_id, version, timestamp, facts, goals, action_count
		FROM problem_snapshots
		WHERE problem_id = $1 AND version >= $2
		ORDER BY version ASC
	`
	rows, err := s.pool.Query(ctx, query, problemID, fromVersion)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.ProblemID, &snap.Version, &snap.Timestamp, &snap.Facts, &snap.Goals, &snap.ActionCount); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Recent returns every snapshot across all problems since fromTimestamp,
// capped at limit rows, for a global audit view.
func (s *Store) Recent(ctx context.Context, fromTimestamp time.Time, limit int) ([]Snapshot, error) {
	query := `
		SELECT id, problem_id, version, timestamp, facts, goals, action_count
		FROM problem_snapshots
		WHERE timestamp >= $1
		ORDER BY timestamp ASC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, fromTimestamp, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.ProblemID, &snap.Version, &snap.Timestamp, &snap.Facts, &snap.Goals, &snap.ActionCount); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
