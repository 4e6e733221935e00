// Package domain owns the immutable-during-planning Domain: the ontology,
// the action set, the event sets, and the derived succession cache.
package domain

import (
	"sort"

	"contextualplanner/internal/domainmodel"
	"contextualplanner/internal/fact"
	"contextualplanner/internal/ontology"
	"contextualplanner/internal/perr"
	"contextualplanner/internal/succession"
)

// Domain bundles the declarative pieces a planner searches over.
type Domain struct {
	Ontology   *ontology.Ontology
	actions    map[string]*domainmodel.Action
	eventSets  map[domainmodel.SetOfEventsID]map[domainmodel.EventID]*domainmodel.Event
	actionIDs  []string // deterministic iteration order
	eventSetIDs []domainmodel.SetOfEventsID
	succ       *succession.Cache

	preconditionToActions    map[string]map[string]bool
	notPreconditionToActions map[string]map[string]bool
	actionsWithoutFactPrecond map[string]bool
}

// BuildDomain constructs a Domain from a set of actions and named event
// sets, rejecting an invalid domain (an action with an empty effect and no
// goals to add, or a duplicate action id) with INVALID_DOMAIN.
func BuildDomain(actions []*domainmodel.Action, eventSets map[domainmodel.SetOfEventsID][]*domainmodel.Event, ont *ontology.Ontology) (*Domain, error) {
	d := &Domain{
		Ontology:                  ont,
		actions:                   map[string]*domainmodel.Action{},
		eventSets:                 map[domainmodel.SetOfEventsID]map[domainmodel.EventID]*domainmodel.Event{},
		preconditionToActions:     map[string]map[string]bool{},
		notPreconditionToActions:  map[string]map[string]bool{},
		actionsWithoutFactPrecond: map[string]bool{},
	}

	for _, a := range actions {
		if err := d.addAction(a); err != nil {
			return nil, err
		}
	}
	for setID, events := range eventSets {
		m := map[domainmodel.EventID]*domainmodel.Event{}
		for _, e := range events {
			if e.Empty() {
				continue // an event whose effect is empty is skipped silently
			}
			m[e.ID] = e
		}
		d.eventSets[setID] = m
		d.eventSetIDs = append(d.eventSetIDs, setID)
	}
	sort.Slice(d.eventSetIDs, func(i, j int) bool { return d.eventSetIDs[i] < d.eventSetIDs[j] })

	d.rebuildSuccessionCache()
	return d, nil
}

func (d *Domain) addAction(a *domainmodel.Action) error {
	if !a.Validate() {
		return perr.New(perr.InvalidDomain, "action %q has no effect and no goals to add", a.ID)
	}
	if _, exists := d.actions[a.ID]; exists {
		return perr.New(perr.InvalidDomain, "duplicate action id %q", a.ID)
	}
	d.actions[a.ID] = a
	d.actionIDs = append(d.actionIDs, a.ID)
	sort.Strings(d.actionIDs)

	d.indexAction(a)
	return nil
}

// indexAction populates the predicate-name→action indexes used by the
// search to enumerate candidate actions for a given produced fact, mirroring
// Domain::addAction's _preconditionToActions / _notPreconditionToActions /
// _actionsWithoutFactToAddInPrecondition bookkeeping.
func (d *Domain) indexAction(a *domainmodel.Action) {
	hasFactPrecondition := false
	if a.Preconditions != nil {
		a.Preconditions.ForEachFactLeaf(func(fo fact.FactOptional) {
			hasFactPrecondition = true
			name := fo.Fact.Predicate.Name
			target := d.preconditionToActions
			if fo.IsNegated {
				target = d.notPreconditionToActions
			}
			set, ok := target[name]
			if !ok {
				set = map[string]bool{}
				target[name] = set
			}
			set[a.ID] = true
		})
	}
	if !hasFactPrecondition {
		d.actionsWithoutFactPrecond[a.ID] = true
	}
}

// Actions returns the action map (read-only by convention: callers must
// not mutate a Domain while a planning call is in flight, per §5).
func (d *Domain) Actions() map[string]*domainmodel.Action { return d.actions }

// CandidateActionIDs implements §4.9.1's candidate enumeration: for each
// predicate name currently mentioned by a ground fact in the world, the
// actions whose precondition positively mentions that predicate; for every
// predicate name mentioned only by a negated precondition and currently
// absent from the world, the actions whose precondition negatively mentions
// it; plus every action with no fact precondition at all (those are always
// worth considering, since nothing about the current facts rules them out).
// The result is a superset of the goal's true candidates —
// nextActionForGoal still checks canProduceTarget/Preconditions.IsTrue on
// each id — but it lets the search skip actions whose precondition can
// never hold given the world as it stands, instead of probing every action
// in the domain.
func (d *Domain) CandidateActionIDs(presentPredicateNames map[string]bool) []string {
	seen := map[string]bool{}
	var out []string
	add := func(ids map[string]bool) {
		for id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	for name := range presentPredicateNames {
		add(d.preconditionToActions[name])
	}
	for name, ids := range d.notPreconditionToActions {
		if !presentPredicateNames[name] {
			add(ids)
		}
	}
	add(d.actionsWithoutFactPrecond)
	sort.Strings(out)
	return out
}

// ActionIDsSorted returns action ids in deterministic order.
func (d *Domain) ActionIDsSorted() []string { return d.actionIDs }

// EventSetIDsSorted returns event-set ids in deterministic order.
func (d *Domain) EventSetIDsSorted() []domainmodel.SetOfEventsID { return d.eventSetIDs }

// EventsIn returns the events of one set, keyed by id.
func (d *Domain) EventsIn(set domainmodel.SetOfEventsID) map[domainmodel.EventID]*domainmodel.Event {
	return d.eventSets[set]
}

// Succession exposes the current succession cache.
func (d *Domain) Succession() *succession.Cache { return d.succ }

// AddAction adds an action to the domain, atomically rebuilding the
// succession cache. Callers must not call this while a planning call
// against this domain is in flight (§5).
func (d *Domain) AddAction(a *domainmodel.Action) error {
	if err := d.addAction(a); err != nil {
		return err
	}
	d.rebuildSuccessionCache()
	return nil
}

// RemoveAction removes an action by id, atomically rebuilding the
// succession cache.
func (d *Domain) RemoveAction(id string) {
	delete(d.actions, id)
	for _, set := range d.preconditionToActions {
		delete(set, id)
	}
	for _, set := range d.notPreconditionToActions {
		delete(set, id)
	}
	delete(d.actionsWithoutFactPrecond, id)
	for i, aid := range d.actionIDs {
		if aid == id {
			d.actionIDs = append(d.actionIDs[:i], d.actionIDs[i+1:]...)
			break
		}
	}
	d.rebuildSuccessionCache()
}

func (d *Domain) rebuildSuccessionCache() {
	d.succ = succession.Build(d.actions, d.eventSets)
}
