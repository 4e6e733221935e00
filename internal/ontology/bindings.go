package ontology

// ParamBindings is the "dynamic parameter map" of the design notes: for
// each parameter name, the set of concrete entities it could still take.
// Represented as a set keyed by entity name (not string, per the design
// notes' instruction to keep entities typed) so intersecting candidate
// bindings from different facts stays cheap.
type ParamBindings map[string]map[string]*Entity

// NewParamBindings builds an empty bindings map.
func NewParamBindings() ParamBindings {
	return ParamBindings{}
}

// Add records e as a candidate value for paramName.
func (b ParamBindings) Add(paramName string, e *Entity) {
	set, ok := b[paramName]
	if !ok {
		set = map[string]*Entity{}
		b[paramName] = set
	}
	set[e.Name] = e
}

// Intersect restricts paramName's candidate set to those also present in
// others; if paramName has no existing candidates, others are adopted
// as-is. Used when a second pass further constrains a parameter using
// constant facts in the world.
func (b ParamBindings) Intersect(paramName string, others map[string]*Entity) {
	existing, ok := b[paramName]
	if !ok || len(existing) == 0 {
		cp := map[string]*Entity{}
		for k, v := range others {
			cp[k] = v
		}
		b[paramName] = cp
		return
	}
	for k := range existing {
		if _, ok := others[k]; !ok {
			delete(existing, k)
		}
	}
}

// Values returns the candidate set for paramName, or nil if unconstrained.
func (b ParamBindings) Values(paramName string) map[string]*Entity {
	return b[paramName]
}

// Clone performs a shallow structural copy (entity pointers are shared;
// the sets themselves are independent).
func (b ParamBindings) Clone() ParamBindings {
	out := make(ParamBindings, len(b))
	for k, v := range b {
		cp := make(map[string]*Entity, len(v))
		for n, e := range v {
			cp[n] = e
		}
		out[k] = cp
	}
	return out
}

// LargestParam returns the name of the parameter with the most candidate
// values currently bound, used by removeAPossibility to pick which
// parameter to narrow first.
func (b ParamBindings) LargestParam() (string, bool) {
	best := ""
	bestSize := -1
	for k, v := range b {
		if len(v) > bestSize {
			best = k
			bestSize = len(v)
		}
	}
	return best, bestSize > 0
}

// RemoveAPossibility drops one arbitrary candidate from the parameter with
// the largest candidate set, in place, returning the dropped entity name
// (or "" if nothing could be dropped).
func (b ParamBindings) RemoveAPossibility() string {
	name, ok := b.LargestParam()
	if !ok {
		return ""
	}
	set := b[name]
	for k := range set {
		delete(set, k)
		return k
	}
	return ""
}
