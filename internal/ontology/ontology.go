package ontology

import (
	"strconv"
	"strings"

	"contextualplanner/internal/perr"
)

// Ontology is the closed vocabulary a Domain is built against: the type
// hierarchy, the predicate signatures, and the domain-wide constant
// entities (as opposed to per-problem entities, which live on Problem).
type Ontology struct {
	Types      map[string]*Type
	Predicates map[string]*Predicate
	Constants  map[string]*Entity
}

// New builds an empty ontology seeded with the number type.
func New() *Ontology {
	return &Ontology{
		Types:      map[string]*Type{NumberType.Name: NumberType},
		Predicates: map[string]*Predicate{},
		Constants:  map[string]*Entity{},
	}
}

// AddType registers a type, optionally as a subtype of an already-known
// parent. Naming is unique: re-registering a name is an error.
func (o *Ontology) AddType(name, parentName string) (*Type, error) {
	if _, exists := o.Types[name]; exists {
		return nil, perr.New(perr.InvalidDomain, "type %q already declared", name)
	}
	var parent *Type
	if parentName != "" {
		p, ok := o.Types[parentName]
		if !ok {
			return nil, perr.New(perr.UnknownSymbol, "unknown parent type %q", parentName)
		}
		parent = p
	}
	t := &Type{Name: name, Parent: parent}
	o.Types[name] = t
	return t, nil
}

// AddPredicate registers a predicate signature.
func (o *Ontology) AddPredicate(p *Predicate) error {
	if _, exists := o.Predicates[p.Name]; exists {
		return perr.New(perr.InvalidDomain, "predicate %q already declared", p.Name)
	}
	o.Predicates[p.Name] = p
	return nil
}

// AddConstant registers a domain-wide constant entity.
func (o *Ontology) AddConstant(e *Entity) error {
	if _, exists := o.Constants[e.Name]; exists {
		return perr.New(perr.InvalidDomain, "constant %q already declared", e.Name)
	}
	o.Constants[e.Name] = e
	return nil
}

// Type looks up a declared type by name.
func (o *Ontology) Type(name string) (*Type, error) {
	t, ok := o.Types[name]
	if !ok {
		return nil, perr.New(perr.UnknownSymbol, "unknown type %q", name)
	}
	return t, nil
}

// Predicate looks up a declared predicate by name.
func (o *Ontology) Predicate(name string) (*Predicate, error) {
	p, ok := o.Predicates[name]
	if !ok {
		return nil, perr.New(perr.UnknownSymbol, "unknown predicate %q", name)
	}
	return p, nil
}

// EntityFromUsage resolves a textual token as, in order: an integer
// literal, a parameter reference ("?name", resolved against params), a
// problem-scoped entity (resolved against entities), or a domain constant.
// It fails with UnknownSymbol if none apply.
func EntityFromUsage(token string, o *Ontology, entities map[string]*Entity, params map[string]*Parameter) (Value, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, perr.New(perr.UnknownSymbol, "empty symbol")
	}
	if n, err := strconv.Atoi(token); err == nil {
		return NewNumberEntity(n), nil
	}
	name := strings.TrimPrefix(token, "?")
	if strings.HasPrefix(token, "?") {
		if p, ok := params[name]; ok {
			return p, nil
		}
		return nil, perr.New(perr.UnknownSymbol, "unknown parameter %q", token)
	}
	if e, ok := entities[token]; ok {
		return e, nil
	}
	if e, ok := o.Constants[token]; ok {
		return e, nil
	}
	if p, ok := params[token]; ok {
		return p, nil
	}
	return nil, perr.New(perr.UnknownSymbol, "unknown symbol %q", token)
}
