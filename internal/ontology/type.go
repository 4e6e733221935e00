// Package ontology holds the typed vocabulary a domain is built from: types
// and their hierarchy, entities, predicates (with an optional fluent return
// type) and formal parameters.
package ontology

// Type is a named node in the (single-parent) type hierarchy.
type Type struct {
	Name   string
	Parent *Type
}

// NumberType is the distinguished type of numeric-literal entities.
var NumberType = &Type{Name: "number"}

// NewType constructs a type, optionally deriving from a parent.
func NewType(name string, parent *Type) *Type {
	return &Type{Name: name, Parent: parent}
}

// IsAssignableFrom reports whether other is this type or a descendant of it
// (the subtype relation is reflexive and transitive).
func (t *Type) IsAssignableFrom(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	for c := other; c != nil; c = c.Parent {
		if c == t || c.Name == t.Name {
			return true
		}
	}
	return false
}
