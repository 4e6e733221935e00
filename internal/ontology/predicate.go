package ontology

// Predicate is a parameterised relation or function signature. A predicate
// with a non-nil FluentType defines a numeric or enumerated-valued
// function; otherwise it is a plain boolean relation.
type Predicate struct {
	Name       string
	ParamTypes []*Type
	FluentType *Type
}

// Admits performs the position-wise subtype check described in the spec:
// every argument must be assignable to its declared parameter type (the
// any-value wildcard always admitted), and the fluent, if any, must be
// assignable to FluentType.
func (p *Predicate) Admits(args []Value, fluent Value) bool {
	if len(args) != len(p.ParamTypes) {
		return false
	}
	for i, a := range args {
		if IsAnyValue(a) {
			continue
		}
		if !p.ParamTypes[i].IsAssignableFrom(a.ValueType()) {
			return false
		}
	}
	if p.FluentType == nil {
		return fluent == nil
	}
	if fluent == nil {
		return true
	}
	if IsAnyValue(fluent) {
		return true
	}
	return p.FluentType.IsAssignableFrom(fluent.ValueType())
}

// Arity is the number of positional arguments the predicate takes.
func (p *Predicate) Arity() int { return len(p.ParamTypes) }
