// Package fact defines the ground and parameterised facts the rest of the
// planner reasons about, plus the negation wrapper (FactOptional) used
// throughout conditions and effects.
package fact

import (
	"fmt"
	"strings"

	"contextualplanner/internal/ontology"
	"contextualplanner/internal/perr"
)

// Fact is a predicate applied to argument values, with an optional fluent
// value. A Fact is ground when every argument (and the fluent, if present)
// is a concrete ontology.Entity rather than a formal ontology.Parameter.
type Fact struct {
	Predicate *ontology.Predicate
	Args      []ontology.Value
	Fluent    ontology.Value
}

// New type-checks args/fluent against predicate.Admits before constructing
// the fact.
func New(pred *ontology.Predicate, args []ontology.Value, fluent ontology.Value) (Fact, error) {
	if !pred.Admits(args, fluent) {
		return Fact{}, perr.New(perr.TypeMismatch, "arguments do not match predicate %q", pred.Name)
	}
	return Fact{Predicate: pred, Args: append([]ontology.Value(nil), args...), Fluent: fluent}, nil
}

// IsGround reports whether every slot of the fact is a concrete entity.
func (f Fact) IsGround() bool {
	for _, a := range f.Args {
		if !ontology.IsGround(a) {
			return false
		}
	}
	if f.Fluent != nil && !ontology.IsGround(f.Fluent) {
		return false
	}
	return true
}

// Signature is the predicate-name/arity key used to index facts by pattern.
func (f Fact) Signature() string {
	return fmt.Sprintf("%s/%d", f.Predicate.Name, len(f.Args))
}

// ArgsKey is a stable string encoding of the fact's ground arguments, used
// as the map key for fluent-uniqueness lookups (predicate name + args,
// fluent excluded).
func (f Fact) ArgsKey() string {
	var b strings.Builder
	b.WriteString(f.Predicate.Name)
	for _, a := range f.Args {
		b.WriteByte('|')
		b.WriteString(a.ValueName())
	}
	return b.String()
}

// Key is a stable string encoding of the whole ground fact, fluent
// included; used as the WorldState set key.
func (f Fact) Key() string {
	if f.Fluent == nil {
		return f.ArgsKey()
	}
	return f.ArgsKey() + "=" + f.Fluent.ValueName()
}

// MatchesArgs reports whether f and other name the same predicate applied
// to the same ground arguments (fluent ignored) — used to implement fluent
// uniqueness and fact removal-by-args.
func (f Fact) MatchesArgs(other Fact) bool {
	if f.Predicate != other.Predicate || len(f.Args) != len(other.Args) {
		return false
	}
	for i := range f.Args {
		if !ontology.IsAnyValue(f.Args[i]) && !ontology.IsAnyValue(other.Args[i]) && f.Args[i].ValueName() != other.Args[i].ValueName() {
			return false
		}
	}
	return true
}

// Equal reports full equality, fluent included (wildcards match anything).
func (f Fact) Equal(other Fact) bool {
	if !f.MatchesArgs(other) {
		return false
	}
	if f.Fluent == nil || other.Fluent == nil {
		return f.Fluent == other.Fluent
	}
	if ontology.IsAnyValue(f.Fluent) || ontology.IsAnyValue(other.Fluent) {
		return true
	}
	return f.Fluent.ValueName() == other.Fluent.ValueName()
}

// String renders the fact in the pddl-ish `name(arg1, arg2)=value` form.
func (f Fact) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.ValueName()
	}
	s := fmt.Sprintf("%s(%s)", f.Predicate.Name, strings.Join(parts, ", "))
	if f.Fluent != nil {
		s += "=" + f.Fluent.ValueName()
	}
	return s
}

// FactOptional pairs a Fact with a negation flag, as used in preconditions
// and effects ("this must hold" vs. "this must not hold").
type FactOptional struct {
	Fact      Fact
	IsNegated bool
}

func (fo FactOptional) String() string {
	if fo.IsNegated {
		return "!" + fo.Fact.String()
	}
	return fo.Fact.String()
}

// ReplaceArgument substitutes every occurrence of a value named oldName
// with newVal across the fact's arguments and fluent, returning a new Fact.
func (f Fact) ReplaceArgument(oldName string, newVal ontology.Value) Fact {
	args := make([]ontology.Value, len(f.Args))
	for i, a := range f.Args {
		if a.ValueName() == oldName {
			args[i] = newVal
		} else {
			args[i] = a
		}
	}
	fluent := f.Fluent
	if fluent != nil && fluent.ValueName() == oldName {
		fluent = newVal
	}
	return Fact{Predicate: f.Predicate, Args: args, Fluent: fluent}
}
