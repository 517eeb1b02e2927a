package graphql

import (
	"context"
)

// ResolverFunc resolves a single field. parent is the value produced for
// the enclosing object (the root value for top-level fields) and args are
// the field's argument values after variable substitution.
type ResolverFunc func(ctx context.Context, parent any, args map[string]any) (any, error)

// Resolvers maps "Type.field" keys to resolver functions. Fields without a
// resolver fall back to a map lookup on the parent value.
type Resolvers map[string]ResolverFunc

// Field returns the resolver registered for typeName.fieldName, if any.
func (r Resolvers) Field(typeName, fieldName string) (ResolverFunc, bool) {
	fn, ok := r[typeName+"."+fieldName]
	return fn, ok
}
