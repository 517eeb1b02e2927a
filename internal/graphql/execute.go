package graphql

import (
	"context"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/prismql/prism/internal/pipeline"
)

func (p *Phases) execute(ctx context.Context, payload any, opts map[string]any) pipeline.Result {
	exec, ok := execPayload(payload)
	if !ok {
		return pipeline.Fail(wrongPayload)
	}

	var rootType *ast.Definition
	switch exec.Operation.Operation {
	case ast.Query:
		rootType = exec.Schema.Query
	case ast.Mutation:
		rootType = exec.Schema.Mutation
	default:
		return pipeline.Fail("unsupported operation type " + string(exec.Operation.Operation))
	}
	if rootType == nil {
		return pipeline.Fail("schema does not define a " + string(exec.Operation.Operation) + " type")
	}

	exec.Data = p.executeSelectionSet(ctx, exec, rootType.Name, exec.Operation.SelectionSet, p.Root, nil)
	return pipeline.Continue(exec)
}

// executeSelectionSet resolves one object level. Resolver errors become
// entries in exec.Errors and null the field rather than aborting the run,
// per the GraphQL partial-result contract.
func (p *Phases) executeSelectionSet(ctx context.Context, exec *Exec, typeName string, sels ast.SelectionSet, parent any, path ast.Path) map[string]any {
	fields := collectFields(exec.Doc, typeName, sels)
	out := make(map[string]any, len(fields))

	for _, field := range fields {
		alias := field.Alias
		if alias == "" {
			alias = field.Name
		}
		fieldPath := childPath(path, ast.PathName(alias))

		if field.Name == "__typename" {
			out[alias] = typeName
			continue
		}

		args, err := argumentValues(field, exec.CoercedVariables)
		if err != nil {
			exec.Errors = append(exec.Errors, &gqlerror.Error{Message: err.Error(), Path: fieldPath})
			out[alias] = nil
			continue
		}

		var value any
		if fn, ok := p.Resolvers.Field(typeName, field.Name); ok {
			value, err = fn(ctx, parent, args)
		} else {
			value = defaultResolve(parent, field.Name)
		}
		if err != nil {
			exec.Errors = append(exec.Errors, &gqlerror.Error{Message: err.Error(), Path: fieldPath})
			out[alias] = nil
			continue
		}

		out[alias] = p.completeValue(ctx, exec, field, value, fieldPath)
	}

	return out
}

func (p *Phases) completeValue(ctx context.Context, exec *Exec, field *ast.Field, value any, path ast.Path) any {
	if value == nil || len(field.SelectionSet) == 0 {
		return value
	}

	childType := ""
	if field.Definition != nil {
		childType = field.Definition.Type.Name()
	}

	if list, ok := value.([]any); ok {
		items := make([]any, len(list))
		for i, item := range list {
			if item == nil {
				continue
			}
			items[i] = p.executeSelectionSet(ctx, exec, childType, field.SelectionSet, item, childPath(path, ast.PathIndex(i)))
		}
		return items
	}

	return p.executeSelectionSet(ctx, exec, childType, field.SelectionSet, value, path)
}

// collectFields expands fragment spreads and inline fragments into a flat
// field list. Fragments on other concrete types are skipped; interface and
// union type conditions are not supported by this executor.
func collectFields(doc *ast.QueryDocument, typeName string, sels ast.SelectionSet) []*ast.Field {
	var fields []*ast.Field
	for _, sel := range sels {
		switch s := sel.(type) {
		case *ast.Field:
			fields = append(fields, s)
		case *ast.FragmentSpread:
			def := s.Definition
			if def == nil && doc != nil {
				def = doc.Fragments.ForName(s.Name)
			}
			if def == nil || (def.TypeCondition != "" && def.TypeCondition != typeName) {
				continue
			}
			fields = append(fields, collectFields(doc, typeName, def.SelectionSet)...)
		case *ast.InlineFragment:
			if s.TypeCondition != "" && s.TypeCondition != typeName {
				continue
			}
			fields = append(fields, collectFields(doc, typeName, s.SelectionSet)...)
		}
	}
	return fields
}

func argumentValues(field *ast.Field, vars map[string]any) (map[string]any, error) {
	args := make(map[string]any, len(field.Arguments))
	for _, arg := range field.Arguments {
		v, err := arg.Value.Value(vars)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", arg.Name, err)
		}
		args[arg.Name] = v
	}
	return args, nil
}

func defaultResolve(parent any, name string) any {
	if m, ok := parent.(map[string]any); ok {
		return m[name]
	}
	return nil
}

func childPath(path ast.Path, elem ast.PathElement) ast.Path {
	out := make(ast.Path, 0, len(path)+1)
	out = append(out, path...)
	return append(out, elem)
}
