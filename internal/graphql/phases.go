package graphql

import (
	"context"
	"log/slog"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"

	"github.com/prismql/prism/internal/pipeline"
)

// Idents of the built-in phases.
const (
	PhaseCacheLookup     = pipeline.Ident("document.CacheLookup")
	PhaseParse           = pipeline.Ident("document.Parse")
	PhaseValidate        = pipeline.Ident("document.Validate")
	PhaseCacheStore      = pipeline.Ident("document.CacheStore")
	PhaseSelectOperation = pipeline.Ident("document.SelectOperation")
	PhaseDepthLimit      = pipeline.Ident("document.DepthLimit")
	PhaseCoerceVariables = pipeline.Ident("document.CoerceVariables")
	PhaseExecute         = pipeline.Ident("document.Execute")
	PhaseFormatResult    = pipeline.Ident("document.FormatResult")

	PhaseSchemaParse    = pipeline.Ident("schema.Parse")
	PhaseSchemaValidate = pipeline.Ident("schema.Validate")
)

// Phases holds the dependencies of the built-in document and schema phases.
type Phases struct {
	// Resolvers supply field resolution during document.Execute.
	Resolvers Resolvers
	// Root is the parent value handed to top-level resolvers.
	Root any
	// Cache, when set, lets repeated queries skip parsing and validation.
	Cache DocumentCache
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Register registers every built-in phase with reg.
func (p *Phases) Register(reg *pipeline.Registry) {
	if p.Logger == nil {
		p.Logger = slog.Default()
	}

	reg.Register(PhaseCacheLookup, pipeline.Func(p.cacheLookup))
	reg.Register(PhaseParse, pipeline.Func(p.parse))
	reg.Register(PhaseValidate, pipeline.Func(p.validate))
	reg.Register(PhaseCacheStore, pipeline.Func(p.cacheStore))
	reg.Register(PhaseSelectOperation, pipeline.Func(p.selectOperation))
	reg.Register(PhaseDepthLimit, pipeline.Func(p.depthLimit))
	reg.Register(PhaseCoerceVariables, pipeline.Func(p.coerceVariables))
	reg.Register(PhaseExecute, pipeline.Func(p.execute))
	reg.Register(PhaseFormatResult, pipeline.Func(p.formatResult))

	reg.Register(PhaseSchemaParse, pipeline.Func(schemaParse))
	reg.Register(PhaseSchemaValidate, pipeline.Func(schemaValidate))
}

func execPayload(payload any) (*Exec, bool) {
	exec, ok := payload.(*Exec)
	return exec, ok
}

const wrongPayload = "document phases require a *graphql.Exec payload"

func (p *Phases) cacheLookup(ctx context.Context, payload any, opts map[string]any) pipeline.Result {
	exec, ok := execPayload(payload)
	if !ok {
		return pipeline.Fail(wrongPayload)
	}
	if p.Cache == nil {
		return pipeline.Continue(exec)
	}

	key := DocumentKey(exec.RawQuery)
	doc, hit := p.Cache.Get(key)
	if !hit {
		return pipeline.Continue(exec)
	}

	// The cached document was validated when it was stored, so the run can
	// resume past parsing and validation.
	p.Logger.Debug("document cache hit", slog.String("key", key))
	exec.Doc = doc
	return pipeline.Jump(exec, PhaseSelectOperation)
}

func (p *Phases) parse(ctx context.Context, payload any, opts map[string]any) pipeline.Result {
	exec, ok := execPayload(payload)
	if !ok {
		return pipeline.Fail(wrongPayload)
	}

	doc, err := parser.ParseQuery(&ast.Source{Name: "query", Input: exec.RawQuery})
	if err != nil {
		return pipeline.Fail(err.Error())
	}

	exec.Doc = doc
	return pipeline.Continue(exec)
}

func (p *Phases) validate(ctx context.Context, payload any, opts map[string]any) pipeline.Result {
	exec, ok := execPayload(payload)
	if !ok {
		return pipeline.Fail(wrongPayload)
	}
	if exec.Schema == nil {
		return pipeline.Fail("no schema to validate against")
	}

	if errs := validator.Validate(exec.Schema, exec.Doc); len(errs) > 0 {
		return pipeline.Fail(errs.Error())
	}
	return pipeline.Continue(exec)
}

func (p *Phases) cacheStore(ctx context.Context, payload any, opts map[string]any) pipeline.Result {
	exec, ok := execPayload(payload)
	if !ok {
		return pipeline.Fail(wrongPayload)
	}
	if p.Cache != nil && exec.Doc != nil {
		p.Cache.Put(DocumentKey(exec.RawQuery), exec.Doc)
	}
	return pipeline.Continue(exec)
}

func (p *Phases) selectOperation(ctx context.Context, payload any, opts map[string]any) pipeline.Result {
	exec, ok := execPayload(payload)
	if !ok {
		return pipeline.Fail(wrongPayload)
	}

	if exec.OperationName == "" {
		if len(exec.Doc.Operations) != 1 {
			return pipeline.Fail("operation name required when document defines multiple operations")
		}
		exec.Operation = exec.Doc.Operations[0]
		return pipeline.Continue(exec)
	}

	op := exec.Doc.Operations.ForName(exec.OperationName)
	if op == nil {
		return pipeline.Fail("unknown operation " + exec.OperationName)
	}
	exec.Operation = op
	return pipeline.Continue(exec)
}

func (p *Phases) depthLimit(ctx context.Context, payload any, opts map[string]any) pipeline.Result {
	exec, ok := execPayload(payload)
	if !ok {
		return pipeline.Fail(wrongPayload)
	}

	limit := intOption(opts, "limit", 0)
	if limit <= 0 {
		return pipeline.Continue(exec)
	}

	depth := selectionDepth(exec.Doc, exec.Operation.SelectionSet, map[string]bool{})
	if depth > limit {
		return pipeline.Fail("query exceeds maximum depth")
	}
	return pipeline.Continue(exec)
}

func (p *Phases) coerceVariables(ctx context.Context, payload any, opts map[string]any) pipeline.Result {
	exec, ok := execPayload(payload)
	if !ok {
		return pipeline.Fail(wrongPayload)
	}

	vars, err := validator.VariableValues(exec.Schema, exec.Operation, exec.Variables)
	if err != nil {
		return pipeline.Fail(err.Error())
	}
	exec.CoercedVariables = vars
	return pipeline.Continue(exec)
}

func (p *Phases) formatResult(ctx context.Context, payload any, opts map[string]any) pipeline.Result {
	exec, ok := execPayload(payload)
	if !ok {
		return pipeline.Fail(wrongPayload)
	}

	exec.Response = &Response{Errors: exec.Errors}
	if exec.Data != nil {
		exec.Response.Data = exec.Data
	}
	return pipeline.Continue(exec)
}

// selectionDepth returns the nesting depth of a selection set, following
// fragment spreads at their spread site. seen guards against fragment
// cycles, which validation rejects but a cached document may bypass.
func selectionDepth(doc *ast.QueryDocument, sels ast.SelectionSet, seen map[string]bool) int {
	depth := 0
	for _, sel := range sels {
		switch s := sel.(type) {
		case *ast.Field:
			d := 1 + selectionDepth(doc, s.SelectionSet, seen)
			if d > depth {
				depth = d
			}
		case *ast.FragmentSpread:
			if seen[s.Name] {
				continue
			}
			seen[s.Name] = true
			def := s.Definition
			if def == nil && doc != nil {
				def = doc.Fragments.ForName(s.Name)
			}
			if def == nil {
				continue
			}
			if d := selectionDepth(doc, def.SelectionSet, seen); d > depth {
				depth = d
			}
		case *ast.InlineFragment:
			if d := selectionDepth(doc, s.SelectionSet, seen); d > depth {
				depth = d
			}
		}
	}
	return depth
}

func intOption(opts map[string]any, key string, fallback int) int {
	switch v := opts[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}
