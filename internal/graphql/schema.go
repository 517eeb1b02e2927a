package graphql

import (
	"context"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"

	"github.com/prismql/prism/internal/pipeline"
)

const wrongSchemaPayload = "schema phases require a *graphql.SchemaExec payload"

func schemaParse(ctx context.Context, payload any, opts map[string]any) pipeline.Result {
	exec, ok := payload.(*SchemaExec)
	if !ok {
		return pipeline.Fail(wrongSchemaPayload)
	}

	name := exec.SourceName
	if name == "" {
		name = "schema"
	}

	doc, err := parser.ParseSchemas(validator.Prelude, &ast.Source{Name: name, Input: exec.SDL})
	if err != nil {
		return pipeline.Fail(err.Error())
	}

	exec.Doc = doc
	return pipeline.Continue(exec)
}

func schemaValidate(ctx context.Context, payload any, opts map[string]any) pipeline.Result {
	exec, ok := payload.(*SchemaExec)
	if !ok {
		return pipeline.Fail(wrongSchemaPayload)
	}

	schema, err := validator.ValidateSchemaDocument(exec.Doc)
	if err != nil {
		return pipeline.Fail(err.Error())
	}

	exec.Schema = schema
	return pipeline.Continue(exec)
}

// LoadSchema runs the schema pipeline over an SDL source and returns the
// validated schema.
func LoadSchema(ctx context.Context, engine *pipeline.Engine, sourceName, sdl string) (*ast.Schema, error) {
	res, err := engine.Run(ctx, &SchemaExec{SourceName: sourceName, SDL: sdl}, SchemaPipeline())
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", sourceName, err)
	}
	return res.Payload.(*SchemaExec).Schema, nil
}
