package graphql

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Exec is the payload threaded through the document pipeline. Each phase
// fills in the part of the execution it owns and hands the value on.
type Exec struct {
	// RawQuery is the query text as received from the client.
	RawQuery string
	// OperationName selects the operation when the document defines more
	// than one.
	OperationName string
	// Variables are the raw variable values from the request, before
	// coercion.
	Variables map[string]any

	// Schema is the schema the document executes against.
	Schema *ast.Schema

	// Doc is set by document.Parse (or by document.CacheLookup on a hit).
	Doc *ast.QueryDocument
	// Operation is set by document.SelectOperation.
	Operation *ast.OperationDefinition
	// CoercedVariables is set by document.CoerceVariables.
	CoercedVariables map[string]any

	// Data and Errors accumulate during document.Execute.
	Data   map[string]any
	Errors gqlerror.List

	// Response is the final wire-shaped result, set by document.FormatResult.
	Response *Response
}

// Response is the GraphQL response envelope.
type Response struct {
	Data   any           `json:"data,omitempty"`
	Errors gqlerror.List `json:"errors,omitempty"`
}

// SchemaExec is the payload threaded through the schema pipeline.
type SchemaExec struct {
	// SourceName labels the SDL input in error messages.
	SourceName string
	// SDL is the schema definition text.
	SDL string

	// Doc is set by schema.Parse.
	Doc *ast.SchemaDocument
	// Schema is set by schema.Validate.
	Schema *ast.Schema
}
