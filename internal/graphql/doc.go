// Package graphql provides the built-in phases of the query-processing
// pipelines.
//
// The document pipeline takes a raw query from text to a wire-shaped
// response: parse, validate, select the operation, coerce variables,
// execute against registered resolvers, and format the result. The schema
// pipeline takes SDL text to a validated schema. Both are ordinary phase
// lists over the engine in internal/pipeline; nothing here is special to
// the engine, and deployments can slice, splice, or filter these pipelines
// like any other.
//
// Parsing and validation are backed by gqlparser. Execution is a small
// resolver walk over concrete object types; interface and union type
// conditions are not supported.
package graphql
