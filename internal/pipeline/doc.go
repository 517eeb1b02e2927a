// Package pipeline provides the phase pipeline execution engine.
//
// A pipeline is an ordered, possibly nested list of phase steps. Each step
// names a phase (optionally with options) that the engine resolves through
// a Registry and invokes with the current payload. The phase returns a
// Result directing the engine: continue with the next step, jump forward to
// a named later phase, splice extra steps in front of the remainder,
// replace the remainder wholesale, or abort the run.
//
// # Phase Contract
//
// Phases implement
//
//	Run(ctx context.Context, payload any, opts map[string]any) Result
//
// and build their Result with one of the constructors Continue, Jump,
// Insert, Replace, or Fail. The zero Result is outside the union and makes
// the run fail with a fixed diagnostic, which keeps a misbehaving phase
// distinguishable from one that reported a failure.
//
// # Pipeline Algebra
//
// Before, From, Upto, Without, InsertBefore, InsertAfter, and Reject
// manipulate pipelines by phase ident. All of them flatten their argument
// first and return new pipelines; none mutates its input. Before and From
// report a missing target as a NotFoundError rather than returning an
// empty slice.
//
// # Execution
//
// Run reduces the flattened pipeline left to right, threading the payload
// through each phase and accumulating the trace of completed idents in
// reverse-chronological order. Execution is strictly sequential: one phase
// is in flight at a time, and each run owns its own state, so one Engine
// can serve concurrent runs without locking.
package pipeline
