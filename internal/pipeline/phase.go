package pipeline

import (
	"context"
)

// Ident names a phase. Idents are opaque comparable tokens; algebra and
// engine operations locate phases by exact ident equality, never by prefix
// or pattern (except Reject, which is explicitly pattern-based).
type Ident string

// String returns the textual rendering of the ident.
func (id Ident) String() string { return string(id) }

// Entry is a single element of a Pipeline: a bare Ident, a configured Step,
// or a nested Group. The set is closed; nothing outside this package can
// add entry kinds.
type Entry interface {
	entry()
}

func (Ident) entry() {}
func (Step) entry()  {}
func (Group) entry() {}

// Step pairs a phase ident with the options passed to the phase when it is
// invoked. Options are handed to the phase unchanged and never inspected by
// the engine or the algebra.
type Step struct {
	ID      Ident
	Options map[string]any
}

// Group is a nested sub-sequence of entries. Nesting exists only for
// declarative grouping at construction time; every operation flattens
// before use, so groups carry no runtime meaning.
type Group []Entry

// Pipeline is an ordered sequence of entries. Pipelines are values: no
// operation mutates a pipeline in place, all operations return a new one.
type Pipeline []Entry

// resolve splits an entry into the ident to invoke and the options to pass.
// Bare idents resolve to empty options. Groups do not resolve; callers must
// flatten first.
func resolve(e Entry) (Ident, map[string]any, bool) {
	switch v := e.(type) {
	case Ident:
		return v, map[string]any{}, true
	case Step:
		opts := v.Options
		if opts == nil {
			opts = map[string]any{}
		}
		return v.ID, opts, true
	default:
		return "", nil, false
	}
}

// EntryIdent returns the ident an entry refers to, for bare idents and
// configured steps. Groups have no ident.
func EntryIdent(e Entry) (Ident, bool) {
	id, _, ok := resolve(e)
	return id, ok
}

// matches reports whether entry refers to the phase named by target,
// regardless of whether the entry carries options. Groups never match.
func matches(target Ident, e Entry) bool {
	switch v := e.(type) {
	case Ident:
		return v == target
	case Step:
		return v.ID == target
	default:
		return false
	}
}

// Phase is the contract every phase satisfies. Run receives the current
// payload and the options attached to its step, and returns a Result that
// tells the engine how to proceed. Run must treat both inputs as read-only
// with respect to the engine; internal effects are the phase's own concern.
type Phase interface {
	Run(ctx context.Context, payload any, opts map[string]any) Result
}

// Func adapts a plain function to the Phase interface.
type Func func(ctx context.Context, payload any, opts map[string]any) Result

// Run implements Phase.
func (f Func) Run(ctx context.Context, payload any, opts map[string]any) Result {
	return f(ctx, payload, opts)
}

type resultKind int

const (
	kindInvalid resultKind = iota // zero value: not a member of the union
	kindContinue
	kindJump
	kindInsert
	kindReplace
	kindFail
)

// Result is the closed union of control transfers a phase may return.
// The zero Result is deliberately outside the union: a phase that returns
// it (instead of using one of the constructors) triggers the engine's
// invalid-result path.
type Result struct {
	kind    resultKind
	payload any
	target  Ident
	entries Pipeline
	message string
}

// Continue proceeds to the next step with the updated payload.
func Continue(payload any) Result {
	return Result{kind: kindContinue, payload: payload}
}

// Jump abandons the queued steps and resumes at the first later step whose
// ident equals target, inclusive. The target must still occur in the
// remaining pipeline; if it does not, the run fails with a not-found error.
func Jump(payload any, target Ident) Result {
	return Result{kind: kindJump, payload: payload, target: target}
}

// Insert prepends extra steps (flattened before use) to the remaining
// pipeline, then continues.
func Insert(payload any, extra Pipeline) Result {
	return Result{kind: kindInsert, payload: payload, entries: extra}
}

// Replace discards the remaining pipeline and continues with steps as the
// whole remainder.
func Replace(payload any, steps Pipeline) Result {
	return Result{kind: kindReplace, payload: payload, entries: steps}
}

// Fail aborts the run with a human-readable message.
func Fail(message string) Result {
	return Result{kind: kindFail, message: message}
}
