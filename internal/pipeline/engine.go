package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Engine reduces a pipeline left-to-right over a payload, one phase at a
// time, interpreting each phase's Result to decide the next step sequence.
// An Engine holds no per-run state; each call to Run owns its own todo and
// trace lists, so a single Engine may serve concurrent runs.
type Engine struct {
	registry *Registry
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger used for per-phase debug logging.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithTracer enables an OpenTelemetry span around each phase invocation.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// NewEngine creates an engine resolving phase idents through registry.
func NewEngine(registry *Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunResult is the outcome of a successful run: the final payload and the
// trace of completed phase idents in reverse-chronological order (most
// recent first). Callers needing execution order must reverse it.
type RunResult struct {
	Payload any
	Trace   []Ident
}

// Run flattens the pipeline and reduces it over payload. It returns a
// PhaseFailure when a phase reports Fail, an InvalidResultError when a
// phase returns a value outside the Result union, an UnknownPhaseError when
// a step names an unregistered phase, and a NotFoundError (wrapped) when a
// Jump targets a phase that no longer occurs in the remaining pipeline.
// All failure paths carry the trace accumulated so far.
func (e *Engine) Run(ctx context.Context, payload any, p Pipeline) (*RunResult, error) {
	todo := Flatten(p)
	var done []Ident

	for len(todo) > 0 {
		head, tail := todo[0], todo[1:]
		id, opts, _ := resolve(head)

		phase, ok := e.registry.Get(id)
		if !ok {
			return nil, &UnknownPhaseError{Phase: id, Trace: done}
		}

		res := e.invoke(ctx, phase, id, payload, opts)
		done = append([]Ident{id}, done...)

		switch res.kind {
		case kindContinue:
			payload = res.payload
			todo = tail
		case kindJump:
			payload = res.payload
			next, err := From(tail, res.target)
			if err != nil {
				return nil, fmt.Errorf("jump from %s: %w", id, err)
			}
			todo = next
		case kindInsert:
			payload = res.payload
			extra := Flatten(res.entries)
			next := make(Pipeline, 0, len(extra)+len(tail))
			next = append(next, extra...)
			next = append(next, tail...)
			todo = next
		case kindReplace:
			payload = res.payload
			todo = Flatten(res.entries)
		case kindFail:
			e.logger.Debug("phase failed",
				slog.String("phase", id.String()),
				slog.String("message", res.message),
			)
			return nil, &PhaseFailure{Phase: id, Message: res.message, Trace: done}
		default:
			return nil, &InvalidResultError{Phase: id, Trace: done}
		}

		e.logger.Debug("phase complete", slog.String("phase", id.String()))
	}

	return &RunResult{Payload: payload, Trace: done}, nil
}

func (e *Engine) invoke(ctx context.Context, phase Phase, id Ident, payload any, opts map[string]any) Result {
	if e.tracer == nil {
		return phase.Run(ctx, payload, opts)
	}

	ctx, span := e.tracer.Start(ctx, "pipeline.phase",
		trace.WithAttributes(attribute.String("phase", id.String())),
	)
	defer span.End()

	return phase.Run(ctx, payload, opts)
}
