package graphql

import (
	"github.com/prismql/prism/internal/pipeline"
)

// PipelineOptions tune the standard document pipeline.
type PipelineOptions struct {
	// UseCache prepends the cache lookup phase and adds the cache store
	// phase after validation.
	UseCache bool
	// MaxDepth rejects operations nested deeper than this. Zero disables
	// the check.
	MaxDepth int
}

// DocumentPipeline returns the phase list that takes a raw query from text
// to a wire-shaped response. The grouping mirrors the lifecycle: prepare
// the document, pick and check the operation, then execute.
func DocumentPipeline(opts PipelineOptions) pipeline.Pipeline {
	prepare := pipeline.Group{PhaseParse, PhaseValidate}
	if opts.UseCache {
		prepare = append(prepare, PhaseCacheStore)
	}

	operation := pipeline.Group{
		PhaseSelectOperation,
		pipeline.Step{ID: PhaseDepthLimit, Options: map[string]any{"limit": opts.MaxDepth}},
		PhaseCoerceVariables,
	}

	p := pipeline.Pipeline{}
	if opts.UseCache {
		p = append(p, PhaseCacheLookup)
	}
	p = append(p, prepare, operation, PhaseExecute, PhaseFormatResult)
	return p
}

// SchemaPipeline returns the phase list that takes SDL text to a validated
// schema.
func SchemaPipeline() pipeline.Pipeline {
	return pipeline.Pipeline{PhaseSchemaParse, PhaseSchemaValidate}
}
