// Package registration assembles the phase registry and document pipeline
// from configuration. It replaces init-based side effects and is intended
// to be called from cmd/prismd and tests before wiring the engine.
package registration

import (
	"fmt"
	"regexp"
	"time"

	"github.com/prismql/prism/internal/config"
	"github.com/prismql/prism/internal/graphql"
	"github.com/prismql/prism/internal/pipeline"
)

// RegisterBuiltins registers every built-in document and schema phase.
func RegisterBuiltins(reg *pipeline.Registry, phases *graphql.Phases) {
	phases.Register(reg)
}

// BuildPipeline produces the document pipeline described by cfg: the
// standard phase list, with configured webhooks spliced in and rejected
// phases dropped. Webhook phases are registered on reg as a side effect.
func BuildPipeline(cfg config.PipelineConfig, reg *pipeline.Registry) (pipeline.Pipeline, error) {
	p := graphql.DocumentPipeline(graphql.PipelineOptions{
		UseCache: cfg.UseCache,
		MaxDepth: cfg.MaxDepth,
	})

	for _, wh := range cfg.Webhooks {
		spliced, err := spliceWebhook(p, wh, reg)
		if err != nil {
			return nil, err
		}
		p = spliced
	}

	// Rejects run last so they can drop spliced webhooks too.
	for _, pattern := range cfg.Reject {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile reject pattern %q: %w", pattern, err)
		}
		p = pipeline.Reject(p, re)
	}

	return p, nil
}

func spliceWebhook(p pipeline.Pipeline, wh config.WebhookConfig, reg *pipeline.Registry) (pipeline.Pipeline, error) {
	if wh.Name == "" {
		return nil, fmt.Errorf("webhook needs a name")
	}
	if wh.URL == "" {
		return nil, fmt.Errorf("webhook %s needs a url", wh.Name)
	}

	var timeout time.Duration
	if wh.Timeout != "" {
		d, err := time.ParseDuration(wh.Timeout)
		if err != nil {
			return nil, fmt.Errorf("webhook %s timeout: %w", wh.Name, err)
		}
		timeout = d
	}

	phase := pipeline.NewWebhookPhase(pipeline.WebhookPhaseConfig{
		ID:      pipeline.Ident(wh.Name),
		URL:     wh.URL,
		Timeout: timeout,
		OnError: wh.OnError,
		Retries: wh.Retries,
		Headers: wh.Headers,
	})
	reg.Register(phase.ID(), phase)

	target := pipeline.Ident(wh.Target)
	switch wh.Position {
	case "before":
		spliced, err := pipeline.InsertBefore(p, target, phase.ID())
		if err != nil {
			return nil, fmt.Errorf("webhook %s: %w", wh.Name, err)
		}
		return spliced, nil
	case "after", "":
		spliced, err := pipeline.InsertAfter(p, target, phase.ID())
		if err != nil {
			return nil, fmt.Errorf("webhook %s: %w", wh.Name, err)
		}
		return spliced, nil
	default:
		return nil, fmt.Errorf("webhook %s: unknown position %q", wh.Name, wh.Position)
	}
}
