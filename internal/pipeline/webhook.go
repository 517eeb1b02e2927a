package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookPhase invokes an external HTTP endpoint as a pipeline phase. The
// endpoint observes the payload and either lets the run continue or fails
// it; it cannot mutate the payload or redirect the pipeline.
//
// Request body:
//
//	{
//	  "phase": "...",              // the phase ident this webhook runs as
//	  "payload": { ... },          // JSON rendering of the current payload
//	  "options": { ... }           // options attached to the step
//	}
//
// Response body:
//
//	{
//	  "action": "continue" | "fail",
//	  "message": "..."             // required when failing
//	}
type WebhookPhase struct {
	id      Ident
	url     string
	onError webhookAction
	retries int
	headers map[string]string
	client  *http.Client
}

type webhookAction string

const (
	// WebhookContinue lets the run proceed.
	WebhookContinue webhookAction = "continue"
	// WebhookFail aborts the run.
	WebhookFail webhookAction = "fail"
)

// WebhookPhaseConfig configures a webhook phase.
type WebhookPhaseConfig struct {
	ID      Ident
	URL     string
	Timeout time.Duration
	OnError string // "continue" or "fail" (default: fail)
	Retries int
	Headers map[string]string
}

// NewWebhookPhase creates a webhook phase from configuration.
func NewWebhookPhase(cfg WebhookPhaseConfig) *WebhookPhase {
	onError := webhookAction(cfg.OnError)
	if onError != WebhookContinue {
		onError = WebhookFail // fail closed
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &WebhookPhase{
		id:      cfg.ID,
		url:     cfg.URL,
		onError: onError,
		retries: cfg.Retries,
		headers: cfg.Headers,
		client:  &http.Client{Timeout: timeout},
	}
}

// ID returns the phase ident this webhook runs as.
func (p *WebhookPhase) ID() Ident {
	return p.id
}

type webhookRequest struct {
	Phase   string          `json:"phase"`
	Payload json.RawMessage `json:"payload"`
	Options map[string]any  `json:"options"`
}

type webhookResponse struct {
	Action  webhookAction `json:"action"`
	Message string        `json:"message,omitempty"`
}

// Run implements Phase. The payload must be JSON-serializable.
func (p *WebhookPhase) Run(ctx context.Context, payload any, opts map[string]any) Result {
	var lastErr error

	attempts := p.retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		resp, err := p.doRequest(ctx, payload, opts)
		if err == nil {
			if resp.Action == WebhookFail {
				return Fail(resp.Message)
			}
			return Continue(payload)
		}
		lastErr = err

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			break
		}
	}

	if p.onError == WebhookContinue {
		return Continue(payload)
	}
	return Fail(fmt.Sprintf("webhook %s error: %v", p.id, lastErr))
}

func (p *WebhookPhase) doRequest(ctx context.Context, payload any, opts map[string]any) (*webhookResponse, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	body, err := json.Marshal(webhookRequest{
		Phase:   p.id.String(),
		Payload: raw,
		Options: opts,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal webhook request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	httpResp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var out webhookResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("unmarshal webhook response: %w", err)
	}

	switch out.Action {
	case WebhookContinue, WebhookFail:
	case "":
		out.Action = WebhookContinue
	default:
		return nil, fmt.Errorf("invalid action from webhook: %s", out.Action)
	}

	return &out, nil
}

// Ensure WebhookPhase implements the interface.
var _ Phase = (*WebhookPhase)(nil)
