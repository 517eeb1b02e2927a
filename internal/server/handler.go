package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/prismql/prism/internal/graphql"
	"github.com/prismql/prism/internal/pipeline"
	"github.com/prismql/prism/internal/pipeline/drawer"
	"github.com/prismql/prism/internal/storage"
)

// Handler serves the GraphQL endpoint and the admin surface. Every query
// goes through the configured document pipeline.
type Handler struct {
	Engine   *pipeline.Engine
	Registry *pipeline.Registry
	Pipeline pipeline.Pipeline
	Schema   *ast.Schema
	Store    storage.Store
	Logger   *slog.Logger
}

// Routes mounts all handler endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/graphql", h.handleGraphQL)
	r.Get("/healthz", h.handleHealth)
	r.Route("/admin", func(r chi.Router) {
		r.Get("/pipeline", h.handlePipeline)
		r.Get("/pipeline.dot", h.handlePipelineDOT)
		r.Get("/runs", h.handleListRuns)
		r.Get("/runs/{id}", h.handleGetRun)
	})
}

// graphqlRequest is the POST /graphql body. The persistedQuery extension
// follows the APQ convention: hash-only requests replay a stored document,
// hash-plus-query requests register one.
type graphqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Extensions    struct {
		PersistedQuery *struct {
			Version    int    `json:"version"`
			Sha256Hash string `json:"sha256Hash"`
		} `json:"persistedQuery"`
	} `json:"extensions"`
}

func (h *Handler) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		AddError(ctx, err)
		writeErrors(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if pq := req.Extensions.PersistedQuery; pq != nil {
		if req.Query == "" {
			stored, err := h.Store.GetQuery(ctx, pq.Sha256Hash)
			if errors.Is(err, storage.ErrNotFound) {
				writeErrors(w, http.StatusOK, "PersistedQueryNotFound")
				return
			}
			if err != nil {
				AddError(ctx, err)
				writeErrors(w, http.StatusInternalServerError, "internal error")
				return
			}
			req.Query = stored.Query
		} else {
			if graphql.DocumentKey(req.Query) != pq.Sha256Hash {
				writeErrors(w, http.StatusOK, "provided sha256Hash does not match query")
				return
			}
			if err := h.Store.PutQuery(ctx, pq.Sha256Hash, req.Query); err != nil {
				AddError(ctx, err)
				writeErrors(w, http.StatusInternalServerError, "internal error")
				return
			}
		}
	}

	if req.Query == "" {
		writeErrors(w, http.StatusBadRequest, "no query provided")
		return
	}

	AddLogField(ctx, "operation", req.OperationName)

	exec := &graphql.Exec{
		RawQuery:      req.Query,
		OperationName: req.OperationName,
		Variables:     req.Variables,
		Schema:        h.Schema,
	}

	start := time.Now()
	res, err := h.Engine.Run(ctx, exec, h.Pipeline)
	h.recordRun(r, &req, res, err, time.Since(start))

	if err != nil {
		var failure *pipeline.PhaseFailure
		if errors.As(err, &failure) {
			writeErrors(w, http.StatusOK, failure.Message)
			return
		}
		AddError(ctx, err)
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}

	out, ok := res.Payload.(*graphql.Exec)
	if !ok || out.Response == nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, out.Response)
}

// recordRun persists a run record. Recording failures are logged, never
// surfaced to the client.
func (h *Handler) recordRun(r *http.Request, req *graphqlRequest, res *pipeline.RunResult, runErr error, duration time.Duration) {
	rec := &storage.RunRecord{
		ID:            uuid.New().String(),
		OperationName: req.OperationName,
		QueryHash:     graphql.DocumentKey(req.Query),
		Status:        storage.RunStatusOK,
		Duration:      duration,
		CreatedAt:     time.Now().UTC(),
	}

	if runErr != nil {
		rec.Status = storage.RunStatusError
		rec.Error = runErr.Error()
		rec.Trace = identStrings(errorTrace(runErr))
	} else {
		rec.Trace = identStrings(res.Trace)
	}

	if err := h.Store.RecordRun(r.Context(), rec); err != nil {
		h.Logger.Error("record run",
			slog.String("run_id", rec.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handlePipeline(w http.ResponseWriter, r *http.Request) {
	flat := pipeline.Flatten(h.Pipeline)
	phases := make([]string, 0, len(flat))
	for _, e := range flat {
		if id, ok := pipeline.EntryIdent(e); ok {
			phases = append(phases, id.String())
		}
	}

	out := map[string]any{"phases": phases}
	if h.Registry != nil {
		out["registered"] = identStrings(h.Registry.List())
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handlePipelineDOT(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	if err := drawer.DOT(h.Pipeline, w); err != nil {
		AddError(r.Context(), err)
	}
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	opts := storage.ListOptions{
		Status: r.URL.Query().Get("status"),
		Limit:  100,
	}

	runs, err := h.Store.ListRuns(r.Context(), opts)
	if err != nil {
		AddError(r.Context(), err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.Store.GetRun(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		AddError(r.Context(), err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// errorTrace pulls the phase trace out of an engine error, if it carries one.
func errorTrace(err error) []pipeline.Ident {
	var failure *pipeline.PhaseFailure
	if errors.As(err, &failure) {
		return failure.Trace
	}
	var invalid *pipeline.InvalidResultError
	if errors.As(err, &invalid) {
		return invalid.Trace
	}
	var unknown *pipeline.UnknownPhaseError
	if errors.As(err, &unknown) {
		return unknown.Trace
	}
	return nil
}

func identStrings(ids []pipeline.Ident) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrors(w http.ResponseWriter, status int, messages ...string) {
	errs := make([]map[string]string, 0, len(messages))
	for _, m := range messages {
		errs = append(errs, map[string]string{"message": m})
	}
	writeJSON(w, status, map[string]any{"errors": errs})
}
