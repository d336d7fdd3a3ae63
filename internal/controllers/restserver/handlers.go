package restserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/chrissnell/openchannel/internal/constants"
	"github.com/chrissnell/openchannel/internal/report"
	"github.com/chrissnell/openchannel/internal/storage"
	"github.com/chrissnell/openchannel/pkg/channel"
	"github.com/chrissnell/openchannel/pkg/solver"
)

const (
	defaultListLimit = 50
	healthMaxAge     = 30 * time.Second
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{controller: ctrl}
}

// errorStatus maps an error to an HTTP status and a short kind.
func errorStatus(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, solver.ErrUnknownProblem):
		return http.StatusNotFound, "unknown_problem"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, channel.ErrAmbiguousSpec):
		return http.StatusBadRequest, "ambiguous_spec"
	case errors.Is(err, channel.ErrUnsupportedShape):
		return http.StatusBadRequest, "unsupported_shape"
	case errors.Is(err, channel.ErrDomain):
		return http.StatusBadRequest, "domain"
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest, "bad_request"
	}
	return http.StatusInternalServerError, "internal"
}

var errBadBody = errors.New("malformed request body")

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status, kind := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.controller.logger.Errorw("request failed", "path", req.URL.Path, "error", err)
	}
	h.controller.formatter.WriteError(w, req, status, kind, err)
}

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, status int, data any) {
	if err := h.controller.formatter.WriteResponse(w, req, status, data); err != nil {
		h.controller.logger.Warnf("failed to write response for %s: %v", req.URL.Path, err)
	}
}

// decodeParams reads a JSON object of parameters. The parameters may be
// wrapped as {"params": {...}}.
func decodeParams(req *http.Request) (solver.Params, error) {
	var body map[string]any
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errBadBody, err)
	}
	if inner, ok := body["params"].(map[string]any); ok && len(body) == 1 {
		body = inner
	}
	return solver.Params(body), nil
}

// decodeBatch accepts either a bare list of requests or a BatchRequest.
func decodeBatch(req *http.Request) (BatchRequest, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(req.Body).Decode(&raw); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return BatchRequest{}, err
		}
		return BatchRequest{}, fmt.Errorf("%w: %v", errBadBody, err)
	}
	var body BatchRequest
	var err error
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &body.Problems)
	} else {
		err = json.Unmarshal(raw, &body)
	}
	if err != nil {
		return BatchRequest{}, fmt.Errorf("%w: %v", errBadBody, err)
	}
	return body, nil
}

// Health handles /healthz. A stale store check is refreshed first, and an
// unhealthy store turns the answer into a 503.
func (h *Handlers) Health(w http.ResponseWriter, req *http.Request) {
	resp := HealthResponse{Status: "ok", Version: constants.Version}
	status := http.StatusOK

	if store := h.controller.store; store != nil {
		hd := h.controller.health.GetHealth()
		if time.Since(hd.LastCheck) > healthMaxAge {
			hd = h.controller.health.Check(req.Context(), store)
		}
		resp.Storage = &hd
		if hd.Status != storage.StatusHealthy {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	h.write(w, req, status, resp)
}

// ListProblems returns the problem catalogue
func (h *Handlers) ListProblems(w http.ResponseWriter, req *http.Request) {
	h.write(w, req, http.StatusOK, solver.Problems())
}

// Solve solves one problem and stores the result when history is enabled
func (h *Handlers) Solve(w http.ResponseWriter, req *http.Request) {
	problem, err := solver.ParseProblem(mux.Vars(req)["problem"])
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	params, err := decodeParams(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	sr := solver.Request{Problem: problem, Params: params}
	res, err := h.controller.solver.Solve(sr)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	var id string
	if h.controller.store != nil {
		rec := storage.NewRecord(sr, res)
		if err := h.controller.store.Save(req.Context(), rec); err != nil {
			h.controller.logger.Errorf("failed to store solution: %v", err)
		} else {
			id = rec.ID
		}
	}
	h.write(w, req, http.StatusOK, newSolveResponse(id, res))
}

// SolveBatch solves a list of problems concurrently
func (h *Handlers) SolveBatch(w http.ResponseWriter, req *http.Request) {
	body, err := decodeBatch(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	if len(body.Problems) == 0 {
		h.writeError(w, req, fmt.Errorf("%w: no problems given", errBadBody))
		return
	}
	if limit := h.controller.batchConfig.MaxProblems; limit > 0 && len(body.Problems) > limit {
		h.writeError(w, req, fmt.Errorf("%w: %d problems exceeds the limit of %d", errBadBody, len(body.Problems), limit))
		return
	}

	workers := h.controller.batchConfig.Workers
	if body.Workers > 0 && (workers <= 0 || body.Workers < workers) {
		workers = body.Workers
	}

	outcomes, err := h.controller.solver.SolveBatch(req.Context(), body.Problems, workers)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	resp := BatchResponse{Count: len(outcomes), Items: make([]BatchItem, len(outcomes))}
	for i, o := range outcomes {
		item := BatchItem{Index: i}
		if o.Err != nil {
			_, item.Kind = errorStatus(o.Err)
			item.Error = o.Err.Error()
			item.Problem = string(body.Problems[i].Problem)
			resp.Failed++
		} else {
			item.SolveResponse = newSolveResponse("", o.Result)
		}
		resp.Items[i] = item
	}
	h.write(w, req, http.StatusOK, resp)
}

// ListSolutions lists stored solutions, newest first
func (h *Handlers) ListSolutions(w http.ResponseWriter, req *http.Request) {
	store := h.controller.store
	if store == nil {
		h.writeError(w, req, fmt.Errorf("%w: solution history is disabled", storage.ErrNotFound))
		return
	}
	limit := defaultListLimit
	if v := req.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, req, fmt.Errorf("%w: limit %q must be a positive integer", errBadBody, v))
			return
		}
		limit = n
	}
	recs, err := store.List(req.Context(), limit)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	out := make([]SolutionSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, newSolutionSummary(rec))
	}
	h.write(w, req, http.StatusOK, out)
}

func (h *Handlers) lookup(w http.ResponseWriter, req *http.Request) (storage.Record, bool) {
	store := h.controller.store
	if store == nil {
		h.writeError(w, req, fmt.Errorf("%w: solution history is disabled", storage.ErrNotFound))
		return storage.Record{}, false
	}
	rec, err := store.Get(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		h.writeError(w, req, err)
		return storage.Record{}, false
	}
	return rec, true
}

// GetSolution returns one stored solution
func (h *Handlers) GetSolution(w http.ResponseWriter, req *http.Request) {
	if rec, ok := h.lookup(w, req); ok {
		h.write(w, req, http.StatusOK, rec)
	}
}

// GetSolutionReport renders a stored solution as a PDF. The stored request is
// solved again so the report carries the full result, profile included.
func (h *Handlers) GetSolutionReport(w http.ResponseWriter, req *http.Request) {
	rec, ok := h.lookup(w, req)
	if !ok {
		return
	}
	doc, err := report.Prepare(h.controller.solver, rec.ID, rec.CreatedAt, rec.Request())
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	var buf bytes.Buffer
	if err := report.Write(&buf, doc); err != nil {
		h.writeError(w, req, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", rec.ID+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// NotFound answers unknown paths
func (h *Handlers) NotFound(w http.ResponseWriter, req *http.Request) {
	h.controller.formatter.WriteError(w, req, http.StatusNotFound, "not_found", fmt.Errorf("no route for %s", req.URL.Path))
}

// MethodNotAllowed answers known paths called with the wrong method
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, req *http.Request) {
	h.controller.formatter.WriteError(w, req, http.StatusMethodNotAllowed, "method_not_allowed",
		fmt.Errorf("method %s not allowed on %s", req.Method, req.URL.Path))
}
