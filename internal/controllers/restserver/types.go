package restserver

import (
	"time"

	"github.com/chrissnell/openchannel/internal/storage"
	"github.com/chrissnell/openchannel/pkg/solver"
)

// SolveResponse is the body of a solve request. ID is set when the solution
// was stored.
type SolveResponse struct {
	ID      string            `json:"id,omitempty"`
	Problem string            `json:"problem"`
	Results map[string]any    `json:"results"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func newSolveResponse(id string, res solver.Result) SolveResponse {
	errs := res.Errors()
	if len(errs) == 0 {
		errs = nil
	}
	return SolveResponse{ID: id, Problem: string(res.Problem), Results: res.Values(), Errors: errs}
}

// BatchRequest is the body of a batch solve.
type BatchRequest struct {
	Problems []solver.Request `json:"problems"`
	Workers  int              `json:"workers,omitempty"`
}

// BatchItem is the outcome of one problem of a batch. A request-level
// failure sets Error and Kind and leaves Results empty.
type BatchItem struct {
	Index int `json:"index"`
	SolveResponse
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// BatchResponse is the body of a batch solve, in request order.
type BatchResponse struct {
	Count  int         `json:"count"`
	Failed int         `json:"failed"`
	Items  []BatchItem `json:"items"`
}

// SolutionSummary is one entry of the solution history listing.
type SolutionSummary struct {
	ID        string    `json:"id"`
	Problem   string    `json:"problem"`
	Failed    int       `json:"failed_fields"`
	CreatedAt time.Time `json:"created_at"`
}

func newSolutionSummary(rec storage.Record) SolutionSummary {
	return SolutionSummary{ID: rec.ID, Problem: rec.Problem, Failed: len(rec.Errors), CreatedAt: rec.CreatedAt}
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status  string              `json:"status"`
	Version string              `json:"version"`
	Storage *storage.HealthData `json:"storage,omitempty"`
}
