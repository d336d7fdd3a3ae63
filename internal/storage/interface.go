// Package storage keeps a history of solved problems.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chrissnell/openchannel/pkg/config"
	"github.com/chrissnell/openchannel/pkg/solver"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("solution not found")

// Record is one stored problem with its outcome.
type Record struct {
	ID        string            `json:"id"`
	Problem   string            `json:"problem"`
	Params    map[string]any    `json:"params"`
	Results   map[string]any    `json:"results"`
	Errors    map[string]string `json:"errors,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Request rebuilds the solver request that produced the record.
func (r Record) Request() solver.Request {
	return solver.Request{Problem: solver.ProblemType(r.Problem), Params: solver.Params(r.Params)}
}

// NewRecord builds a record for a solved request with a fresh id.
func NewRecord(req solver.Request, res solver.Result) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Problem:   string(res.Problem),
		Params:    req.Params,
		Results:   res.Values(),
		Errors:    res.Errors(),
		CreatedAt: time.Now().UTC(),
	}
}

// Store is a solution history backend.
type Store interface {
	// Save stores rec, assigning an id and timestamp when they are empty.
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (Record, error)
	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]Record, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open returns the backend selected by cfg, or nil when history is disabled.
func Open(ctx context.Context, cfg config.StorageData, logger *zap.SugaredLogger) (Store, error) {
	switch cfg.Backend {
	case "", config.StorageNone:
		logger.Info("solution history disabled")
		return nil, nil
	case config.StorageSQLite:
		s, err := NewSQLiteStore(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoragePostgres:
		s, err := NewPostgresStore(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

func prepare(rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if _, err := uuid.Parse(rec.ID); err != nil {
		return fmt.Errorf("invalid solution id %q: %w", rec.ID, err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return nil
}

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q is not a solution id", ErrNotFound, id)
	}
	return nil
}
