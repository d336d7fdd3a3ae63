package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/chrissnell/openchannel/pkg/migrate"
)

//go:embed migrations/*.sql
var sqliteMigrations embed.FS

// SQLiteStore keeps the history in a SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zap.SugaredLogger
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(ctx context.Context, path string, logger *zap.SugaredLogger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	migrator := migrate.NewMigrator(db, migrate.NewFileProvider(sqliteMigrations, "migrations", ""), logger)
	if err := migrator.MigrateUp(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	logger.Infof("solution history in SQLite database %s", path)
	return &SQLiteStore{db: db, path: path, logger: logger}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, rec *Record) error {
	if err := prepare(rec); err != nil {
		return err
	}
	params, results, errs, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO solutions (id, problem, params, results, errors, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Problem, params, results, errs, rec.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert solution: %w", err)
	}
	s.logger.Debugw("stored solution", "id", rec.ID, "problem", rec.Problem)
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Record, error) {
	if err := validID(id); err != nil {
		return Record{}, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, problem, params, results, errors, created_at FROM solutions WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, problem, params, results, errors, created_at FROM solutions
		 ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query solutions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		rec                   Record
		params, results, errs string
		created               int64
	)
	if err := sc.Scan(&rec.ID, &rec.Problem, &params, &results, &errs, &created); err != nil {
		return Record{}, err
	}
	rec.CreatedAt = time.Unix(0, created).UTC()
	if err := decodeRecord(&rec, params, results, errs); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func encodeRecord(rec *Record) (params, results, errs string, err error) {
	enc := func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to encode solution %s: %w", rec.ID, err)
		}
		return string(b), nil
	}
	if params, err = enc(rec.Params); err != nil {
		return
	}
	if results, err = enc(rec.Results); err != nil {
		return
	}
	fieldErrs := rec.Errors
	if fieldErrs == nil {
		fieldErrs = map[string]string{}
	}
	errs, err = enc(fieldErrs)
	return
}

func decodeRecord(rec *Record, params, results, errs string) error {
	for _, f := range []struct {
		src string
		dst any
	}{{params, &rec.Params}, {results, &rec.Results}, {errs, &rec.Errors}} {
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return fmt.Errorf("failed to decode solution %s: %w", rec.ID, err)
		}
	}
	if len(rec.Errors) == 0 {
		rec.Errors = nil
	}
	return nil
}
