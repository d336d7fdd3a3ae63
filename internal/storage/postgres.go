package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chrissnell/openchannel/internal/database"
)

// solutionRow is the GORM model of a stored solution. The maps are kept as
// JSON documents.
type solutionRow struct {
	ID        string    `gorm:"primaryKey;type:uuid;column:id"`
	Problem   string    `gorm:"column:problem;not null;index"`
	Params    string    `gorm:"column:params;type:jsonb;not null"`
	Results   string    `gorm:"column:results;type:jsonb;not null"`
	Errors    string    `gorm:"column:errors;type:jsonb;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index"`
}

func (solutionRow) TableName() string { return "solutions" }

func toRow(rec *Record) (solutionRow, error) {
	params, results, errs, err := encodeRecord(rec)
	if err != nil {
		return solutionRow{}, err
	}
	return solutionRow{
		ID:        rec.ID,
		Problem:   rec.Problem,
		Params:    params,
		Results:   results,
		Errors:    errs,
		CreatedAt: rec.CreatedAt,
	}, nil
}

func fromRow(row solutionRow) (Record, error) {
	rec := Record{ID: row.ID, Problem: row.Problem, CreatedAt: row.CreatedAt.UTC()}
	if err := decodeRecord(&rec, row.Params, row.Results, row.Errors); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// PostgresStore keeps the history in PostgreSQL through GORM.
type PostgresStore struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// NewPostgresStore connects to dsn and migrates the solutions table.
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.SugaredLogger) (*PostgresStore, error) {
	db, err := database.CreateConnection(dsn, logger)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).AutoMigrate(&solutionRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate solutions table: %w", err)
	}
	return &PostgresStore{db: db, logger: logger}, nil
}

func (p *PostgresStore) Save(ctx context.Context, rec *Record) error {
	if err := prepare(rec); err != nil {
		return err
	}
	row, err := toRow(rec)
	if err != nil {
		return err
	}
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert solution: %w", err)
	}
	p.logger.Debugw("stored solution", "id", rec.ID, "problem", rec.Problem)
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	if err := validID(id); err != nil {
		return Record{}, err
	}
	var row solutionRow
	err := p.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("error querying database for solution %s: %w", id, err)
	}
	return fromRow(row)
}

func (p *PostgresStore) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []solutionRow
	if err := p.db.WithContext(ctx).Order("created_at DESC").Order("id").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying database for solutions: %w", err)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (p *PostgresStore) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
