// Package database opens GORM connections to PostgreSQL.
package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chrissnell/openchannel/internal/log"
)

// NewLogger returns a GORM logger that writes through zap.
func NewLogger() logger.Interface {
	return logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// CreateConnection opens a GORM handle on the PostgreSQL database at dsn.
func CreateConnection(dsn string, zl *zap.SugaredLogger) (*gorm.DB, error) {
	zl.Info("connecting to PostgreSQL...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: NewLogger()})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to PostgreSQL: %w", err)
	}
	zl.Info("PostgreSQL connection successful")
	return db, nil
}
