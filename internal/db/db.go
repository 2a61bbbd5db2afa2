package db

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to Postgres with the given DSN.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("database DSN is empty")
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// Migrate runs GORM auto-migrations for the core tables.
func Migrate(conn *gorm.DB, log *zap.Logger) error {
	if conn == nil {
		return errors.New("db connection is nil")
	}
	if err := conn.AutoMigrate(
		&Session{},
		&Candidate{},
		&Vote{},
		&HistoryEntry{},
		&KVEntry{},
		&Event{},
	); err != nil {
		return err
	}
	// Nomination uniqueness is case-insensitive, which tag-based indexes
	// cannot express.
	if err := conn.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_candidates_session_title
		 ON candidates (session_id, lower(movie_title))`,
	).Error; err != nil {
		return err
	}
	log.Info("database migration complete")
	return nil
}
