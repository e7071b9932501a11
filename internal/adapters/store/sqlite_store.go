package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/mikey/esp-analyzer/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the AnalysisRepository interface
type SQLiteStore struct {
	db      *sql.DB
	logger  *zap.Logger
	sweeper *sweeper
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(dbPath string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS email_analyses (
			id TEXT PRIMARY KEY,
			message_id TEXT NOT NULL UNIQUE,
			subject TEXT NOT NULL,
			from_addr TEXT NOT NULL,
			to_addr TEXT NOT NULL,
			sent_at TEXT NOT NULL,
			relevant_headers TEXT NOT NULL,
			receiving_chain TEXT NOT NULL,
			hops TEXT NOT NULL,
			esp_type TEXT NOT NULL,
			esp_confidence REAL NOT NULL,
			esp_indicators TEXT NOT NULL,
			body TEXT NOT NULL,
			processing_status TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Create index on created_at for listing and cleanup
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_created_at ON email_analyses(created_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	s.sweeper = startSweeper(s, logger, retention, cleanupFreq)

	return s, nil
}

// Exists reports whether a record with the Message-ID is stored
func (s *SQLiteStore) Exists(ctx context.Context, messageID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM email_analyses WHERE message_id = ?
	`, messageID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query records: %w", err)
	}
	return n > 0, nil
}

// Save stores a record
func (s *SQLiteStore) Save(ctx context.Context, record *core.EmailAnalysisRecord) error {
	args, err := insertArgs(record)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, insertStatement, args...); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return core.ErrDuplicate
		}
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// Get retrieves a record by ID
func (s *SQLiteStore) Get(ctx context.Context, id string) (*core.EmailAnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+`
		FROM email_analyses WHERE id = ?`, id)
	return scanRecord(row)
}

// Latest retrieves the newest record
func (s *SQLiteStore) Latest(ctx context.Context) (*core.EmailAnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+`
		FROM email_analyses ORDER BY created_at DESC, id DESC LIMIT 1`)
	return scanRecord(row)
}

// List retrieves up to limit records, newest first
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*core.EmailAnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+`
		FROM email_analyses ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return scanRecords(rows)
}

// Cleanup removes records created before the cutoff
func (s *SQLiteStore) Cleanup(ctx context.Context, cutoff time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM email_analyses
		WHERE created_at < ?
	`, formatTime(cutoff))

	if err != nil {
		return fmt.Errorf("failed to clean up expired records: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		s.logger.Debug("Cleaned up expired records", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// Stop stops the background cleanup task and closes the database connection
func (s *SQLiteStore) Stop() {
	s.sweeper.stop()
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
