package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mikey/esp-analyzer/internal/core"
	"go.uber.org/zap"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

// MySQLStore is a MySQL implementation of the AnalysisRepository interface
type MySQLStore struct {
	db      *sql.DB
	logger  *zap.Logger
	sweeper *sweeper
}

// NewMySQLStore creates a new MySQL store
func NewMySQLStore(dsn string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*MySQLStore, error) {
	// Timestamps are scanned as text by the shared row codec
	mysqlCfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	mysqlCfg.ParseTime = false

	db, err := sql.Open("mysql", mysqlCfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS email_analyses (
			id VARCHAR(36) PRIMARY KEY,
			message_id MEDIUMTEXT NOT NULL,
			message_key CHAR(64) AS (SHA2(message_id, 256)) STORED,
			subject TEXT NOT NULL,
			from_addr TEXT NOT NULL,
			to_addr TEXT NOT NULL,
			sent_at DATETIME(6) NOT NULL,
			relevant_headers MEDIUMTEXT NOT NULL,
			receiving_chain TEXT NOT NULL,
			hops MEDIUMTEXT NOT NULL,
			esp_type VARCHAR(64) NOT NULL,
			esp_confidence DOUBLE NOT NULL,
			esp_indicators TEXT NOT NULL,
			body TEXT NOT NULL,
			processing_status VARCHAR(32) NOT NULL,
			created_at DATETIME(6) NOT NULL,
			UNIQUE INDEX idx_message_key (message_key),
			INDEX idx_created_at (created_at)
		) DEFAULT CHARSET=utf8mb4
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	s := &MySQLStore{
		db:     db,
		logger: logger,
	}

	// Start background cleanup
	s.sweeper = startSweeper(s, logger, retention, cleanupFreq)

	return s, nil
}

// Exists reports whether a record with the Message-ID is stored
func (s *MySQLStore) Exists(ctx context.Context, messageID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM email_analyses WHERE message_key = SHA2(?, 256)
	`, messageID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query records: %w", err)
	}
	return n > 0, nil
}

// Save stores a record
func (s *MySQLStore) Save(ctx context.Context, record *core.EmailAnalysisRecord) error {
	args, err := insertArgs(record)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, insertStatement, args...); err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return core.ErrDuplicate
		}
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// Get retrieves a record by ID
func (s *MySQLStore) Get(ctx context.Context, id string) (*core.EmailAnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+`
		FROM email_analyses WHERE id = ?`, id)
	return scanRecord(row)
}

// Latest retrieves the newest record
func (s *MySQLStore) Latest(ctx context.Context) (*core.EmailAnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+`
		FROM email_analyses ORDER BY created_at DESC, id DESC LIMIT 1`)
	return scanRecord(row)
}

// List retrieves up to limit records, newest first
func (s *MySQLStore) List(ctx context.Context, limit int) ([]*core.EmailAnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+`
		FROM email_analyses ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return scanRecords(rows)
}

// Cleanup removes records created before the cutoff
func (s *MySQLStore) Cleanup(ctx context.Context, cutoff time.Time) error {
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
func (s *MySQLStore) Stop() {
	s.sweeper.stop()
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}
