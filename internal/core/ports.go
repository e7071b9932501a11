package core

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no record matches a lookup
	ErrNotFound = errors.New("analysis record not found")
	// ErrDuplicate is returned when a record with the same Message-ID is already stored
	ErrDuplicate = errors.New("analysis record already exists")
)

// Analyzer turns a raw header block and body into an analysis record
type Analyzer interface {
	// Analyze never fails; malformed input yields a degraded record
	Analyze(rawHeaders, body string) *EmailAnalysisRecord
}

// AnalysisRepository defines the interface for storing analysis records
type AnalysisRepository interface {
	// Exists reports whether a record with the given Message-ID is stored
	Exists(ctx context.Context, messageID string) (bool, error)

	// Save stores a record, returning ErrDuplicate if its Message-ID is taken
	Save(ctx context.Context, record *EmailAnalysisRecord) error

	// Get retrieves a record by its storage ID
	Get(ctx context.Context, id string) (*EmailAnalysisRecord, error)

	// Latest retrieves the most recently stored record
	Latest(ctx context.Context) (*EmailAnalysisRecord, error)

	// List retrieves up to limit records, newest first
	List(ctx context.Context, limit int) ([]*EmailAnalysisRecord, error)

	// Cleanup removes records created before the cutoff
	Cleanup(ctx context.Context, cutoff time.Time) error
}
