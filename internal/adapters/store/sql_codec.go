package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mikey/esp-analyzer/internal/core"
)

// timeLayout is fixed-width so stored timestamps sort as text
const timeLayout = "2006-01-02 15:04:05.000000"

const selectColumns = `id, message_id, subject, from_addr, to_addr, sent_at,
	relevant_headers, receiving_chain, hops, esp_type, esp_confidence,
	esp_indicators, body, processing_status, created_at`

const insertStatement = `INSERT INTO email_analyses (` + selectColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Bounds of the four-digit years timeLayout and DATETIME columns can hold
var (
	minStoredTime = time.Date(1000, 1, 1, 0, 0, 0, 0, time.UTC)
	maxStoredTime = time.Date(9999, 12, 31, 23, 59, 59, 999999000, time.UTC)
)

// formatTime renders t in UTC, clamped to the storable range
func formatTime(t time.Time) string {
	t = t.UTC()
	if t.Before(minStoredTime) {
		t = minStoredTime
	} else if t.After(maxStoredTime) {
		t = maxStoredTime
	}
	return t.Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.UTC)
}

// insertArgs flattens a record into the column order of insertStatement
func insertArgs(r *core.EmailAnalysisRecord) ([]any, error) {
	relevant, err := json.Marshal(r.RelevantHeaders)
	if err != nil {
		return nil, fmt.Errorf("failed to encode headers: %w", err)
	}
	chain, err := json.Marshal(r.ReceivingChain)
	if err != nil {
		return nil, fmt.Errorf("failed to encode receiving chain: %w", err)
	}
	hops, err := json.Marshal(r.Hops)
	if err != nil {
		return nil, fmt.Errorf("failed to encode hops: %w", err)
	}
	indicators, err := json.Marshal(r.ESPIndicators)
	if err != nil {
		return nil, fmt.Errorf("failed to encode indicators: %w", err)
	}

	return []any{
		r.ID, r.MessageID, r.Subject, r.From, r.To, formatTime(r.Date),
		string(relevant), string(chain), string(hops), r.ESPType, r.ESPConfidence,
		string(indicators), r.BodyExcerpt, r.ProcessingStatus, formatTime(r.CreatedAt),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one row selected with selectColumns
func scanRecord(row rowScanner) (*core.EmailAnalysisRecord, error) {
	var r core.EmailAnalysisRecord
	var sentAt, createdAt, relevant, chain, hops, indicators string

	err := row.Scan(&r.ID, &r.MessageID, &r.Subject, &r.From, &r.To, &sentAt,
		&relevant, &chain, &hops, &r.ESPType, &r.ESPConfidence,
		&indicators, &r.BodyExcerpt, &r.ProcessingStatus, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	if r.Date, err = parseTime(sentAt); err != nil {
		return nil, fmt.Errorf("failed to parse sent_at timestamp: %w", err)
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	if err := json.Unmarshal([]byte(relevant), &r.RelevantHeaders); err != nil {
		return nil, fmt.Errorf("failed to decode headers: %w", err)
	}
	if err := json.Unmarshal([]byte(chain), &r.ReceivingChain); err != nil {
		return nil, fmt.Errorf("failed to decode receiving chain: %w", err)
	}
	if err := json.Unmarshal([]byte(hops), &r.Hops); err != nil {
		return nil, fmt.Errorf("failed to decode hops: %w", err)
	}
	if err := json.Unmarshal([]byte(indicators), &r.ESPIndicators); err != nil {
		return nil, fmt.Errorf("failed to decode indicators: %w", err)
	}

	return &r, nil
}

func scanRecords(rows *sql.Rows) ([]*core.EmailAnalysisRecord, error) {
	defer rows.Close()

	var out []*core.EmailAnalysisRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return out, nil
}
