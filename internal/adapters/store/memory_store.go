package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/mikey/esp-analyzer/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of the AnalysisRepository interface
type MemoryStore struct {
	records     map[string]*core.EmailAnalysisRecord
	byMessageID map[string]string
	mu          sync.RWMutex
	logger      *zap.Logger
	sweeper     *sweeper
}

// NewMemoryStore creates a new in-memory store. Records older than retention
// are removed every cleanupFreq; a zero retention keeps records forever.
func NewMemoryStore(logger *zap.Logger, retention, cleanupFreq time.Duration) *MemoryStore {
	s := &MemoryStore{
		records:     make(map[string]*core.EmailAnalysisRecord),
		byMessageID: make(map[string]string),
		logger:      logger,
	}

	s.sweeper = startSweeper(s, logger, retention, cleanupFreq)

	return s
}

// Exists reports whether a record with the Message-ID is stored
func (s *MemoryStore) Exists(ctx context.Context, messageID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byMessageID[messageID]
	return ok, nil
}

// Save stores a record
func (s *MemoryStore) Save(ctx context.Context, record *core.EmailAnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byMessageID[record.MessageID]; ok {
		return core.ErrDuplicate
	}

	stored := cloneRecord(record)
	s.records[stored.ID] = stored
	s.byMessageID[stored.MessageID] = stored.ID
	return nil
}

// Get retrieves a record by ID
func (s *MemoryStore) Get(ctx context.Context, id string) (*core.EmailAnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return cloneRecord(record), nil
}

// Latest retrieves the newest record
func (s *MemoryStore) Latest(ctx context.Context) (*core.EmailAnalysisRecord, error) {
	records, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, core.ErrNotFound
	}
	return records[0], nil
}

// List retrieves up to limit records, newest first
func (s *MemoryStore) List(ctx context.Context, limit int) ([]*core.EmailAnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*core.EmailAnalysisRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, cloneRecord(record))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Cleanup removes records created before the cutoff
func (s *MemoryStore) Cleanup(ctx context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiredCount := 0
	for id, record := range s.records {
		if record.CreatedAt.Before(cutoff) {
			delete(s.records, id)
			delete(s.byMessageID, record.MessageID)
			expiredCount++
		}
	}

	s.logger.Debug("Cleaned up expired records", zap.Int("expired_count", expiredCount))
	return nil
}

// Stop stops the background cleanup task
func (s *MemoryStore) Stop() {
	s.sweeper.stop()
}

// cloneRecord copies a record along with its slices and header map so callers
// never share memory with the store
func cloneRecord(r *core.EmailAnalysisRecord) *core.EmailAnalysisRecord {
	out := *r
	out.ReceivingChain = slices.Clone(r.ReceivingChain)
	out.Hops = slices.Clone(r.Hops)
	out.ESPIndicators = slices.Clone(r.ESPIndicators)
	if r.RelevantHeaders != nil {
		out.RelevantHeaders = make(core.HeaderMap, len(r.RelevantHeaders))
		for name, values := range r.RelevantHeaders {
			out.RelevantHeaders[name] = slices.Clone(values)
		}
	}
	return &out
}
