package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// StatusCompleted marks a record whose analysis finished
	StatusCompleted = "completed"

	defaultListLimit = 50
)

// AnalysisService is the core service tying analysis to storage
type AnalysisService struct {
	analyzer      Analyzer
	repo          AnalysisRepository
	logger        *zap.Logger
	listLimit     int
	testAddress   string
	subjectPrefix string
	now           func() time.Time
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	analyzer Analyzer,
	repo AnalysisRepository,
	logger *zap.Logger,
	listLimit int,
	testAddress string,
	subjectPrefix string,
) *AnalysisService {
	if listLimit <= 0 {
		listLimit = defaultListLimit
	}
	return &AnalysisService{
		analyzer:      analyzer,
		repo:          repo,
		logger:        logger,
		listLimit:     listLimit,
		testAddress:   testAddress,
		subjectPrefix: subjectPrefix,
		now:           time.Now,
	}
}

// ProcessMessage analyzes a message and stores the result unless a record with
// the same Message-ID already exists. The returned bool reports whether the
// record was stored.
func (s *AnalysisService) ProcessMessage(ctx context.Context, rawHeaders, body string) (*EmailAnalysisRecord, bool, error) {
	record := s.analyzer.Analyze(rawHeaders, body)

	exists, err := s.repo.Exists(ctx, record.MessageID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check for existing record: %w", err)
	}
	if exists {
		s.logger.Info("Email already processed", zap.String("message_id", record.MessageID))
		return record, false, nil
	}

	record.ID = uuid.NewString()
	record.ProcessingStatus = StatusCompleted
	record.CreatedAt = s.now()

	if err := s.repo.Save(ctx, record); err != nil {
		if errors.Is(err, ErrDuplicate) {
			s.logger.Info("Email already processed", zap.String("message_id", record.MessageID))
			return record, false, nil
		}
		return nil, false, fmt.Errorf("failed to save record: %w", err)
	}

	s.logger.Info("Successfully processed email",
		zap.String("message_id", record.MessageID),
		zap.String("esp", record.ESPType),
		zap.Float64("confidence", record.ESPConfidence),
		zap.Int("hops", len(record.ReceivingChain)))

	return record, true, nil
}

// ListRecent returns the most recent records, newest first
func (s *AnalysisService) ListRecent(ctx context.Context) ([]*EmailAnalysisRecord, error) {
	return s.repo.List(ctx, s.listLimit)
}

// Latest returns the most recently stored record
func (s *AnalysisService) Latest(ctx context.Context) (*EmailAnalysisRecord, error) {
	return s.repo.Latest(ctx)
}

// Get returns a record by its storage ID
func (s *AnalysisService) Get(ctx context.Context, id string) (*EmailAnalysisRecord, error) {
	return s.repo.Get(ctx, id)
}

// TestEmailConfig returns the address and a fresh subject line for test messages
func (s *AnalysisService) TestEmailConfig() TestEmailConfig {
	return TestEmailConfig{
		Email:   s.testAddress,
		Subject: fmt.Sprintf("%s-%d", s.subjectPrefix, s.now().UnixMilli()),
	}
}
