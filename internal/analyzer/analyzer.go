// Package analyzer assembles analysis records from raw header blocks and bodies.
package analyzer

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/esp-analyzer/internal/core"
	"github.com/mikey/esp-analyzer/internal/esp"
	"github.com/mikey/esp-analyzer/internal/headers"
	"github.com/mikey/esp-analyzer/internal/utils"
)

const (
	// BodyExcerptLength is the number of body characters kept with a record
	BodyExcerptLength = 1000

	noSubject        = "No Subject"
	unknownSender    = "Unknown Sender"
	unknownRecipient = "Unknown Recipient"
)

// Analyzer tokenizes headers, rebuilds the receiving chain, classifies the ESP
// and combines the results into a record. It holds no per-message state and is
// safe for concurrent use.
type Analyzer struct {
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	now           func() time.Time
	newID         func() string
}

// NewAnalyzer creates a new analyzer
func NewAnalyzer(logger *zap.Logger, textProcessor *utils.TextProcessor) *Analyzer {
	return &Analyzer{
		logger:        logger,
		textProcessor: textProcessor,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// Analyze builds the analysis record for one message. Values missing from the
// headers are replaced with placeholders; dates that cannot be parsed default
// to the time of analysis.
func (a *Analyzer) Analyze(rawHeaders, body string) *core.EmailAnalysisRecord {
	now := a.now()
	h := headers.Parse(rawHeaders)

	chain := headers.BuildChain(h.Values(headers.Received), now)
	a.logger.Debug("Built receiving chain", zap.Int("hops", len(chain)))

	result := esp.Detect(h)

	messageID := valueOr(h, headers.MessageID, "")
	if messageID == "" {
		messageID = fmt.Sprintf("generated-%d-%s", now.UnixMilli(), a.newID())
	}

	date := now
	if raw, ok := h.Get(headers.Date); ok {
		if t, err := headers.ParseDate(raw); err == nil {
			date = t
		}
	}

	return &core.EmailAnalysisRecord{
		MessageID:       messageID,
		Subject:         valueOr(h, headers.Subject, noSubject),
		From:            valueOr(h, headers.From, unknownSender),
		To:              valueOr(h, headers.To, unknownRecipient),
		Date:            date,
		RelevantHeaders: headers.RelevantHeaders(h),
		ReceivingChain:  chain.Servers(),
		Hops:            chain,
		ESPType:         result.ESPType,
		ESPConfidence:   result.Confidence,
		ESPIndicators:   result.Indicators,
		BodyExcerpt:     a.textProcessor.Excerpt(body, BodyExcerptLength),
	}
}

// valueOr returns the first value of a field, or fallback when it is missing or empty
func valueOr(h core.HeaderMap, key, fallback string) string {
	if v, ok := h.Get(key); ok && v != "" {
		return v
	}
	return fallback
}
