package analyzer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/esp-analyzer/internal/core"
	"github.com/mikey/esp-analyzer/internal/utils"
)

var fixedNow = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

func newTestAnalyzer() *Analyzer {
	logger := zap.NewNop()
	a := NewAnalyzer(logger, utils.NewTextProcessor(logger))
	a.now = func() time.Time { return fixedNow }
	a.newID = func() string { return "fixed-id" }
	return a
}

const gmailHeaders = "Received: from mx.target.com by inbox.target.com with LMTP; Mon, 01 Jan 2024 00:00:05 +0000\n" +
	"Received: from mail-sor-f41.google.com ([209.85.220.41]) by mx.target.com with ESMTPS; Mon, 01 Jan 2024 00:00:01 +0000\n" +
	"Message-ID: <CAF=abc@mail.gmail.com>\n" +
	"From: Alice <alice@gmail.com>\n" +
	"To: bob@target.com\n" +
	"Subject: Hello\n" +
	" there\n" +
	"Date: Mon, 01 Jan 2024 00:00:00 +0000\n" +
	"X-Custom: ignored\n"

func TestAnalyze(t *testing.T) {
	a := newTestAnalyzer()

	record := a.Analyze(gmailHeaders, "Hi Bob")

	assert.Equal(t, "<CAF=abc@mail.gmail.com>", record.MessageID)
	assert.Equal(t, "Hello there", record.Subject)
	assert.Equal(t, "Alice <alice@gmail.com>", record.From)
	assert.Equal(t, "bob@target.com", record.To)
	assert.True(t, record.Date.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, []string{"mail-sor-f41.google.com", "mx.target.com"}, record.ReceivingChain)
	require.Len(t, record.Hops, 2)
	assert.Equal(t, "209.85.220.41", record.Hops[0].IP)
	assert.Equal(t, 4*time.Second, core.ReceivingChain(record.Hops).TransitTime())

	assert.Equal(t, "Gmail", record.ESPType)
	assert.Equal(t, 0.95, record.ESPConfidence)
	assert.Equal(t, []string{"Google SMTP servers", "Gmail message-ID pattern"}, record.ESPIndicators)

	assert.Equal(t, "Hi Bob", record.BodyExcerpt)
	assert.Contains(t, record.RelevantHeaders, "received")
	assert.NotContains(t, record.RelevantHeaders, "x-custom")

	// Storage fields are assigned by the service
	assert.Empty(t, record.ID)
	assert.Empty(t, record.ProcessingStatus)
}

func TestAnalyzePlaceholders(t *testing.T) {
	a := newTestAnalyzer()

	record := a.Analyze("X-Nothing: here", "")

	assert.Equal(t, "No Subject", record.Subject)
	assert.Equal(t, "Unknown Sender", record.From)
	assert.Equal(t, "Unknown Recipient", record.To)
	assert.Equal(t, fixedNow, record.Date)
	assert.Equal(t, "generated-"+"1741064767000"+"-fixed-id", record.MessageID)
	assert.Empty(t, record.ReceivingChain)
	assert.Equal(t, "Unknown", record.ESPType)
	assert.Equal(t, 0.10, record.ESPConfidence)
	assert.Len(t, record.ESPIndicators, 1)
}

func TestAnalyzeEmptyValuesUsePlaceholders(t *testing.T) {
	a := newTestAnalyzer()

	record := a.Analyze("Subject:\nFrom:\nTo:\nDate: whenever", "")

	assert.Equal(t, "No Subject", record.Subject)
	assert.Equal(t, "Unknown Sender", record.From)
	assert.Equal(t, "Unknown Recipient", record.To)
	assert.Equal(t, fixedNow, record.Date)
}

func TestAnalyzeBodyExcerpt(t *testing.T) {
	a := newTestAnalyzer()

	record := a.Analyze("Subject: long", strings.Repeat("a", 5000))
	assert.Len(t, record.BodyExcerpt, BodyExcerptLength)

	// The cut counts characters, not bytes
	record = a.Analyze("Subject: wide", strings.Repeat("é", 1500))
	assert.Equal(t, strings.Repeat("é", BodyExcerptLength), record.BodyExcerpt)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	a := newTestAnalyzer()

	first := a.Analyze(gmailHeaders, "body")
	second := a.Analyze(gmailHeaders, "body")
	assert.Equal(t, first, second)
}

func TestAnalyzeUnparsableReceivedDate(t *testing.T) {
	a := newTestAnalyzer()

	record := a.Analyze("Received: from a.example.com by b.example.com; yesterday-ish", "")

	require.Len(t, record.Hops, 1)
	assert.Equal(t, fixedNow, record.Hops[0].Timestamp)
}
