package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/esp-analyzer/internal/core"
)

var baseTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newRecord(id, messageID string, createdAt time.Time) *core.EmailAnalysisRecord {
	return &core.EmailAnalysisRecord{
		ID:        id,
		MessageID: messageID,
		Subject:   "Subject " + id,
		From:      "sender@example.com",
		To:        "rcpt@example.com",
		Date:      baseTime.Add(-time.Hour),
		RelevantHeaders: core.HeaderMap{
			"received": {"from a by b", "from c by d"},
			"subject":  {"Subject " + id},
		},
		ReceivingChain: []string{"c", "a"},
		Hops: []core.ReceivingHop{
			{Server: "c", Timestamp: baseTime.Add(-2 * time.Hour), By: "d"},
			{Server: "a", Timestamp: baseTime.Add(-time.Hour), IP: "192.0.2.7", By: "b", With: "ESMTP"},
		},
		ESPType:          "Gmail",
		ESPConfidence:    0.95,
		ESPIndicators:    []string{"Google SMTP servers", "Gmail message-ID pattern"},
		BodyExcerpt:      "hello ✓",
		ProcessingStatus: core.StatusCompleted,
		CreatedAt:        createdAt,
	}
}

// testRepository runs the behaviour every AnalysisRepository shares
func testRepository(t *testing.T, repo core.AnalysisRepository) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		_, err := repo.Latest(ctx)
		assert.ErrorIs(t, err, core.ErrNotFound)

		_, err = repo.Get(ctx, "missing")
		assert.ErrorIs(t, err, core.ErrNotFound)

		records, err := repo.List(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("save and get", func(t *testing.T) {
		want := newRecord("id-1", "<m1@example.com>", baseTime)
		require.NoError(t, repo.Save(ctx, want))

		exists, err := repo.Exists(ctx, "<m1@example.com>")
		require.NoError(t, err)
		assert.True(t, exists)

		got, err := repo.Get(ctx, "id-1")
		require.NoError(t, err)
		assert.Equal(t, want.MessageID, got.MessageID)
		assert.Equal(t, want.Subject, got.Subject)
		assert.Equal(t, want.RelevantHeaders, got.RelevantHeaders)
		assert.Equal(t, want.ReceivingChain, got.ReceivingChain)
		assert.Equal(t, want.ESPIndicators, got.ESPIndicators)
		assert.Equal(t, want.BodyExcerpt, got.BodyExcerpt)
		assert.Equal(t, want.ESPConfidence, got.ESPConfidence)
		assert.True(t, want.Date.Equal(got.Date))
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
		require.Len(t, got.Hops, 2)
		assert.Equal(t, "192.0.2.7", got.Hops[1].IP)
		assert.True(t, want.Hops[0].Timestamp.Equal(got.Hops[0].Timestamp))
	})

	t.Run("duplicate message id", func(t *testing.T) {
		err := repo.Save(ctx, newRecord("id-dup", "<m1@example.com>", baseTime))
		assert.ErrorIs(t, err, core.ErrDuplicate)

		_, err = repo.Get(ctx, "id-dup")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("newest first", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, newRecord("id-2", "<m2@example.com>", baseTime.Add(time.Minute))))
		require.NoError(t, repo.Save(ctx, newRecord("id-3", "<m3@example.com>", baseTime.Add(2*time.Minute))))

		latest, err := repo.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "id-3", latest.ID)

		records, err := repo.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "id-3", records[0].ID)
		assert.Equal(t, "id-2", records[1].ID)
	})

	t.Run("cleanup", func(t *testing.T) {
		require.NoError(t, repo.Cleanup(ctx, baseTime.Add(90*time.Second)))

		records, err := repo.List(ctx, 10)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "id-3", records[0].ID)

		// A removed Message-ID can be stored again
		exists, err := repo.Exists(ctx, "<m1@example.com>")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

// testOversizedValues checks that a SQL store keeps records whose Message-ID or
// Date fall outside what a plain column would hold
func testOversizedValues(t *testing.T, repo core.AnalysisRepository) {
	ctx := context.Background()

	longID := "<" + strings.Repeat("x", 4000) + "@example.com>"
	record := newRecord("id-oversized", longID, baseTime)
	record.Date = time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, record))

	exists, err := repo.Exists(ctx, longID)
	require.NoError(t, err)
	assert.True(t, exists)

	err = repo.Save(ctx, newRecord("id-oversized-2", longID, baseTime))
	assert.ErrorIs(t, err, core.ErrDuplicate)

	got, err := repo.Get(ctx, "id-oversized")
	require.NoError(t, err)
	assert.Equal(t, longID, got.MessageID)
	assert.Equal(t, 9999, got.Date.Year())
}
