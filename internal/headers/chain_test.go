package headers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildChainSingleHop(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	chain := BuildChain([]string{
		"from mail.example.com by mx.target.com with ESMTP; Mon, 01 Jan 2024 00:00:00 +0000",
	}, now)

	require.Len(t, chain, 1)

	hop := chain[0]
	assert.Equal(t, "mail.example.com", hop.Server)
	assert.Equal(t, "mx.target.com", hop.By)
	assert.Equal(t, "ESMTP", hop.With)
	assert.Empty(t, hop.IP)
	assert.True(t, hop.Timestamp.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestBuildChainOrdersEarliestFirst(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Header order is newest first
	chain := BuildChain([]string{
		"from relay.b.net by mx.c.org; Mon, 01 Jan 2024 00:00:10 +0000",
		"from origin.a.com by relay.b.net; Mon, 01 Jan 2024 00:00:00 +0000",
	}, now)

	assert.Equal(t, []string{"origin.a.com", "relay.b.net"}, chain.Servers())
	assert.Equal(t, 10*time.Second, chain.TransitTime())
}

func TestBuildChainFallbacks(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		line       string
		wantServer string
		wantIP     string
		wantTime   time.Time
	}{
		{
			name:       "by when from is missing",
			line:       "by mx.target.com; Mon, 01 Jan 2024 00:00:00 +0000",
			wantServer: "mx.target.com",
			wantTime:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "positional name when from and by are missing",
			line:       "garbage without keywords",
			wantServer: "server-1",
			wantTime:   now,
		},
		{
			name:       "unparsable date defaults to now",
			line:       "from a.example.com; not a date",
			wantServer: "a.example.com",
			wantTime:   now,
		},
		{
			name:       "no semicolon defaults to now",
			line:       "from a.example.com by b.example.com",
			wantServer: "a.example.com",
			wantTime:   now,
		},
		{
			name:       "bracketed ip",
			line:       "from a.example.com ([192.0.2.1]) by b; Tue, 2 Jan 2024 10:00:00 +0100",
			wantServer: "a.example.com",
			wantIP:     "192.0.2.1",
			wantTime:   time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			name:       "keywords are case-insensitive",
			line:       "FROM A.EXAMPLE.COM BY B; Mon, 01 Jan 2024 00:00:00 +0000",
			wantServer: "A.EXAMPLE.COM",
			wantTime:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "date after last semicolon",
			line:       "from a (id x; y) by b; Mon, 01 Jan 2024 00:00:00 +0000 (UTC)",
			wantServer: "a",
			wantTime:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := BuildChain([]string{tt.line}, now)
			require.Len(t, chain, 1)
			assert.Equal(t, tt.wantServer, chain[0].Server)
			assert.Equal(t, tt.wantIP, chain[0].IP)
			assert.True(t, chain[0].Timestamp.Equal(tt.wantTime), "got %v", chain[0].Timestamp)
		})
	}
}

func TestBuildChainPositionalNames(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	chain := BuildChain([]string{"???", "from real.host", "!!!"}, now)

	// Positions are counted in header order before the chain is reversed
	assert.Equal(t, []string{"server-3", "real.host", "server-1"}, chain.Servers())
}

func TestBuildChainEmpty(t *testing.T) {
	chain := BuildChain(nil, time.Now())
	assert.Empty(t, chain)
	assert.Equal(t, time.Duration(0), chain.TransitTime())
}

func TestBuildChainKeepsBlankValues(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	chain := BuildChain([]string{
		"from b.example.com; Mon, 01 Jan 2024 00:00:10 +0000",
		"   ",
		"from a.example.com; Mon, 01 Jan 2024 00:00:00 +0000",
	}, now)

	require.Len(t, chain, 3)
	assert.Equal(t, []string{"a.example.com", "server-2", "b.example.com"}, chain.Servers())
	assert.True(t, chain[1].Timestamp.Equal(now))
	assert.Empty(t, chain[1].By)
}

func TestBuildChainTokensStopAtSemicolon(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	chain := BuildChain([]string{
		"from relay.example.net;by mx.example.org;with LMTP;Mon, 01 Jan 2024 00:00:00 +0000",
	}, now)

	require.Len(t, chain, 1)
	assert.Equal(t, "relay.example.net", chain[0].Server)
	assert.Equal(t, "mx.example.org", chain[0].By)
	assert.Equal(t, "LMTP", chain[0].With)
	assert.True(t, chain[0].Timestamp.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestBuildChainFromParsedBlankReceived(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	h := Parse("Received: from b.example.com; Mon, 01 Jan 2024 00:00:10 +0000\r\n" +
		"Received:\r\n" +
		"Received: from a.example.com; Mon, 01 Jan 2024 00:00:00 +0000\r\n")

	require.Len(t, h.Values(Received), 3)

	chain := BuildChain(h.Values(Received), now)
	assert.Equal(t, []string{"a.example.com", "server-2", "b.example.com"}, chain.Servers())
}
