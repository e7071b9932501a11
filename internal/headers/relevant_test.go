package headers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikey/esp-analyzer/internal/core"
)

func TestRelevantHeaders(t *testing.T) {
	h := core.HeaderMap{
		"received":       {"from a", "from b"},
		"from":           {"a@x.com"},
		"dkim-signature": {"v=1"},
		"content-type":   {"text/plain"},
		"x-custom":       {"dropped"},
	}

	got := RelevantHeaders(h)

	assert.Equal(t, core.HeaderMap{
		"received":       {"from a", "from b"},
		"from":           {"a@x.com"},
		"dkim-signature": {"v=1"},
	}, got)

	// The result does not share storage with the input
	got["received"][0] = "changed"
	assert.Equal(t, "from a", h["received"][0])
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantHeader string
		wantBody   string
	}{
		{"lf", "Subject: x\n\nbody\n", "Subject: x", "body\n"},
		{"crlf", "Subject: x\r\n\r\nbody", "Subject: x", "body"},
		{"earliest separator wins", "A: 1\n\nB\r\n\r\nC", "A: 1", "B\r\n\r\nC"},
		{"no body", "Subject: x\nFrom: y", "Subject: x\nFrom: y", ""},
		{"blank lines inside body", "S: 1\n\nline1\n\nline2", "S: 1", "line1\n\nline2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, body := SplitMessage(tt.raw)
			assert.Equal(t, tt.wantHeader, header)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
