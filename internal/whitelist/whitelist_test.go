package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDomain(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"user@Example.COM", "example.com"},
		{"Name <user@example.com>", "example.com"},
		{"<user@example.com>", "example.com"},
		{"no-at-sign", ""},
		{"user@", ""},
		{"a@b@c", ""},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			assert.Equal(t, tt.want, Domain(tt.address))
		})
	}
}

func TestChecker(t *testing.T) {
	c := NewChecker([]string{" Example.com ", "", "test.org"}, zap.NewNop())

	assert.True(t, c.IsAllowed("a@example.com"))
	assert.True(t, c.IsAllowed("A <a@TEST.org>"))
	assert.False(t, c.IsAllowed("a@sub.example.com"))
	assert.False(t, c.IsAllowed("a@other.net"))
	assert.False(t, c.IsAllowed("broken"))
}

func TestCheckerEmptyAllowsAll(t *testing.T) {
	c := NewChecker(nil, nil)

	assert.True(t, c.IsAllowed("anyone@anywhere.net"))
	assert.True(t, c.IsAllowed("broken"))
}
