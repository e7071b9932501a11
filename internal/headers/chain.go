package headers

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mikey/esp-analyzer/internal/core"
)

var (
	fromRE = regexp.MustCompile(`(?i)from\s+([^\s;]+)`)
	byRE   = regexp.MustCompile(`(?i)by\s+([^\s;]+)`)
	withRE = regexp.MustCompile(`(?i)with\s+([^\s;]+)`)
	ipRE   = regexp.MustCompile(`\[(\d+\.\d+\.\d+\.\d+)\]`)
)

// BuildChain reconstructs the relay chain from Received values given in header
// order (newest first). The result is ordered earliest hop first and has one
// hop per value. Every field falls back instead of failing: a value naming no
// server becomes "server-N" and a hop without a parsable date is stamped with now.
func BuildChain(received []string, now time.Time) core.ReceivingChain {
	chain := make(core.ReceivingChain, len(received))
	for i, line := range received {
		chain[len(received)-1-i] = parseHop(line, i+1, now)
	}
	return chain
}

// parseHop extracts one hop from a Received value. n is its 1-based header position.
func parseHop(line string, n int, now time.Time) core.ReceivingHop {
	from := firstGroup(fromRE, line)
	by := firstGroup(byRE, line)

	server := from
	if server == "" {
		server = by
	}
	if server == "" {
		server = fmt.Sprintf("server-%d", n)
	}

	timestamp := now
	if i := strings.LastIndex(line, ";"); i >= 0 {
		if t, perr := ParseDate(line[i+1:]); perr == nil {
			timestamp = t
		}
	}

	return core.ReceivingHop{
		Server:    server,
		Timestamp: timestamp,
		IP:        firstGroup(ipRE, line),
		By:        by,
		With:      firstGroup(withRE, line),
	}
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
