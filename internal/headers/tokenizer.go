// Package headers turns raw header text into structured data: the header map,
// the receiving chain and the allow-listed header subset kept with each record.
package headers

import (
	"strings"

	"github.com/mikey/esp-analyzer/internal/core"
)

// Parse tokenizes a raw header block into a HeaderMap.
//
// Lines starting with a space or tab continue the field in progress. A line
// containing a colon starts a new field. Any other line is ignored and does not
// end the field in progress. Field names are lowercased; values keep their case.
// Repeated fields keep every value in the order they appear.
func Parse(raw string) core.HeaderMap {
	h := make(core.HeaderMap)

	var name, value string
	inField := false

	flush := func() {
		if !inField || name == "" {
			return
		}
		key := strings.ToLower(name)
		h[key] = append(h[key], value)
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			if inField {
				value += " " + strings.TrimSpace(line)
			}
			continue
		}

		i := strings.Index(line, ":")
		if i < 0 {
			continue
		}

		flush()
		name = strings.TrimSpace(line[:i])
		value = strings.TrimSpace(line[i+1:])
		inField = true
	}
	flush()

	return h
}
