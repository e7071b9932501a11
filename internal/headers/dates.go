package headers

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// Layouts seen in Received and Date headers that net/mail rejects.
var dateLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	"Mon 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05",
	"2 Jan 2006 15:04:05",
	"Mon Jan 2 15:04:05 2006",
	"Mon Jan 2 15:04:05 MST 2006",
	"Mon Jan 2 15:04:05 -0700 2006",
	time.RFC3339,
}

// obsoleteZones are the RFC 822 zone names. time.Parse gives an unknown
// abbreviation a zero offset, so they are rewritten as numeric offsets first.
var obsoleteZones = map[string]string{
	"UT":  "+0000",
	"GMT": "+0000",
	"EST": "-0500",
	"EDT": "-0400",
	"CST": "-0600",
	"CDT": "-0500",
	"MST": "-0700",
	"MDT": "-0600",
	"PST": "-0800",
	"PDT": "-0700",
}

var (
	zoneCommentRE = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	spaceRunRE    = regexp.MustCompile(`\s+`)
	// zone name at the end, or before a ctime year, optionally followed by a comment
	obsoleteZoneRE = regexp.MustCompile(`\s(UT|GMT|[ECMP][SD]T)(\s+\d{4})?(\s*\([^)]*\))?$`)
)

var errUnparsableDate = errors.New("unparsable date")

// ParseDate parses a header date. It accepts RFC 5322 dates and the looser
// forms relays emit, ignoring a trailing "(UTC)" style comment.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errUnparsableDate
	}
	s = numericZone(s)
	if t, err := mail.ParseDate(s); err == nil {
		return t, nil
	}

	s = zoneCommentRE.ReplaceAllString(s, "")
	s = spaceRunRE.ReplaceAllString(s, " ")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errUnparsableDate
}

// numericZone replaces a trailing RFC 822 zone name with its offset
func numericZone(s string) string {
	m := obsoleteZoneRE.FindStringSubmatchIndex(s)
	if m == nil {
		return s
	}
	return s[:m[2]] + obsoleteZones[s[m[2]:m[3]]] + s[m[3]:]
}
