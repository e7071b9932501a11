// Package esp classifies the Email Service Provider that sent a message.
//
// Classification walks an ordered cascade of provider rules and stops at the
// first match, so the order of the cascade decides ties. When no provider rule
// matches, a table of bulk-mail platforms is searched, and when that fails too
// the result is "Unknown". Matching is case-sensitive on the raw header text.
package esp

import (
	"strings"

	"github.com/mikey/esp-analyzer/internal/core"
)

const (
	// Unknown is the label used when nothing matches
	Unknown = "Unknown"

	unknownConfidence = 0.10
	unknownIndicator  = "No known ESP patterns detected"
)

// Rule is one named provider check in the cascade
type Rule struct {
	Name       string
	Confidence float64
	Indicators []string
	match      func(s signals) bool
}

// signals are the header values every rule looks at
type signals struct {
	headers    core.HeaderMap
	messageID  string
	returnPath string
	received   []string
}

func newSignals(h core.HeaderMap) signals {
	messageID, _ := h.Get("message-id")
	returnPath, _ := h.Get("return-path")
	return signals{
		headers:    h,
		messageID:  messageID,
		returnPath: returnPath,
		received:   h.Values("received"),
	}
}

// receivedContains reports whether any Received value contains any of the patterns
func (s signals) receivedContains(patterns ...string) bool {
	for _, r := range s.received {
		if containsAny(r, patterns) {
			return true
		}
	}
	return false
}

func (s signals) messageIDContains(patterns ...string) bool {
	return containsAny(s.messageID, patterns)
}

func (s signals) hasAny(fields ...string) bool {
	for _, f := range fields {
		if s.headers.Has(f) {
			return true
		}
	}
	return false
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

var cascade = []Rule{
	{
		Name:       "Gmail",
		Confidence: 0.95,
		Indicators: []string{"Google SMTP servers", "Gmail message-ID pattern"},
		match: func(s signals) bool {
			return s.messageIDContains("gmail.com") ||
				s.receivedContains("gmail-smtp", "google.com", "googlemail.com")
		},
	},
	{
		Name:       "Outlook/Hotmail",
		Confidence: 0.90,
		Indicators: []string{"Microsoft Exchange servers", "Outlook headers"},
		match: func(s signals) bool {
			return s.messageIDContains("outlook.com", "hotmail.com", "live.com") ||
				s.receivedContains("outlook.com", "hotmail.com", "protection.outlook.com", "mail.protection.outlook.com")
		},
	},
	{
		Name:       "Amazon SES",
		Confidence: 0.95,
		Indicators: []string{"Amazon SES servers", "SES-specific headers"},
		match: func(s signals) bool {
			return s.receivedContains("amazonses.com", "ses.amazonaws.com", "email.us-east-1.amazonaws.com") ||
				s.messageIDContains("amazonses.com")
		},
	},
	{
		Name:       "SendGrid",
		Confidence: 0.90,
		Indicators: []string{"SendGrid infrastructure", "SendGrid headers"},
		match: func(s signals) bool {
			return s.receivedContains("sendgrid") ||
				s.messageIDContains("sendgrid") ||
				s.hasAny("x-sg-eid", "x-sendgrid-message-id")
		},
	},
	{
		Name:       "Mailgun",
		Confidence: 0.90,
		Indicators: []string{"Mailgun servers", "Mailgun-specific headers"},
		match: func(s signals) bool {
			return s.receivedContains("mailgun") ||
				s.messageIDContains("mailgun") ||
				s.hasAny("x-mailgun-variables", "x-mailgun-sid")
		},
	},
	{
		Name:       "Yahoo Mail",
		Confidence: 0.85,
		Indicators: []string{"Yahoo SMTP servers", "Yahoo headers"},
		match: func(s signals) bool {
			return s.messageIDContains("yahoo.com", "yahoodns.net") ||
				s.receivedContains("yahoo.com", "yahoodns.net")
		},
	},
	{
		Name:       "Zoho Mail",
		Confidence: 0.85,
		Indicators: []string{"Zoho servers", "Zoho-specific patterns"},
		match: func(s signals) bool {
			return s.messageIDContains("zoho.com", "zohomx.com") ||
				s.receivedContains("zoho.com", "zohomx.com")
		},
	},
}

// Rules returns a copy of the provider cascade in evaluation order
func Rules() []Rule {
	out := make([]Rule, len(cascade))
	copy(out, cascade)
	return out
}

// Detect classifies the ESP of a message from its headers. It always returns
// exactly one result.
func Detect(h core.HeaderMap) core.ESPDetectionResult {
	s := newSignals(h)

	for _, rule := range cascade {
		if rule.match(s) {
			return core.ESPDetectionResult{
				ESPType:    rule.Name,
				Confidence: rule.Confidence,
				Indicators: append([]string(nil), rule.Indicators...),
			}
		}
	}

	if result, ok := detectGeneric(s); ok {
		return result
	}

	return core.ESPDetectionResult{
		ESPType:    Unknown,
		Confidence: unknownConfidence,
		Indicators: []string{unknownIndicator},
	}
}
