package headers

import (
	"strings"

	"github.com/mikey/esp-analyzer/internal/core"
)

// Field names used across the analyzer
const (
	Received              = "received"
	MessageID             = "message-id"
	From                  = "from"
	To                    = "to"
	Subject               = "subject"
	Date                  = "date"
	ReturnPath            = "return-path"
	ReplyTo               = "reply-to"
	XOriginatingIP        = "x-originating-ip"
	XMailer               = "x-mailer"
	XSender               = "x-sender"
	AuthenticationResults = "authentication-results"
	ReceivedSPF           = "received-spf"
	DKIMSignature         = "dkim-signature"
	ListUnsubscribe       = "list-unsubscribe"
	ContentType           = "content-type"
)

// relevantFields is the allow-list of fields kept with an analysis record
var relevantFields = []string{
	Received,
	MessageID,
	From,
	To,
	Subject,
	Date,
	ReturnPath,
	ReplyTo,
	XOriginatingIP,
	XMailer,
	XSender,
	AuthenticationResults,
	ReceivedSPF,
	DKIMSignature,
	ListUnsubscribe,
}

// RelevantHeaders copies the allow-listed fields present in h
func RelevantHeaders(h core.HeaderMap) core.HeaderMap {
	out := make(core.HeaderMap)
	for _, field := range relevantFields {
		if values, ok := h[field]; ok {
			out[field] = append([]string(nil), values...)
		}
	}
	return out
}

// SplitMessage separates a raw message into its header block and body at the
// first blank line. A message without a blank line is all header.
func SplitMessage(raw string) (header, body string) {
	crlf := strings.Index(raw, "\r\n\r\n")
	lf := strings.Index(raw, "\n\n")

	switch {
	case crlf >= 0 && (lf < 0 || crlf < lf):
		return raw[:crlf], raw[crlf+4:]
	case lf >= 0:
		return raw[:lf], raw[lf+2:]
	default:
		return raw, ""
	}
}
