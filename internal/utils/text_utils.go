package utils

import (
	"mime"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"
)

// TextProcessor provides utilities for processing text
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// Excerpt returns the first maxChars characters of text. The cut is made on a
// character boundary and the bytes kept are exactly those of the input.
func (tp *TextProcessor) Excerpt(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	end := 0
	for i := 0; i < maxChars; i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", end),
		zap.Int("max_chars", maxChars))

	return text[:end]
}

// SanitizeUTF8 ensures the string contains only valid UTF-8 characters
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "")

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// DecodeBody converts a body to UTF-8 using the charset parameter of the given
// Content-Type value. Unknown or missing charsets leave the body as is, minus
// any invalid UTF-8 sequences.
func (tp *TextProcessor) DecodeBody(body []byte, contentType string) string {
	charset := ""
	if contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil {
			charset = strings.ToLower(params["charset"])
		}
	}

	if charset == "" || charset == "utf-8" || charset == "us-ascii" {
		return tp.SanitizeUTF8(string(body))
	}

	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		tp.logger.Debug("Unknown charset, keeping raw body", zap.String("charset", charset))
		return tp.SanitizeUTF8(string(body))
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		tp.logger.Debug("Failed to decode body", zap.String("charset", charset), zap.Error(err))
		return tp.SanitizeUTF8(string(body))
	}
	return string(decoded)
}
