package core

import (
	"time"
)

// HeaderMap maps lowercased header field names to every value seen for that
// field, in top-to-bottom order. A field that appears once has a one-element slice.
type HeaderMap map[string][]string

// Get returns the first value of a field
func (h HeaderMap) Get(key string) (string, bool) {
	values, ok := h[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Values returns every value of a field in appearance order
func (h HeaderMap) Values(key string) []string {
	return h[key]
}

// Has reports whether a field is present, whatever its value
func (h HeaderMap) Has(key string) bool {
	_, ok := h[key]
	return ok
}

// ReceivingHop is one relay handoff recorded by a Received header
type ReceivingHop struct {
	Server    string    `json:"server"`
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip,omitempty"`
	By        string    `json:"by,omitempty"`
	With      string    `json:"with,omitempty"`
}

// ReceivingChain is the sequence of hops, earliest first
type ReceivingChain []ReceivingHop

// Servers projects the server names of the chain in the same order
func (c ReceivingChain) Servers() []string {
	servers := make([]string, len(c))
	for i, hop := range c {
		servers[i] = hop.Server
	}
	return servers
}

// TransitTime returns the time between the first and last hop. It is zero when
// the chain has fewer than two hops or the clocks of the relays disagree.
func (c ReceivingChain) TransitTime() time.Duration {
	if len(c) < 2 {
		return 0
	}
	d := c[len(c)-1].Timestamp.Sub(c[0].Timestamp)
	if d < 0 {
		return 0
	}
	return d
}

// ESPDetectionResult represents the outcome of ESP classification
type ESPDetectionResult struct {
	ESPType    string   `json:"espType"`
	Confidence float64  `json:"confidence"`
	Indicators []string `json:"indicators"`
}

// EmailAnalysisRecord is the stored result of analyzing one message
type EmailAnalysisRecord struct {
	ID               string         `json:"id"`
	MessageID        string         `json:"messageId"`
	Subject          string         `json:"subject"`
	From             string         `json:"from"`
	To               string         `json:"to"`
	Date             time.Time      `json:"date"`
	RelevantHeaders  HeaderMap      `json:"rawHeaders"`
	ReceivingChain   []string       `json:"receivingChain"`
	Hops             []ReceivingHop `json:"hops"`
	ESPType          string         `json:"espType"`
	ESPConfidence    float64        `json:"espConfidence"`
	ESPIndicators    []string       `json:"espIndicators"`
	BodyExcerpt      string         `json:"body"`
	ProcessingStatus string         `json:"processingStatus"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// TestEmailConfig tells a user where to send a message for analysis
type TestEmailConfig struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
}

// IntakeStatus reports the state of the mail transport
type IntakeStatus struct {
	Connected bool   `json:"connected"`
	Email     string `json:"email"`
}
