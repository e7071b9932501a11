package esp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikey/esp-analyzer/internal/core"
)

func TestDetectCascade(t *testing.T) {
	tests := []struct {
		name       string
		headers    core.HeaderMap
		wantType   string
		wantConf   float64
		indicators []string
	}{
		{
			name:       "gmail by message-id",
			headers:    core.HeaderMap{"message-id": {"<abc@mail.gmail.com>"}},
			wantType:   "Gmail",
			wantConf:   0.95,
			indicators: []string{"Google SMTP servers", "Gmail message-ID pattern"},
		},
		{
			name:     "gmail by received",
			headers:  core.HeaderMap{"received": {"from mail-sor-f41.google.com by mx.example.com"}},
			wantType: "Gmail",
			wantConf: 0.95,
		},
		{
			name:     "outlook by received",
			headers:  core.HeaderMap{"received": {"from EUR01-VE1-obe.outbound.protection.outlook.com"}},
			wantType: "Outlook/Hotmail",
			wantConf: 0.90,
		},
		{
			name:     "outlook by message-id",
			headers:  core.HeaderMap{"message-id": {"<x@DB7PR01.eurprd01.prod.live.com>"}},
			wantType: "Outlook/Hotmail",
			wantConf: 0.90,
		},
		{
			name:       "amazon ses",
			headers:    core.HeaderMap{"received": {"from a8-1.smtp-out.amazonses.com"}},
			wantType:   "Amazon SES",
			wantConf:   0.95,
			indicators: []string{"Amazon SES servers", "SES-specific headers"},
		},
		{
			name:     "sendgrid by header presence",
			headers:  core.HeaderMap{"x-sg-eid": {""}},
			wantType: "SendGrid",
			wantConf: 0.90,
		},
		{
			name:     "mailgun by header presence",
			headers:  core.HeaderMap{"x-mailgun-sid": {"WyI"}},
			wantType: "Mailgun",
			wantConf: 0.90,
		},
		{
			name:     "yahoo",
			headers:  core.HeaderMap{"received": {"from sonic.gate.mail.ne1.yahoo.com"}},
			wantType: "Yahoo Mail",
			wantConf: 0.85,
		},
		{
			name:     "zoho",
			headers:  core.HeaderMap{"message-id": {"<1@zohomx.com>"}},
			wantType: "Zoho Mail",
			wantConf: 0.85,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.headers)
			assert.Equal(t, tt.wantType, got.ESPType)
			assert.Equal(t, tt.wantConf, got.Confidence)
			if tt.indicators != nil {
				assert.Equal(t, tt.indicators, got.Indicators)
			}
		})
	}
}

func TestDetectFirstMatchWins(t *testing.T) {
	// Both Gmail and SendGrid rules match; Gmail is earlier in the cascade
	h := core.HeaderMap{
		"message-id": {"<x@mail.gmail.com>"},
		"received":   {"from o1.sendgrid.net by mx.example.com"},
	}
	assert.Equal(t, "Gmail", Detect(h).ESPType)

	// Amazon SES precedes SendGrid
	h = core.HeaderMap{
		"received": {"from a.amazonses.com", "from b.sendgrid.net"},
	}
	assert.Equal(t, "Amazon SES", Detect(h).ESPType)
}

func TestDetectGenericPlatforms(t *testing.T) {
	tests := []struct {
		name     string
		headers  core.HeaderMap
		wantType string
	}{
		{"mailchimp by return-path", core.HeaderMap{"return-path": {"<bounce@mail123.mcsv.net>"}}, "Mailchimp"},
		{"postmark by message-id", core.HeaderMap{"message-id": {"<x@mtasv.postmarkapp.com>"}}, "Postmark"},
		{"sparkpost by received", core.HeaderMap{"received": {"from mta.sparkpost.com"}}, "SparkPost"},
		{"campaign monitor", core.HeaderMap{"return-path": {"<x@createsend.com>"}}, "Campaign Monitor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.headers)
			assert.Equal(t, tt.wantType, got.ESPType)
			assert.Equal(t, 0.80, got.Confidence)
			assert.Equal(t, []string{tt.wantType + " infrastructure detected"}, got.Indicators)
		})
	}
}

func TestDetectUnknown(t *testing.T) {
	for _, h := range []core.HeaderMap{
		{},
		{"from": {"someone@example.org"}, "received": {"from mx.example.org by mx2.example.org"}},
	} {
		got := Detect(h)
		assert.Equal(t, Unknown, got.ESPType)
		assert.Equal(t, 0.10, got.Confidence)
		assert.Equal(t, []string{"No known ESP patterns detected"}, got.Indicators)
	}
}

func TestDetectIsCaseSensitive(t *testing.T) {
	got := Detect(core.HeaderMap{"message-id": {"<x@MAIL.GMAIL.COM>"}})
	assert.Equal(t, Unknown, got.ESPType)
}

func TestDetectIndicatorsAreCopies(t *testing.T) {
	h := core.HeaderMap{"message-id": {"<x@gmail.com>"}}
	first := Detect(h)
	first.Indicators[0] = "changed"

	assert.Equal(t, "Google SMTP servers", Detect(h).Indicators[0])
}

func TestRulesOrder(t *testing.T) {
	names := make([]string, 0)
	for _, r := range Rules() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{
		"Gmail", "Outlook/Hotmail", "Amazon SES", "SendGrid", "Mailgun", "Yahoo Mail", "Zoho Mail",
	}, names)
}
