package esp

import (
	"fmt"

	"github.com/mikey/esp-analyzer/internal/core"
)

const genericConfidence = 0.80

// platform is a bulk-mail provider recognised by signature substrings
type platform struct {
	name     string
	patterns []string
}

// platforms is searched in order; the first hit wins
var platforms = []platform{
	{name: "Mailchimp", patterns: []string{"mailchimp", "mcsv.net"}},
	{name: "Constant Contact", patterns: []string{"constantcontact", "ctctcdn.com"}},
	{name: "Campaign Monitor", patterns: []string{"campaignmonitor", "createsend.com"}},
	{name: "AWeber", patterns: []string{"aweber.com"}},
	{name: "GetResponse", patterns: []string{"getresponse.com"}},
	{name: "ConvertKit", patterns: []string{"convertkit.com"}},
	{name: "ActiveCampaign", patterns: []string{"activecampaign.com"}},
	{name: "Mandrill", patterns: []string{"mandrillapp.com"}},
	{name: "Postmark", patterns: []string{"postmarkapp.com"}},
	{name: "SparkPost", patterns: []string{"sparkpost.com"}},
}

// detectGeneric looks for platform signatures in the Message-ID, Return-Path
// and Received values.
func detectGeneric(s signals) (core.ESPDetectionResult, bool) {
	for _, p := range platforms {
		if containsAny(s.messageID, p.patterns) ||
			containsAny(s.returnPath, p.patterns) ||
			s.receivedContains(p.patterns...) {
			return core.ESPDetectionResult{
				ESPType:    p.name,
				Confidence: genericConfidence,
				Indicators: []string{fmt.Sprintf("%s infrastructure detected", p.name)},
			}, true
		}
	}
	return core.ESPDetectionResult{}, false
}
