package whitelist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker decides which recipient domains the SMTP intake accepts mail for
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new whitelist checker. An empty list accepts every domain.
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	// Normalize domains (lowercase)
	normalizedDomains := make([]string, 0, len(domains))
	for _, domain := range domains {
		if d := strings.ToLower(strings.TrimSpace(domain)); d != "" {
			normalizedDomains = append(normalizedDomains, d)
		}
	}

	if len(normalizedDomains) > 0 && logger != nil {
		logger.Info("Initialized recipient whitelist", zap.Strings("domains", normalizedDomains))
	}

	return &Checker{
		domains: normalizedDomains,
		logger:  logger,
	}
}

// IsAllowed checks if the address's domain is accepted
func (c *Checker) IsAllowed(address string) bool {
	if len(c.domains) == 0 {
		return true
	}

	domain := Domain(address)
	if domain == "" {
		return false
	}

	for _, whitelisted := range c.domains {
		if whitelisted == domain {
			if c.logger != nil {
				c.logger.Debug("Domain is whitelisted",
					zap.String("domain", domain),
					zap.String("email", address))
			}
			return true
		}
	}

	return false
}

// Domain returns the lowercased domain of an address such as
// "user@example.com" or "Name <user@example.com>", or "" if there is none.
func Domain(address string) string {
	if start := strings.LastIndex(address, "<"); start >= 0 {
		if end := strings.LastIndex(address, ">"); end > start {
			address = address[start+1 : end]
		}
	}

	parts := strings.Split(address, "@")
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(parts[1]))
}
