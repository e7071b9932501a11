package config

import (
	"fmt"
	"time"
)

// IntakeConfig selects how messages reach the analyzer
type IntakeConfig struct {
	Type string
}

// IMAPConfig represents the configuration for the IMAP poller
type IMAPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	TLS           bool
	Mailbox       string
	PollInterval  time.Duration
	SubjectPrefix string
	Backfill      int
}

// SMTPConfig represents the configuration for the SMTP listener
type SMTPConfig struct {
	ListenAddress   string
	Domain          string
	MaxMessageBytes int64
	AcceptDomains   []string
	AddReceived     bool
}

// HTTPConfig represents the configuration for the query API
type HTTPConfig struct {
	ListenAddress string
	CORSOrigin    string
	ListLimit     int
}

// StoreConfig represents the configuration for record storage
type StoreConfig struct {
	Type             string
	Retention        time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// AnalysisConfig holds settings reported to clients sending test mail
type AnalysisConfig struct {
	TestAddress string
}

// GetIntake returns the intake configuration
func (c *Config) GetIntake() IntakeConfig {
	return IntakeConfig{
		Type: c.GetString("intake.type"),
	}
}

// GetIMAP returns the IMAP configuration
func (c *Config) GetIMAP() (IMAPConfig, error) {
	interval, err := c.GetDuration("imap.poll_interval")
	if err != nil {
		return IMAPConfig{}, err
	}

	return IMAPConfig{
		Host:          c.GetString("imap.host"),
		Port:          c.GetInt("imap.port"),
		Username:      c.GetString("imap.username"),
		Password:      c.GetString("imap.password"),
		TLS:           c.GetBool("imap.tls"),
		Mailbox:       c.GetString("imap.mailbox"),
		PollInterval:  interval,
		SubjectPrefix: c.GetString("imap.subject_prefix"),
		Backfill:      c.GetInt("imap.backfill"),
	}, nil
}

// GetSMTP returns the SMTP configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		ListenAddress:   c.GetString("smtp.listen_address"),
		Domain:          c.GetString("smtp.domain"),
		MaxMessageBytes: c.GetInt64("smtp.max_message_bytes"),
		AcceptDomains:   c.GetStringSlice("smtp.accept_domains"),
		AddReceived:     c.GetBool("smtp.add_received"),
	}
}

// GetHTTP returns the HTTP API configuration
func (c *Config) GetHTTP() HTTPConfig {
	return HTTPConfig{
		ListenAddress: c.GetString("http.listen_address"),
		CORSOrigin:    c.GetString("http.cors_origin"),
		ListLimit:     c.GetInt("http.list_limit"),
	}
}

// GetStore returns the store configuration
func (c *Config) GetStore() (StoreConfig, error) {
	retention, err := c.GetDuration("store.retention")
	if err != nil {
		return StoreConfig{}, err
	}
	cleanupFreq, err := c.GetDuration("store.cleanup_frequency")
	if err != nil {
		return StoreConfig{}, err
	}

	return StoreConfig{
		Type:             c.GetString("store.type"),
		Retention:        retention,
		CleanupFrequency: cleanupFreq,
		SQLitePath:       c.GetString("store.sqlite_path"),
		MySQLDSN:         c.GetString("store.mysql_dsn"),
	}, nil
}

// GetAnalysis returns the analysis configuration. The test address defaults
// to the IMAP username, which is the mailbox test messages are sent to.
func (c *Config) GetAnalysis() AnalysisConfig {
	address := c.GetString("analysis.test_address")
	if address == "" {
		address = c.GetString("imap.username")
	}
	return AnalysisConfig{TestAddress: address}
}

// Validate checks the values the daemon cannot start without
func (c *Config) Validate() error {
	switch t := c.GetIntake().Type; t {
	case "imap", "smtp":
	default:
		return fmt.Errorf("unsupported intake type: %s", t)
	}

	store, err := c.GetStore()
	if err != nil {
		return err
	}
	switch store.Type {
	case "memory", "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported store type: %s", store.Type)
	}

	if _, err := c.GetIMAP(); err != nil {
		return err
	}
	return nil
}
