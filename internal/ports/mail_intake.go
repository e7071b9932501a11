package ports

import (
	"context"

	"github.com/mikey/esp-analyzer/internal/core"
)

// MailIntake defines the interface for transports that feed messages to the analyzer
type MailIntake interface {
	// ProcessMessage splits a raw message, analyzes it and stores the result
	ProcessMessage(ctx context.Context, raw []byte) (*core.EmailAnalysisRecord, error)

	// Start starts the intake
	Start() error

	// Stop stops the intake
	Stop() error

	// Status reports whether the transport is connected and which address it serves
	Status() core.IntakeStatus
}
