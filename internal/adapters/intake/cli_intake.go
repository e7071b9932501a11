package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mikey/esp-analyzer/internal/core"
	"github.com/mikey/esp-analyzer/internal/utils"
	"go.uber.org/zap"
)

// CliIntake analyzes a single message and prints the result
type CliIntake struct {
	service       *core.AnalysisService
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	out           io.Writer
	verbose       bool
	jsonOutput    bool
}

// NewCliIntake creates a new CLI intake
func NewCliIntake(
	service *core.AnalysisService,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	out io.Writer,
	verbose bool,
	jsonOutput bool,
) *CliIntake {
	return &CliIntake{
		service:       service,
		textProcessor: textProcessor,
		logger:        logger,
		out:           out,
		verbose:       verbose,
		jsonOutput:    jsonOutput,
	}
}

// ProcessMessage analyzes a raw message and prints the results
func (c *CliIntake) ProcessMessage(ctx context.Context, raw []byte) (*core.EmailAnalysisRecord, error) {
	c.logger.Debug("Processing message", zap.Int("size", len(raw)))

	startTime := time.Now()
	record, _, err := processRaw(ctx, c.service, c.textProcessor, raw)
	if err != nil {
		c.logger.Error("Failed to analyze message", zap.Error(err))
		return nil, err
	}
	duration := time.Since(startTime)

	if c.jsonOutput {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return record, enc.Encode(record)
	}

	fmt.Fprintf(c.out, "\n=== Email Summary ===\n")
	fmt.Fprintf(c.out, "Message-ID: %s\n", record.MessageID)
	fmt.Fprintf(c.out, "From: %s\n", record.From)
	fmt.Fprintf(c.out, "To: %s\n", record.To)
	fmt.Fprintf(c.out, "Subject: %s\n", record.Subject)
	fmt.Fprintf(c.out, "Date: %s\n", record.Date.Format(time.RFC1123Z))

	fmt.Fprintf(c.out, "\n=== Receiving Chain ===\n")
	if len(record.Hops) == 0 {
		fmt.Fprintf(c.out, "(no Received headers)\n")
	}
	for i, hop := range record.Hops {
		fmt.Fprintf(c.out, "%d. %s", i+1, hop.Server)
		if hop.IP != "" {
			fmt.Fprintf(c.out, " [%s]", hop.IP)
		}
		if hop.By != "" {
			fmt.Fprintf(c.out, " -> %s", hop.By)
		}
		if hop.With != "" {
			fmt.Fprintf(c.out, " with %s", hop.With)
		}
		fmt.Fprintf(c.out, " at %s\n", hop.Timestamp.Format(time.RFC3339))
	}
	if transit := core.ReceivingChain(record.Hops).TransitTime(); transit > 0 {
		fmt.Fprintf(c.out, "Transit time: %v\n", transit)
	}

	fmt.Fprintf(c.out, "\n=== ESP ===\n")
	fmt.Fprintf(c.out, "Provider: %s\n", record.ESPType)
	fmt.Fprintf(c.out, "Confidence: %.2f\n", record.ESPConfidence)
	fmt.Fprintf(c.out, "Indicators: %s\n", strings.Join(record.ESPIndicators, "; "))

	if c.verbose {
		fmt.Fprintf(c.out, "\nBody excerpt:\n%s\n", record.BodyExcerpt)
	}
	fmt.Fprintf(c.out, "Processing time: %v\n", duration)

	return record, nil
}

// Start is a no-op for the CLI intake
func (c *CliIntake) Start() error {
	return nil
}

// Stop is a no-op for the CLI intake
func (c *CliIntake) Stop() error {
	return nil
}

// Status reports the CLI intake as always connected
func (c *CliIntake) Status() core.IntakeStatus {
	return core.IntakeStatus{Connected: true}
}
