package factory

import (
	"fmt"
	"io"

	"github.com/mikey/esp-analyzer/internal/adapters/intake"
	"github.com/mikey/esp-analyzer/internal/config"
	"github.com/mikey/esp-analyzer/internal/core"
	"github.com/mikey/esp-analyzer/internal/ports"
	"github.com/mikey/esp-analyzer/internal/utils"
	"github.com/mikey/esp-analyzer/internal/whitelist"
	"go.uber.org/zap"
)

// IntakeFactory creates mail intakes based on configuration
type IntakeFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	service       *core.AnalysisService
	textProcessor *utils.TextProcessor
}

// NewIntakeFactory creates a new intake factory
func NewIntakeFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.AnalysisService,
	textProcessor *utils.TextProcessor,
) *IntakeFactory {
	return &IntakeFactory{
		cfg:           cfg,
		logger:        logger,
		service:       service,
		textProcessor: textProcessor,
	}
}

// CreateMailIntake creates the intake selected by intake.type
func (f *IntakeFactory) CreateMailIntake() (ports.MailIntake, error) {
	intakeType := f.cfg.GetIntake().Type

	switch intakeType {
	case "imap":
		imapCfg, err := f.cfg.GetIMAP()
		if err != nil {
			return nil, fmt.Errorf("invalid IMAP configuration: %w", err)
		}
		return intake.NewIMAPIntake(
			f.service,
			f.textProcessor,
			f.logger,
			imapCfg.Host,
			imapCfg.Port,
			imapCfg.Username,
			imapCfg.Password,
			imapCfg.TLS,
			imapCfg.Mailbox,
			imapCfg.SubjectPrefix,
			imapCfg.PollInterval,
			imapCfg.Backfill,
		), nil
	case "smtp":
		smtpCfg := f.cfg.GetSMTP()
		return intake.NewSMTPIntake(
			f.service,
			f.textProcessor,
			f.logger,
			whitelist.NewChecker(smtpCfg.AcceptDomains, f.logger),
			smtpCfg.ListenAddress,
			smtpCfg.Domain,
			f.cfg.GetAnalysis().TestAddress,
			smtpCfg.MaxMessageBytes,
			smtpCfg.AddReceived,
		), nil
	default:
		return nil, fmt.Errorf("unsupported intake type: %s", intakeType)
	}
}

// CreateCliIntake creates an intake that prints each analysis to out
func (f *IntakeFactory) CreateCliIntake(out io.Writer) *intake.CliIntake {
	return intake.NewCliIntake(
		f.service,
		f.textProcessor,
		f.logger,
		out,
		f.cfg.GetBool("cli.verbose"),
		f.cfg.GetBool("cli.json"),
	)
}
