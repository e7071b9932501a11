package intake

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/esp-analyzer/internal/core"
	"github.com/mikey/esp-analyzer/internal/utils"
	"github.com/mikey/esp-analyzer/internal/whitelist"
	"go.uber.org/zap"
)

// SMTPIntake accepts messages over SMTP and analyzes each delivery
type SMTPIntake struct {
	service         *core.AnalysisService
	textProcessor   *utils.TextProcessor
	logger          *zap.Logger
	recipients      *whitelist.Checker
	listenAddr      string
	domain          string
	address         string
	maxMessageBytes int64
	addReceived     bool
	server          *smtp.Server
	listening       atomic.Bool
	now             func() time.Time
}

// NewSMTPIntake creates a new SMTP intake
func NewSMTPIntake(
	service *core.AnalysisService,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	recipients *whitelist.Checker,
	listenAddr string,
	domain string,
	address string,
	maxMessageBytes int64,
	addReceived bool,
) *SMTPIntake {
	if domain == "" {
		domain = "localhost"
	}

	return &SMTPIntake{
		service:         service,
		textProcessor:   textProcessor,
		logger:          logger,
		recipients:      recipients,
		listenAddr:      listenAddr,
		domain:          domain,
		address:         address,
		maxMessageBytes: maxMessageBytes,
		addReceived:     addReceived,
		now:             time.Now,
	}
}

// Start starts the SMTP server
func (i *SMTPIntake) Start() error {
	i.server = smtp.NewServer(&smtpBackend{intake: i})

	i.server.Addr = i.listenAddr
	i.server.Domain = i.domain
	i.server.ReadTimeout = 30 * time.Second
	i.server.WriteTimeout = 30 * time.Second
	i.server.MaxMessageBytes = i.maxMessageBytes
	i.server.MaxRecipients = 50

	ln, err := net.Listen("tcp", i.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", i.listenAddr, err)
	}

	i.logger.Info("SMTP intake started", zap.String("address", i.listenAddr))
	i.listening.Store(true)

	go func() {
		defer i.listening.Store(false)
		if err := i.server.Serve(ln); err != nil && err != smtp.ErrServerClosed {
			i.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the SMTP server
func (i *SMTPIntake) Stop() error {
	if i.server != nil {
		i.listening.Store(false)
		return i.server.Close()
	}
	return nil
}

// Status reports whether the server is accepting connections
func (i *SMTPIntake) Status() core.IntakeStatus {
	return core.IntakeStatus{
		Connected: i.listening.Load(),
		Email:     i.address,
	}
}

// ProcessMessage analyzes a raw message received outside an SMTP session
func (i *SMTPIntake) ProcessMessage(ctx context.Context, raw []byte) (*core.EmailAnalysisRecord, error) {
	record, _, err := processRaw(ctx, i.service, i.textProcessor, raw)
	return record, err
}

// receivedLine renders the trace header this server adds for a delivery
func (i *SMTPIntake) receivedLine(helo, ip string) string {
	from := helo
	if from == "" {
		from = "unknown"
	}
	if ip != "" {
		from = fmt.Sprintf("%s ([%s])", from, ip)
	}
	return fmt.Sprintf("Received: from %s by %s with ESMTP; %s\r\n",
		from, i.domain, i.now().Format(time.RFC1123Z))
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	intake *SMTPIntake
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	var ip string
	if addr, ok := c.Conn().RemoteAddr().(*net.TCPAddr); ok {
		ip = addr.IP.String()
	}

	return &smtpSession{
		intake:     b.intake,
		helo:       c.Hostname(),
		remoteIP:   ip,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	intake     *SMTPIntake
	helo       string
	remoteIP   string
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient, rejecting domains outside the accepted list
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	if s.intake.recipients != nil && !s.intake.recipients.IsAllowed(to) {
		s.intake.logger.Info("Rejecting recipient", zap.String("recipient", to))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "Recipient domain not accepted",
		}
	}
	s.recipients = append(s.recipients, to)
	return nil
}

// Data analyzes the delivered message. Analysis failures are logged and the
// message is still accepted.
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.intake.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	var message bytes.Buffer
	if s.intake.addReceived {
		message.WriteString(s.intake.receivedLine(s.helo, s.remoteIP))
	}
	message.Write(rawData)

	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	record, stored, err := processRaw(ctx, s.intake.service, s.intake.textProcessor, message.Bytes())
	if err != nil {
		s.intake.logger.Error("Failed to analyze email",
			zap.Error(err),
			zap.String("sender", s.sender))
		return nil
	}

	s.intake.logger.Info("Processed email",
		zap.String("from", s.sender),
		zap.Strings("recipients", s.recipients),
		zap.String("message_id", record.MessageID),
		zap.String("esp", record.ESPType),
		zap.Bool("stored", stored))

	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
