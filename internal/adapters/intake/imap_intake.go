package intake

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/mikey/esp-analyzer/internal/core"
	"github.com/mikey/esp-analyzer/internal/utils"
	"go.uber.org/zap"
)

// IMAPIntake polls a mailbox for test messages and analyzes them.
// Only one poll cycle runs at a time.
type IMAPIntake struct {
	service       *core.AnalysisService
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	host          string
	port          int
	username      string
	password      string
	useTLS        bool
	mailbox       string
	subjectPrefix string
	pollInterval  time.Duration
	backfill      int
	connected     atomic.Bool
	started       atomic.Bool
	stopCh        chan struct{}
	done          chan struct{}
	stopOnce      sync.Once
}

// NewIMAPIntake creates a new IMAP intake
func NewIMAPIntake(
	service *core.AnalysisService,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	host string,
	port int,
	username string,
	password string,
	useTLS bool,
	mailbox string,
	subjectPrefix string,
	pollInterval time.Duration,
	backfill int,
) *IMAPIntake {
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}

	return &IMAPIntake{
		service:       service,
		textProcessor: textProcessor,
		logger:        logger,
		host:          host,
		port:          port,
		username:      username,
		password:      password,
		useTLS:        useTLS,
		mailbox:       mailbox,
		subjectPrefix: subjectPrefix,
		pollInterval:  pollInterval,
		backfill:      backfill,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start begins polling the mailbox in the background
func (i *IMAPIntake) Start() error {
	if i.host == "" || i.username == "" || i.password == "" {
		i.logger.Warn("IMAP credentials not provided, email monitoring disabled")
		return nil
	}
	if !i.started.CompareAndSwap(false, true) {
		return nil
	}

	i.logger.Info("IMAP intake started",
		zap.String("host", i.host),
		zap.Int("port", i.port),
		zap.String("mailbox", i.mailbox),
		zap.Duration("poll_interval", i.pollInterval))

	go i.run()
	return nil
}

// Stop stops polling and waits for the cycle in flight to finish
func (i *IMAPIntake) Stop() error {
	i.stopOnce.Do(func() { close(i.stopCh) })
	if i.started.Load() {
		<-i.done
	}
	i.connected.Store(false)
	return nil
}

// Status reports whether the last poll cycle reached the server
func (i *IMAPIntake) Status() core.IntakeStatus {
	return core.IntakeStatus{
		Connected: i.connected.Load(),
		Email:     i.username,
	}
}

// ProcessMessage analyzes one raw message fetched from the mailbox
func (i *IMAPIntake) ProcessMessage(ctx context.Context, raw []byte) (*core.EmailAnalysisRecord, error) {
	record, _, err := processRaw(ctx, i.service, i.textProcessor, raw)
	return record, err
}

func (i *IMAPIntake) run() {
	defer close(i.done)

	ticker := time.NewTicker(i.pollInterval)
	defer ticker.Stop()

	// The first cycle backfills recent test messages, later ones only read new mail
	i.poll(true)
	for {
		select {
		case <-ticker.C:
			i.poll(false)
		case <-i.stopCh:
			return
		}
	}
}

func (i *IMAPIntake) dial() (*imapclient.Client, error) {
	addr := net.JoinHostPort(i.host, strconv.Itoa(i.port))
	if i.useTLS {
		return imapclient.DialTLS(addr, &imapclient.Options{
			TLSConfig: &tls.Config{ServerName: i.host},
		})
	}
	return imapclient.DialInsecure(addr, nil)
}

// poll runs one fetch-and-process cycle
func (i *IMAPIntake) poll(backfill bool) {
	if err := i.fetchAndProcess(backfill); err != nil {
		i.connected.Store(false)
		i.logger.Error("IMAP poll failed", zap.Error(err))
	}
}

func (i *IMAPIntake) fetchAndProcess(backfill bool) error {
	client, err := i.dial()
	if err != nil {
		return fmt.Errorf("imap connect %s: %w", i.host, err)
	}
	defer client.Close()

	if err := client.Login(i.username, i.password).Wait(); err != nil {
		return fmt.Errorf("imap login %s: %w", i.username, err)
	}
	defer func() {
		if err := client.Logout().Wait(); err != nil {
			i.logger.Debug("IMAP logout failed", zap.Error(err))
		}
	}()
	i.connected.Store(true)

	if _, err := client.Select(i.mailbox, nil).Wait(); err != nil {
		return fmt.Errorf("imap select %s: %w", i.mailbox, err)
	}

	criteria := &imap.SearchCriteria{}
	if i.subjectPrefix != "" {
		criteria.Header = []imap.SearchCriteriaHeaderField{
			{Key: "Subject", Value: i.subjectPrefix},
		}
	}
	if !backfill {
		criteria.NotFlag = []imap.Flag{imap.FlagSeen}
	}

	searchData, err := client.Search(criteria, nil).Wait()
	if err != nil {
		return fmt.Errorf("imap search: %w", err)
	}

	seqNums := searchData.AllSeqNums()
	if backfill && i.backfill > 0 && len(seqNums) > i.backfill {
		seqNums = seqNums[len(seqNums)-i.backfill:]
	}
	if len(seqNums) == 0 {
		return nil
	}
	i.logger.Info("Found test emails", zap.Int("count", len(seqNums)))

	// Fetching the body without Peek marks the messages as seen
	bodySection := &imap.FetchItemBodySection{}
	buffers, err := client.Fetch(imap.SeqSetNum(seqNums...), &imap.FetchOptions{
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}).Collect()
	if err != nil {
		return fmt.Errorf("imap fetch: %w", err)
	}

	for _, buf := range buffers {
		content := buf.FindBodySection(bodySection)
		if len(content) == 0 {
			i.logger.Warn("Empty message, skipping", zap.Uint32("seq", buf.SeqNum))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		_, err := i.ProcessMessage(ctx, content)
		cancel()
		if err != nil {
			i.logger.Error("Error processing email", zap.Uint32("seq", buf.SeqNum), zap.Error(err))
		}
	}

	return nil
}
