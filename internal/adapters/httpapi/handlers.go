package httpapi

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mikey/esp-analyzer/internal/core"
	"github.com/mikey/esp-analyzer/internal/ports"
	"go.uber.org/zap"
)

// handlerFunc is an HTTP handler that reports failures instead of writing them
type handlerFunc func(w http.ResponseWriter, req *http.Request) error

// Handlers serves the analysis records over HTTP
type Handlers struct {
	service *core.AnalysisService
	intake  ports.MailIntake
	logger  *zap.Logger
}

// NewHandlers creates the API handlers
func NewHandlers(service *core.AnalysisService, intake ports.MailIntake, logger *zap.Logger) *Handlers {
	return &Handlers{
		service: service,
		intake:  intake,
		logger:  logger,
	}
}

// wrap logs handler errors and turns them into a 500 reply
func (h *Handlers) wrap(name string, fn handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h.logger.Debug("HTTP request",
			zap.String("route", name),
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.String("remote", req.RemoteAddr))

		if err := fn(w, req); err != nil {
			h.logger.Error("HTTP handler failed",
				zap.String("route", name),
				zap.String("uri", req.RequestURI),
				zap.Error(err))
		}
	})
}

// ListEmails renders the most recent records, newest first
func (h *Handlers) ListEmails(w http.ResponseWriter, req *http.Request) error {
	records, err := h.service.ListRecent(req.Context())
	if err != nil {
		_ = renderError(w, http.StatusInternalServerError, "Failed to fetch emails")
		return err
	}
	if records == nil {
		records = []*core.EmailAnalysisRecord{}
	}
	return renderJSON(w, http.StatusOK, records)
}

// LatestEmail renders the most recently stored record
func (h *Handlers) LatestEmail(w http.ResponseWriter, req *http.Request) error {
	record, err := h.service.Latest(req.Context())
	if errors.Is(err, core.ErrNotFound) {
		return renderError(w, http.StatusNotFound, "No emails found")
	}
	if err != nil {
		_ = renderError(w, http.StatusInternalServerError, "Failed to fetch latest email")
		return err
	}
	return renderJSON(w, http.StatusOK, record)
}

// TestConfig renders the address and subject to use for a test message
func (h *Handlers) TestConfig(w http.ResponseWriter, req *http.Request) error {
	return renderJSON(w, http.StatusOK, h.service.TestEmailConfig())
}

// Status renders the intake connection status
func (h *Handlers) Status(w http.ResponseWriter, req *http.Request) error {
	status := core.IntakeStatus{}
	if h.intake != nil {
		status = h.intake.Status()
	}
	return renderJSON(w, http.StatusOK, status)
}

// GetEmail renders a single record by its ID
func (h *Handlers) GetEmail(w http.ResponseWriter, req *http.Request) error {
	id := mux.Vars(req)["id"]
	record, err := h.service.Get(req.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		return renderError(w, http.StatusNotFound, "Email not found")
	}
	if err != nil {
		_ = renderError(w, http.StatusInternalServerError, "Failed to fetch email")
		return err
	}
	return renderJSON(w, http.StatusOK, record)
}
