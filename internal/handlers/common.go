package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/listlens/listlens/internal/common"
	"github.com/listlens/listlens/internal/encoder"
	"github.com/listlens/listlens/internal/gate"
	"github.com/listlens/listlens/internal/images"
	"github.com/listlens/listlens/internal/models"
	"github.com/listlens/listlens/internal/review"
	"github.com/listlens/listlens/internal/storage"
)

var errBadRequest = errors.New("bad request")

// Analyzer transcribes a list photo into sections.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, payload *encoder.Payload) ([]models.Section, error)
}

// Config wires a Handler to the rest of the application.
type Config struct {
	Store          *storage.SessionStore
	Analyzer       Analyzer
	Reviews        *review.Reconciler
	Gate           *gate.Gate
	Fetcher        *images.Fetcher
	Encoder        encoder.Options
	MaxUploadBytes int64
}

type Handler struct {
	sessionStore   *storage.SessionStore
	analyzer       Analyzer
	reviews        *review.Reconciler
	gate           *gate.Gate
	fetcher        *images.Fetcher
	encoderOpts    encoder.Options
	maxUploadBytes int64
}

func New(cfg Config) *Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = images.DefaultMaxBytes
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = images.NewFetcher(cfg.MaxUploadBytes)
	}
	return &Handler{
		sessionStore:   cfg.Store,
		analyzer:       cfg.Analyzer,
		reviews:        cfg.Reviews,
		gate:           cfg.Gate,
		fetcher:        cfg.Fetcher,
		encoderOpts:    cfg.Encoder,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Warn(message, "status", code)
	}
	http.Error(w, message, code)
}

// writeFailure reports err with the status its kind maps to.
func (h *Handler) writeFailure(w http.ResponseWriter, message string, err error) {
	h.writeError(w, message+": "+err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, storage.ErrEmptyName):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrStaleBatch), errors.Is(err, common.ErrNoPendingBatch):
		return http.StatusConflict
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, images.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrEncoding), errors.Is(err, images.ErrNotImage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, common.ErrAnalysis), errors.Is(err, common.ErrReview):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, r *http.Request) (*models.Session, bool) {
	sessionID := r.PathValue("id")
	session, exists, err := h.sessionStore.Load(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, "Failed to load session: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

// noteEdit tells the reconciler about a change to session's items and starts
// a background review when one is due.
func (h *Handler) noteEdit(ctx context.Context, session *models.Session) {
	if h.reviews == nil || session == nil {
		return
	}
	if h.reviews.NoteEdit(session) {
		slog.Info("Starting automatic review", "session_id", session.ID)
		h.reviews.Trigger(ctx, session.ID)
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	return nil
}
