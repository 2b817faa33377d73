package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/listlens/listlens/internal/analysis"
	"github.com/listlens/listlens/internal/encoder"
	"github.com/listlens/listlens/internal/gate"
	"github.com/listlens/listlens/internal/images"
	"github.com/listlens/listlens/internal/models"
)

type uploadResponse struct {
	SessionID string           `json:"session_id"`
	Name      string           `json:"name"`
	Items     []models.Item    `json:"items"`
	Sections  []models.Section `json:"sections"`
	Budget    uploadBudget     `json:"budget"`
}

type uploadBudget struct {
	Width        int  `json:"width"`
	Height       int  `json:"height"`
	Quality      int  `json:"quality"`
	Bytes        int  `json:"bytes"`
	BudgetMet    bool `json:"budget_met"`
	FallbackUsed bool `json:"fallback_used"`
}

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.gate.Reserve(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		h.writeFailure(w, "Upload refused", err)
		return
	}

	var photo []byte
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		photo, err = h.readURLUpload(r)
	} else {
		photo, err = h.readFileUpload(r)
	}
	if err != nil {
		h.release(r.Context(), reservation)
		h.writeFailure(w, "Failed to read image", err)
		return
	}

	resp, err := h.analyzePhoto(r.Context(), reservation.Subject, photo)
	if err != nil {
		h.release(r.Context(), reservation)
		h.writeFailure(w, "Failed to analyze list", err)
		return
	}
	h.writeJSONStatus(w, http.StatusCreated, resp)
}

// release hands an analysis that produced no list back to the caller's quota.
func (h *Handler) release(ctx context.Context, reservation *gate.Reservation) {
	if err := reservation.Release(context.WithoutCancel(ctx)); err != nil {
		slog.Error("Failed to release quota", "subject", reservation.Subject, "err", err)
	}
}

func (h *Handler) readURLUpload(r *http.Request) ([]byte, error) {
	var request struct {
		ImageURL string `json:"image_url"`
	}
	if err := decodeJSON(r, &request); err != nil {
		return nil, err
	}
	if request.ImageURL == "" {
		return nil, fmt.Errorf("%w: image_url is required", errBadRequest)
	}
	if !images.IsURL(request.ImageURL) {
		return nil, fmt.Errorf("%w: image_url must be an http(s) URL", errBadRequest)
	}
	return h.fetcher.Fetch(r.Context(), request.ImageURL)
}

func (h *Handler) readFileUpload(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("file")
	if err != nil {
		file, _, err = r.FormFile("files")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, fmt.Errorf("%w: max %d bytes", images.ErrTooLarge, h.maxUploadBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", errBadRequest)
	}
	return data, nil
}

// analyzePhoto runs the full pipeline for one photo and stores the result as
// a new session.
func (h *Handler) analyzePhoto(ctx context.Context, subject string, photo []byte) (*uploadResponse, error) {
	payload, err := encoder.EncodeBytes(photo, h.encoderOpts)
	if err != nil {
		return nil, err
	}

	sections, err := h.analyzer.AnalyzeImage(ctx, payload)
	if err != nil {
		return nil, err
	}

	items := analysis.ItemsFromSections(sections)
	session, err := h.sessionStore.Create(ctx, items, photo)
	if err != nil {
		return nil, err
	}

	slog.Info("Created list from photo",
		"session_id", session.ID,
		"subject", subject,
		"sections", len(sections),
		"items", len(session.Items),
		"budget_met", payload.BudgetMet)

	return &uploadResponse{
		SessionID: session.ID,
		Name:      session.Name,
		Items:     session.Items,
		Sections:  sections,
		Budget: uploadBudget{
			Width:        payload.Width,
			Height:       payload.Height,
			Quality:      payload.Quality,
			Bytes:        payload.DecodedBytes,
			BudgetMet:    payload.BudgetMet,
			FallbackUsed: payload.FallbackUsed,
		},
	}, nil
}
