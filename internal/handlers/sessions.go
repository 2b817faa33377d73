package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/listlens/listlens/internal/models"
	"github.com/listlens/listlens/internal/review"
	"github.com/listlens/listlens/internal/storage"
)

type sessionResponse struct {
	*models.Session
	Review *review.Status `json:"review,omitempty"`
}

func (h *Handler) withReview(session *models.Session) sessionResponse {
	resp := sessionResponse{Session: session}
	if h.reviews != nil {
		status := h.reviews.Status(session.ID)
		resp.Review = &status
	}
	return resp
}

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.sessionStore.ListIndex(r.Context())
	if err != nil {
		h.writeFailure(w, "Failed to list sessions", err)
		return
	}
	if entries == nil {
		entries = []models.IndexEntry{}
	}
	h.writeJSON(w, entries)
}

func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, h.withReview(session))
}

func (h *Handler) HandleSessionUpdate(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name *string `json:"name"`
	}
	if err := decodeJSON(r, &request); err != nil {
		h.writeFailure(w, "Invalid request", err)
		return
	}
	if request.Name == nil {
		h.writeError(w, "Nothing to update", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(*request.Name)
	if name == "" {
		h.writeFailure(w, "Invalid request", fmt.Errorf("%w: name must not be empty", errBadRequest))
		return
	}

	session, err := h.sessionStore.Update(r.Context(), r.PathValue("id"), storage.Patch{Name: &name})
	if err != nil {
		h.writeFailure(w, "Failed to update session", err)
		return
	}
	h.writeJSON(w, h.withReview(session))
}

func (h *Handler) HandleSessionDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.sessionStore.Delete(r.Context(), id); err != nil {
		h.writeFailure(w, "Failed to delete session", err)
		return
	}
	if h.reviews != nil {
		h.reviews.Forget(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleClearChecked(w http.ResponseWriter, r *http.Request) {
	removed, session, err := h.sessionStore.ClearChecked(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeFailure(w, "Failed to clear checked items", err)
		return
	}
	if removed > 0 {
		h.noteEdit(r.Context(), session)
	}
	h.writeJSON(w, map[string]any{
		"removed": removed,
		"session": h.withReview(session),
	})
}

func (h *Handler) HandleThumbnail(w http.ResponseWriter, r *http.Request) {
	data, ok, err := h.sessionStore.Thumbnail(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeFailure(w, "Failed to load thumbnail", err)
		return
	}
	if !ok {
		h.writeError(w, "Thumbnail not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := w.Write(data); err != nil {
		h.writeError(w, "Unable to write thumbnail: "+err.Error(), http.StatusInternalServerError)
	}
}
