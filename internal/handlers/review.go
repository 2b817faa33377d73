package handlers

import (
	"errors"
	"net/http"

	"github.com/listlens/listlens/internal/common"
)

func (h *Handler) HandleReviewStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.getSessionOrError(w, r); !ok {
		return
	}
	h.writeJSON(w, h.reviews.Status(r.PathValue("id")))
}

// HandleReviewCheck runs a review pass and waits for it. A pass whose result
// went stale while it ran answers 409 with the current status.
func (h *Handler) HandleReviewCheck(w http.ResponseWriter, r *http.Request) {
	status, err := h.reviews.Check(r.Context(), r.PathValue("id"))
	if errors.Is(err, common.ErrStaleBatch) {
		h.writeJSONStatus(w, http.StatusConflict, status)
		return
	}
	if err != nil {
		h.writeFailure(w, "Review failed", err)
		return
	}
	h.writeJSON(w, status)
}

func (h *Handler) HandleReviewAccept(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	applied, session, err := h.reviews.Accept(r.Context(), id)
	if err != nil {
		h.writeFailure(w, "Failed to accept suggestions", err)
		return
	}
	h.writeJSON(w, map[string]any{
		"applied": applied,
		"session": h.withReview(session),
	})
}

func (h *Handler) HandleReviewDismiss(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.reviews.Dismiss(id); err != nil {
		h.writeFailure(w, "Failed to dismiss suggestions", err)
		return
	}
	h.writeJSON(w, h.reviews.Status(id))
}
