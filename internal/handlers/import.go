package handlers

import (
	"net/http"

	"github.com/listlens/listlens/internal/images"
)

// HandleImport creates a session from ?image=<url> and redirects to it, so a
// photo link can be turned into a list from a bookmark.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	imageURL := r.URL.Query().Get("image")
	if !images.IsURL(imageURL) {
		h.writeError(w, "image must be an http(s) URL", http.StatusBadRequest)
		return
	}

	reservation, err := h.gate.Reserve(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		h.writeFailure(w, "Import refused", err)
		return
	}

	photo, err := h.fetcher.Fetch(r.Context(), imageURL)
	if err != nil {
		h.release(r.Context(), reservation)
		h.writeFailure(w, "Failed to process image URL", err)
		return
	}

	resp, err := h.analyzePhoto(r.Context(), reservation.Subject, photo)
	if err != nil {
		h.release(r.Context(), reservation)
		h.writeFailure(w, "Failed to analyze list", err)
		return
	}
	http.Redirect(w, r, "/api/sessions/"+resp.SessionID, http.StatusSeeOther)
}
