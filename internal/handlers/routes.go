package handlers

import (
	"log/slog"
	"net/http"
)

// Register mounts the API on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/upload", h.HandleUpload)
	mux.HandleFunc("GET /import", h.HandleImport)

	mux.HandleFunc("GET /api/sessions", h.HandleSessions)
	mux.HandleFunc("GET /api/sessions/{id}", h.HandleSessionDetail)
	mux.HandleFunc("PATCH /api/sessions/{id}", h.HandleSessionUpdate)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.HandleSessionDelete)
	mux.HandleFunc("POST /api/sessions/{id}/clear-checked", h.HandleClearChecked)
	mux.HandleFunc("GET /api/sessions/{id}/thumbnail", h.HandleThumbnail)

	mux.HandleFunc("POST /api/sessions/{id}/items", h.HandleAddItem)
	mux.HandleFunc("PATCH /api/sessions/{id}/items/{item}", h.HandleUpdateItem)
	mux.HandleFunc("DELETE /api/sessions/{id}/items/{item}", h.HandleDeleteItem)

	mux.HandleFunc("GET /api/sessions/{id}/review", h.HandleReviewStatus)
	mux.HandleFunc("POST /api/sessions/{id}/review/check", h.HandleReviewCheck)
	mux.HandleFunc("POST /api/sessions/{id}/review/accept", h.HandleReviewAccept)
	mux.HandleFunc("POST /api/sessions/{id}/review/dismiss", h.HandleReviewDismiss)

	mux.HandleFunc("GET /api/categories", h.HandleCategories)
	mux.HandleFunc("GET /healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
}
