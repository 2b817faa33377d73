package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/listlens/listlens/internal/categories"
	"github.com/listlens/listlens/internal/storage"
)

type itemRequest struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
	Checked  *bool   `json:"checked"`
}

func parseCategory(name *string) (*categories.Category, error) {
	if name == nil {
		return nil, nil
	}
	if strings.TrimSpace(*name) == "" {
		return nil, fmt.Errorf("%w: category must not be empty", errBadRequest)
	}
	c := categories.Parse(*name)
	return &c, nil
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	var request itemRequest
	if err := decodeJSON(r, &request); err != nil {
		h.writeFailure(w, "Invalid request", err)
		return
	}
	if request.Name == nil {
		h.writeError(w, "name is required", http.StatusBadRequest)
		return
	}
	category, err := parseCategory(request.Category)
	if err != nil {
		h.writeFailure(w, "Invalid request", err)
		return
	}

	session, item, err := h.sessionStore.AddItem(r.Context(), r.PathValue("id"), *request.Name, category)
	if err != nil {
		h.writeFailure(w, "Failed to add item", err)
		return
	}
	h.noteEdit(r.Context(), session)
	h.writeJSONStatus(w, http.StatusCreated, item)
}

func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, itemID := r.PathValue("id"), r.PathValue("item")

	var request itemRequest
	if err := decodeJSON(r, &request); err != nil {
		h.writeFailure(w, "Invalid request", err)
		return
	}
	if request.Name == nil && request.Category == nil && request.Checked == nil {
		h.writeError(w, "Nothing to update", http.StatusBadRequest)
		return
	}
	category, err := parseCategory(request.Category)
	if err != nil {
		h.writeFailure(w, "Invalid request", err)
		return
	}

	ctx := r.Context()
	session, err := h.sessionStore.UpdateItem(ctx, id, itemID, storage.ItemPatch{
		Name:     request.Name,
		Category: category,
		Checked:  request.Checked,
	})
	if err != nil {
		h.writeFailure(w, "Failed to update item", err)
		return
	}

	// Checking an item off does not affect categories.
	if request.Name != nil || category != nil {
		h.noteEdit(ctx, session)
	}

	i := session.IndexOf(itemID)
	if i < 0 {
		h.writeError(w, "Item not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, session.Items[i])
}

func (h *Handler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionStore.DeleteItem(r.Context(), r.PathValue("id"), r.PathValue("item"))
	if err != nil {
		h.writeFailure(w, "Failed to delete item", err)
		return
	}
	h.noteEdit(r.Context(), session)
	w.WriteHeader(http.StatusNoContent)
}
