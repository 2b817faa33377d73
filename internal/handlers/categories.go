package handlers

import (
	"net/http"
	"strings"

	"github.com/listlens/listlens/internal/categories"
)

type categoryStyle struct {
	Name      string           `json:"name"`
	Canonical bool             `json:"canonical"`
	Style     categories.Style `json:"style"`
}

// HandleCategories lists the store sections in aisle order with their
// styles. ?name=X returns the style of a single, possibly custom, section.
func (h *Handler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
		_, canonical := categories.LookupSection(name)
		h.writeJSON(w, categoryStyle{Name: name, Canonical: canonical, Style: categories.StyleFor(name)})
		return
	}

	sections := categories.Sections()
	out := make([]categoryStyle, 0, len(sections))
	for _, s := range sections {
		out = append(out, categoryStyle{Name: s.String(), Canonical: true, Style: categories.StyleFor(s.String())})
	}
	h.writeJSON(w, out)
}
