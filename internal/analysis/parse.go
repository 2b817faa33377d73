package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/listlens/listlens/internal/categories"
	"github.com/listlens/listlens/internal/models"
)

// DefaultSectionName names the section built from a bare array of items.
const DefaultSectionName = "Groceries"

// cleanJSON trims markdown code fences and any prose around the outermost
// JSON value.
func cleanJSON(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	start := strings.IndexAny(response, "{[")
	if start < 0 {
		return response
	}
	closer := "}"
	if response[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(response, closer)
	if end < start {
		return response[start:]
	}
	return response[start : end+1]
}

// ParseSections decodes a vision answer. It accepts {"sections": [...]}, a
// bare array of section objects, or a bare array of item names.
func ParseSections(response string) ([]models.Section, error) {
	body := []byte(cleanJSON(response))

	var wrapped struct {
		Sections *[]models.Section `json:"sections"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Sections != nil {
		return normalizeSections(*wrapped.Sections), nil
	}

	var names []string
	if err := json.Unmarshal(body, &names); err == nil {
		return normalizeSections([]models.Section{{
			Name:  DefaultSectionName,
			Type:  models.SectionGrocery,
			Items: names,
		}}), nil
	}

	var sections []models.Section
	if err := json.Unmarshal(body, &sections); err == nil {
		return normalizeSections(sections), nil
	}

	return nil, fmt.Errorf("%w: no section list in %d byte answer", ErrMalformedResponse, len(response))
}

func normalizeSections(in []models.Section) []models.Section {
	out := make([]models.Section, 0, len(in))
	for _, s := range in {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			s.Name = DefaultSectionName
		}
		if !s.Type.Valid() {
			s.Type = models.SectionGrocery
		}
		items := make([]string, 0, len(s.Items))
		for _, it := range s.Items {
			if it = strings.TrimSpace(it); it != "" {
				items = append(items, it)
			}
		}
		s.Items = items
		out = append(out, s)
	}
	return out
}

type proposal struct {
	ID       string `json:"id"`
	ItemID   string `json:"item_id"`
	Category string `json:"category"`
}

// ParseProposals decodes a review answer, keeping only proposals for ids in
// items that name a category.
func ParseProposals(response string, items []models.SnapshotItem) ([]models.ProposedCategory, error) {
	body := []byte(cleanJSON(response))

	var raw []proposal
	var wrapped struct {
		Suggestions *[]proposal `json:"suggestions"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Suggestions != nil {
		raw = *wrapped.Suggestions
	} else if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: no suggestion list in %d byte answer", ErrMalformedResponse, len(response))
	}

	known := make(map[string]bool, len(items))
	for _, it := range items {
		known[it.ID] = true
	}

	var out []models.ProposedCategory
	for _, p := range raw {
		id := p.ID
		if id == "" {
			id = p.ItemID
		}
		if !known[id] || strings.TrimSpace(p.Category) == "" {
			continue
		}
		out = append(out, models.ProposedCategory{ItemID: id, Category: categories.Parse(p.Category)})
	}
	return out, nil
}
