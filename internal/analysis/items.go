package analysis

import (
	"strings"

	"github.com/listlens/listlens/internal/categories"
	"github.com/listlens/listlens/internal/models"
)

// ItemsFromSections seeds list items from analyzed sections. Struck-through
// and note sections are skipped, blank names dropped, and names repeated in
// any case kept once. A section named after a store section files its items
// there; everything else goes through the keyword classifier.
func ItemsFromSections(sections []models.Section) []models.Item {
	var items []models.Item
	seen := make(map[string]bool)

	for _, s := range sections {
		if s.Type == models.SectionStruckThrough || s.Type == models.SectionNote {
			continue
		}
		section, named := categories.LookupSection(s.Name)

		for _, name := range s.Items {
			name = strings.TrimSpace(name)
			key := strings.ToLower(name)
			if name == "" || seen[key] {
				continue
			}
			seen[key] = true

			category := categories.CategoryFor(name)
			if named {
				category = categories.Canonical(section)
			}
			items = append(items, models.Item{
				Name:     name,
				Category: category,
				Order:    len(items),
			})
		}
	}
	return items
}
