package models

import (
	"time"

	"github.com/listlens/listlens/internal/categories"
)

// SectionType tags what kind of block the vision model found on the page.
type SectionType string

const (
	SectionGrocery       SectionType = "grocery"
	SectionMealPlan      SectionType = "meal_plan"
	SectionStruckThrough SectionType = "struck_through"
	SectionNote          SectionType = "note"
)

// Valid reports whether t is one of the known section types.
func (t SectionType) Valid() bool {
	switch t {
	case SectionGrocery, SectionMealPlan, SectionStruckThrough, SectionNote:
		return true
	}
	return false
}

// Section is one block of a transcribed list. It is produced once per
// analysis and never modified.
type Section struct {
	Name  string      `json:"name"`
	Type  SectionType `json:"type"`
	Items []string    `json:"items"`
}

// Item is one line of a shopping list.
type Item struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Category categories.Category `json:"category"`
	Checked  bool                `json:"checked"`
	Order    int                 `json:"order"`
}

// Session is a saved shopping list.
type Session struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ThumbnailKey string    `json:"thumbnail_key,omitempty"`
	Items        []Item    `json:"items"`
}

// CheckedCount returns how many items are checked off.
func (s *Session) CheckedCount() int {
	n := 0
	for _, it := range s.Items {
		if it.Checked {
			n++
		}
	}
	return n
}

// IndexOf returns the position of the item with the given id, or -1.
func (s *Session) IndexOf(id string) int {
	for i, it := range s.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate it freely.
func (s *Session) Clone() *Session {
	c := *s
	c.Items = append([]Item(nil), s.Items...)
	return &c
}

// IndexEntry is the summary of a session kept in the session index.
type IndexEntry struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ItemCount    int       `json:"item_count"`
	CheckedCount int       `json:"checked_count"`
	HasImage     bool      `json:"has_image"`
}

// Entry projects a session onto its index entry.
func (s *Session) Entry() IndexEntry {
	return IndexEntry{
		ID:           s.ID,
		Name:         s.Name,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		ItemCount:    len(s.Items),
		CheckedCount: s.CheckedCount(),
		HasImage:     s.ThumbnailKey != "",
	}
}

// SnapshotItem is an item as it looked when a review pass was requested.
type SnapshotItem struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Category categories.Category `json:"category"`
}

// Snapshot copies the identity, name and category of every item.
func (s *Session) Snapshot() []SnapshotItem {
	out := make([]SnapshotItem, len(s.Items))
	for i, it := range s.Items {
		out[i] = SnapshotItem{ID: it.ID, Name: it.Name, Category: it.Category}
	}
	return out
}

// ProposedCategory is one answer of the review capability.
type ProposedCategory struct {
	ItemID   string              `json:"item_id"`
	Category categories.Category `json:"category"`
}

// Suggestion is a proposed category change for one item.
type Suggestion struct {
	ItemID   string              `json:"item_id"`
	ItemName string              `json:"item_name"`
	Current  categories.Category `json:"current"`
	Proposed categories.Category `json:"proposed"`
}

// SuggestionBatch is the result of one review pass together with the
// snapshot it was computed from.
type SuggestionBatch struct {
	Suggestions []Suggestion   `json:"suggestions"`
	Snapshot    []SnapshotItem `json:"snapshot"`
	RequestedAt time.Time      `json:"requested_at"`
}
