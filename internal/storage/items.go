package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/listlens/listlens/internal/categories"
	"github.com/listlens/listlens/internal/common"
	"github.com/listlens/listlens/internal/models"
)

var ErrEmptyName = errors.New("item name must not be empty")

func itemNotFound(sessionID, itemID string) error {
	return fmt.Errorf("item %s in session %s: %w", itemID, sessionID, common.ErrNotFound)
}

// AddItem appends an item to a session. The category is derived from the name
// unless one is given.
func (s *SessionStore) AddItem(ctx context.Context, id, name string, category *categories.Category) (*models.Session, models.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.Item{}, ErrEmptyName
	}

	item := models.Item{
		ID:       uuid.NewString(),
		Name:     name,
		Category: categories.CategoryFor(name),
	}
	if category != nil {
		item.Category = *category
	}

	session, err := s.mutate(ctx, id, func(session *models.Session) error {
		item.Order = len(session.Items)
		session.Items = append(session.Items, item)
		return nil
	})
	if err != nil {
		return nil, models.Item{}, err
	}
	return session, item, nil
}

// ItemPatch holds the item fields to change. Nil fields are left alone.
type ItemPatch struct {
	Name     *string
	Category *categories.Category
	Checked  *bool
}

// UpdateItem applies every field of patch to one item in a single write. A new
// name recategorizes the item from that name unless patch also sets a category.
func (s *SessionStore) UpdateItem(ctx context.Context, id, itemID string, patch ItemPatch) (*models.Session, error) {
	var name string
	if patch.Name != nil {
		name = strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
	}
	return s.mutate(ctx, id, func(session *models.Session) error {
		i := session.IndexOf(itemID)
		if i < 0 {
			return itemNotFound(id, itemID)
		}
		item := &session.Items[i]
		if patch.Name != nil {
			item.Name = name
			item.Category = categories.CategoryFor(name)
		}
		if patch.Category != nil {
			item.Category = *patch.Category
		}
		if patch.Checked != nil {
			item.Checked = *patch.Checked
		}
		return nil
	})
}

// RenameItem changes an item's name and recategorizes it from the new name.
func (s *SessionStore) RenameItem(ctx context.Context, id, itemID, name string) (*models.Session, error) {
	return s.UpdateItem(ctx, id, itemID, ItemPatch{Name: &name})
}

// ToggleItem flips the checked state of an item.
func (s *SessionStore) ToggleItem(ctx context.Context, id, itemID string) (*models.Session, error) {
	return s.mutate(ctx, id, func(session *models.Session) error {
		i := session.IndexOf(itemID)
		if i < 0 {
			return itemNotFound(id, itemID)
		}
		session.Items[i].Checked = !session.Items[i].Checked
		return nil
	})
}

// SetChecked sets the checked state of an item.
func (s *SessionStore) SetChecked(ctx context.Context, id, itemID string, checked bool) (*models.Session, error) {
	return s.UpdateItem(ctx, id, itemID, ItemPatch{Checked: &checked})
}

// RecategorizeItem moves an item into another category.
func (s *SessionStore) RecategorizeItem(ctx context.Context, id, itemID string, category categories.Category) (*models.Session, error) {
	return s.UpdateItem(ctx, id, itemID, ItemPatch{Category: &category})
}

func (s *SessionStore) DeleteItem(ctx context.Context, id, itemID string) (*models.Session, error) {
	return s.mutate(ctx, id, func(session *models.Session) error {
		i := session.IndexOf(itemID)
		if i < 0 {
			return itemNotFound(id, itemID)
		}
		session.Items = normalizeItems(append(session.Items[:i], session.Items[i+1:]...))
		return nil
	})
}

// ApplyCategories sets the category of every listed item that still exists.
// Ids that no longer match an item are skipped. It returns how many items
// were changed.
func (s *SessionStore) ApplyCategories(ctx context.Context, id string, changes map[string]categories.Category) (int, *models.Session, error) {
	return s.ApplyCategoriesIf(ctx, id, changes, nil)
}

// ApplyCategoriesIf is ApplyCategories with a guard that sees the live session
// under the writer lock. A guard error aborts the update and is returned.
func (s *SessionStore) ApplyCategoriesIf(ctx context.Context, id string, changes map[string]categories.Category, guard func(*models.Session) error) (int, *models.Session, error) {
	applied := 0
	session, err := s.mutate(ctx, id, func(session *models.Session) error {
		if guard != nil {
			if err := guard(session); err != nil {
				return err
			}
		}
		for i := range session.Items {
			c, ok := changes[session.Items[i].ID]
			if !ok {
				continue
			}
			if !session.Items[i].Category.Equal(c) {
				session.Items[i].Category = c
				applied++
			}
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return applied, session, nil
}

// ClearChecked removes every checked item and returns how many were removed.
func (s *SessionStore) ClearChecked(ctx context.Context, id string) (int, *models.Session, error) {
	removed := 0
	session, err := s.mutate(ctx, id, func(session *models.Session) error {
		kept := session.Items[:0]
		for _, it := range session.Items {
			if it.Checked {
				removed++
				continue
			}
			kept = append(kept, it)
		}
		session.Items = normalizeItems(kept)
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return removed, session, nil
}
