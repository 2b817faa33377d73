package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/listlens/listlens/internal/categories"
	"github.com/listlens/listlens/internal/common"
	"github.com/listlens/listlens/internal/models"
)

// Older builds kept exactly one list and its photo under fixed keys.
const (
	LegacyListKey  = "legacy/list"
	LegacyImageKey = "legacy/image"
)

type legacyItem struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Checked  bool   `json:"checked"`
}

// MigrateLegacy turns the single-list record of older builds into a regular
// session and clears the old slots. It returns nil when there is nothing to
// migrate. An empty legacy list is cleared without creating a session.
func (s *SessionStore) MigrateLegacy(ctx context.Context) (*models.Session, error) {
	data, err := s.kv.Get(ctx, LegacyListKey)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy list: %w", err)
	}

	items, err := parseLegacyList(data)
	if err != nil {
		return nil, err
	}

	image, err := s.kv.Get(ctx, LegacyImageKey)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to read legacy image: %w", err)
	}

	var session *models.Session
	if len(items) > 0 {
		session, err = s.Create(ctx, items, image)
		if err != nil {
			return nil, err
		}
	}

	for _, key := range []string{LegacyListKey, LegacyImageKey} {
		if err := s.kv.Delete(ctx, key); err != nil {
			return session, fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}

	if session != nil {
		slog.Info("Migrated legacy list", "session_id", session.ID, "items", len(items), "has_image", len(image) > 0)
	}
	return session, nil
}

// parseLegacyList accepts either an array of item objects or a plain array of
// names.
func parseLegacyList(data []byte) ([]models.Item, error) {
	var objects []legacyItem
	if err := json.Unmarshal(data, &objects); err != nil {
		var names []string
		if err2 := json.Unmarshal(data, &names); err2 != nil {
			return nil, fmt.Errorf("failed to decode legacy list: %w", err)
		}
		objects = make([]legacyItem, len(names))
		for i, n := range names {
			objects[i].Name = n
		}
	}

	items := make([]models.Item, 0, len(objects))
	for _, o := range objects {
		name := strings.TrimSpace(o.Name)
		if name == "" {
			continue
		}
		category := categories.CategoryFor(name)
		if strings.TrimSpace(o.Category) != "" {
			category = categories.Parse(o.Category)
		}
		items = append(items, models.Item{Name: name, Category: category, Checked: o.Checked})
	}
	return items, nil
}
