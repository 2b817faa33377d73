package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/listlens/listlens/internal/common"
	"github.com/listlens/listlens/internal/encoder"
	"github.com/listlens/listlens/internal/kv"
	"github.com/listlens/listlens/internal/models"
)

const (
	indexKey        = "sessions/index"
	sessionPrefix   = "sessions/"
	thumbnailPrefix = "thumbnails/"

	// NameLayout renders the creation date used as the default list name,
	// e.g. "Monday, Jan 5".
	NameLayout = "Monday, Jan 2"
)

// Options tunes a SessionStore. Zero values fall back to defaults.
type Options struct {
	ThumbnailWidth   int
	ThumbnailQuality int
	// Now is the clock used for names and timestamps.
	Now func() time.Time
}

// SessionStore owns the saved lists and the index that summarizes them. All
// writes go through one lock so a session record and its index entry are
// always written together.
type SessionStore struct {
	kv      kv.Store
	mu      sync.RWMutex
	opts    Options
	pending sync.WaitGroup
}

// Patch lists the fields Update may change. Nil fields are left alone.
type Patch struct {
	Name         *string
	Items        []models.Item
	ThumbnailKey *string
}

type index struct {
	Version int                 `json:"version"`
	Entries []models.IndexEntry `json:"entries"`
}

func New(store kv.Store, opts Options) *SessionStore {
	if opts.ThumbnailWidth <= 0 {
		opts.ThumbnailWidth = encoder.DefaultThumbnailWidth
	}
	if opts.ThumbnailQuality <= 0 {
		opts.ThumbnailQuality = encoder.DefaultThumbnailQuality
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SessionStore{
		kv:   store,
		opts: opts,
	}
}

func sessionKey(id string) string   { return sessionPrefix + id }
func thumbnailKey(id string) string { return thumbnailPrefix + id }

// Create saves a new session holding items. The name is derived from today's
// date. When thumbnail is non-empty it is compressed and stored in the
// background; the session gains its image once that write finishes.
func (s *SessionStore) Create(ctx context.Context, items []models.Item, thumbnail []byte) (*models.Session, error) {
	s.mu.Lock()
	idx, err := s.readIndex(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	now := s.opts.Now()
	session := &models.Session{
		ID:        uuid.NewString(),
		Name:      UniqueName(now.Format(NameLayout), idx.Entries),
		CreatedAt: now,
		UpdatedAt: now,
		Items:     normalizeItems(items),
	}

	if err := s.writeLocked(ctx, idx, session); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	slog.Info("Session created", "session_id", session.ID, "name", session.Name, "items", len(session.Items))

	if len(thumbnail) > 0 {
		s.storeThumbnail(ctx, session.ID, thumbnail)
	}

	return session.Clone(), nil
}

// Load returns the session with the given id. A missing session is reported
// through the bool, not as an error.
func (s *SessionStore) Load(ctx context.Context, id string) (*models.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadLocked(ctx, id)
}

// Save writes session and its index entry, inserting the entry when the
// session is new.
func (s *SessionStore) Save(ctx context.Context, session *models.Session) error {
	if session == nil || session.ID == "" {
		return errors.New("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readIndex(ctx)
	if err != nil {
		return err
	}

	c := session.Clone()
	c.Items = normalizeItems(c.Items)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.opts.Now()
	}
	c.UpdatedAt = s.opts.Now()
	if err := s.writeLocked(ctx, idx, c); err != nil {
		return err
	}
	*session = *c.Clone()
	return nil
}

// Update applies patch to an existing session. Unknown ids return
// common.ErrNotFound.
func (s *SessionStore) Update(ctx context.Context, id string, patch Patch) (*models.Session, error) {
	return s.mutate(ctx, id, func(session *models.Session) error {
		if patch.Name != nil {
			session.Name = *patch.Name
		}
		if patch.Items != nil {
			session.Items = normalizeItems(patch.Items)
		}
		if patch.ThumbnailKey != nil {
			session.ThumbnailKey = *patch.ThumbnailKey
		}
		return nil
	})
}

// Delete removes a session, its thumbnail and its index entry. Unknown ids
// return common.ErrNotFound.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readIndex(ctx)
	if err != nil {
		return err
	}
	_, exists, err := s.loadLocked(ctx, id)
	if err != nil {
		return err
	}
	pos := findEntry(idx.Entries, id)
	if !exists && pos < 0 {
		return fmt.Errorf("session %s: %w", id, common.ErrNotFound)
	}
	if pos >= 0 {
		idx.Entries = append(idx.Entries[:pos], idx.Entries[pos+1:]...)
	}

	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to encode session index: %w", err)
	}

	err = kv.Batch(ctx, s.kv, func(w kv.Writer) error {
		if err := w.Put(ctx, indexKey, data); err != nil {
			return err
		}
		if err := w.Delete(ctx, sessionKey(id)); err != nil {
			return err
		}
		return w.Delete(ctx, thumbnailKey(id))
	})
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}

	slog.Info("Session deleted", "session_id", id)
	return nil
}

// ListIndex returns the index entries, newest first.
func (s *SessionStore) ListIndex(ctx context.Context) ([]models.IndexEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, err := s.readIndex(ctx)
	if err != nil {
		return nil, err
	}
	entries := append([]models.IndexEntry(nil), idx.Entries...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// Orphans returns the ids of stored session records that have no index
// entry, e.g. after a crash between writes on a store without batches. The
// store must implement kv.Lister.
func (s *SessionStore) Orphans(ctx context.Context) ([]string, error) {
	lister, ok := s.kv.(kv.Lister)
	if !ok {
		return nil, fmt.Errorf("store cannot enumerate keys: %w", errors.ErrUnsupported)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, err := s.readIndex(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := lister.Keys(ctx, sessionPrefix)
	if err != nil {
		return nil, err
	}

	var orphans []string
	for _, key := range keys {
		if key == indexKey {
			continue
		}
		id := strings.TrimPrefix(key, sessionPrefix)
		if findEntry(idx.Entries, id) < 0 {
			orphans = append(orphans, id)
		}
	}
	return orphans, nil
}

// Thumbnail returns the stored thumbnail of a session, if any.
func (s *SessionStore) Thumbnail(ctx context.Context, id string) ([]byte, bool, error) {
	s.mu.RLock()
	session, exists, err := s.loadLocked(ctx, id)
	s.mu.RUnlock()
	if err != nil || !exists || session.ThumbnailKey == "" {
		return nil, false, err
	}

	data, err := s.kv.Get(ctx, session.ThumbnailKey)
	if errors.Is(err, common.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read thumbnail: %w", err)
	}
	return data, true, nil
}

// Wait blocks until background thumbnail writes have finished.
func (s *SessionStore) Wait() {
	s.pending.Wait()
}

func (s *SessionStore) storeThumbnail(ctx context.Context, id string, source []byte) {
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		data, err := encoder.Thumbnail(source, s.opts.ThumbnailWidth, s.opts.ThumbnailQuality)
		if err != nil {
			slog.Warn("Thumbnail compression failed, storing original image", "session_id", id, "err", err)
			data = source
		}

		key := thumbnailKey(id)
		if err := s.kv.Put(ctx, key, data); err != nil {
			slog.Error("Unable to store thumbnail", "session_id", id, "err", err)
			return
		}

		_, err = s.Update(ctx, id, Patch{ThumbnailKey: &key})
		if errors.Is(err, common.ErrNotFound) {
			// deleted while the thumbnail was being written
			_ = s.kv.Delete(ctx, key)
			return
		}
		if err != nil {
			slog.Error("Unable to attach thumbnail", "session_id", id, "err", err)
			return
		}
		slog.Debug("Thumbnail stored", "session_id", id, "bytes", len(data))
	}()
}

// mutate loads a session, applies fn and writes the result with its index
// entry, all under the writer lock.
func (s *SessionStore) mutate(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists, err := s.loadLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("session %s: %w", id, common.ErrNotFound)
	}
	if err := fn(session); err != nil {
		return nil, err
	}

	idx, err := s.readIndex(ctx)
	if err != nil {
		return nil, err
	}
	session.UpdatedAt = s.opts.Now()
	if err := s.writeLocked(ctx, idx, session); err != nil {
		return nil, err
	}
	return session.Clone(), nil
}

func (s *SessionStore) loadLocked(ctx context.Context, id string) (*models.Session, bool, error) {
	data, err := s.kv.Get(ctx, sessionKey(id))
	if errors.Is(err, common.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read session %s: %w", id, err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, false, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &session, true, nil
}

func (s *SessionStore) readIndex(ctx context.Context) (*index, error) {
	data, err := s.kv.Get(ctx, indexKey)
	if errors.Is(err, common.ErrNotFound) {
		return &index{Version: 1}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session index: %w", err)
	}

	var idx index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to decode session index: %w", err)
	}
	return &idx, nil
}

// writeLocked stores session and replaces (or inserts) its index entry in
// one batch.
func (s *SessionStore) writeLocked(ctx context.Context, idx *index, session *models.Session) error {
	entry := session.Entry()
	if pos := findEntry(idx.Entries, session.ID); pos >= 0 {
		idx.Entries[pos] = entry
	} else {
		idx.Entries = append(idx.Entries, entry)
	}

	sessionData, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", session.ID, err)
	}
	indexData, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to encode session index: %w", err)
	}

	err = kv.Batch(ctx, s.kv, func(w kv.Writer) error {
		if err := w.Put(ctx, sessionKey(session.ID), sessionData); err != nil {
			return err
		}
		return w.Put(ctx, indexKey, indexData)
	})
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	return nil
}

func findEntry(entries []models.IndexEntry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// UniqueName returns base, or base with " (n)" appended for the smallest
// n >= 2 that no entry uses yet.
func UniqueName(base string, entries []models.IndexEntry) string {
	taken := make(map[string]bool, len(entries))
	for _, e := range entries {
		taken[e.Name] = true
	}
	if !taken[base] {
		return base
	}
	for n := 2; ; n++ {
		name := fmt.Sprintf("%s (%d)", base, n)
		if !taken[name] {
			return name
		}
	}
}

// normalizeItems fills in missing ids and rewrites Order to match the
// slice order.
func normalizeItems(items []models.Item) []models.Item {
	out := make([]models.Item, len(items))
	for i, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.Order = i
		out[i] = it
	}
	return out
}
