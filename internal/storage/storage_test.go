package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"
	"time"

	"github.com/listlens/listlens/internal/categories"
	"github.com/listlens/listlens/internal/common"
	"github.com/listlens/listlens/internal/kv"
	"github.com/listlens/listlens/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestStore(t *testing.T) (*SessionStore, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	c := &clock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	return New(mem, Options{Now: c.Now}), mem
}

func items(names ...string) []models.Item {
	out := make([]models.Item, len(names))
	for i, n := range names {
		out[i] = models.Item{Name: n, Category: categories.CategoryFor(n)}
	}
	return out
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 100, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// assertIndexConsistent checks that every index entry matches its session
// record.
func assertIndexConsistent(t *testing.T, s *SessionStore) {
	t.Helper()
	ctx := context.Background()
	entries, err := s.ListIndex(ctx)
	require.NoError(t, err)
	for _, e := range entries {
		session, ok, err := s.Load(ctx, e.ID)
		require.NoError(t, err)
		require.True(t, ok, "index entry %s has no session", e.ID)
		assert.Equal(t, session.Entry(), e)
	}
}

func TestCreateNamesSessionsByDate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.Create(ctx, items("bananas"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Monday, Jan 5", first.Name)

	second, err := s.Create(ctx, items("milk"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Monday, Jan 5 (2)", second.Name)

	third, err := s.Create(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Monday, Jan 5 (3)", third.Name)

	assertIndexConsistent(t, s)
}

func TestUniqueName(t *testing.T) {
	entries := []models.IndexEntry{{Name: "Monday, Jan 5"}, {Name: "Monday, Jan 5 (3)"}}
	assert.Equal(t, "Tuesday, Jan 6", UniqueName("Tuesday, Jan 6", entries))
	assert.Equal(t, "Monday, Jan 5 (2)", UniqueName("Monday, Jan 5", entries))
	assert.Equal(t, "Monday, Jan 5", UniqueName("Monday, Jan 5", nil))
}

func TestCreateAssignsIDsAndOrder(t *testing.T) {
	s, _ := newTestStore(t)
	session, err := s.Create(context.Background(), items("eggs", "bread", "tide pods"), nil)
	require.NoError(t, err)

	seen := map[string]bool{}
	for i, it := range session.Items {
		assert.NotEmpty(t, it.ID)
		assert.False(t, seen[it.ID])
		seen[it.ID] = true
		assert.Equal(t, i, it.Order)
	}
}

func TestLoadUnknown(t *testing.T) {
	s, _ := newTestStore(t)
	session, ok, err := s.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, session)
}

func TestUpdateAndDeleteUnknown(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	name := "x"

	_, err := s.Update(ctx, "nope", Patch{Name: &name})
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "nope"), common.ErrNotFound)
}

func TestUpdateRenames(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	session, err := s.Create(ctx, items("milk"), nil)
	require.NoError(t, err)

	name := "Party"
	updated, err := s.Update(ctx, session.ID, Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Party", updated.Name)
	assert.True(t, updated.UpdatedAt.After(session.UpdatedAt))
	assert.Len(t, updated.Items, 1)

	entries, err := s.ListIndex(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Party", entries[0].Name)
}

func TestSaveInsertsAndReplaces(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	session := &models.Session{ID: "manual", Name: "Manual", Items: items("apples")}
	require.NoError(t, s.Save(ctx, session))
	assert.False(t, session.CreatedAt.IsZero())

	session.Items[0].Checked = true
	require.NoError(t, s.Save(ctx, session))

	entries, err := s.ListIndex(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].CheckedCount)
	assertIndexConsistent(t, s)

	assert.Error(t, s.Save(ctx, &models.Session{}))
}

func TestDeleteRemovesEverything(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	session, err := s.Create(ctx, items("milk"), testJPEG(t, 64, 48))
	require.NoError(t, err)
	s.Wait()

	require.NoError(t, s.Delete(ctx, session.ID))

	_, ok, err := s.Load(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := s.ListIndex(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	keys, err := mem.Keys(ctx, thumbnailPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestOrphans(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, items("milk"), nil)
	require.NoError(t, err)
	orphans, err := s.Orphans(ctx)
	require.NoError(t, err)
	assert.Empty(t, orphans)

	require.NoError(t, mem.Put(ctx, sessionKey("stray"), []byte(`{"id":"stray","name":"Lost"}`)))
	orphans, err = s.Orphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"stray"}, orphans)
}

// unlistable hides the Keys method of the wrapped store.
type unlistable struct{ kv.Store }

func TestOrphansNeedsLister(t *testing.T) {
	s := New(unlistable{kv.NewMemory()}, Options{})
	_, err := s.Orphans(context.Background())
	assert.ErrorIs(t, err, errors.ErrUnsupported)
}

func TestListIndexNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, items("a"), nil)
	require.NoError(t, err)
	b, err := s.Create(ctx, items("b"), nil)
	require.NoError(t, err)

	entries, err := s.ListIndex(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, b.ID, entries[0].ID)
	assert.Equal(t, a.ID, entries[1].ID)
}

func TestThumbnailWrittenInBackground(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	session, err := s.Create(ctx, items("milk"), testJPEG(t, 800, 600))
	require.NoError(t, err)
	s.Wait()

	data, ok, err := s.Thumbnail(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, ok)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 240, img.Bounds().Dx())

	entries, err := s.ListIndex(ctx)
	require.NoError(t, err)
	assert.True(t, entries[0].HasImage)
	assertIndexConsistent(t, s)
}

func TestThumbnailFallsBackToOriginal(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	raw := []byte("not an image")
	session, err := s.Create(ctx, items("milk"), raw)
	require.NoError(t, err)
	s.Wait()

	data, ok, err := s.Thumbnail(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, raw, data)
}

func TestNoThumbnail(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	session, err := s.Create(ctx, items("milk"), nil)
	require.NoError(t, err)

	_, ok, err := s.Thumbnail(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, session.Entry().HasImage)
}

func TestIndexMatchesAfterManyWrites(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := s.Create(ctx, items("milk", "eggs"), nil)
			if !assert.NoError(t, err) {
				return
			}
			_, err = s.ToggleItem(ctx, session.ID, session.Items[0].ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := s.ListIndex(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 10)
	names := map[string]bool{}
	for _, e := range entries {
		assert.False(t, names[e.Name], "duplicate name %q", e.Name)
		names[e.Name] = true
		assert.Equal(t, 1, e.CheckedCount)
	}
	assertIndexConsistent(t, s)
}

func TestIndexIsStoredAsJSON(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, items("milk"), nil)
	require.NoError(t, err)

	raw, err := mem.Get(ctx, indexKey)
	require.NoError(t, err)
	var idx index
	require.NoError(t, json.Unmarshal(raw, &idx))
	assert.Equal(t, 1, idx.Version)
	assert.Len(t, idx.Entries, 1)
}
