package storage

import (
	"context"
	"testing"

	"github.com/listlens/listlens/internal/categories"
	"github.com/listlens/listlens/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateLegacyObjects(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, mem.Put(ctx, LegacyListKey, []byte(`[
		{"name": "bananas", "category": "Produce", "checked": true},
		{"name": "birthday candles", "category": "Party"},
		{"name": "  "},
		{"name": "milk"}
	]`)))
	require.NoError(t, mem.Put(ctx, LegacyImageKey, testJPEG(t, 320, 240)))

	session, err := s.MigrateLegacy(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	s.Wait()

	require.Len(t, session.Items, 3)
	assert.True(t, session.Items[0].Checked)
	assert.Equal(t, "Party", session.Items[1].Category.Name())
	assert.Equal(t, categories.KindCustom, session.Items[1].Category.Kind())
	assert.Equal(t, categories.Canonical(categories.DairyEggs), session.Items[2].Category)

	_, err = mem.Get(ctx, LegacyListKey)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = mem.Get(ctx, LegacyImageKey)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, ok, err := s.Thumbnail(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	again, err := s.MigrateLegacy(ctx)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestMigrateLegacyNames(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, mem.Put(ctx, LegacyListKey, []byte(`["eggs", "dog treats"]`)))

	session, err := s.MigrateLegacy(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Len(t, session.Items, 2)
	assert.Equal(t, categories.Canonical(categories.Pet), session.Items[1].Category)
	assert.Equal(t, "Monday, Jan 5", session.Name)
}

func TestMigrateLegacyEmpty(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, mem.Put(ctx, LegacyListKey, []byte(`[]`)))

	session, err := s.MigrateLegacy(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)

	entries, err := s.ListIndex(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, err = mem.Get(ctx, LegacyListKey)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMigrateLegacyCorrupt(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, mem.Put(ctx, LegacyListKey, []byte(`{"oops"`)))

	_, err := s.MigrateLegacy(ctx)
	assert.Error(t, err)

	// left in place so nothing is lost
	_, err = mem.Get(ctx, LegacyListKey)
	assert.NoError(t, err)
}
