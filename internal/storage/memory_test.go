package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var got record
	ok, err := store.Load(ctx, SlotStats, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, SlotStats, record{Name: "today", Count: 3}))
	ok, err = store.Load(ctx, SlotStats, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "today", got.Name)

	require.NoError(t, store.Clear(ctx))
	ok, err = store.Load(ctx, SlotStats, &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreSnapshotIntoBadger(t *testing.T) {
	ctx := context.Background()
	source := NewMemoryStore()
	require.NoError(t, source.Save(ctx, SlotMoods, []string{"平静"}))

	path := filepath.Join(t.TempDir(), "mem.zst")
	n, err := Export(source, path, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	target := openMemory(t)
	_, err = Import(target, path)
	require.NoError(t, err)

	var moods []string
	ok, err := target.Load(ctx, SlotMoods, &moods)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"平静"}, moods)
}
