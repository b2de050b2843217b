package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string    `json:"name"`
	Count int       `json:"count"`
	At    time.Time `json:"at"`
}

func openMemory(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := OpenBadger(BadgerConfig{InMemory: true}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBadgerStore_LoadAbsentSlot(t *testing.T) {
	store := openMemory(t)

	var dst record
	ok, err := store.Load(context.Background(), SlotStats, &dst)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBadgerStore_SaveOverwritesSlot(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()
	at := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, SlotStats, record{Name: "first", Count: 1, At: at}))
	require.NoError(t, store.Save(ctx, SlotStats, record{Name: "second", Count: 2, At: at}))

	var got record
	ok, err := store.Load(ctx, SlotStats, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, record{Name: "second", Count: 2, At: at}, got)
}

func TestBadgerStore_SlotsAreIndependent(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, SlotMessages, []string{"a", "b"}))
	require.NoError(t, store.Save(ctx, SlotMoods, []string{"c"}))

	var messages, moods []string
	_, err := store.Load(ctx, SlotMessages, &messages)
	require.NoError(t, err)
	_, err = store.Load(ctx, SlotMoods, &moods)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, messages)
	assert.Equal(t, []string{"c"}, moods)
}

func TestBadgerStore_SaveUnencodableValue(t *testing.T) {
	store := openMemory(t)
	err := store.Save(context.Background(), SlotSettings, make(chan int))
	assert.Error(t, err)
}

func TestBadgerStore_LoadCorruptSlot(t *testing.T) {
	store := openMemory(t)
	require.NoError(t, store.SaveRaw(SlotStats, []byte("not json")))

	var dst record
	ok, err := store.Load(context.Background(), SlotStats, &dst)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestBadgerStore_Clear(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()
	for _, slot := range AllSlots() {
		require.NoError(t, store.Save(ctx, slot, 1))
	}

	require.NoError(t, store.Clear(ctx))

	for _, slot := range AllSlots() {
		var v int
		ok, err := store.Load(ctx, slot, &v)
		require.NoError(t, err)
		assert.False(t, ok, slot)
	}
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	ctx := context.Background()

	store, err := OpenBadger(BadgerConfig{Path: dir, SyncWrites: true}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, SlotSettings, record{Name: "kept"}))
	require.NoError(t, store.Close())

	reopened, err := OpenBadger(BadgerConfig{Path: dir}, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	var got record
	ok, err := reopened.Load(ctx, SlotSettings, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "kept", got.Name)
}

func TestOpenBadger_RequiresPath(t *testing.T) {
	_, err := OpenBadger(BadgerConfig{}, zerolog.Nop())
	assert.Error(t, err)
}
