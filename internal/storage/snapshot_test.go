package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := openMemory(t)
	require.NoError(t, source.Save(ctx, SlotMessages, []string{"hello", "world"}))
	require.NoError(t, source.Save(ctx, SlotSettings, map[string]any{"reminderTime": "21:30"}))

	path := filepath.Join(t.TempDir(), "backup.zst")
	exported, err := Export(source, path, time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, exported)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	target := openMemory(t)
	require.NoError(t, target.Save(ctx, SlotMoods, []string{"untouched"}))

	restored, err := Import(target, path)
	require.NoError(t, err)
	assert.Equal(t, 2, restored)

	var messages []string
	ok, err := target.Load(ctx, SlotMessages, &messages)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"hello", "world"}, messages)

	var moods []string
	_, err = target.Load(ctx, SlotMoods, &moods)
	require.NoError(t, err)
	assert.Equal(t, []string{"untouched"}, moods)
}

func TestImportMissingFile(t *testing.T) {
	_, err := Import(openMemory(t), filepath.Join(t.TempDir(), "absent.zst"))
	assert.Error(t, err)
}

func TestImportCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.zst")
	require.NoError(t, os.WriteFile(path, []byte("definitely not zstd"), 0o644))

	_, err := Import(openMemory(t), path)
	assert.Error(t, err)
}

func TestImportEmptySnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.zst")
	_, err := Export(openMemory(t), path, time.Now())
	require.NoError(t, err)

	_, err = Import(openMemory(t), path)
	assert.Error(t, err)
}
