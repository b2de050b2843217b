package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.ModelName())
	assert.InDelta(t, 0.7, cfg.AI.Temperature, 1e-9)
	assert.Equal(t, 6, cfg.Mood.HistoryLimit)
	assert.Equal(t, 3, cfg.Mood.Every)
	assert.Equal(t, time.Second, cfg.Reminder.PollInterval)
	assert.Equal(t, time.Second, cfg.Tracker.Interval)
	assert.Equal(t, "MindPal 每日提醒", cfg.Reminder.Title)
	assert.False(t, cfg.AI.Enabled())
}

func TestLoadServerConfigVariants(t *testing.T) {
	cases := map[string]string{
		"9090":           ":9090",
		":7000":          ":7000",
		"127.0.0.1:8081": "127.0.0.1:8081",
		"":               ":8080",
	}
	for input, want := range cases {
		got, err := loadServerConfig(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got.Addr, input)
	}

	_, err := loadServerConfig("80 80")
	assert.Error(t, err)
}

func TestLoadGeminiKeyFromLegacyEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "legacy-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.AI.Gemini.APIKey)
	assert.True(t, cfg.AI.Enabled())
}

func TestLoadPrefixedEnv(t *testing.T) {
	t.Setenv("MINDPAL_AI_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MINDPAL_LOG_LEVEL", "DEBUG")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.ModelName())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.AI.Enabled())
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("MINDPAL_AI_PROVIDER", "parrot")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("MINDPAL_APP_TIMEZONE", "Mars/Olympus")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mindpal.yaml")
	content := []byte(`
store:
  path: /tmp/mindpal-test
mood:
  every: 4
reminder:
  pollInterval: 2s
app:
  timezone: Asia/Shanghai
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/mindpal-test", cfg.Store.Path)
	assert.Equal(t, 4, cfg.Mood.Every)
	assert.Equal(t, 2*time.Second, cfg.Reminder.PollInterval)

	loc, err := cfg.App.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Shanghai", loc.String())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestArkEnabled(t *testing.T) {
	assert.False(t, ArkConfig{APIKey: "k"}.Enabled())
	assert.True(t, ArkConfig{APIKey: "k", Model: "ep-1"}.Enabled())
	assert.True(t, ArkConfig{AccessKey: "a", SecretKey: "s", Model: "ep-1"}.Enabled())
}
