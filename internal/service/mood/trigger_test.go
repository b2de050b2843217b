package mood

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindpal/backend/internal/metrics"
	"github.com/zhouzirui/mindpal/backend/internal/model/chat"
	"github.com/zhouzirui/mindpal/backend/internal/model/wellness"
	"github.com/zhouzirui/mindpal/backend/internal/service/ai"
	"github.com/zhouzirui/mindpal/backend/internal/session"
	"github.com/zhouzirui/mindpal/backend/internal/storage"
)

type fakeScorer struct {
	entry wellness.MoodEntry
	err   error
	logs  []string
}

func (f *fakeScorer) ScoreMood(_ context.Context, logText string) (wellness.MoodEntry, error) {
	f.logs = append(f.logs, logText)
	return f.entry, f.err
}

func newState(t *testing.T) *session.State {
	t.Helper()
	store, err := storage.OpenBadger(storage.BadgerConfig{InMemory: true}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	now := func() time.Time { return time.Date(2026, 3, 9, 21, 0, 0, 0, time.UTC) }
	state := session.New(store, session.Options{Clock: now, Location: time.UTC, Logger: zerolog.Nop()})
	require.NoError(t, state.Load(context.Background()))
	return state
}

func TestFormatHistory(t *testing.T) {
	messages := []chat.Message{
		{Role: chat.RoleUser, Text: "一"},
		{Role: chat.RoleModel, Text: "二"},
		{Role: chat.RoleUser, Text: "三"},
	}

	assert.Equal(t, "user: 一\nmodel: 二\nuser: 三", FormatHistory(messages, 6))
	assert.Equal(t, "model: 二\nuser: 三", FormatHistory(messages, 2))
	assert.Equal(t, "", FormatHistory(nil, 6))
}

func TestAnalyzeAppendsEntryWithLocalDate(t *testing.T) {
	state := newState(t)
	ctx := context.Background()
	for i := 1; i <= 4; i++ {
		state.AppendUserMessage(ctx, fmt.Sprintf("u%d", i), false)
		state.AppendModelMessage(ctx, fmt.Sprintf("m%d", i))
	}

	scorer := &fakeScorer{entry: wellness.MoodEntry{Date: "2026-03-09", Score: 6, Emotion: "平静", Notes: "聊得不错"}}
	trigger := NewTrigger(scorer, state, Config{HistoryLimit: 6}, zerolog.Nop(), nil)

	entry, ok := trigger.Analyze(ctx)
	require.True(t, ok)
	assert.Equal(t, "03/09", entry.Date)
	assert.Equal(t, []wellness.MoodEntry{entry}, state.Moods())

	require.Len(t, scorer.logs, 1)
	assert.Equal(t, "user: u2\nmodel: m2\nuser: u3\nmodel: m3\nuser: u4\nmodel: m4", scorer.logs[0])
}

func TestAnalyzeSkipsOnFailure(t *testing.T) {
	state := newState(t)
	state.AppendUserMessage(context.Background(), "hi", false)

	cases := map[string]error{
		"transport": errors.New("connection reset"),
		"malformed": fmt.Errorf("%w: missing json object", ai.ErrMalformedResponse),
		"absent":    ai.ErrEmptyResponse,
	}
	for name, scoreErr := range cases {
		t.Run(name, func(t *testing.T) {
			trigger := NewTrigger(&fakeScorer{err: scoreErr}, state, Config{}, zerolog.Nop(), metrics.Noop{})
			_, ok := trigger.Analyze(context.Background())
			assert.False(t, ok)
			assert.Empty(t, state.Moods())
		})
	}
}

func TestAnalyzeRejectsOutOfRangeScore(t *testing.T) {
	state := newState(t)
	state.AppendUserMessage(context.Background(), "hi", false)

	trigger := NewTrigger(&fakeScorer{entry: wellness.MoodEntry{Score: 42, Emotion: "狂喜"}}, state, Config{}, zerolog.Nop(), nil)
	_, ok := trigger.Analyze(context.Background())
	assert.False(t, ok)
	assert.Empty(t, state.Moods())
}

func TestAnalyzeWithoutHistory(t *testing.T) {
	scorer := &fakeScorer{entry: wellness.MoodEntry{Score: 5, Emotion: "平静"}}
	trigger := NewTrigger(scorer, newState(t), Config{}, zerolog.Nop(), nil)

	_, ok := trigger.Analyze(context.Background())
	assert.False(t, ok)
	assert.Empty(t, scorer.logs)
}
