package mood

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindpal/backend/internal/metrics"
	"github.com/zhouzirui/mindpal/backend/internal/model/chat"
	"github.com/zhouzirui/mindpal/backend/internal/model/wellness"
	"github.com/zhouzirui/mindpal/backend/internal/service/ai"
	"github.com/zhouzirui/mindpal/backend/internal/session"
)

// Config 控制情绪分析的上下文窗口与超时。
type Config struct {
	HistoryLimit int
	Timeout      time.Duration
}

// Trigger 从最近的对话中推断情绪并写入心情记录。
type Trigger struct {
	scorer       ai.MoodScorer
	state        *session.State
	historyLimit int
	timeout      time.Duration
	logger       zerolog.Logger
	metrics      metrics.Recorder
}

// NewTrigger creates a Trigger. A zero HistoryLimit falls back to 6.
func NewTrigger(scorer ai.MoodScorer, state *session.State, cfg Config, logger zerolog.Logger, recorder metrics.Recorder) *Trigger {
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 6
	}
	if recorder == nil {
		recorder = metrics.Noop{}
	}

	return &Trigger{
		scorer:       scorer,
		state:        state,
		historyLimit: historyLimit,
		timeout:      cfg.Timeout,
		logger:       logger.With().Str("component", "mood").Logger(),
		metrics:      recorder,
	}
}

// Analyze scores the recent conversation and appends the resulting entry.
// Any failure is logged and swallowed; ok reports whether an entry was added.
func (t *Trigger) Analyze(ctx context.Context) (wellness.MoodEntry, bool) {
	history := t.state.RecentMessages(t.historyLimit)
	if len(history) == 0 {
		t.metrics.IncMoodAnalyses(metrics.OutcomeSkipped)
		return wellness.MoodEntry{}, false
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	entry, err := t.scorer.ScoreMood(ctx, FormatHistory(history, t.historyLimit))
	if err != nil {
		outcome := metrics.OutcomeFailed
		if errors.Is(err, ai.ErrMalformedResponse) || errors.Is(err, ai.ErrEmptyResponse) {
			outcome = metrics.OutcomeMalformed
		}
		t.metrics.IncMoodAnalyses(outcome)
		t.logger.Warn().Err(err).Int("messages", len(history)).Msg("mood analysis failed")
		return wellness.MoodEntry{}, false
	}

	appended, err := t.state.AppendMoodEntry(ctx, entry)
	if err != nil {
		t.metrics.IncMoodAnalyses(metrics.OutcomeMalformed)
		t.logger.Warn().Err(err).Msg("mood entry rejected")
		return wellness.MoodEntry{}, false
	}

	t.metrics.IncMoodAnalyses(metrics.OutcomeAppended)
	t.logger.Info().
		Int("score", appended.Score).
		Str("emotion", appended.Emotion).
		Str("date", appended.Date).
		Msg("mood entry recorded")
	return appended, true
}

// FormatHistory renders the last limit messages as "role: text" lines, newest last.
func FormatHistory(messages []chat.Message, limit int) string {
	if limit < 1 {
		limit = 1
	}
	start := len(messages) - limit
	if start < 0 {
		start = 0
	}

	lines := make([]string, 0, len(messages)-start)
	for _, msg := range messages[start:] {
		lines = append(lines, string(msg.Role)+": "+msg.Text)
	}
	return strings.Join(lines, "\n")
}
