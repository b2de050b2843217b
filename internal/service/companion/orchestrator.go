package companion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindpal/backend/internal/analysis/crisis"
	"github.com/zhouzirui/mindpal/backend/internal/metrics"
	"github.com/zhouzirui/mindpal/backend/internal/model/chat"
	"github.com/zhouzirui/mindpal/backend/internal/model/wellness"
	"github.com/zhouzirui/mindpal/backend/internal/service/ai"
	"github.com/zhouzirui/mindpal/backend/internal/session"
)

const (
	// FallbackConnection 在对话服务出错时展示给用户，不写入历史。
	FallbackConnection = "连接似乎出了点问题，我们能重新开始吗？"
	// FallbackTired 在模型返回空内容时展示给用户。
	FallbackTired = "抱歉，我现在有点累，请稍后再试。"
)

var (
	ErrEmptyInput   = errors.New("message text is empty")
	ErrTurnInFlight = errors.New("a turn is already in flight")
)

// Phase is the orchestrator's turn state.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseSending
)

func (p Phase) String() string {
	if p == PhaseSending {
		return "sending"
	}
	return "idle"
}

// MoodAnalyzer runs one mood analysis over the current conversation.
type MoodAnalyzer interface {
	Analyze(ctx context.Context) (wellness.MoodEntry, bool)
}

type conversationResetter interface {
	ResetConversation(ctx context.Context) error
}

// Config tunes turn handling.
type Config struct {
	// MoodEvery triggers a mood analysis after a successful turn whenever
	// today's user message count (DailyStats.MessageCount) is a multiple of it.
	// The count is per day, not the length of the whole history, so it starts
	// over at local midnight and the first analysis of a day comes after the
	// day's MoodEvery-th message. Defaults to 3.
	MoodEvery int
	Timeout   time.Duration
}

// TurnResult 描述一次对话轮次的结果。Reply 为空时 Fallback 给出展示文本。
type TurnResult struct {
	User     chat.Message  `json:"user"`
	Reply    *chat.Message `json:"reply,omitempty"`
	Crisis   bool          `json:"crisis"`
	Fallback string        `json:"fallback,omitempty"`
	Outcome  string        `json:"outcome"`
}

// Orchestrator drives one conversation turn at a time.
type Orchestrator struct {
	state        *session.State
	conversation ai.Conversation
	mood         MoodAnalyzer
	cfg          Config
	logger       zerolog.Logger
	metrics      metrics.Recorder

	phase atomic.Int32

	baseCtx context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	closed  bool
	wg      sync.WaitGroup
}

// New wires the orchestrator. mood may be nil to disable analysis.
func New(state *session.State, conversation ai.Conversation, mood MoodAnalyzer, cfg Config, logger zerolog.Logger, recorder metrics.Recorder) *Orchestrator {
	if cfg.MoodEvery <= 0 {
		cfg.MoodEvery = 3
	}
	if recorder == nil {
		recorder = metrics.Noop{}
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		state:        state,
		conversation: conversation,
		mood:         mood,
		cfg:          cfg,
		logger:       logger.With().Str("component", "companion").Logger(),
		metrics:      recorder,
		baseCtx:      baseCtx,
		cancel:       cancel,
	}
}

func (o *Orchestrator) Phase() Phase {
	return Phase(o.phase.Load())
}

// Send runs a full turn for text. A failed model call is not an error: the
// result carries the fallback text instead of a reply.
func (o *Orchestrator) Send(ctx context.Context, text string) (TurnResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return TurnResult{}, ErrEmptyInput
	}
	if !o.phase.CompareAndSwap(int32(PhaseIdle), int32(PhaseSending)) {
		o.metrics.IncTurns(metrics.OutcomeSkipped)
		return TurnResult{}, ErrTurnInFlight
	}
	defer o.phase.Store(int32(PhaseIdle))

	keyword, isCrisis := crisis.Match(trimmed)
	user, stats := o.state.AppendUserMessage(ctx, trimmed, isCrisis)
	if isCrisis {
		o.state.RaiseCrisis()
		o.metrics.IncCrisisDetections()
		o.logger.Warn().Str("keyword", keyword).Str("message_id", user.ID).Msg("crisis language detected")
	}

	result := TurnResult{User: user, Crisis: isCrisis}

	callCtx := ctx
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := o.conversation.Converse(callCtx, trimmed)
	o.metrics.ObserveTurnDuration(time.Since(start))
	if err != nil {
		result.Outcome = metrics.OutcomeFailed
		result.Fallback = FallbackConnection
		if errors.Is(err, ai.ErrEmptyResponse) {
			result.Fallback = FallbackTired
		}
		o.metrics.IncTurns(metrics.OutcomeFailed)
		o.logger.Error().Err(err).Str("message_id", user.ID).Msg("conversation turn failed")
		return result, nil
	}

	model := o.state.AppendModelMessage(ctx, reply)
	result.Reply = &model
	result.Outcome = metrics.OutcomeSucceeded
	o.metrics.IncTurns(metrics.OutcomeSucceeded)

	if stats.MessageCount > 0 && stats.MessageCount%o.cfg.MoodEvery == 0 {
		o.analyzeAsync(stats.MessageCount)
	}

	o.logger.Debug().
		Str("message_id", user.ID).
		Int("message_count", stats.MessageCount).
		Int("reply_length", len(reply)).
		Msg("turn completed")
	return result, nil
}

// Reset wipes all persisted data and the model-side conversation. It is
// rejected while a turn is in flight.
func (o *Orchestrator) Reset(ctx context.Context) error {
	if !o.phase.CompareAndSwap(int32(PhaseIdle), int32(PhaseSending)) {
		return ErrTurnInFlight
	}
	defer o.phase.Store(int32(PhaseIdle))

	if err := o.state.Reset(ctx); err != nil {
		return err
	}
	if r, ok := o.conversation.(conversationResetter); ok {
		if err := r.ResetConversation(ctx); err != nil {
			o.logger.Warn().Err(err).Msg("conversation reset failed")
		}
	}
	o.logger.Info().Msg("all data reset")
	return nil
}

func (o *Orchestrator) analyzeAsync(messageCount int) {
	if o.mood == nil {
		return
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.wg.Add(1)
	o.mu.Unlock()

	go func() {
		defer o.wg.Done()
		o.logger.Debug().Int("message_count", messageCount).Msg("mood analysis triggered")
		o.mood.Analyze(o.baseCtx)
	}()
}

// Wait blocks until every in-flight mood analysis returns.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close cancels pending analyses and waits for them to exit.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	o.cancel()
	o.wg.Wait()
}
