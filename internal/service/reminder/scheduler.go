package reminder

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindpal/backend/internal/metrics"
	"github.com/zhouzirui/mindpal/backend/internal/model/wellness"
	"github.com/zhouzirui/mindpal/backend/internal/service/notify"
	"github.com/zhouzirui/mindpal/backend/internal/session"
)

const (
	DefaultTitle = "MindPal 每日提醒"
	DefaultBody  = "今天过得怎么样？来聊聊吧！🌿"
)

// Config 控制提醒轮询与通知文案。
type Config struct {
	PollInterval time.Duration
	Title        string
	Body         string
	Location     *time.Location
	Clock        func() time.Time
}

// Scheduler fires the daily reminder at most once per wall-clock minute.
type Scheduler struct {
	state    *session.State
	notifier notify.Notifier
	cfg      Config
	logger   zerolog.Logger
	metrics  metrics.Recorder
}

func NewScheduler(state *session.State, notifier notify.Notifier, cfg Config, logger zerolog.Logger, recorder metrics.Recorder) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	if cfg.Body == "" {
		cfg.Body = DefaultBody
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if recorder == nil {
		recorder = metrics.Noop{}
	}

	return &Scheduler{
		state:    state,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.With().Str("component", "reminder").Logger(),
		metrics:  recorder,
	}
}

// Check evaluates the reminder once and reports whether it fired. The
// last-fired marker is persisted before the notification is dispatched.
func (s *Scheduler) Check(ctx context.Context) bool {
	settings := s.state.Settings()
	if !settings.ReminderEnabled {
		return false
	}

	now := s.cfg.Clock().In(s.cfg.Location)
	if now.Format("15:04") != settings.ReminderTime {
		return false
	}

	key := now.Format(wellness.MinuteKeyLayout)
	if !s.state.MarkReminderFired(ctx, key) {
		return false
	}

	s.metrics.IncRemindersFired()
	err := s.notifier.Notify(ctx, notify.Notification{
		Title: s.cfg.Title,
		Body:  s.cfg.Body,
		At:    now.UTC().Truncate(time.Second),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("minute", key).Msg("reminder notification not delivered")
	} else {
		s.logger.Info().Str("minute", key).Msg("reminder fired")
	}
	return true
}

// Run polls until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.logger.Debug().Dur("interval", s.cfg.PollInterval).Msg("reminder scheduler started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}
