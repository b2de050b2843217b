package tracker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindpal/backend/internal/session"
)

// Presence reports how many clients are currently connected.
type Presence interface {
	Subscribers() int
}

// Tracker 在聊天页面激活且有客户端在线期间每秒累计陪伴时长。
type Tracker struct {
	state    *session.State
	presence Presence
	interval time.Duration
	logger   zerolog.Logger
}

// New creates a Tracker. The stored view alone survives restarts, so a tick
// also requires at least one connected client reported by presence.
func New(state *session.State, presence Presence, interval time.Duration, logger zerolog.Logger) *Tracker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Tracker{
		state:    state,
		presence: presence,
		interval: interval,
		logger:   logger.With().Str("component", "tracker").Logger(),
	}
}

// Tick counts one second when the chat view is active and a client is connected.
func (t *Tracker) Tick(ctx context.Context) bool {
	if t.state.View() != session.ViewChat {
		return false
	}
	if t.presence == nil || t.presence.Subscribers() == 0 {
		return false
	}
	t.state.TickDuration(ctx)
	return true
}

// Run ticks until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Debug().Dur("interval", t.interval).Msg("duration tracker started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.Tick(ctx)
		}
	}
}
