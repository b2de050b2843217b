package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrNoSubscribers 表示当前没有任何通知接收端，通知被丢弃。
var ErrNoSubscribers = errors.New("no notification subscribers")

const subscriberBuffer = 8

// Notification is one user-facing notification intent.
type Notification struct {
	Title string    `json:"title"`
	Body  string    `json:"body"`
	At    time.Time `json:"at"`
}

// Notifier dispatches notification intents.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Hub fans notifications out to websocket and SSE subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Notification
	nextID uint64
	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		subs:   make(map[uint64]chan Notification),
		logger: logger.With().Str("component", "notify").Logger(),
	}
}

// Subscribe registers a receiver. The returned cancel func unregisters it and
// closes the channel.
func (h *Hub) Subscribe() (<-chan Notification, func()) {
	ch := make(chan Notification, subscriberBuffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Notify delivers n to every subscriber without blocking. Slow subscribers miss it.
func (h *Hub) Notify(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	h.logger.Info().Str("title", n.Title).Int("subscribers", len(h.subs)).Msg("notification dispatched")
	if len(h.subs) == 0 {
		return ErrNoSubscribers
	}

	for id, ch := range h.subs {
		select {
		case ch <- n:
		default:
			h.logger.Warn().Uint64("subscriber", id).Msg("subscriber buffer full, notification dropped")
		}
	}
	return nil
}

// Subscribers reports how many receivers are connected.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
