package notify

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHubFansOut(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	first, cancelFirst := hub.Subscribe()
	defer cancelFirst()
	second, cancelSecond := hub.Subscribe()
	defer cancelSecond()

	require.NoError(t, hub.Notify(context.Background(), Notification{Title: "MindPal 每日提醒", Body: "来聊聊吧"}))

	for _, ch := range []<-chan Notification{first, second} {
		got := <-ch
		assert.Equal(t, "MindPal 每日提醒", got.Title)
		assert.False(t, got.At.IsZero())
	}
}

func TestHubWithoutSubscribers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	err := hub.Notify(context.Background(), Notification{Title: "x"})
	assert.ErrorIs(t, err, ErrNoSubscribers)
}

func TestHubCancelUnsubscribes(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ch, cancel := hub.Subscribe()
	assert.Equal(t, 1, hub.Subscribers())

	cancel()
	cancel()
	assert.Equal(t, 0, hub.Subscribers())

	_, open := <-ch
	assert.False(t, open)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ch, cancel := hub.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+3; i++ {
		require.NoError(t, hub.Notify(context.Background(), Notification{Title: "x"}))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestHubCancelledContext(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, hub.Notify(ctx, Notification{}), context.Canceled)
}
