package notify

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindpal/backend/internal/service/notify"
)

func setupServer(t *testing.T) (*httptest.Server, *notify.Hub) {
	t.Helper()
	hub := notify.NewHub(zerolog.Nop())
	r := chi.NewRouter()
	New(hub).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func waitForSubscriber(t *testing.T, hub *notify.Hub) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketReceivesNotification(t *testing.T) {
	srv, hub := setupServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/notifications/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	waitForSubscriber(t, hub)
	require.NoError(t, hub.Notify(context.Background(), notify.Notification{Title: "MindPal 提醒", Body: "记录一下"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got notify.Notification
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "MindPal 提醒", got.Title)
	assert.Equal(t, "记录一下", got.Body)
	assert.False(t, got.At.IsZero())

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStreamReceivesNotification(t *testing.T) {
	srv, hub := setupServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/notifications/stream", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	waitForSubscriber(t, hub)
	require.NoError(t, hub.Notify(context.Background(), notify.Notification{Title: "通知已开启"}))

	reader := bufio.NewReader(resp.Body)
	event, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: notification\n", event)

	data, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(data, "data: "))
	assert.Contains(t, data, `"title":"通知已开启"`)
}

func TestStreamSendsHeartbeatWhenIdle(t *testing.T) {
	hub := notify.NewHub(zerolog.Nop())
	h := New(hub)
	h.heartbeat = 5 * time.Millisecond
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/notifications/stream", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": ping\n", line)
}
