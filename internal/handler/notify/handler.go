package notify

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"

	"github.com/zhouzirui/mindpal/backend/internal/service/notify"
	"github.com/zhouzirui/mindpal/backend/pkg/utils"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second

	// sseHeartbeat keeps idle SSE connections alive through proxies.
	sseHeartbeat = 8 * time.Second
)

// Subscriber hands out notification streams.
type Subscriber interface {
	Subscribe() (<-chan notify.Notification, func())
}

// Handler 把提醒通知推送给前端，支持 WebSocket 与 SSE 两种通道
type Handler struct {
	hub       Subscriber
	upgrader  websocket.Upgrader
	heartbeat time.Duration
}

// New 创建通知处理器
func New(hub Subscriber) *Handler {
	return &Handler{
		hub:       hub,
		heartbeat: sseHeartbeat,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册通知相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications/ws", h.handleWebSocket)
	r.Get("/notifications/stream", h.handleStream)
}

// handleWebSocket 处理WebSocket连接，客户端发来的消息一律忽略
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	logger := hlog.FromRequest(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	notifications, cancel := h.hub.Subscribe()
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	logger.Debug().Msg("notification websocket connected")
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(n); err != nil {
				logger.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleStream 以 SSE 推送通知
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	notifications, cancel := h.hub.Subscribe()
	defer cancel()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "ping"); err != nil {
				hlog.FromRequest(r).Debug().Err(err).Msg("sse heartbeat failed")
				return
			}
		case n, ok := <-notifications:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, "notification", n); err != nil {
				hlog.FromRequest(r).Debug().Err(err).Msg("sse write failed")
				return
			}
		}
	}
}
