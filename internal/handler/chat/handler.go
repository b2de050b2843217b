package chat

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/zhouzirui/mindpal/backend/internal/service/companion"
	"github.com/zhouzirui/mindpal/backend/internal/session"
	"github.com/zhouzirui/mindpal/backend/pkg/utils"
)

// TurnSender runs one conversation turn.
type TurnSender interface {
	Send(ctx context.Context, text string) (companion.TurnResult, error)
}

// Handler 聊天服务的HTTP处理器
type Handler struct {
	state *session.State
	turns TurnSender
}

// New 创建聊天处理器
func New(state *session.State, turns TurnSender) *Handler {
	return &Handler{
		state: state,
		turns: turns,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/messages", h.handleListMessages)
	r.Post("/messages", h.handleSendMessage)
	r.Post("/crisis/dismiss", h.handleDismissCrisis)
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.state.Messages())
}

type turnResponse struct {
	companion.TurnResult
	CrisisActive bool `json:"crisisActive"`
}

// handleSendMessage 提交一轮对话
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.turns.Send(r.Context(), payload.Text)
	switch {
	case errors.Is(err, companion.ErrEmptyInput):
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, companion.ErrTurnInFlight):
		utils.RespondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		hlog.FromRequest(r).Error().Err(err).Msg("send message failed")
		utils.RespondError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	utils.RespondJSON(w, http.StatusOK, turnResponse{
		TurnResult:   result,
		CrisisActive: h.state.CrisisActive(),
	})
}

// handleDismissCrisis 关闭危机干预提示
func (h *Handler) handleDismissCrisis(w http.ResponseWriter, r *http.Request) {
	h.state.DismissCrisis()
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"crisisActive": false})
}
