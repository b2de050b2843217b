package state

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

// Resetter wipes all persisted data.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler 会话状态的HTTP处理器
type Handler struct {
	state    *session.State
	resetter Resetter
}

// New 创建状态处理器
func New(state *session.State, resetter Resetter) *Handler {
	return &Handler{
		state:    state,
		resetter: resetter,
	}
}

// RegisterRoutes 注册状态相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/state", h.handleGetState)
	r.Put("/view", h.handleSetView)
	r.Post("/onboarding", h.handleCompleteOnboarding)
	r.Delete("/data", h.handleReset)
}

func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.state.Snapshot())
}

func (h *Handler) handleSetView(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		View string `json:"view"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := session.ParseView(payload.View)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.state.SetView(view); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]session.View{"view": view})
}

// handleCompleteOnboarding 完成引导，必要时写入问候语
func (h *Handler) handleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	settings := h.state.CompleteOnboarding(r.Context())
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"settings": settings,
		"messages": h.state.Messages(),
		"view":     h.state.View(),
	})
}

// handleReset 清除全部数据，回到首次使用状态
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	err := h.resetter.Reset(r.Context())
	switch {
	case errors.Is(err, companion.ErrTurnInFlight):
		utils.RespondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		hlog.FromRequest(r).Error().Err(err).Msg("reset failed")
		utils.RespondError(w, http.StatusInternalServerError, "failed to clear data")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
