package settings

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/zhouzirui/mindpal/backend/internal/model/wellness"
	"github.com/zhouzirui/mindpal/backend/internal/service/notify"
	"github.com/zhouzirui/mindpal/backend/internal/session"
	"github.com/zhouzirui/mindpal/backend/pkg/utils"
)

const (
	EnabledTitle = "通知已开启"
	EnabledBody  = "MindPal 将会按时提醒你。"
)

// Handler 用户设置的HTTP处理器
type Handler struct {
	state    *session.State
	notifier notify.Notifier
}

// New 创建设置处理器。notifier 可为 nil，此时开启提醒不会发送确认通知。
func New(state *session.State, notifier notify.Notifier) *Handler {
	return &Handler{
		state:    state,
		notifier: notifier,
	}
}

// RegisterRoutes 注册设置相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/settings", h.handleGetSettings)
	r.Put("/settings", h.handleUpdateSettings)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.state.Settings())
}

// handleUpdateSettings 部分更新设置，开启提醒时推送一条确认通知
func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch wellness.SettingsPatch
	if err := utils.DecodeJSON(r, &patch); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	previous, updated, err := h.state.UpdateSettings(r.Context(), patch)
	if err != nil {
		if errors.Is(err, session.ErrInvalidSettings) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		hlog.FromRequest(r).Error().Err(err).Msg("update settings failed")
		utils.RespondError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}

	if !previous.ReminderEnabled && updated.ReminderEnabled && h.notifier != nil {
		err := h.notifier.Notify(r.Context(), notify.Notification{Title: EnabledTitle, Body: EnabledBody})
		if err != nil && !errors.Is(err, notify.ErrNoSubscribers) {
			hlog.FromRequest(r).Warn().Err(err).Msg("reminder confirmation not delivered")
		}
	}

	utils.RespondJSON(w, http.StatusOK, updated)
}
