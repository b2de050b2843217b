package dashboard

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindpal/backend/internal/model/wellness"
	"github.com/zhouzirui/mindpal/backend/internal/session"
	"github.com/zhouzirui/mindpal/backend/pkg/utils"
)

// Handler 情绪看板的HTTP处理器
type Handler struct {
	state *session.State
}

func New(state *session.State) *Handler {
	return &Handler{state: state}
}

// RegisterRoutes 注册看板相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/moods", h.handleListMoods)
	r.Get("/stats", h.handleGetStats)
	r.Get("/dashboard", h.handleDashboard)
}

type statsResponse struct {
	wellness.DailyStats
	DurationText string `json:"durationText"`
}

type dashboardResponse struct {
	Moods        []wellness.MoodEntry `json:"moods"`
	Stats        statsResponse        `json:"stats"`
	AverageScore float64              `json:"averageScore"`
}

func (h *Handler) handleListMoods(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.state.Moods())
}

func (h *Handler) handleGetStats(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, newStatsResponse(h.state.Stats()))
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	moods := h.state.Moods()
	utils.RespondJSON(w, http.StatusOK, dashboardResponse{
		Moods:        moods,
		Stats:        newStatsResponse(h.state.Stats()),
		AverageScore: averageScore(moods),
	})
}

func newStatsResponse(stats wellness.DailyStats) statsResponse {
	return statsResponse{DailyStats: stats, DurationText: FormatDuration(stats.DurationSeconds)}
}

// FormatDuration 把秒数格式化为 "X小时 Y分钟" 或 "Y分钟"。
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%d小时 %d分钟", hours, minutes)
	}
	return fmt.Sprintf("%d分钟", minutes)
}

func averageScore(moods []wellness.MoodEntry) float64 {
	if len(moods) == 0 {
		return 0
	}
	total := 0
	for _, m := range moods {
		total += m.Score
	}
	return float64(total) / float64(len(moods))
}
