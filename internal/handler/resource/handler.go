package resource

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindpal/backend/internal/model/resource"
	"github.com/zhouzirui/mindpal/backend/pkg/utils"
)

// Handler 资源库的HTTP处理器
type Handler struct {
	resources resource.Store
}

// New 创建资源处理器
func New(resources resource.Store) *Handler {
	return &Handler{
		resources: resources,
	}
}

// RegisterRoutes 注册资源相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/resources", h.handleListResources)
	r.Get("/resources/{resourceID}", h.handleGetResource)
}

// handleListResources 列出资源，可按 category 过滤
func (h *Handler) handleListResources(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		utils.RespondJSON(w, http.StatusOK, h.resources.List())
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.resources.ListByCategory(resource.Category(category)))
}

func (h *Handler) handleGetResource(w http.ResponseWriter, r *http.Request) {
	item, ok := h.resources.FindByID(chi.URLParam(r, "resourceID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "resource not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, item)
}
