package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/zhouzirui/mindpal/backend/internal/handler/chat"
	"github.com/zhouzirui/mindpal/backend/internal/handler/dashboard"
	notifyHandler "github.com/zhouzirui/mindpal/backend/internal/handler/notify"
	resourceHandler "github.com/zhouzirui/mindpal/backend/internal/handler/resource"
	"github.com/zhouzirui/mindpal/backend/internal/handler/settings"
	stateHandler "github.com/zhouzirui/mindpal/backend/internal/handler/state"
	"github.com/zhouzirui/mindpal/backend/internal/metrics"
	middlewarePkg "github.com/zhouzirui/mindpal/backend/internal/middleware"
	"github.com/zhouzirui/mindpal/backend/internal/model/resource"
	"github.com/zhouzirui/mindpal/backend/internal/service/companion"
	"github.com/zhouzirui/mindpal/backend/internal/service/notify"
	"github.com/zhouzirui/mindpal/backend/internal/session"
	"github.com/zhouzirui/mindpal/backend/pkg/utils"
)

// Companion is the turn-taking surface the chat and data routes need.
type Companion interface {
	Send(ctx context.Context, text string) (companion.TurnResult, error)
	Reset(ctx context.Context) error
}

// Deps 汇总路由需要的全部服务。
type Deps struct {
	State     *session.State
	Companion Companion
	Resources resource.Store
	Hub       *notify.Hub
	Metrics   metrics.Recorder
	Logger    zerolog.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Noop{}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(deps.Logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		chat.New(deps.State, deps.Companion).RegisterRoutes(api)
		stateHandler.New(deps.State, deps.Companion).RegisterRoutes(api)
		dashboard.New(deps.State).RegisterRoutes(api)
		settings.New(deps.State, deps.Hub).RegisterRoutes(api)
		resourceHandler.New(deps.Resources).RegisterRoutes(api)
		notifyHandler.New(deps.Hub).RegisterRoutes(api)
	})

	return r
}
