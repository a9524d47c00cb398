package web

import (
	"net/http"

	"github.com/brizzai/auto-eda/internal/auth"
	"github.com/brizzai/auto-eda/internal/auth/handlers"
	authmw "github.com/brizzai/auto-eda/internal/auth/middleware"
	"github.com/brizzai/auto-eda/internal/metrics"
	"github.com/brizzai/auto-eda/internal/session"
	"github.com/brizzai/auto-eda/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"
)

// RouterParams holds the dependencies of the HTTP router
type RouterParams struct {
	fx.In

	Store      *session.Store
	Jar        *session.CookieJar
	Controller *auth.Controller
	Pages      *Pages
	Metrics    *metrics.Metrics
}

// NewRouter wires every route. Pages behind the auth gate run with the
// session locked for the whole request.
func NewRouter(p RouterParams) http.Handler {
	authHandler := handlers.NewHandler(p.Controller)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		requestLogger(p.Metrics),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteJSON(w, map[string]any{
			"status":   "ok",
			"sessions": p.Store.Len(),
		})
	})
	r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())
	r.Get(auth.AvatarPathPrefix+"{initial}.svg", handleAvatar)

	r.Group(func(r chi.Router) {
		r.Use(securityHeaders, authmw.Sessions(p.Store, p.Jar))

		r.Get("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(authmw.Authenticate(p.Controller, p.Pages))

			r.Get("/", p.Pages.handleHome)
			r.Get("/profiler", p.Pages.handleProfiler)
			r.Post("/profiler", p.Pages.handleProfilerSubmit)
			r.Get("/profiler/report.yaml", p.Pages.handleReportYAML)
		})
	})

	return r
}
