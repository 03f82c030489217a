package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/flavorhub/community-api/internal/app/session"
	"github.com/flavorhub/community-api/internal/platform/logging"
)

type RouterOptions struct {
	// LoginLimiter throttles POST /login. Nil disables throttling.
	LoginLimiter *rate.Limiter
	// Metrics is served at /metrics when set.
	Metrics       http.Handler
	SecureCookies bool
	Log           *slog.Logger
}

// NewRouter constructs the API HTTP router.
func NewRouter(s *Server, sessions *session.Manager, opts RouterOptions) http.Handler {
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// Infra endpoints carry no session.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	r.Get("/directory", s.GetDirectory)

	r.Group(func(r chi.Router) {
		r.Use(NewSessionMiddleware(sessions, opts.SecureCookies))

		r.Get("/session", s.GetSession)
		r.Post("/signup", s.PostSignup)
		r.Post("/logout", s.PostLogout)
		r.Get("/users", s.ListUsers)

		r.Group(func(r chi.Router) {
			if opts.LoginLimiter != nil {
				r.Use(NewRateLimitMiddleware(opts.LoginLimiter, log))
			}
			r.Post("/login", s.PostLogin)
		})
	})
	return r
}
