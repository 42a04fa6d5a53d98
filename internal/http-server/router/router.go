// Package router assembles the HTTP surface of the service.
package router

import (
	"context"
	"log/slog"
	"net/http"

	"blog-api/internal/config"
	"blog-api/internal/http-server/handlers/article"
	"blog-api/internal/http-server/handlers/user"
	"blog-api/internal/http-server/middleware/auth"
	"blog-api/internal/http-server/middleware/metrics"
	"blog-api/internal/http-server/middleware/ratelimit"
	resp "blog-api/internal/lib/api/response"
	"blog-api/internal/lib/logger/sl"
	articleservice "blog-api/internal/service/article"
	commentservice "blog-api/internal/service/comment"
	userservice "blog-api/internal/service/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Services struct {
	Users    *userservice.Service
	Articles *articleservice.Service
	Comments *commentservice.Service
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func New(log *slog.Logger, cfg *config.Config, svc Services, health Pinger) http.Handler {
	m := metrics.New()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		resp.Fail(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		resp.Fail(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	authMW := auth.New(log, cfg.Secret, svc.Users)
	limitMW := ratelimit.New(log, cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	// Init handlers
	usr := user.New(log, svc.Users, authMW, limitMW)
	art := article.New(log, svc.Articles, svc.Comments, authMW)

	r.Route("/api", func(r chi.Router) {
		r.Group(usr.Register())
		r.Route("/articles", art.Register())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := health.Ping(r.Context()); err != nil {
			log.Error("health check failed", sl.Error(err))
			resp.Fail(w, r, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
		render.JSON(w, r, resp.OK("ok"))
	})
	r.Handle("/metrics", m.Handler())

	return r
}
