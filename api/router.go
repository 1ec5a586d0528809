package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"upsolve/logger"
	"upsolve/service"
)

// NewRouter mounts the upsolve API under /api/v1. timeout bounds every
// request; resolving a user with a long contest history can take minutes.
func NewRouter(svc *service.UpsolveService, log *logger.Logger, timeout time.Duration) http.Handler {
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(timeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	h := NewHandler(svc, log)
	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Route("/users", h.RegisterUserRoutes)
		v1.Route("/questions", h.RegisterQuestionRoutes)
	})
	return r
}
