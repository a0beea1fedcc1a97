package inspect

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/km-arc/go-resolver/framework/container"
)

// NewRouter builds the inspect routes for c. Requests are logged at debug
// level on logger.
func NewRouter(c *container.Container, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handlers{c: c}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/bindings", h.bindings)
	r.Get("/scopes", h.scopes)
	r.Get("/matchers", h.matchers)
	r.Get("/matcher-cache", h.matcherCache)
	r.Get("/canonical/{alias}", h.canonical)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		newResponse(w).notFound()
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		newResponse(w).error(http.StatusMethodNotAllowed, "Method not allowed.")
	})
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("inspect request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
