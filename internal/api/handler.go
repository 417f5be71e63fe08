package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kalambet/corkboard/internal/storage"
	"github.com/kalambet/corkboard/internal/telemetry"
)

const maxRequestBodySize = 1 << 20 // 1MB

// defaultListLimit is the default and cap of the MCP list tools. REST list
// endpoints always return the whole collection.
const defaultListLimit = 25

// Deps holds dependencies for the REST handler.
type Deps struct {
	Store   *storage.Store
	Logger  *slog.Logger
	Metrics *telemetry.Metrics // optional; if nil, /metrics is not served
}

// NewHandler builds the REST router for labels and posts.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "X-Request-Id"},
		MaxAge:         12 * 60 * 60,
	}))

	r.Get("/health", handleHealth(deps))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/labels", func(r chi.Router) {
			r.Get("/", handleListLabels(deps))
			r.Post("/", handleCreateLabel(deps))
			r.Get("/{id}", handleGetLabel(deps))
			r.Put("/{id}", handleUpdateLabel(deps))
			r.Delete("/{id}", handleDeleteLabel(deps))
		})
		r.Route("/posts", func(r chi.Router) {
			r.Get("/", handleListPosts(deps))
			r.Post("/", handleCreatePost(deps))
			r.Get("/{id}", handleGetPost(deps))
			r.Put("/{id}", handleUpdatePost(deps))
			r.Delete("/{id}", handleDeletePost(deps))
		})
	})

	return r
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Store.Ping(); err != nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "storage unavailable: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
