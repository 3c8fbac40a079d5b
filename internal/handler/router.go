package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-board/internal/auth"
	"github.com/BuzzLyutic/kanban-board/pkg/respond"
)

type ctxKey struct{}

// Subject returns the authenticated user id put on the request by RequireAuth.
func Subject(ctx context.Context) string {
	sub, _ := ctx.Value(ctxKey{}).(string)
	return sub
}

// NewRouter собирает маршруты API. Если verifier равен nil, маршруты задач
// доступны без токена.
func NewRouter(h *TaskHandler, verifier *auth.Verifier, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/tasks", func(r chi.Router) {
		if verifier != nil {
			r.Use(RequireAuth(verifier, logger))
		}
		r.Post("/add", h.Create)
		r.Post("/getByStatus/{boardID}", h.ListByStatus)
		r.Patch("/updateTask/{id}", h.Update)
		r.Delete("/deleteTask/{id}", h.Delete)
		r.Get("/{boardID}", h.List)
	})

	return r
}

func RequireAuth(v *auth.Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub, err := v.SubjectFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				logger.Debug("rejected request", zap.String("path", r.URL.Path), zap.Error(err))
				respond.Error(w, r, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sub)))
		})
	}
}

func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
