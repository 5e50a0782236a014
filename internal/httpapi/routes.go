package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/coordinator"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/hub"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/ws"
)

func SetupRoutes(c *coordinator.Coordinator, h *hub.Hub, log *zap.Logger) http.Handler {
	api := &API{c: c, log: log}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, c, log.Named("ws")))

	r.Route("/queue", func(r chi.Router) {
		r.Get("/", api.GetQueue)
		r.Post("/", api.JoinQueue)
		r.Delete("/", api.ClearQueue)
		r.Post("/bots", api.AddBots)
		r.Delete("/{id}", api.LeaveQueue)
	})

	r.Route("/matches/{id}", func(r chi.Router) {
		r.Get("/", api.GetMatch)
		r.Post("/accept", api.Accept)
		r.Post("/decline", api.Decline)
		r.Post("/draft/actions", api.SubmitAction)
		r.Post("/draft/abort", api.AbortDraft)
		r.Post("/events", api.RecordEvent)
		r.Post("/finish", api.FinishGame)
		r.Post("/cancel", api.CancelGame)
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
