package http

import (
	"net/http"

	"github.com/Wyydra/voicetext/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/voicetext/internal/core/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handler struct {
	CallService *service.CallService
	Hub         *ws.Hub
	Metrics     http.Handler
	StaticDir   string
}

func NewHandler(callService *service.CallService, hub *ws.Hub, metrics http.Handler) *Handler {
	return &Handler{
		CallService: callService,
		Hub:         hub,
		Metrics:     metrics,
		StaticDir:   "./static",
	}
}

func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/history", h.listHistory)

		r.Route("/calls", func(r chi.Router) {
			r.Post("/", h.startCall)
			r.Get("/", h.listCalls)

			r.Route("/{callID}", func(r chi.Router) {
				r.Get("/", h.getCall)
				r.Post("/end", h.endCall)
				r.Get("/messages", h.getTimeline)
				r.Post("/messages", h.sendMessage)
				r.Delete("/messages", h.clearTimeline)
				r.Get("/ws", h.ServeWS)
			})
		})
	})

	if h.StaticDir != "" {
		fs := http.FileServer(http.Dir(h.StaticDir))
		r.Handle("/*", fs)
	}

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"active_calls": h.CallService.ActiveCalls(),
	})
}
