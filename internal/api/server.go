package api

import (
	"context"
	"net/http"
	"time"

	"commerce-workers/internal/common/config"
	"commerce-workers/internal/common/database"
	"commerce-workers/internal/common/logger"
	chatturn "commerce-workers/internal/workers/ai-conversation/chat-turn"
	dispatchactions "commerce-workers/internal/workers/commerce/dispatch-actions"
	simulatepayment "commerce-workers/internal/workers/commerce/simulate-payment"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck is one dependency probed by GET /ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Deps struct {
	Chat       *chatturn.Service
	Dispatcher *dispatchactions.Dispatcher
	Payments   *simulatepayment.Service
	Orders     *database.OrderStores
	Checks     []ReadinessCheck
	Gatherer   prometheus.Gatherer
	Logger     logger.Logger
}

type Server struct {
	deps   Deps
	logger logger.Logger
}

// NewRouter wires every route of the commerce API.
func NewRouter(deps Deps) http.Handler {
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{deps: deps, logger: deps.Logger.WithFields(map[string]interface{}{"component": "api"})}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.recoverer)
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(session)

		r.Post("/chat", s.handleChat)
		r.Post("/chat/reset", s.handleChatReset)
		r.Delete("/session", s.handleEndSession)
		r.Post("/checkout", s.handleCheckout)
		r.Post("/actions/select", s.handleSelect)
		r.Get("/orders", s.handleListOrders)
		r.Get("/orders/{orderID}/track", s.handleTrack)
	})

	return r
}

// NewServer builds the HTTP server from the server config section.
func NewServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Millisecond,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Millisecond,
	}
}
