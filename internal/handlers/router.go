package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	appmw "github.com/BatmanBruc/image-credits/internal/middleware"
)

type HealthChecker func(ctx context.Context) error

type RouterConfig struct {
	AllowedOrigins []string
	Health         []HealthChecker
}

func SetupRoutes(h *Handlers, authn *appmw.Auth, cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appmw.Logger(logger))
	r.Use(middleware.Recoverer)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Razorpay-Signature"},
		AllowCredentials: len(cfg.AllowedOrigins) > 0,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		for _, check := range cfg.Health {
			if err := check(ctx); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.With(authn.Optional).Get("/credits", h.CreditsPage)

	r.Route("/api/credits", func(r chi.Router) {
		r.Get("/quote", h.Quote)
		r.Group(func(r chi.Router) {
			r.Use(authn.Required)
			r.Get("/balance", h.Balance)
			r.Post("/checkout", h.Checkout)
			r.Post("/callback", h.Callback)
			r.Get("/transactions", h.Transactions)
			r.Get("/events", h.Events)
		})
	})

	r.Post("/webhooks/razorpay", h.RazorpayWebhook)

	return r
}
