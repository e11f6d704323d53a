// Package http serves a ConversationStore over JSON for remote sync clients.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SARVESHVARADKAR123/chatsync/internal/observability"
	"github.com/SARVESHVARADKAR123/chatsync/internal/store"
)

type Options struct {
	ServiceName string
	// DB backs the readiness probe. nil means always ready.
	DB      observability.Pinger
	Timeout time.Duration

	// RateLimitRequests per RateLimitWindow per client IP. Zero disables limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter builds the store API router.
func NewRouter(s store.ConversationStore, opts Options) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(Recovery())
	if opts.Timeout > 0 {
		r.Use(chimiddleware.Timeout(opts.Timeout))
	}
	r.Use(observability.MetricsMiddleware(opts.ServiceName))

	h := NewStoreHandler(s)

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitRequests > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimitRequests, opts.RateLimitWindow))
		}

		r.Get("/messages", h.ListMessages)
		r.Post("/messages", h.CreateMessage)
		r.Patch("/messages/{id}", h.UpdateMessage)

		r.Get("/conversations", h.ListConversations)
		r.Post("/conversations", h.CreateConversation)
		r.Get("/conversations/{id}", h.GetConversation)
		r.Patch("/conversations/{id}", h.UpdateConversation)
	})

	// Health
	r.Get("/health/live", observability.HealthLiveHandler)
	r.Get("/health/ready", observability.HealthReadyHandler(opts.DB))
	r.Handle("/metrics", promhttp.Handler())

	return r
}
