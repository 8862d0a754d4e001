// Package notifier assembles the HTTP service: routes, middleware, and the
// server lifecycle.
package notifier

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tribeca/notifier/internal/api"
	"github.com/tribeca/notifier/notifier/config"
	"github.com/tribeca/notifier/pkg/target"
)

// Service owns the HTTP server and its route table.
type Service struct {
	server *http.Server
	router chi.Router
	logger *slog.Logger
}

// New wires the controllers into the route table.
func New(
	cfg *config.Config,
	targets *target.Registry,
	resolver api.Resolver,
	credentials api.CredentialStore,
	delivery api.DeliveryRegistry,
	health func(context.Context) error,
	logger *slog.Logger,
) *Service {
	registerAPI := api.NewRegisterAPI(targets, logger)
	notifyAPI := api.NewNotifyAPI(resolver, logger)
	topicsAPI := api.NewTopicsAPI(targets, logger)
	adminAPI := api.NewAdminAPI(credentials, delivery, health, logger)

	r := chi.NewRouter()
	r.Use(RequestLogger(logger))

	r.Route("/register", func(r chi.Router) {
		r.Post("/device/{userId}", registerAPI.RegisterDevice)
		r.Delete("/device/{userId}", registerAPI.UnregisterDevice)
	})

	r.Route("/notify", func(r chi.Router) {
		r.Post("/device/{deviceId}", notifyAPI.NotifyDevice)
		r.Post("/user/{userId}", notifyAPI.NotifyUser)
		r.Post("/topic/{topic}", notifyAPI.NotifyTopic)
	})

	r.Route("/topics", func(r chi.Router) {
		r.Delete("/", topicsAPI.RemoveTopicsFromAllUsers)
		r.Get("/{userId}", topicsAPI.GetTopics)
		r.Post("/{userId}", topicsAPI.AddTopics)
		r.Delete("/{userId}", topicsAPI.RemoveTopics)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/check-health", adminAPI.CheckHealth)
		r.Route("/fcm/{appId}", func(r chi.Router) {
			r.Get("/", adminAPI.Status)
			r.Post("/", adminAPI.Provision)
			r.Delete("/", adminAPI.Unprovision)
		})
	})

	return &Service{
		server: &http.Server{Addr: cfg.ListenAddr, Handler: r},
		router: r,
		logger: logger.With("component", "Service"),
	}
}

// Router exposes the route table, mainly for tests.
func (s *Service) Router() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Service) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Service) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server...")
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown failed.", "err", err)
		return err
	}
	s.logger.Info("Service shutdown complete.")
	return nil
}
