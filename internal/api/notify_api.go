package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tribeca/notifier/internal/notify"
	"github.com/tribeca/notifier/pkg/dispatch"
)

// Resolver is the notification core as the controllers see it. Validation of
// tenant, selector, and client liveness happens behind this boundary; the
// handlers only decode and render.
type Resolver interface {
	NotifyDevice(ctx context.Context, appID, deviceID string, body *notify.Body) (*dispatch.Receipt, error)
	NotifyUser(ctx context.Context, appID, userID string, body *notify.Body) (*dispatch.Receipt, error)
	NotifyTopic(ctx context.Context, appID, topic string, body *notify.Body) (*dispatch.Receipt, error)
}

// NotifyAPI handles the three push routes.
type NotifyAPI struct {
	Resolver Resolver
	Logger   *slog.Logger
}

func NewNotifyAPI(resolver Resolver, logger *slog.Logger) *NotifyAPI {
	return &NotifyAPI{
		Resolver: resolver,
		Logger:   logger.With("component", "NotifyAPI"),
	}
}

// NotifyDevice is POST /notify/device/{deviceId}.
func (api *NotifyAPI) NotifyDevice(w http.ResponseWriter, r *http.Request) {
	var body notify.Body
	if !decodeBody(w, r, &body) {
		return
	}

	receipt, err := api.Resolver.NotifyDevice(r.Context(), appID(r), chi.URLParam(r, "deviceId"), &body)
	if err != nil {
		api.Logger.Warn("device notify failed", "appId", appID(r), "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// NotifyUser is POST /notify/user/{userId}.
func (api *NotifyAPI) NotifyUser(w http.ResponseWriter, r *http.Request) {
	var body notify.Body
	if !decodeBody(w, r, &body) {
		return
	}

	receipt, err := api.Resolver.NotifyUser(r.Context(), appID(r), chi.URLParam(r, "userId"), &body)
	if err != nil {
		api.Logger.Warn("user notify failed", "appId", appID(r), "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// NotifyTopic is POST /notify/topic/{topic}.
func (api *NotifyAPI) NotifyTopic(w http.ResponseWriter, r *http.Request) {
	var body notify.Body
	if !decodeBody(w, r, &body) {
		return
	}

	receipt, err := api.Resolver.NotifyTopic(r.Context(), appID(r), chi.URLParam(r, "topic"), &body)
	if err != nil {
		api.Logger.Warn("topic notify failed", "appId", appID(r), "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}
