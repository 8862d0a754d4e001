package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tribeca/notifier/pkg/envelope"
	"github.com/tribeca/notifier/pkg/target"
)

// RegisterAPI handles device token registration and removal.
type RegisterAPI struct {
	Targets *target.Registry
	Logger  *slog.Logger
}

func NewRegisterAPI(targets *target.Registry, logger *slog.Logger) *RegisterAPI {
	return &RegisterAPI{
		Targets: targets,
		Logger:  logger.With("component", "RegisterAPI"),
	}
}

type registerDeviceRequest struct {
	DeviceID      string `json:"deviceId"`
	RegisterToken string `json:"token"`
	Model         string `json:"model"`
	Platform      string `json:"platform"`
}

// RegisterDevice is POST /register/device/{userId}. Re-registering a known
// deviceId replaces its token in place.
func (api *RegisterAPI) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app := appID(r)
	userID := chi.URLParam(r, "userId")

	var req registerDeviceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	b := envelope.NewBuilder()
	if app == "" {
		b.Add(envelope.ErrAppID)
	}
	if userID == "" {
		b.Add(envelope.ErrUserID)
	}
	var missing []string
	if req.DeviceID == "" {
		missing = append(missing, "deviceId")
	}
	if req.RegisterToken == "" {
		missing = append(missing, "token")
	}
	if req.Model == "" {
		missing = append(missing, "model")
	}
	if req.Platform == "" {
		missing = append(missing, "platform")
	}
	if len(missing) > 0 {
		b.AddMeta(envelope.ErrBodyParamsMissing, map[string]any{"params": missing})
	}
	if env := b.Envelope(); env != nil {
		writeEnvelope(w, env)
		return
	}

	_, err := api.Targets.UpsertDevice(ctx, userID, app, req.DeviceID, req.RegisterToken, req.Model, req.Platform)
	if err != nil {
		api.Logger.Error("failed to register device", "userId", userID, "appId", app, "err", err)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type unregisterDeviceRequest struct {
	DeviceID string `json:"deviceId"`
}

// UnregisterDevice is DELETE /register/device/{userId}. Removing an unknown
// device or user succeeds silently.
func (api *RegisterAPI) UnregisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app := appID(r)
	userID := chi.URLParam(r, "userId")

	var req unregisterDeviceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	b := envelope.NewBuilder()
	if app == "" {
		b.Add(envelope.ErrAppID)
	}
	if userID == "" {
		b.Add(envelope.ErrUserID)
	}
	if req.DeviceID == "" {
		b.AddMeta(envelope.ErrBodyParamsMissing, map[string]any{"params": []string{"deviceId"}})
	}
	if env := b.Envelope(); env != nil {
		writeEnvelope(w, env)
		return
	}

	if err := api.Targets.DeleteDevice(ctx, userID, app, req.DeviceID); err != nil {
		api.Logger.Error("failed to unregister device", "userId", userID, "appId", app, "err", err)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
