package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tribeca/notifier/pkg/dispatch"
	"github.com/tribeca/notifier/pkg/envelope"
)

// CredentialStore persists tenant delivery credentials.
type CredentialStore interface {
	Save(ctx context.Context, appID string, credential []byte) error
	Delete(ctx context.Context, appID string) error
	Exists(ctx context.Context, appID string) (bool, error)
}

// DeliveryRegistry is the live tenant client table.
type DeliveryRegistry interface {
	Provision(ctx context.Context, appID string, credential []byte) (dispatch.Client, error)
	Unprovision(appID string)
	Lookup(appID string) (dispatch.Client, bool)
}

// AdminAPI handles tenant credential management and the health probe. Admin
// routes address the tenant in the path, not the X-App-Id header.
type AdminAPI struct {
	Credentials CredentialStore
	Delivery    DeliveryRegistry
	Health      func(context.Context) error
	Logger      *slog.Logger
}

func NewAdminAPI(credentials CredentialStore, delivery DeliveryRegistry, health func(context.Context) error, logger *slog.Logger) *AdminAPI {
	return &AdminAPI{
		Credentials: credentials,
		Delivery:    delivery,
		Health:      health,
		Logger:      logger.With("component", "AdminAPI"),
	}
}

type tenantStatusResponse struct {
	AppID  string `json:"appId"`
	FCM    bool   `json:"fcm"`
	Stored bool   `json:"stored"`
}

// Status is GET /admin/fcm/{appId}: whether the tenant has a live client and
// a persisted credential.
func (api *AdminAPI) Status(w http.ResponseWriter, r *http.Request) {
	app := chi.URLParam(r, "appId")

	stored, err := api.Credentials.Exists(r.Context(), app)
	if err != nil {
		api.Logger.Error("failed to check credential", "appId", app, "err", err)
		writeError(w, err)
		return
	}
	_, live := api.Delivery.Lookup(app)

	writeJSON(w, http.StatusOK, tenantStatusResponse{AppID: app, FCM: live, Stored: stored})
}

// Provision is POST /admin/fcm/{appId}. The credential arrives as a multipart
// file field named "credentials"; it is persisted first, then a live client is
// built from it.
func (api *AdminAPI) Provision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app := chi.URLParam(r, "appId")

	file, _, err := r.FormFile("credentials")
	if err != nil {
		writeEnvelope(w, envelope.New(http.StatusBadRequest, envelope.ErrCredentialFile, nil))
		return
	}
	defer file.Close()

	credential, err := io.ReadAll(file)
	if err != nil {
		writeEnvelope(w, envelope.New(http.StatusBadRequest, envelope.ErrCredentialFile,
			map[string]any{"details": err.Error()}))
		return
	}
	if !json.Valid(credential) {
		writeEnvelope(w, envelope.New(http.StatusBadRequest, envelope.ErrCredentialFile,
			map[string]any{"details": "credential file is not valid JSON"}))
		return
	}

	if err := api.Credentials.Save(ctx, app, credential); err != nil {
		api.Logger.Error("failed to save credential", "appId", app, "err", err)
		writeError(w, err)
		return
	}
	if _, err := api.Delivery.Provision(ctx, app, credential); err != nil {
		api.Logger.Error("failed to provision fcm client", "appId", app, "err", err)
		writeEnvelope(w, envelope.New(http.StatusBadRequest, envelope.ErrDeliveryInit,
			map[string]any{"details": err.Error()}))
		return
	}

	writeJSON(w, http.StatusOK, tenantStatusResponse{AppID: app, FCM: true, Stored: true})
}

// Unprovision is DELETE /admin/fcm/{appId}. Idempotent: the credential is
// removed from the store first, then the live client is dropped.
func (api *AdminAPI) Unprovision(w http.ResponseWriter, r *http.Request) {
	app := chi.URLParam(r, "appId")

	if err := api.Credentials.Delete(r.Context(), app); err != nil {
		api.Logger.Error("failed to delete credential", "appId", app, "err", err)
		writeError(w, err)
		return
	}
	api.Delivery.Unprovision(app)

	w.WriteHeader(http.StatusNoContent)
}

// CheckHealth is GET /admin/check-health: a storage ping.
func (api *AdminAPI) CheckHealth(w http.ResponseWriter, r *http.Request) {
	if err := api.Health(r.Context()); err != nil {
		api.Logger.Error("health probe failed", "err", err)
		writeEnvelope(w, envelope.New(http.StatusInternalServerError, envelope.ErrStorage,
			map[string]any{"details": err.Error()}))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
