package fcm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/tribeca/notifier/pkg/dispatch"
)

// ClientFactory builds a delivery client from a tenant's raw credential blob.
// Injectable so tests never touch the Firebase SDK.
type ClientFactory func(ctx context.Context, credential []byte) (dispatch.Client, error)

// DefaultFactory initializes a Firebase app from the credential JSON and
// wraps its messaging handle.
func DefaultFactory(logger *slog.Logger) ClientFactory {
	return func(ctx context.Context, credential []byte) (dispatch.Client, error) {
		app, err := firebase.NewApp(ctx, nil, option.WithCredentialsJSON(credential))
		if err != nil {
			return nil, err
		}
		m, err := app.Messaging(ctx)
		if err != nil {
			return nil, err
		}
		return NewClient(m, logger), nil
	}
}

// Registry is the process-wide tenant table: appId -> provisioned delivery
// client. Provision and Unprovision mutate it; Lookup reads a point-in-time
// snapshot. The mutex makes the read-during-write interleave explicit.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]dispatch.Client
	factory ClientFactory
	logger  *slog.Logger
}

func NewRegistry(factory ClientFactory, logger *slog.Logger) *Registry {
	return &Registry{
		clients: make(map[string]dispatch.Client),
		factory: factory,
		logger:  logger.With("component", "FCMRegistry"),
	}
}

// Provision constructs a client from the credential and stores it under
// appID, replacing any prior client. On a factory failure the prior entry is
// left untouched: a working client is never evicted by a bad re-provision.
func (r *Registry) Provision(ctx context.Context, appID string, credential []byte) (dispatch.Client, error) {
	client, err := r.factory(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("provision fcm client for %q: %w", appID, err)
	}

	r.mu.Lock()
	r.clients[appID] = client
	r.mu.Unlock()

	r.logger.Info("fcm client provisioned", "appId", appID)
	return client, nil
}

// Unprovision removes the tenant's entry; idempotent when absent.
func (r *Registry) Unprovision(appID string) {
	r.mu.Lock()
	delete(r.clients, appID)
	r.mu.Unlock()

	r.logger.Info("fcm client unprovisioned", "appId", appID)
}

// Lookup returns the tenant's client, if provisioned.
func (r *Registry) Lookup(appID string) (dispatch.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[appID]
	return client, ok
}

// LoadAll provisions a client for every persisted tenant credential. The
// first failing credential aborts the whole load; there is no best-effort
// partial startup.
func (r *Registry) LoadAll(ctx context.Context, source dispatch.CredentialSource) error {
	credentials, err := source.All(ctx)
	if err != nil {
		return fmt.Errorf("load tenant credentials: %w", err)
	}
	for _, c := range credentials {
		if _, err := r.Provision(ctx, c.AppID, c.Credential); err != nil {
			return err
		}
	}
	r.logger.Info("tenant delivery clients loaded", "count", len(credentials))
	return nil
}
