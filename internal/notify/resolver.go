// Package notify resolves a notification request into a concrete token set
// and dispatches it through the tenant's delivery client. Each request walks
// VALIDATE -> RESOLVE_TOKENS -> DISPATCH -> RESPOND, any stage short-circuits
// to an error envelope.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tribeca/notifier/pkg/dispatch"
	"github.com/tribeca/notifier/pkg/envelope"
	"github.com/tribeca/notifier/pkg/target"
)

// Resolver wires the target registry to the tenant delivery table.
type Resolver struct {
	targets *target.Registry
	clients dispatch.Clients
	logger  *slog.Logger
}

func NewResolver(targets *target.Registry, clients dispatch.Clients, logger *slog.Logger) *Resolver {
	return &Resolver{
		targets: targets,
		clients: clients,
		logger:  logger.With("component", "NotifyResolver"),
	}
}

// NotifyDevice pushes to exactly one device. An unknown deviceId within the
// tenant is a 404.
func (r *Resolver) NotifyDevice(ctx context.Context, appID, deviceID string, body *Body) (*dispatch.Receipt, error) {
	client, env := r.validate(appID, envelope.ErrDeviceID, deviceID)
	if env != nil {
		return nil, env
	}
	payload := BuildPayload(body)

	found, err := r.targets.FindTokenByDevice(ctx, deviceID, appID)
	if err != nil {
		return nil, storageError(err)
	}
	if found == nil {
		return nil, envelope.New(http.StatusNotFound, envelope.ErrDeviceNotFound,
			map[string]any{"details": fmt.Sprintf("deviceId %s not found in %s", deviceID, appID)})
	}

	// The store narrows to tenant plus device existence only; pick the exact
	// device out of the returned sequence.
	index := found.DeviceIndex(deviceID)
	if index < 0 {
		return nil, envelope.New(http.StatusNotFound, envelope.ErrDeviceNotFound,
			map[string]any{"details": fmt.Sprintf("deviceId %s not found in %s", deviceID, appID)})
	}

	receipt, err := client.Send(ctx, found.Devices[index].RegisterToken, payload)
	if err != nil {
		return nil, sendError(err)
	}
	return receipt, nil
}

// NotifyUser pushes to every device of one user. A user with zero devices is
// a valid empty dispatch, not an error; an absent user is a 404.
func (r *Resolver) NotifyUser(ctx context.Context, appID, userID string, body *Body) (*dispatch.Receipt, error) {
	client, env := r.validate(appID, envelope.ErrUserID, userID)
	if env != nil {
		return nil, env
	}
	payload := BuildPayload(body)

	found, err := r.targets.FindTokensByUser(ctx, userID, appID)
	if err != nil {
		return nil, storageError(err)
	}
	if found == nil {
		return nil, envelope.New(http.StatusNotFound, envelope.ErrUserNotFound,
			map[string]any{"details": fmt.Sprintf("%s in %s not found", userID, appID)})
	}

	receipt, err := client.SendMulticast(ctx, found.Tokens(), payload)
	if err != nil {
		return nil, sendError(err)
	}
	return receipt, nil
}

// NotifyTopic fans out to every subscribed target of the tenant, minus the
// excluded users. Zero matches still dispatch trivially; there is no 404.
func (r *Resolver) NotifyTopic(ctx context.Context, appID, topic string, body *Body) (*dispatch.Receipt, error) {
	client, env := r.validate(appID, envelope.ErrInvalidTopic, topic)
	if env != nil {
		return nil, env
	}
	payload := BuildPayload(body)

	var excludeUsers []string
	if body != nil {
		excludeUsers = body.ExcludeUsers
	}

	found, err := r.targets.FindTokensByTopic(ctx, topic, appID, excludeUsers)
	if err != nil {
		return nil, storageError(err)
	}

	// Token order is stable: each matching target's devices in registration
	// order, targets in store-returned order.
	var tokens []string
	for i := range found {
		tokens = append(tokens, found[i].Tokens()...)
	}

	receipt, err := client.SendMulticast(ctx, tokens, payload)
	if err != nil {
		return nil, sendError(err)
	}
	return receipt, nil
}

// validate accumulates every failed precondition before resolution starts:
// missing tenant id, missing selector, and missing delivery client are all
// reported in one response.
func (r *Resolver) validate(appID string, selectorCode envelope.Code, selector string) (dispatch.Client, *envelope.Envelope) {
	b := envelope.NewBuilder()
	if appID == "" {
		b.Add(envelope.ErrAppID)
	}
	if selector == "" {
		b.Add(selectorCode)
	}
	client, ok := r.clients.Lookup(appID)
	if !ok {
		b.AddMeta(envelope.ErrClientNotFound,
			map[string]any{"missing": fmt.Sprintf("fcm client for %s not found", appID)})
	}
	if env := b.Envelope(); env != nil {
		return nil, env
	}
	return client, nil
}

func storageError(err error) *envelope.Envelope {
	return envelope.New(http.StatusBadRequest, envelope.ErrStorage, map[string]any{"details": err.Error()})
}

func sendError(err error) *envelope.Envelope {
	return envelope.New(http.StatusBadRequest, envelope.ErrDeliverySend, map[string]any{"details": err.Error()})
}
