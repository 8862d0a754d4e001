// Package dispatch declares the delivery-provider contracts consumed by the
// notification resolver and the tenant delivery registry.
package dispatch

import "context"

// Notification is the displayable part of a push payload.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Tag   string `json:"tag,omitempty"`
}

// Payload is the provider-agnostic message handed to a delivery client. Data
// is forwarded verbatim.
type Payload struct {
	Notification Notification      `json:"notification"`
	Data         map[string]string `json:"data"`
}

// Result is the per-token outcome within a Receipt.
type Result struct {
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Receipt mirrors the provider response and is returned to callers unchanged.
type Receipt struct {
	SuccessCount int      `json:"successCount"`
	FailureCount int      `json:"failureCount"`
	Results      []Result `json:"results,omitempty"`
}

// Client sends push payloads on behalf of one tenant. Send addresses a single
// token; SendMulticast a token batch, trivially succeeding on an empty one.
type Client interface {
	Send(ctx context.Context, token string, payload Payload) (*Receipt, error)
	SendMulticast(ctx context.Context, tokens []string, payload Payload) (*Receipt, error)
}

// Clients is the read side of the tenant delivery registry. A lookup is a
// point-in-time snapshot; concurrent provisioning may change the table between
// lookup and use.
type Clients interface {
	Lookup(appID string) (Client, bool)
}

// Credential is a tenant's persisted delivery-provider credential blob,
// opaque to everything but the client factory.
type Credential struct {
	AppID      string
	Credential []byte
}

// CredentialSource lists every persisted tenant credential for the startup
// load.
type CredentialSource interface {
	All(ctx context.Context) ([]Credential, error)
}
