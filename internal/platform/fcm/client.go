// Package fcm adapts Firebase Cloud Messaging to the dispatch contracts and
// hosts the tenant delivery registry mapping app ids to provisioned clients.
package fcm

import (
	"context"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/messaging"

	"github.com/tribeca/notifier/pkg/dispatch"
)

// MessagingClient is the subset of the Firebase Messaging API the adapter
// uses. Narrowed so tests can mock the client; *messaging.Client satisfies it.
type MessagingClient interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
	SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Client implements dispatch.Client over one tenant's messaging handle.
type Client struct {
	messaging MessagingClient
	logger    *slog.Logger
}

func NewClient(m MessagingClient, logger *slog.Logger) *Client {
	return &Client{
		messaging: m,
		logger:    logger.With("component", "FCMClient"),
	}
}

// Send addresses a single delivery token.
func (c *Client) Send(ctx context.Context, token string, payload dispatch.Payload) (*dispatch.Receipt, error) {
	id, err := c.messaging.Send(ctx, &messaging.Message{
		Token:        token,
		Data:         payload.Data,
		Notification: notification(payload),
		Webpush:      webpush(payload),
	})
	if err != nil {
		return nil, fmt.Errorf("fcm send: %w", err)
	}
	return &dispatch.Receipt{
		SuccessCount: 1,
		Results:      []dispatch.Result{{MessageID: id}},
	}, nil
}

// SendMulticast addresses a token batch. An empty batch succeeds trivially
// without touching the provider.
func (c *Client) SendMulticast(ctx context.Context, tokens []string, payload dispatch.Payload) (*dispatch.Receipt, error) {
	if len(tokens) == 0 {
		c.logger.Debug("multicast skipped, no tokens")
		return &dispatch.Receipt{Results: []dispatch.Result{}}, nil
	}

	br, err := c.messaging.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens:       tokens,
		Data:         payload.Data,
		Notification: notification(payload),
		Webpush:      webpush(payload),
	})
	if err != nil {
		return nil, fmt.Errorf("fcm multicast: %w", err)
	}

	receipt := &dispatch.Receipt{
		SuccessCount: br.SuccessCount,
		FailureCount: br.FailureCount,
		Results:      make([]dispatch.Result, 0, len(br.Responses)),
	}
	for _, resp := range br.Responses {
		result := dispatch.Result{MessageID: resp.MessageID}
		if resp.Error != nil {
			result.Error = resp.Error.Error()
		}
		receipt.Results = append(receipt.Results, result)
	}
	return receipt, nil
}

func notification(payload dispatch.Payload) *messaging.Notification {
	return &messaging.Notification{
		Title: payload.Notification.Title,
		Body:  payload.Notification.Body,
	}
}

// webpush carries the icon and tag, which have no slot in the cross-platform
// notification block.
func webpush(payload dispatch.Payload) *messaging.WebpushConfig {
	return &messaging.WebpushConfig{
		Notification: &messaging.WebpushNotification{
			Title: payload.Notification.Title,
			Body:  payload.Notification.Body,
			Icon:  payload.Notification.Icon,
			Tag:   payload.Notification.Tag,
		},
	}
}
