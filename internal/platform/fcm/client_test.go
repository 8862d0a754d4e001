package fcm_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tribeca/notifier/internal/platform/fcm"
	"github.com/tribeca/notifier/pkg/dispatch"
)

// MockMessaging satisfies the MessagingClient interface.
type MockMessaging struct {
	mock.Mock
}

func (m *MockMessaging) Send(ctx context.Context, msg *messaging.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func (m *MockMessaging) SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*messaging.BatchResponse), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPayload() dispatch.Payload {
	return dispatch.Payload{
		Notification: dispatch.Notification{Title: "Tribeca says", Body: "hi", Icon: "icon"},
		Data:         map[string]string{"k": "v"},
	}
}

func TestClient_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("addresses the single token and maps the message id", func(t *testing.T) {
		mockMsg := new(MockMessaging)
		client := fcm.NewClient(mockMsg, newTestLogger())

		mockMsg.On("Send", ctx, mock.MatchedBy(func(msg *messaging.Message) bool {
			return msg.Token == "t1" &&
				msg.Notification.Title == "Tribeca says" &&
				msg.Webpush.Notification.Icon == "icon" &&
				msg.Data["k"] == "v"
		})).Return("projects/x/messages/1", nil)

		receipt, err := client.Send(ctx, "t1", testPayload())

		require.NoError(t, err)
		assert.Equal(t, 1, receipt.SuccessCount)
		require.Len(t, receipt.Results, 1)
		assert.Equal(t, "projects/x/messages/1", receipt.Results[0].MessageID)
		mockMsg.AssertExpectations(t)
	})

	t.Run("wraps provider failure", func(t *testing.T) {
		mockMsg := new(MockMessaging)
		client := fcm.NewClient(mockMsg, newTestLogger())

		mockMsg.On("Send", ctx, mock.Anything).Return("", errors.New("invalid registration token"))

		_, err := client.Send(ctx, "bad", testPayload())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "fcm send")
	})
}

func TestClient_SendMulticast(t *testing.T) {
	ctx := context.Background()

	t.Run("empty token set succeeds without a provider call", func(t *testing.T) {
		mockMsg := new(MockMessaging)
		client := fcm.NewClient(mockMsg, newTestLogger())

		receipt, err := client.SendMulticast(ctx, nil, testPayload())

		require.NoError(t, err)
		assert.Zero(t, receipt.SuccessCount)
		assert.Zero(t, receipt.FailureCount)
		assert.Empty(t, receipt.Results)
		mockMsg.AssertNotCalled(t, "SendEachForMulticast", mock.Anything, mock.Anything)
	})

	t.Run("maps batch response including per-token failures", func(t *testing.T) {
		mockMsg := new(MockMessaging)
		client := fcm.NewClient(mockMsg, newTestLogger())

		batch := &messaging.BatchResponse{
			SuccessCount: 1,
			FailureCount: 1,
			Responses: []*messaging.SendResponse{
				{Success: true, MessageID: "msg-1"},
				{Success: false, Error: errors.New("unregistered")},
			},
		}
		mockMsg.On("SendEachForMulticast", ctx, mock.MatchedBy(func(msg *messaging.MulticastMessage) bool {
			return len(msg.Tokens) == 2 && msg.Tokens[0] == "t1" && msg.Tokens[1] == "t2"
		})).Return(batch, nil)

		receipt, err := client.SendMulticast(ctx, []string{"t1", "t2"}, testPayload())

		require.NoError(t, err)
		assert.Equal(t, 1, receipt.SuccessCount)
		assert.Equal(t, 1, receipt.FailureCount)
		require.Len(t, receipt.Results, 2)
		assert.Equal(t, "msg-1", receipt.Results[0].MessageID)
		assert.Equal(t, "unregistered", receipt.Results[1].Error)
	})

	t.Run("wraps transport failure", func(t *testing.T) {
		mockMsg := new(MockMessaging)
		client := fcm.NewClient(mockMsg, newTestLogger())

		mockMsg.On("SendEachForMulticast", ctx, mock.Anything).Return(nil, errors.New("network down"))

		_, err := client.SendMulticast(ctx, []string{"t1"}, testPayload())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "fcm multicast")
	})
}
