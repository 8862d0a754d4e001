package api_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"github.com/tribeca/notifier/pkg/target"
)

// --- Shared test plumbing ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withChiParam injects a route parameter the way the router would.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func withApp(r *http.Request, appID string) *http.Request {
	r.Header.Set("X-App-Id", appID)
	return r
}

// MockStore backs a real target.Registry in controller tests.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) FindOne(ctx context.Context, userID, appID string) (*target.Target, error) {
	args := m.Called(ctx, userID, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*target.Target), args.Error(1)
}

func (m *MockStore) Insert(ctx context.Context, t *target.Target) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockStore) PushDevice(ctx context.Context, userID, appID string, d target.Device) error {
	return m.Called(ctx, userID, appID, d).Error(0)
}

func (m *MockStore) SetDeviceToken(ctx context.Context, userID, appID string, index int, token string) error {
	return m.Called(ctx, userID, appID, index, token).Error(0)
}

func (m *MockStore) PullDevice(ctx context.Context, userID, appID, deviceID string) error {
	return m.Called(ctx, userID, appID, deviceID).Error(0)
}

func (m *MockStore) AddToTopicSet(ctx context.Context, userID, appID string, topics []string) (bool, error) {
	args := m.Called(ctx, userID, appID, topics)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) PullTopics(ctx context.Context, userID, appID string, topics []string) error {
	return m.Called(ctx, userID, appID, topics).Error(0)
}

func (m *MockStore) PullTopicsByApp(ctx context.Context, appID string, topics []string) error {
	return m.Called(ctx, appID, topics).Error(0)
}

func (m *MockStore) FindByDevice(ctx context.Context, deviceID, appID string) (*target.Target, error) {
	args := m.Called(ctx, deviceID, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*target.Target), args.Error(1)
}

func (m *MockStore) FindByUser(ctx context.Context, userID, appID string) (*target.Target, error) {
	args := m.Called(ctx, userID, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*target.Target), args.Error(1)
}

func (m *MockStore) FindByTopic(ctx context.Context, topic, appID string, excludeUsers []string) ([]target.Target, error) {
	args := m.Called(ctx, topic, appID, excludeUsers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]target.Target), args.Error(1)
}

func (m *MockStore) FindTopics(ctx context.Context, userID, appID string) (*target.Target, error) {
	args := m.Called(ctx, userID, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*target.Target), args.Error(1)
}

func newRegistry(t *testing.T) (*target.Registry, *MockStore) {
	t.Helper()
	store := new(MockStore)
	return target.NewRegistry(store, newTestLogger()), store
}
