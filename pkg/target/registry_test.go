package target_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tribeca/notifier/pkg/target"
)

// --- Mocks ---

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

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup() (*target.Registry, *MockStore) {
	store := new(MockStore)
	return target.NewRegistry(store, newTestLogger()), store
}

// --- Tests ---

func TestUpsertDevice(t *testing.T) {
	ctx := context.Background()

	t.Run("creates target on first registration", func(t *testing.T) {
		registry, store := setup()

		store.On("FindOne", ctx, "u1", "a1").Return(nil, nil)
		store.On("Insert", ctx, &target.Target{
			ID:     "u1-a1",
			UserID: "u1",
			AppID:  "a1",
			Devices: []target.Device{
				{DeviceID: "d1", RegisterToken: "t1", Model: "m", Platform: "p"},
			},
		}).Return(nil)

		device, err := registry.UpsertDevice(ctx, "u1", "a1", "d1", "t1", "m", "p")

		require.NoError(t, err)
		assert.Equal(t, "d1", device.DeviceID)
		assert.Equal(t, "t1", device.RegisterToken)
		store.AssertExpectations(t)
	})

	t.Run("appends new device preserving prior order", func(t *testing.T) {
		registry, store := setup()

		existing := &target.Target{
			ID: "u1-a1", UserID: "u1", AppID: "a1",
			Devices: []target.Device{{DeviceID: "d1", RegisterToken: "t1"}},
		}
		store.On("FindOne", ctx, "u1", "a1").Return(existing, nil)
		store.On("PushDevice", ctx, "u1", "a1", target.Device{
			DeviceID: "d2", RegisterToken: "t2", Model: "m", Platform: "p",
		}).Return(nil)

		_, err := registry.UpsertDevice(ctx, "u1", "a1", "d2", "t2", "m", "p")

		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("replaces token in place for a known deviceId", func(t *testing.T) {
		registry, store := setup()

		existing := &target.Target{
			ID: "u1-a1", UserID: "u1", AppID: "a1",
			Devices: []target.Device{
				{DeviceID: "d1", RegisterToken: "t1"},
				{DeviceID: "d2", RegisterToken: "t2"},
			},
		}
		store.On("FindOne", ctx, "u1", "a1").Return(existing, nil)
		// Position 1 is preserved; no push happens.
		store.On("SetDeviceToken", ctx, "u1", "a1", 1, "t2-new").Return(nil)

		device, err := registry.UpsertDevice(ctx, "u1", "a1", "d2", "t2-new", "m", "p")

		require.NoError(t, err)
		assert.Equal(t, "t2-new", device.RegisterToken)
		store.AssertExpectations(t)
		store.AssertNotCalled(t, "PushDevice", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("propagates store failure", func(t *testing.T) {
		registry, store := setup()

		store.On("FindOne", ctx, "u1", "a1").Return(nil, assert.AnError)

		_, err := registry.UpsertDevice(ctx, "u1", "a1", "d1", "t1", "m", "p")

		assert.Error(t, err)
	})
}

func TestDeleteDevice_NeverCreatesTarget(t *testing.T) {
	ctx := context.Background()
	registry, store := setup()

	// Pull against a missing target matches nothing and succeeds.
	store.On("PullDevice", ctx, "ghost", "a1", "d1").Return(nil)

	err := registry.DeleteDevice(ctx, "ghost", "a1", "d1")

	require.NoError(t, err)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestAddTopics(t *testing.T) {
	ctx := context.Background()

	t.Run("returns false when no target exists", func(t *testing.T) {
		registry, store := setup()

		store.On("AddToTopicSet", ctx, "ghost", "a1", []string{"t1", "t2"}).Return(false, nil)

		ok, err := registry.AddTopics(ctx, "ghost", "a1", []string{"t1", "t2"})

		require.NoError(t, err)
		assert.False(t, ok)
		store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("returns true regardless of actual set growth", func(t *testing.T) {
		registry, store := setup()

		store.On("AddToTopicSet", ctx, "u1", "a1", []string{"news", "news"}).Return(true, nil)

		ok, err := registry.AddTopics(ctx, "u1", "a1", []string{"news", "news"})

		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestFindTokensByTopic_NormalizesNilToEmpty(t *testing.T) {
	ctx := context.Background()
	registry, store := setup()

	store.On("FindByTopic", ctx, "news", "a1", []string{"u2"}).Return(nil, nil)

	targets, err := registry.FindTokensByTopic(ctx, "news", "a1", []string{"u2"})

	require.NoError(t, err)
	assert.NotNil(t, targets)
	assert.Empty(t, targets)
}

func TestFindTopicsByUser(t *testing.T) {
	ctx := context.Background()

	t.Run("returns topics", func(t *testing.T) {
		registry, store := setup()

		store.On("FindTopics", ctx, "u1", "a1").Return(&target.Target{
			ID: "u1-a1", Topics: []string{"news", "sports"},
		}, nil)

		topics, err := registry.FindTopicsByUser(ctx, "u1", "a1")

		require.NoError(t, err)
		assert.Equal(t, []string{"news", "sports"}, topics)
	})

	t.Run("absent target yields empty slice", func(t *testing.T) {
		registry, store := setup()

		store.On("FindTopics", ctx, "ghost", "a1").Return(nil, nil)

		topics, err := registry.FindTopicsByUser(ctx, "ghost", "a1")

		require.NoError(t, err)
		assert.NotNil(t, topics)
		assert.Empty(t, topics)
	})
}

func TestFindTokenByDevice_RoundTrip(t *testing.T) {
	ctx := context.Background()
	registry, store := setup()

	found := &target.Target{
		ID: "u1-a1",
		Devices: []target.Device{
			{DeviceID: "d1", RegisterToken: "t1"},
		},
	}
	store.On("FindByDevice", ctx, "d1", "a1").Return(found, nil)

	tgt, err := registry.FindTokenByDevice(ctx, "d1", "a1")

	require.NoError(t, err)
	require.NotNil(t, tgt)
	index := tgt.DeviceIndex("d1")
	require.GreaterOrEqual(t, index, 0)
	assert.Equal(t, "t1", tgt.Devices[index].RegisterToken)
}
