package target

import (
	"context"
	"log/slog"
)

// Registry owns device and topic mutations plus the token-resolution queries.
// Registration is upsert-first: a Target is created implicitly on the first
// device registration of a never-seen (userId, appId) pair.
type Registry struct {
	store  Store
	logger *slog.Logger
}

func NewRegistry(store Store, logger *slog.Logger) *Registry {
	return &Registry{
		store:  store,
		logger: logger.With("component", "TargetRegistry"),
	}
}

// UpsertDevice registers a device token. A missing Target is created with the
// device as its first entry; a known deviceId has its token replaced in place;
// a new deviceId is appended preserving prior order. Idempotent.
func (r *Registry) UpsertDevice(ctx context.Context, userID, appID, deviceID, token, model, platform string) (Device, error) {
	device := Device{
		DeviceID:      deviceID,
		RegisterToken: token,
		Model:         model,
		Platform:      platform,
	}

	t, err := r.store.FindOne(ctx, userID, appID)
	if err != nil {
		return Device{}, err
	}
	if t == nil {
		created := &Target{
			ID:      DocumentID(userID, appID),
			UserID:  userID,
			AppID:   appID,
			Devices: []Device{device},
		}
		if err := r.store.Insert(ctx, created); err != nil {
			return Device{}, err
		}
		r.logger.Debug("target created", "userId", userID, "appId", appID, "deviceId", deviceID)
		return device, nil
	}

	index := t.DeviceIndex(deviceID)
	if index < 0 {
		return device, r.store.PushDevice(ctx, userID, appID, device)
	}
	return device, r.store.SetDeviceToken(ctx, userID, appID, index, token)
}

// DeleteDevice removes the matching device, if any. A missing Target or
// device is a silent success, never a Target creation.
func (r *Registry) DeleteDevice(ctx context.Context, userID, appID, deviceID string) error {
	return r.store.PullDevice(ctx, userID, appID, deviceID)
}

// FindTokenByDevice returns the tenant's Target owning deviceID, or nil when
// no Target holds it. The caller scans the returned device sequence for the
// exact token; the store match narrows to tenant plus device existence only.
func (r *Registry) FindTokenByDevice(ctx context.Context, deviceID, appID string) (*Target, error) {
	return r.store.FindByDevice(ctx, deviceID, appID)
}

// FindTokensByUser returns the user's Target with its device tokens, or nil
// when the Target is absent.
func (r *Registry) FindTokensByUser(ctx context.Context, userID, appID string) (*Target, error) {
	return r.store.FindByUser(ctx, userID, appID)
}

// FindTokensByTopic returns every Target of the tenant subscribed to topic,
// excluding listed userIds. No match yields an empty slice.
func (r *Registry) FindTokensByTopic(ctx context.Context, topic, appID string, excludeUsers []string) ([]Target, error) {
	targets, err := r.store.FindByTopic(ctx, topic, appID, excludeUsers)
	if err != nil {
		return nil, err
	}
	if targets == nil {
		targets = []Target{}
	}
	return targets, nil
}

// AddTopics adds the topics to the Target's set, absorbing duplicates both
// against the stored set and within the batch. It returns false when no
// Target exists for the key; the update matched nothing and nothing was
// created.
func (r *Registry) AddTopics(ctx context.Context, userID, appID string, topics []string) (bool, error) {
	return r.store.AddToTopicSet(ctx, userID, appID, topics)
}

// RemoveTopicsFromUser removes the listed topics from one Target's set.
// Missing Target or topics succeed silently.
func (r *Registry) RemoveTopicsFromUser(ctx context.Context, userID, appID string, topics []string) error {
	return r.store.PullTopics(ctx, userID, appID, topics)
}

// RemoveTopicsFromAllUsers removes the listed topics from every Target of the
// tenant.
func (r *Registry) RemoveTopicsFromAllUsers(ctx context.Context, appID string, topics []string) error {
	return r.store.PullTopicsByApp(ctx, appID, topics)
}

// FindTopicsByUser returns the Target's topics, or an empty slice when the
// Target is absent.
func (r *Registry) FindTopicsByUser(ctx context.Context, userID, appID string) ([]string, error) {
	t, err := r.store.FindTopics(ctx, userID, appID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.Topics == nil {
		return []string{}, nil
	}
	return t.Topics, nil
}
