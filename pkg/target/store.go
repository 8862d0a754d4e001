package target

import "context"

// Store is the narrow document-store contract the Registry runs on. Each
// method maps to a single atomic operation on the targets collection; the
// store guarantees single-document atomicity and nothing more.
//
// Lookup methods return (nil, nil) when no document matches: absence is an
// expected state, not an error. Errors indicate store failure only.
type Store interface {
	// FindOne loads the full Target for the composite key.
	FindOne(ctx context.Context, userID, appID string) (*Target, error)

	// Insert creates a new Target document.
	Insert(ctx context.Context, t *Target) error

	// PushDevice appends a device to the Target's sequence.
	PushDevice(ctx context.Context, userID, appID string, d Device) error

	// SetDeviceToken replaces the register token of the device at index,
	// leaving its position and the rest of the sequence untouched.
	SetDeviceToken(ctx context.Context, userID, appID string, index int, token string) error

	// PullDevice removes the matching device, matching zero documents is fine.
	PullDevice(ctx context.Context, userID, appID, deviceID string) error

	// AddToTopicSet adds topics with set semantics. The boolean reports
	// whether the conditional update matched a document at all.
	AddToTopicSet(ctx context.Context, userID, appID string, topics []string) (bool, error)

	// PullTopics removes the listed topics from one Target's set.
	PullTopics(ctx context.Context, userID, appID string, topics []string) error

	// PullTopicsByApp removes the listed topics from every Target of a tenant.
	PullTopicsByApp(ctx context.Context, appID string, topics []string) error

	// FindByDevice returns the tenant's Target owning deviceID, projected to
	// device identifiers and tokens.
	FindByDevice(ctx context.Context, deviceID, appID string) (*Target, error)

	// FindByUser returns the Target's device sequence projected to tokens.
	FindByUser(ctx context.Context, userID, appID string) (*Target, error)

	// FindByTopic returns every Target of the tenant subscribed to topic whose
	// userId is not excluded, each projected to device tokens.
	FindByTopic(ctx context.Context, topic, appID string, excludeUsers []string) ([]Target, error)

	// FindTopics returns the Target projected to its topic set.
	FindTopics(ctx context.Context, userID, appID string) (*Target, error)
}
