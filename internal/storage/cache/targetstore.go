package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/tribeca/notifier/pkg/target"
)

// CachedTargetStore is a decorator adding read-aside caching to any
// target.Store. Only the user token lookup is cached: it is the hot path of
// notify-by-user and its cached projection holds device tokens only, so topic
// mutations never stale it. Device writes invalidate the key before anything
// can read it back.
type CachedTargetStore struct {
	realStore target.Store
	cache     CacheClient
	ttl       time.Duration
}

func NewCachedTargetStore(realStore target.Store, cache CacheClient, ttl time.Duration) *CachedTargetStore {
	return &CachedTargetStore{
		realStore: realStore,
		cache:     cache,
		ttl:       ttl,
	}
}

// --- READ PATH (read-aside) ---

func (s *CachedTargetStore) FindByUser(ctx context.Context, userID, appID string) (*target.Target, error) {
	key := s.cacheKey(userID, appID)

	var cached target.Target
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	fresh, err := s.realStore.FindByUser(ctx, userID, appID)
	if err != nil {
		return nil, err
	}

	// Caching is an optimization, not a transaction: ignore fill failures,
	// and never cache an absent target.
	if fresh != nil {
		_ = s.cache.Set(ctx, key, fresh, s.ttl)
	}
	return fresh, nil
}

// --- WRITE PATHS (invalidate-on-write) ---

func (s *CachedTargetStore) Insert(ctx context.Context, t *target.Target) error {
	if err := s.realStore.Insert(ctx, t); err != nil {
		return err
	}
	return s.invalidate(ctx, t.UserID, t.AppID)
}

func (s *CachedTargetStore) PushDevice(ctx context.Context, userID, appID string, d target.Device) error {
	if err := s.realStore.PushDevice(ctx, userID, appID, d); err != nil {
		return err
	}
	return s.invalidate(ctx, userID, appID)
}

func (s *CachedTargetStore) SetDeviceToken(ctx context.Context, userID, appID string, index int, token string) error {
	if err := s.realStore.SetDeviceToken(ctx, userID, appID, index, token); err != nil {
		return err
	}
	return s.invalidate(ctx, userID, appID)
}

func (s *CachedTargetStore) PullDevice(ctx context.Context, userID, appID, deviceID string) error {
	if err := s.realStore.PullDevice(ctx, userID, appID, deviceID); err != nil {
		return err
	}
	return s.invalidate(ctx, userID, appID)
}

// --- PASS-THROUGH ---
// Topic mutations and the remaining lookups never touch the cached token
// projection.

func (s *CachedTargetStore) FindOne(ctx context.Context, userID, appID string) (*target.Target, error) {
	return s.realStore.FindOne(ctx, userID, appID)
}

func (s *CachedTargetStore) AddToTopicSet(ctx context.Context, userID, appID string, topics []string) (bool, error) {
	return s.realStore.AddToTopicSet(ctx, userID, appID, topics)
}

func (s *CachedTargetStore) PullTopics(ctx context.Context, userID, appID string, topics []string) error {
	return s.realStore.PullTopics(ctx, userID, appID, topics)
}

func (s *CachedTargetStore) PullTopicsByApp(ctx context.Context, appID string, topics []string) error {
	return s.realStore.PullTopicsByApp(ctx, appID, topics)
}

func (s *CachedTargetStore) FindByDevice(ctx context.Context, deviceID, appID string) (*target.Target, error) {
	return s.realStore.FindByDevice(ctx, deviceID, appID)
}

func (s *CachedTargetStore) FindByTopic(ctx context.Context, topic, appID string, excludeUsers []string) ([]target.Target, error) {
	return s.realStore.FindByTopic(ctx, topic, appID, excludeUsers)
}

func (s *CachedTargetStore) FindTopics(ctx context.Context, userID, appID string) (*target.Target, error) {
	return s.realStore.FindTopics(ctx, userID, appID)
}

// --- Helpers ---

func (s *CachedTargetStore) invalidate(ctx context.Context, userID, appID string) error {
	return s.cache.Del(ctx, s.cacheKey(userID, appID))
}

func (s *CachedTargetStore) cacheKey(userID, appID string) string {
	return fmt.Sprintf("notifier:tokens:%s", target.DocumentID(userID, appID))
}
