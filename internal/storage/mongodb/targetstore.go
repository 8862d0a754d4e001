package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/tribeca/notifier/pkg/target"
)

// TargetStore implements target.Store on the targets collection. Every method
// is one driver call; atomicity is the single-document guarantee mongo gives
// to each update operator.
type TargetStore struct {
	col *mongo.Collection
}

func NewTargetStore(db *mongo.Database) *TargetStore {
	return &TargetStore{col: db.Collection(TargetsCollection)}
}

func byID(userID, appID string) bson.M {
	return bson.M{"_id": target.DocumentID(userID, appID)}
}

func (s *TargetStore) FindOne(ctx context.Context, userID, appID string) (*target.Target, error) {
	return s.findOne(ctx, byID(userID, appID), nil)
}

func (s *TargetStore) Insert(ctx context.Context, t *target.Target) error {
	if _, err := s.col.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("insert target %s: %w", t.ID, err)
	}
	return nil
}

func (s *TargetStore) PushDevice(ctx context.Context, userID, appID string, d target.Device) error {
	_, err := s.col.UpdateOne(ctx, byID(userID, appID), bson.M{
		"$push": bson.M{"devices": d},
	})
	if err != nil {
		return fmt.Errorf("push device %s: %w", d.DeviceID, err)
	}
	return nil
}

func (s *TargetStore) SetDeviceToken(ctx context.Context, userID, appID string, index int, token string) error {
	_, err := s.col.UpdateOne(ctx, byID(userID, appID), bson.M{
		"$set": bson.M{fmt.Sprintf("devices.%d.registerToken", index): token},
	})
	if err != nil {
		return fmt.Errorf("set device token at %d: %w", index, err)
	}
	return nil
}

func (s *TargetStore) PullDevice(ctx context.Context, userID, appID, deviceID string) error {
	_, err := s.col.UpdateOne(ctx, byID(userID, appID), bson.M{
		"$pull": bson.M{"devices": bson.M{"deviceId": deviceID}},
	})
	if err != nil {
		return fmt.Errorf("pull device %s: %w", deviceID, err)
	}
	return nil
}

func (s *TargetStore) AddToTopicSet(ctx context.Context, userID, appID string, topics []string) (bool, error) {
	res, err := s.col.UpdateOne(ctx, byID(userID, appID), bson.M{
		"$addToSet": bson.M{"topics": bson.M{"$each": topics}},
	})
	if err != nil {
		return false, fmt.Errorf("add topics: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (s *TargetStore) PullTopics(ctx context.Context, userID, appID string, topics []string) error {
	_, err := s.col.UpdateOne(ctx, byID(userID, appID), bson.M{
		"$pull": bson.M{"topics": bson.M{"$in": topics}},
	})
	if err != nil {
		return fmt.Errorf("pull topics: %w", err)
	}
	return nil
}

func (s *TargetStore) PullTopicsByApp(ctx context.Context, appID string, topics []string) error {
	_, err := s.col.UpdateMany(ctx, bson.M{"appId": appID}, bson.M{
		"$pull": bson.M{"topics": bson.M{"$in": topics}},
	})
	if err != nil {
		return fmt.Errorf("pull topics for app %s: %w", appID, err)
	}
	return nil
}

func (s *TargetStore) FindByDevice(ctx context.Context, deviceID, appID string) (*target.Target, error) {
	filter := bson.M{
		"appId":   appID,
		"devices": bson.M{"$elemMatch": bson.M{"deviceId": deviceID}},
	}
	projection := bson.M{
		"devices.deviceId":      1,
		"devices.registerToken": 1,
	}
	return s.findOne(ctx, filter, projection)
}

func (s *TargetStore) FindByUser(ctx context.Context, userID, appID string) (*target.Target, error) {
	return s.findOne(ctx, byID(userID, appID), bson.M{"devices.registerToken": 1})
}

func (s *TargetStore) FindByTopic(ctx context.Context, topic, appID string, excludeUsers []string) ([]target.Target, error) {
	if excludeUsers == nil {
		excludeUsers = []string{}
	}
	filter := bson.M{
		"appId":  appID,
		"topics": topic,
		"userId": bson.M{"$nin": excludeUsers},
	}
	cursor, err := s.col.Find(ctx, filter,
		options.Find().SetProjection(bson.M{"devices.registerToken": 1}))
	if err != nil {
		return nil, fmt.Errorf("find targets by topic %s: %w", topic, err)
	}
	var targets []target.Target
	if err := cursor.All(ctx, &targets); err != nil {
		return nil, fmt.Errorf("decode targets by topic %s: %w", topic, err)
	}
	return targets, nil
}

func (s *TargetStore) FindTopics(ctx context.Context, userID, appID string) (*target.Target, error) {
	return s.findOne(ctx, byID(userID, appID), bson.M{"topics": 1})
}

func (s *TargetStore) findOne(ctx context.Context, filter, projection bson.M) (*target.Target, error) {
	opts := options.FindOne()
	if projection != nil {
		opts = opts.SetProjection(projection)
	}
	var t target.Target
	err := s.col.FindOne(ctx, filter, opts).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find target: %w", err)
	}
	return &t, nil
}
