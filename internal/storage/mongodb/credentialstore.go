package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/tribeca/notifier/pkg/dispatch"
)

// tenantCredential is the fcmapps document. The credential blob stays opaque
// end to end; only the client factory ever parses it.
type tenantCredential struct {
	AppID      string `bson:"appId"`
	Credential []byte `bson:"credential"`
}

// CredentialStore persists tenant delivery credentials in the fcmapps
// collection and feeds the startup load of the delivery registry.
type CredentialStore struct {
	col *mongo.Collection
}

func NewCredentialStore(db *mongo.Database) *CredentialStore {
	return &CredentialStore{col: db.Collection(FCMAppsCollection)}
}

// Save upserts the tenant's credential, replacing any prior blob.
func (s *CredentialStore) Save(ctx context.Context, appID string, credential []byte) error {
	_, err := s.col.ReplaceOne(ctx,
		bson.M{"appId": appID},
		tenantCredential{AppID: appID, Credential: credential},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save credential for %s: %w", appID, err)
	}
	return nil
}

// Delete removes the tenant's credential; idempotent when absent.
func (s *CredentialStore) Delete(ctx context.Context, appID string) error {
	if _, err := s.col.DeleteOne(ctx, bson.M{"appId": appID}); err != nil {
		return fmt.Errorf("delete credential for %s: %w", appID, err)
	}
	return nil
}

// Exists reports whether a credential is persisted for the tenant.
func (s *CredentialStore) Exists(ctx context.Context, appID string) (bool, error) {
	err := s.col.FindOne(ctx, bson.M{"appId": appID},
		options.FindOne().SetProjection(bson.M{"appId": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check credential for %s: %w", appID, err)
	}
	return true, nil
}

// All lists every persisted tenant credential.
func (s *CredentialStore) All(ctx context.Context) ([]dispatch.Credential, error) {
	cursor, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	var docs []tenantCredential
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	credentials := make([]dispatch.Credential, 0, len(docs))
	for _, doc := range docs {
		credentials = append(credentials, dispatch.Credential{AppID: doc.AppID, Credential: doc.Credential})
	}
	return credentials, nil
}
