// Package mongodb persists targets and tenant credentials in MongoDB. It is
// the only package that speaks the document-store dialect; everything above it
// sees the narrow target.Store and dispatch.CredentialSource contracts.
package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	TargetsCollection = "targets"
	FCMAppsCollection = "fcmapps"
)

// ErrFailedToConnect is returned once every connect attempt is exhausted.
var ErrFailedToConnect = errors.New("failed to connect to mongo")

// ClientConfig holds the connection settings for Connect.
type ClientConfig struct {
	URL            string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	RetryAttempts  int
	RetryInterval  time.Duration
}

// Connect dials mongo with bounded retries so transient startup races with
// the database container do not kill the process.
func Connect(ctx context.Context, cfg ClientConfig) (*mongo.Client, error) {
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for range attempts {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.URL).
				SetConnectTimeout(cfg.ConnectTimeout).
				SetMaxPoolSize(cfg.MaxPoolSize),
		)
		if err == nil {
			if err := client.Ping(ctx, nil); err == nil {
				return client, nil
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryInterval):
		}
	}
	return nil, ErrFailedToConnect
}

// EnsureIndexes creates the unique tenant index on the credential collection.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(FCMAppsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "appId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("appId"),
	})
	return err
}

// Healthcheck returns a ping probe suitable for the health endpoint.
func Healthcheck(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	}
}
