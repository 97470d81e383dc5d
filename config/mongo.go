package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const NotificationsCollection = "notifications"

// OpenMongo connects and pings the notification outbox store.
func OpenMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("MONGO_URI environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetAppName("jobber").
		SetServerSelectionTimeout(20*time.Second).
		SetConnectTimeout(15*time.Second).
		SetMaxPoolSize(20).
		SetMinPoolSize(1))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// notificationIndexes back the outbox queries: expiry, per-user feed and
// the status scan used by workers.
var notificationIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetName("ttl_expires_at").SetExpireAfterSeconds(0),
	},
	{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("by_user_created"),
	},
	{
		Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
		Options: options.Index().SetName("by_status_created"),
	},
}

func EnsureNotificationIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := db.Collection(NotificationsCollection).Indexes().CreateMany(ctx, notificationIndexes)
	return err
}
