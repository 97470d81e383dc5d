package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/jobber/internal/models"
	"github.com/yoockh/jobber/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationRepository interface {
	Insert(ctx context.Context, n *models.Notification) error
	Get(ctx context.Context, id string) (*models.Notification, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, cause string) error
	ListByUser(ctx context.Context, userID int64, limit int64) ([]models.Notification, error)
}

type notificationRepo struct {
	col *mongo.Collection
}

func NewNotificationRepo(db *mongo.Database) NotificationRepository {
	return &notificationRepo{col: db.Collection("notifications")}
}

func (r *notificationRepo) Insert(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, n)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		n.ID = oid
	}
	return nil
}

func (r *notificationRepo) Get(ctx context.Context, id string) (*models.Notification, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.ErrNotFound
	}
	var n models.Notification
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &n, err
}

func (r *notificationRepo) update(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return utils.ErrNotFound
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *notificationRepo) MarkSent(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, id, bson.M{
		"$set": bson.M{"status": models.NotificationSent, "sent_at": at.UTC()},
		"$inc": bson.M{"attempts": 1},
	})
}

func (r *notificationRepo) MarkFailed(ctx context.Context, id string, cause string) error {
	return r.update(ctx, id, bson.M{
		"$set": bson.M{"status": models.NotificationFailed, "last_error": cause},
		"$inc": bson.M{"attempts": 1},
	})
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID int64, limit int64) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
