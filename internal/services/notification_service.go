package services

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yoockh/jobber/internal/models"
	mongorepo "github.com/yoockh/jobber/internal/repositories/mongo"
	"github.com/yoockh/jobber/internal/utils"
)

const (
	NotificationStream = "notifications:stream"
	notificationTTL    = 30 * 24 * time.Hour
)

// UserChannel is the pub/sub channel carrying a user's delivery events.
func UserChannel(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10) + ":notifications"
}

type Notifier interface {
	Notify(ctx context.Context, n *models.Notification) error
}

type NotificationService interface {
	Notifier
	ListForUser(ctx context.Context, userID int64, limit int64) ([]models.Notification, error)
}

type notificationService struct {
	repo   mongorepo.NotificationRepository
	redis  *redis.Client
	stream string
}

func NewNotificationService(repo mongorepo.NotificationRepository, rdb *redis.Client) NotificationService {
	return &notificationService{repo: repo, redis: rdb, stream: NotificationStream}
}

// Notify stores the notification in the outbox and queues it for delivery.
func (s *notificationService) Notify(ctx context.Context, n *models.Notification) error {
	const op = "NotificationService.Notify"

	if n == nil || n.UserID == 0 || n.Email == "" {
		return utils.E(utils.CodeInvalidArgument, op, "notification needs a user and an email", nil)
	}
	now := time.Now().UTC()
	n.Status = models.NotificationPending
	n.CreatedAt = now
	n.ExpiresAt = now.Add(notificationTTL)

	if err := s.repo.Insert(ctx, n); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to store notification", err)
	}

	err := s.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"notification_id": n.ID.Hex(),
			"user_id":         strconv.FormatInt(n.UserID, 10),
			"kind":            n.Kind,
		},
	}).Err()
	if err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to enqueue notification", err)
	}
	return nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID int64, limit int64) ([]models.Notification, error) {
	const op = "NotificationService.ListForUser"

	out, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to list notifications", err)
	}
	if out == nil {
		out = []models.Notification{}
	}
	return out, nil
}
