package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobber/internal/mailer"
	"github.com/yoockh/jobber/internal/models"
	"github.com/yoockh/jobber/internal/services"
)

// Outbox is the part of the notification store the workers need.
type Outbox interface {
	Get(ctx context.Context, id string) (*models.Notification, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, cause string) error
}

type NotificationWorkerPool struct {
	Redis      *redis.Client
	Outbox     Outbox
	Mailer     mailer.Mailer
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string

	now func() time.Time
}

func (p *NotificationWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Outbox == nil || p.Mailer == nil {
		return errors.New("NotificationWorkerPool missing dependency: Redis/Outbox/Mailer must be set")
	}
	p.defaults()

	// BUSYGROUP when the group exists
	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err()

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *NotificationWorkerPool) defaults() {
	if p.Stream == "" {
		p.Stream = services.NotificationStream
	}
	if p.Group == "" {
		p.Group = "notification-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}
	if p.now == nil {
		p.now = time.Now
	}
}

func (p *NotificationWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("notification stream read failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

type deliveryEvent struct {
	Type           string `json:"type"`
	NotificationID string `json:"notification_id"`
	Kind           string `json:"kind"`
	Subject        string `json:"subject"`
	Status         string `json:"status"`
}

func (p *NotificationWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	id, _ := msg.Values["notification_id"].(string)
	if id == "" {
		return
	}
	log := p.Logger.WithFields(logrus.Fields{"redis_id": msg.ID, "notification_id": id})

	n, err := p.deliver(ctx, id)
	if err != nil {
		log.WithError(err).Error("notification delivery failed")
	}
	if n == nil {
		return
	}

	payload, _ := json.Marshal(deliveryEvent{
		Type:           "notification",
		NotificationID: id,
		Kind:           n.Kind,
		Subject:        n.Subject,
		Status:         n.Status,
	})
	if err := p.Redis.Publish(ctx, services.UserChannel(n.UserID), string(payload)).Err(); err != nil {
		log.WithError(err).Warn("notification event not published")
	}
}

// deliver sends one outbox record and records the outcome.
// Records already sent are returned unchanged.
func (p *NotificationWorkerPool) deliver(ctx context.Context, id string) (*models.Notification, error) {
	n, err := p.Outbox.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status == models.NotificationSent {
		return n, nil
	}

	sendErr := p.Mailer.Send(ctx, mailer.Message{To: n.Email, Subject: n.Subject, Body: n.Body})
	if sendErr != nil {
		n.Status = models.NotificationFailed
		n.Attempts++
		n.LastErr = sendErr.Error()
		if err := p.Outbox.MarkFailed(ctx, id, sendErr.Error()); err != nil {
			return n, errors.Join(sendErr, err)
		}
		return n, sendErr
	}

	at := p.now().UTC()
	n.Status = models.NotificationSent
	n.Attempts++
	n.SentAt = &at
	if err := p.Outbox.MarkSent(ctx, id, at); err != nil {
		return n, err
	}
	return n, nil
}
