package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

const (
	KindApplicationSubmitted = "application_submitted"
	KindApplicationStatus    = "application_status"
)

// Notification is an outbox record, delivered by the notification workers.
type Notification struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID int64              `bson:"user_id" json:"user_id"`
	Kind   string             `bson:"kind" json:"kind"`

	Email   string `bson:"email" json:"email"`
	Subject string `bson:"subject" json:"subject"`
	Body    string `bson:"body" json:"body"`

	Status   string `bson:"status" json:"status"` // pending|sent|failed
	Attempts int    `bson:"attempts" json:"attempts"`
	LastErr  string `bson:"last_error,omitempty" json:"last_error,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	SentAt    *time.Time `bson:"sent_at,omitempty" json:"sent_at,omitempty"`

	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"` // TTL index
}
