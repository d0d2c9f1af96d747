package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType groups notifications for client-side rendering.
type NotificationType string

const (
	NotificationRegistration NotificationType = "registration"
	NotificationResult       NotificationType = "result"
	NotificationAccount      NotificationType = "account"
)

// Notification is an in-app message addressed to one account.
type Notification struct {
	ID            uuid.UUID        `json:"id"`
	RecipientRole Role             `json:"recipient_role"`
	RecipientID   uuid.UUID        `json:"recipient_id"`
	Type          NotificationType `json:"type"`
	Title         string           `json:"title"`
	Message       string           `json:"message"`
	IsRead        bool             `json:"is_read"`
	CreatedAt     time.Time        `json:"created_at"`
}
