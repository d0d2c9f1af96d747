package websocket

import (
	"github.com/oerms/oerms-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing     Action = "ping"
	ActionMarkRead Action = "mark_read"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// MarkReadRequest acknowledges one notification from the live stream.
type MarkReadRequest struct {
	Action         Action `json:"action"`
	NotificationID string `json:"notification_id"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventReady        Event = "ready"
	EventNotification Event = "notification"
	EventRead         Event = "read"
	EventPong         Event = "pong"
	EventError        Event = "error"
)

// ReadyResponse is the first frame after the upgrade.
type ReadyResponse struct {
	Event  Event `json:"event"`
	Unread int   `json:"unread"`
}

// NotificationResponse carries one notification pushed by the worker.
type NotificationResponse struct {
	Event        Event              `json:"event"`
	Notification model.Notification `json:"notification"`
}

// ReadResponse confirms a mark_read action.
type ReadResponse struct {
	Event          Event  `json:"event"`
	NotificationID string `json:"notification_id"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
