package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
	ws "github.com/oerms/oerms-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// SessionChecker re-validates a principal after the upgrade request.
type SessionChecker interface {
	Revalidate(ctx context.Context, p *model.Principal) error
}

// WSHandler streams live notifications to connected clients.
type WSHandler struct {
	notificationService *service.NotificationService
	sessions            SessionChecker
	log                 zerolog.Logger
	upgrader            websocket.Upgrader
	recheckEvery        time.Duration
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(notificationService *service.NotificationService, sessions SessionChecker, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		notificationService: notificationService,
		sessions:            sessions,
		log:                 log.With().Str("component", "ws_handler").Logger(),
		upgrader:            buildUpgrader(allowedOrigins),
		recheckEvery:        ws.PingPeriod,
	}
}

// Notifications godoc
// WS /ws/v1/notifications?token=...
// Pushes every notification the worker stores for the caller. Clients may
// send ping and mark_read frames.
func (h *WSHandler) Notifications(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}

	// Subscribe before upgrading so nothing published in between is lost.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := h.notificationService.Subscribe(ctx, p)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		h.log.Error().Err(err).Msg("Notification subscribe failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	wsLog := h.log.With().
		Str("principal_id", p.ID.String()).
		Str("role", string(p.Role)).
		Logger()
	wsLog.Info().Msg("Client connected")

	_, unread, err := h.notificationService.List(ctx, p, true, service.NewPage(1, 1))
	if err != nil {
		wsLog.Warn().Err(err).Msg("Unread count failed")
	}
	if err := conn.WriteTyped(ws.ReadyResponse{Event: ws.EventReady, Unread: unread}); err != nil {
		return
	}

	go h.push(ctx, cancel, conn, p, sub.Channel(), wsLog)

	for {
		var msg ws.MarkReadRequest
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		case ws.ActionMarkRead:
			h.markRead(ctx, conn, p, msg.NotificationID)
		default:
			_ = conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}

// push forwards PubSub messages until ctx ends or a write fails. The stream
// ends when the token expires, and on each tick when the session was revoked
// or the account deactivated.
func (h *WSHandler) push(ctx context.Context, cancel context.CancelFunc, conn *ws.Conn, p *model.Principal, ch <-chan *redis.Message, log zerolog.Logger) {
	defer cancel()
	ticker := time.NewTicker(h.recheckEvery)
	defer ticker.Stop()
	expiry := time.NewTimer(time.Until(p.ExpiresAt))
	defer expiry.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-expiry.C:
			log.Info().Msg("Token expired, closing stream")
			_ = conn.CloseWith(websocket.ClosePolicyViolation, "token expired")
			return
		case <-ticker.C:
			if h.sessions != nil {
				if err := h.sessions.Revalidate(ctx, p); err != nil {
					log.Info().Err(err).Msg("Session no longer valid, closing stream")
					_ = conn.CloseWith(websocket.ClosePolicyViolation, "session ended")
					return
				}
			}
			if err := conn.Ping(); err != nil {
				return
			}
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var n model.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				log.Warn().Err(err).Msg("Dropping malformed notification")
				continue
			}
			if err := conn.WriteTyped(ws.NotificationResponse{Event: ws.EventNotification, Notification: n}); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

func (h *WSHandler) markRead(ctx context.Context, conn *ws.Conn, p *model.Principal, rawID string) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		_ = conn.WriteError("invalid notification_id")
		return
	}
	if err := h.notificationService.MarkRead(ctx, p, id); err != nil {
		_ = conn.WriteError("notification not found")
		return
	}
	_ = conn.WriteTyped(ws.ReadResponse{Event: ws.EventRead, NotificationID: id.String()})
}
