package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/rbac"
	ws "github.com/oerms/oerms-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionStub struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (s *sessionStub) Revalidate(context.Context, *model.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

// dialStream serves h.push for p behind a test server and returns the client
// side of the connection.
func dialStream(t *testing.T, h *WSHandler, p *model.Principal, ch <-chan *redis.Message) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := ws.Wrap(raw)
		ctx, cancel := context.WithCancel(context.Background())
		h.push(ctx, cancel, conn, p, ch, zerolog.Nop())
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.SetReadDeadline(time.Now().Add(3*time.Second)))
	return client
}

func expectClose(t *testing.T, client *websocket.Conn, reason string) {
	t.Helper()
	for {
		_, _, err := client.ReadMessage()
		if err == nil {
			continue
		}
		var closeErr *websocket.CloseError
		require.ErrorAs(t, err, &closeErr)
		assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
		assert.Equal(t, reason, closeErr.Text)
		return
	}
}

func streamPrincipal(ttl time.Duration) *model.Principal {
	return &model.Principal{
		ID:        uuid.New(),
		Role:      model.RoleStudent,
		IsActive:  true,
		TokenID:   uuid.NewString(),
		ExpiresAt: time.Now().Add(ttl),
	}
}

func TestStreamClosesWhenTokenExpires(t *testing.T) {
	sessions := &sessionStub{}
	h := NewWSHandler(nil, sessions, zerolog.Nop(), nil)
	h.recheckEvery = time.Hour

	client := dialStream(t, h, streamPrincipal(200*time.Millisecond), make(chan *redis.Message))
	expectClose(t, client, "token expired")
}

func TestStreamClosesWhenSessionEnds(t *testing.T) {
	sessions := &sessionStub{err: rbac.ErrRevokedToken}
	h := NewWSHandler(nil, sessions, zerolog.Nop(), nil)
	h.recheckEvery = 20 * time.Millisecond

	client := dialStream(t, h, streamPrincipal(time.Hour), make(chan *redis.Message))
	expectClose(t, client, "session ended")

	sessions.mu.Lock()
	defer sessions.mu.Unlock()
	assert.Equal(t, 1, sessions.calls)
}

func TestStreamForwardsNotifications(t *testing.T) {
	h := NewWSHandler(nil, &sessionStub{}, zerolog.Nop(), nil)
	ch := make(chan *redis.Message, 1)
	t.Cleanup(func() { close(ch) })

	client := dialStream(t, h, streamPrincipal(time.Hour), ch)

	n := model.Notification{ID: uuid.New(), Type: model.NotificationResult, Title: "Exam result published"}
	payload, err := json.Marshal(n)
	require.NoError(t, err)
	ch <- &redis.Message{Payload: string(payload)}

	var frame ws.NotificationResponse
	require.NoError(t, client.ReadJSON(&frame))
	assert.Equal(t, ws.EventNotification, frame.Event)
	assert.Equal(t, n.ID, frame.Notification.ID)
	assert.Equal(t, n.Title, frame.Notification.Title)
}
