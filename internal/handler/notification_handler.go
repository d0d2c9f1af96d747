package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
)

// NotificationHandler serves the caller's notification inbox.
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List godoc
// GET /api/v1/notifications?unread=true
func (h *NotificationHandler) List(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}

	page := pageFromQuery(c)
	items, total, err := h.notificationService.List(c.Request.Context(), p, c.Query("unread") == "true", page)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"notifications": items}, page.Pagination(total))
}

// MarkRead godoc
// POST /api/v1/notifications/:notification_id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	id, ok := paramID(c, "notification_id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), p, id); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// MarkAllRead godoc
// POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}

	n, err := h.notificationService.MarkAllRead(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": n})
}
