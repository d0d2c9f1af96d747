package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
)

// RegistrationHandler handles exam registrations and their review.
type RegistrationHandler struct {
	registrationService *service.RegistrationService
}

// NewRegistrationHandler creates a new RegistrationHandler.
func NewRegistrationHandler(registrationService *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

// List godoc
// GET /api/v1/registrations?exam_id=&status=
// Students see their own, institutional admins their institution's.
func (h *RegistrationHandler) List(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	examID, ok := queryID(c, "exam_id")
	if !ok {
		return
	}
	instID, ok := queryID(c, "institution_id")
	if !ok {
		return
	}

	page := pageFromQuery(c)
	f := model.RegistrationFilter{
		ExamID:        examID,
		InstitutionID: instID,
		Status:        model.RegistrationStatus(c.Query("status")),
	}
	items, total, err := h.registrationService.List(c.Request.Context(), p, f, page)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"registrations": items}, page.Pagination(total))
}

// Register godoc
// POST /api/v1/registrations
func (h *RegistrationHandler) Register(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	var req model.RegisterRequest
	if !bindOrFail(c, &req) {
		return
	}

	reg, err := h.registrationService.Register(c.Request.Context(), p, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"registration": reg})
}

// Get godoc
// GET /api/v1/registrations/:registration_id
func (h *RegistrationHandler) Get(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	id, ok := paramID(c, "registration_id")
	if !ok {
		return
	}

	reg, err := h.registrationService.Get(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"registration": reg})
}

// Approve godoc
// POST /api/v1/registrations/:registration_id/approve
// Issues the candidate number.
func (h *RegistrationHandler) Approve(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	id, ok := paramID(c, "registration_id")
	if !ok {
		return
	}

	reg, err := h.registrationService.Approve(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"registration": reg})
}

// Reject godoc
// POST /api/v1/registrations/:registration_id/reject
func (h *RegistrationHandler) Reject(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	id, ok := paramID(c, "registration_id")
	if !ok {
		return
	}
	var req model.RejectRequest
	if c.Request.ContentLength > 0 && !bindOrFail(c, &req) {
		return
	}

	reg, err := h.registrationService.Reject(c.Request.Context(), p, id, req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"registration": reg})
}
