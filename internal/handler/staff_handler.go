package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
)

// StaffHandler handles staff account management. All routes are ministry only.
type StaffHandler struct {
	staffService *service.StaffService
}

// NewStaffHandler creates a new StaffHandler.
func NewStaffHandler(staffService *service.StaffService) *StaffHandler {
	return &StaffHandler{staffService: staffService}
}

// List godoc
// GET /api/v1/staff?role=&institution_id=
func (h *StaffHandler) List(c *gin.Context) {
	instID, ok := queryID(c, "institution_id")
	if !ok {
		return
	}
	page := pageFromQuery(c)
	f := model.StaffFilter{Role: model.Role(c.Query("role")), InstitutionID: instID}

	items, total, err := h.staffService.List(c.Request.Context(), f, page)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"staff": items}, page.Pagination(total))
}

// Create godoc
// POST /api/v1/staff
func (h *StaffHandler) Create(c *gin.Context) {
	var req model.CreateStaffRequest
	if !bindOrFail(c, &req) {
		return
	}

	st, err := h.staffService.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"staff": st})
}

// Get godoc
// GET /api/v1/staff/:staff_id
func (h *StaffHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "staff_id")
	if !ok {
		return
	}
	st, err := h.staffService.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"staff": st})
}

// SetActive godoc
// PATCH /api/v1/staff/:staff_id/status
func (h *StaffHandler) SetActive(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	id, ok := paramID(c, "staff_id")
	if !ok {
		return
	}
	var req model.SetActiveRequest
	if !bindOrFail(c, &req) {
		return
	}

	st, err := h.staffService.SetActive(c.Request.Context(), p, id, *req.IsActive)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"staff": st})
}
