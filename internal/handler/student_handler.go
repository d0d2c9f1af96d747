package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
)

// StudentHandler handles student enrollment and profiles.
type StudentHandler struct {
	studentService *service.StudentService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

// List godoc
// GET /api/v1/students?institution_id=&search=
// Institutional admins only ever see their own institution.
func (h *StudentHandler) List(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	instID, ok := queryID(c, "institution_id")
	if !ok {
		return
	}

	page := pageFromQuery(c)
	f := model.StudentFilter{InstitutionID: instID, Search: c.Query("search")}
	items, total, err := h.studentService.List(c.Request.Context(), p, f, page)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"students": items}, page.Pagination(total))
}

// Enroll godoc
// POST /api/v1/students
func (h *StudentHandler) Enroll(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	var req model.EnrollStudentRequest
	if !bindOrFail(c, &req) {
		return
	}

	st, err := h.studentService.Enroll(c.Request.Context(), p, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"student": st})
}

// Get godoc
// GET /api/v1/students/:student_id
func (h *StudentHandler) Get(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	id, ok := paramID(c, "student_id")
	if !ok {
		return
	}

	st, err := h.studentService.Get(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": st})
}

// Me godoc
// GET /api/v1/me/profile
func (h *StudentHandler) Me(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	st, err := h.studentService.Get(c.Request.Context(), p, p.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": st})
}

// Update godoc
// PUT /api/v1/students/:student_id
func (h *StudentHandler) Update(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	id, ok := paramID(c, "student_id")
	if !ok {
		return
	}
	var req model.UpdateStudentRequest
	if !bindOrFail(c, &req) {
		return
	}

	st, err := h.studentService.Update(c.Request.Context(), p, id, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": st})
}

// SetActive godoc
// PATCH /api/v1/students/:student_id/status
func (h *StudentHandler) SetActive(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	id, ok := paramID(c, "student_id")
	if !ok {
		return
	}
	var req model.SetActiveRequest
	if !bindOrFail(c, &req) {
		return
	}

	st, err := h.studentService.SetActive(c.Request.Context(), p, id, *req.IsActive)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": st})
}
