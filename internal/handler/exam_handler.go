package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
)

// ExamHandler handles exam management endpoints.
type ExamHandler struct {
	examService   *service.ExamService
	resultService *service.ResultService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, resultService *service.ResultService) *ExamHandler {
	return &ExamHandler{examService: examService, resultService: resultService}
}

// List godoc
// GET /api/v1/exams?status=&type=&year=
func (h *ExamHandler) List(c *gin.Context) {
	page := pageFromQuery(c)
	year, _ := strconv.Atoi(c.Query("year"))
	f := model.ExamFilter{
		Status: model.ExamStatus(c.Query("status")),
		Type:   c.Query("type"),
		Year:   year,
	}

	items, total, err := h.examService.List(c.Request.Context(), f, page)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": items}, page.Pagination(total))
}

// Create godoc
// POST /api/v1/exams
func (h *ExamHandler) Create(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	var req model.ExamRequest
	if !bindOrFail(c, &req) {
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), p, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// Get godoc
// GET /api/v1/exams/:exam_id
func (h *ExamHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "exam_id")
	if !ok {
		return
	}
	exam, err := h.examService.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// Update godoc
// PUT /api/v1/exams/:exam_id
func (h *ExamHandler) Update(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	id, ok := paramID(c, "exam_id")
	if !ok {
		return
	}
	var req model.ExamRequest
	if !bindOrFail(c, &req) {
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), p, id, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// Delete godoc
// DELETE /api/v1/exams/:exam_id
// Registrations and results of the exam are removed with it.
func (h *ExamHandler) Delete(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	id, ok := paramID(c, "exam_id")
	if !ok {
		return
	}
	if err := h.examService.Delete(c.Request.Context(), p, id); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// PublishResults godoc
// POST /api/v1/exams/:exam_id/publish
// Publishes every unpublished result of the exam. Repeating the call
// publishes nothing new.
func (h *ExamHandler) PublishResults(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	id, ok := paramID(c, "exam_id")
	if !ok {
		return
	}
	var req model.PublishExamRequest
	if c.Request.ContentLength > 0 && !bindOrFail(c, &req) {
		return
	}

	pub, err := h.resultService.PublishExam(c.Request.Context(), p, id, req.Notes)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"publication": pub})
}

// Publications godoc
// GET /api/v1/exams/:exam_id/publications
func (h *ExamHandler) Publications(c *gin.Context) {
	id, ok := paramID(c, "exam_id")
	if !ok {
		return
	}
	pubs, err := h.resultService.Publications(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"publications": pubs})
}
