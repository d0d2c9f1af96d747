package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
	"github.com/oerms/oerms-backend/internal/validator"
)

// PublicHandler serves the unauthenticated endpoints.
type PublicHandler struct {
	publicService *service.PublicService
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(publicService *service.PublicService) *PublicHandler {
	return &PublicHandler{publicService: publicService}
}

// SearchResults godoc
// GET /api/v1/public/results?candidate_number=&student_number=&exam_id=
// Only published results are ever returned.
func (h *PublicHandler) SearchResults(c *gin.Context) {
	var q model.PublicSearchQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	items, err := h.publicService.SearchResults(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": items})
}

// Exams godoc
// GET /api/v1/public/exams
func (h *PublicHandler) Exams(c *gin.Context) {
	page := pageFromQuery(c)
	items, total, err := h.publicService.ActiveExams(c.Request.Context(), page)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": items}, page.Pagination(total))
}

// Institutions godoc
// GET /api/v1/public/institutions?search=
func (h *PublicHandler) Institutions(c *gin.Context) {
	page := pageFromQuery(c)
	items, total, err := h.publicService.VerifiedInstitutions(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"institutions": items}, page.Pagination(total))
}

// Stats godoc
// GET /api/v1/public/stats
func (h *PublicHandler) Stats(c *gin.Context) {
	stats, err := h.publicService.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}
