package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
)

// InstitutionHandler handles institution endpoints.
type InstitutionHandler struct {
	institutionService *service.InstitutionService
}

// NewInstitutionHandler creates a new InstitutionHandler.
func NewInstitutionHandler(institutionService *service.InstitutionService) *InstitutionHandler {
	return &InstitutionHandler{institutionService: institutionService}
}

// List godoc
// GET /api/v1/institutions?region=&verified=&search=
func (h *InstitutionHandler) List(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}

	page := pageFromQuery(c)
	f := model.InstitutionFilter{
		Region:       c.Query("region"),
		Search:       c.Query("search"),
		VerifiedOnly: c.Query("verified") == "true",
	}

	items, total, err := h.institutionService.List(c.Request.Context(), p, f, page)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"institutions": items}, page.Pagination(total))
}

// Create godoc
// POST /api/v1/institutions
func (h *InstitutionHandler) Create(c *gin.Context) {
	var req model.InstitutionRequest
	if !bindOrFail(c, &req) {
		return
	}

	inst, err := h.institutionService.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"institution": inst})
}

// Get godoc
// GET /api/v1/institutions/:institution_id
func (h *InstitutionHandler) Get(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	id, ok := paramID(c, "institution_id")
	if !ok {
		return
	}

	inst, err := h.institutionService.Get(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"institution": inst})
}

// Update godoc
// PUT /api/v1/institutions/:institution_id
func (h *InstitutionHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "institution_id")
	if !ok {
		return
	}
	var req model.InstitutionRequest
	if !bindOrFail(c, &req) {
		return
	}

	inst, err := h.institutionService.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"institution": inst})
}

// Verify godoc
// POST /api/v1/institutions/:institution_id/verify
func (h *InstitutionHandler) Verify(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	id, ok := paramID(c, "institution_id")
	if !ok {
		return
	}

	inst, err := h.institutionService.Verify(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"institution": inst})
}

// Delete godoc
// DELETE /api/v1/institutions/:institution_id
// Fails with DEPENDENCY_EXISTS while students or staff still reference it.
func (h *InstitutionHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "institution_id")
	if !ok {
		return
	}
	if err := h.institutionService.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Report godoc
// GET /api/v1/institutions/:institution_id/report
func (h *InstitutionHandler) Report(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	id, ok := paramID(c, "institution_id")
	if !ok {
		return
	}

	rep, err := h.institutionService.Report(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"report": rep})
}
