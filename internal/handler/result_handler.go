package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
)

// ResultHandler handles result upload, amendment and publication.
type ResultHandler struct {
	resultService *service.ResultService
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

// List godoc
// GET /api/v1/results?exam_id=&student_id=
// GET /api/v1/me/results
// Students only ever see their own published results.
func (h *ResultHandler) List(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	examID, ok := queryID(c, "exam_id")
	if !ok {
		return
	}
	studentID, ok := queryID(c, "student_id")
	if !ok {
		return
	}

	page := pageFromQuery(c)
	f := model.ResultFilter{
		ExamID:        examID,
		StudentID:     studentID,
		PublishedOnly: c.Query("published") == "true",
	}
	items, total, err := h.resultService.List(c.Request.Context(), p, f, page)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": items}, page.Pagination(total))
}

// Upload godoc
// POST /api/v1/results
func (h *ResultHandler) Upload(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	var req model.ResultRequest
	if !bindOrFail(c, &req) {
		return
	}

	res, err := h.resultService.Upload(c.Request.Context(), p, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"result": res})
}

// BulkUpload godoc
// POST /api/v1/results/bulk-upload
// Rows are uploaded independently; skipped rows come back in errors.
func (h *ResultHandler) BulkUpload(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	var req model.BulkResultRequest
	if !bindOrFail(c, &req) {
		return
	}

	report, err := h.resultService.BulkUpload(c.Request.Context(), p, req.Results)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// Get godoc
// GET /api/v1/results/:result_id
func (h *ResultHandler) Get(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	id, ok := paramID(c, "result_id")
	if !ok {
		return
	}

	res, err := h.resultService.Get(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": res})
}

// Update godoc
// PUT /api/v1/results/:result_id
// Published results can only be amended by the ministry.
func (h *ResultHandler) Update(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	id, ok := paramID(c, "result_id")
	if !ok {
		return
	}
	var req model.ResultRequest
	if !bindOrFail(c, &req) {
		return
	}

	res, err := h.resultService.Update(c.Request.Context(), p, id, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": res})
}

// Publish godoc
// POST /api/v1/results/:result_id/publish
func (h *ResultHandler) Publish(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	id, ok := paramID(c, "result_id")
	if !ok {
		return
	}

	res, changed, err := h.resultService.Publish(c.Request.Context(), p, id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": res, "changed": changed})
}
