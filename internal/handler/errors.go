package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oerms/oerms-backend/internal/middleware"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/repository"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
	"github.com/oerms/oerms-backend/internal/validator"
)

type errMapping struct {
	err    error
	status int
	code   response.ErrCode
}

// domainErrors maps service and repository errors onto the public envelope.
// Errors not listed fall through to response.Classify.
var domainErrors = []errMapping{
	{repository.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
	{repository.ErrInUse, http.StatusConflict, response.ErrDependencyExists},
	{repository.ErrDuplicateEmail, http.StatusConflict, response.ErrConflict},
	{repository.ErrDuplicateStudentNumber, http.StatusConflict, response.ErrConflict},
	{repository.ErrDuplicateInstitution, http.StatusConflict, response.ErrConflict},
	{repository.ErrDuplicateExamCode, http.StatusConflict, response.ErrConflict},
	{repository.ErrDuplicateRegistration, http.StatusConflict, response.ErrAlreadyRegistered},
	{repository.ErrDuplicateResult, http.StatusConflict, response.ErrResultExists},
	{service.ErrEmailTaken, http.StatusConflict, response.ErrConflict},
	{service.ErrExamNotOpen, http.StatusUnprocessableEntity, response.ErrRegistrationClosed},
	{service.ErrAlreadyRegistered, http.StatusConflict, response.ErrAlreadyRegistered},
	{service.ErrInvalidTransition, http.StatusConflict, response.ErrInvalidTransition},
	{service.ErrRegistrationNotApproved, http.StatusUnprocessableEntity, response.ErrNotApproved},
	{service.ErrStudentInactive, http.StatusUnprocessableEntity, response.ErrStudentInactive},
	{service.ErrResultExists, http.StatusConflict, response.ErrResultExists},
	{service.ErrResultLocked, http.StatusConflict, response.ErrResultLocked},
	{service.ErrInstitutionRequired, http.StatusUnprocessableEntity, response.ErrInstitutionRequired},
}

// fieldErrors are caller mistakes reported as a validation failure on one field.
var fieldErrors = map[error]string{
	service.ErrStudentRequired:   "student_id",
	service.ErrSearchKeyRequired: "candidate_number",
	service.ErrInvalidRole:       "role",
	service.ErrSelfDeactivation:  "is_active",
}

// fail writes err in the standard envelope. Unexpected errors are attached
// to the context for the access log and answered with a generic 500.
func fail(c *gin.Context, err error) {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			response.Fail(c, m.status, m.code)
			return
		}
	}
	for target, field := range fieldErrors {
		if errors.Is(err, target) {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{field: target.Error()})
			return
		}
	}

	status, _ := response.Classify(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	response.FailError(c, err)
}

// principal returns the caller or writes a 401 and returns nil.
func principal(c *gin.Context) *model.Principal {
	p := middleware.GetPrincipal(c)
	if p == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
	}
	return p
}

// paramID parses a UUID path parameter or writes a 400.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional UUID query parameter. ok is false after a 400
// has been written.
func queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{name: "must be a valid UUID"})
		return nil, false
	}
	return &id, true
}

func pageFromQuery(c *gin.Context) service.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	return service.NewPage(page, perPage)
}

func bindOrFail(c *gin.Context, dst interface{}) bool {
	if fields := validator.Bind(c, dst); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return false
	}
	return true
}
