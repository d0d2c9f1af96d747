package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/rbac"
	"github.com/oerms/oerms-backend/internal/repository"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveFail(t *testing.T, err error) (*httptest.ResponseRecorder, response.Response, *gin.Context) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fail(c, err)

	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return w, body, c
}

func TestFailMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   response.ErrCode
	}{
		{repository.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
		{fmt.Errorf("load exam: %w", repository.ErrNotFound), http.StatusNotFound, response.ErrNotFound},
		{repository.ErrInUse, http.StatusConflict, response.ErrDependencyExists},
		{repository.ErrDuplicateExamCode, http.StatusConflict, response.ErrConflict},
		{service.ErrExamNotOpen, http.StatusUnprocessableEntity, response.ErrRegistrationClosed},
		{service.ErrAlreadyRegistered, http.StatusConflict, response.ErrAlreadyRegistered},
		{service.ErrInvalidTransition, http.StatusConflict, response.ErrInvalidTransition},
		{service.ErrRegistrationNotApproved, http.StatusUnprocessableEntity, response.ErrNotApproved},
		{service.ErrResultLocked, http.StatusConflict, response.ErrResultLocked},
		{fmt.Errorf("publish: %w", rbac.ErrForbidden), http.StatusForbidden, response.ErrForbidden},
		{rbac.ErrExpiredToken, http.StatusUnauthorized, response.ErrTokenExpired},
	}

	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			w, body, c := serveFail(t, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, body.Error.Code)
			assert.Empty(t, c.Errors, "mapped errors are not logged as failures")
		})
	}
}

func TestFailFieldErrors(t *testing.T) {
	w, body, _ := serveFail(t, service.ErrSearchKeyRequired)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrValidation, body.Error.Code)
	assert.Contains(t, body.Error.Fields, "candidate_number")
}

func TestFailHidesUnexpectedErrors(t *testing.T) {
	w, body, c := serveFail(t, errors.New("pq: connection refused to 10.0.0.5"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, response.ErrInternal, body.Error.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
	require.Len(t, c.Errors, 1)
}

func TestParamAndQueryIDs(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?exam_id=nope", nil)
	c.Params = gin.Params{{Key: "result_id", Value: "not-a-uuid"}}

	_, ok := paramID(c, "result_id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?exam_id=nope", nil)
	id, ok := queryID(c, "exam_id")
	assert.False(t, ok)
	assert.Nil(t, id)
	assert.Contains(t, w.Body.String(), "exam_id")

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	id, ok = queryID(c, "exam_id")
	assert.True(t, ok)
	assert.Nil(t, id)

	page := pageFromQuery(c)
	assert.Equal(t, 1, page.Number)
}
