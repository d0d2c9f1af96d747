package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   ErrCode
	}{
		{rbac.ErrInvalidCredentials, http.StatusUnauthorized, ErrInvalidCredentials},
		{rbac.ErrUnauthenticated, http.StatusUnauthorized, ErrTokenRequired},
		{rbac.ErrExpiredToken, http.StatusUnauthorized, ErrTokenExpired},
		{fmt.Errorf("%w: bad signature", rbac.ErrInvalidToken), http.StatusUnauthorized, ErrTokenInvalid},
		{rbac.ErrMissingClaims, http.StatusUnauthorized, ErrTokenInvalid},
		{rbac.ErrRevokedToken, http.StatusUnauthorized, ErrTokenInvalid},
		{rbac.ErrPrincipalNotFound, http.StatusUnauthorized, ErrTokenInvalid},
		{rbac.ErrInactiveAccount, http.StatusUnauthorized, ErrAccountInactive},
		{rbac.ErrForbidden, http.StatusForbidden, ErrForbidden},
		{rbac.ErrUnknownRole, http.StatusInternalServerError, ErrInternal},
		{errors.New("boom"), http.StatusInternalServerError, ErrInternal},
	}

	for _, tc := range cases {
		status, code := Classify(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestAbortErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/x", func(c *gin.Context) {
		AbortError(c, fmt.Errorf("missing %s: %w", "publish_results", rbac.ErrForbidden))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	assert.NotContains(t, w.Body.String(), "publish_results")

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, ErrForbidden, body.Error.Code)
	assert.Equal(t, "req-123", body.Metadata.RequestID)
}

func TestRequestIDReplacesUnacceptableHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, RequestID(c)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "has space")
	r.ServeHTTP(w, req)

	assert.NotEqual(t, "has space", w.Body.String())
	assert.Len(t, w.Body.String(), 36)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 31)
	assert.Equal(t, 4, p.TotalPages)
	assert.Equal(t, 0, NewPagination(1, 10, 0).TotalPages)
}
