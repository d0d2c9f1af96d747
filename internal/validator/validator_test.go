package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	Setup()
}

func TestValidCandidateNumber(t *testing.T) {
	for _, ok := range []string{"GCE2026A1B2C3", "BEP2025FFFFFF-2", "PRO2024000000"} {
		assert.True(t, ValidCandidateNumber(ok), ok)
	}
	for _, bad := range []string{"", "gce2026a1b2c3", "GCE 2026", "GCE2026A1B2C3-", "GCE2026A1B2C3-1000", "A1"} {
		assert.False(t, ValidCandidateNumber(bad), bad)
	}
}

func bindBody(t *testing.T, body string, dst interface{}) map[string]string {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return Bind(c, dst)
}

func TestBindStaffRole(t *testing.T) {
	var req model.CreateStaffRequest
	fields := bindBody(t, `{"role":"student","first_name":"A","last_name":"B","email":"a@b.cm","password":"longenough"}`, &req)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "role")

	var ok model.CreateStaffRequest
	fields = bindBody(t, `{"role":"examination_officer","first_name":"A","last_name":"B","email":"a@b.cm","password":"longenough"}`, &ok)
	assert.Nil(t, fields)
}

func TestBindInstitutionAdminNeedsInstitution(t *testing.T) {
	var req model.CreateStaffRequest
	fields := bindBody(t, `{"role":"institutional_admin","first_name":"A","last_name":"B","email":"a@b.cm","password":"longenough"}`, &req)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "institution_id")
}

func TestBindQueryCandidateNumber(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?candidate_number=not-valid", nil)

	var q model.PublicSearchQuery
	fields := BindQuery(c, &q)
	require.NotNil(t, fields)
	assert.Equal(t, "candidate_number must be a valid candidate number", fields["candidate_number"])
}

func TestTranslateErrorsNonValidation(t *testing.T) {
	var req model.LoginRequest
	fields := bindBody(t, `{"email":`, &req)
	assert.Contains(t, fields, "detail")
}
