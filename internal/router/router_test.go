package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oerms/oerms-backend/internal/config"
	"github.com/oerms/oerms-backend/internal/handler"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/rbac"
	"github.com/oerms/oerms-backend/internal/repository"
	"github.com/oerms/oerms-backend/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type accounts map[uuid.UUID]*model.Account

func (a accounts) FindAccount(_ context.Context, role model.Role, id uuid.UUID) (*model.Account, error) {
	if acct, ok := a[id]; ok && acct.Role == role {
		cp := *acct
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (a accounts) FindAccountByEmail(context.Context, string) (*model.Account, error) {
	return nil, repository.ErrNotFound
}

func (a accounts) UpdatePassword(context.Context, model.Role, uuid.UUID, string) error {
	return nil
}

// newTestRouter wires the real route table. Only the auth service is live;
// requests that get past the guards to a domain handler are not exercised.
func newTestRouter(t *testing.T, accts accounts) (*gin.Engine, *service.AuthService) {
	t.Helper()
	cfg := &config.Config{
		GinMode:            gin.TestMode,
		AppEnv:             "test",
		JWTSecret:          "router-test-secret-of-at-least-32-bytes",
		JWTIssuer:          "oerms",
		JWTAccessTTL:       15 * time.Minute,
		JWTRefreshTTL:      time.Hour,
		JWTResetTTL:        time.Hour,
		BcryptCost:         bcrypt.MinCost,
		TokenRevocation:    config.RevocationNone,
		AuthRateLimit:      100,
		AuthRateWindow:     time.Minute,
		PublicCacheSeconds: 60,
	}
	auth, err := service.NewAuthService(cfg, rbac.NewRegistry(), accts, nil, zerolog.Nop())
	require.NoError(t, err)

	handlers := &Handlers{
		Auth:         handler.NewAuthHandler(auth),
		Institution:  handler.NewInstitutionHandler(nil),
		Staff:        handler.NewStaffHandler(nil),
		Student:      handler.NewStudentHandler(nil),
		Exam:         handler.NewExamHandler(nil, nil),
		Registration: handler.NewRegistrationHandler(nil),
		Result:       handler.NewResultHandler(nil),
		Analytics:    handler.NewAnalyticsHandler(nil),
		Public:       handler.NewPublicHandler(nil),
		Notification: handler.NewNotificationHandler(nil),
		WS:           handler.NewWSHandler(nil, auth, zerolog.Nop(), nil),
	}
	return SetupRouter(auth, handlers, cfg, zerolog.Nop()), auth
}

func TestRouteGuards(t *testing.T) {
	instID := uuid.New()
	student := &model.Account{ID: uuid.New(), Role: model.RoleStudent, Email: "esi@example.com", InstitutionID: &instID, IsActive: true}
	admin := &model.Account{ID: uuid.New(), Role: model.RoleInstitutionalAdmin, Email: "ina@example.com", InstitutionID: &instID, IsActive: true}
	officer := &model.Account{ID: uuid.New(), Role: model.RoleExaminationOfficer, Email: "eo@example.com", IsActive: true}

	r, auth := newTestRouter(t, accounts{student.ID: student, admin.ID: admin, officer.ID: officer})

	tokenFor := func(a *model.Account) string {
		tok, err := auth.IssueToken(a.ID, a.Role, nil, 0)
		require.NoError(t, err)
		return tok
	}
	studentTok, adminTok, officerTok := tokenFor(student), tokenFor(admin), tokenFor(officer)
	examID := uuid.NewString()

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"no token", http.MethodGet, "/api/v1/staff", "", http.StatusUnauthorized},
		{"student manages users", http.MethodGet, "/api/v1/staff", studentTok, http.StatusForbidden},
		{"admin manages users", http.MethodPost, "/api/v1/staff", adminTok, http.StatusForbidden},
		{"student creates institution", http.MethodPost, "/api/v1/institutions", studentTok, http.StatusForbidden},
		{"admin deletes institution", http.MethodDelete, "/api/v1/institutions/" + uuid.NewString(), adminTok, http.StatusForbidden},
		{"admin publishes exam", http.MethodPost, "/api/v1/exams/" + examID + "/publish", adminTok, http.StatusForbidden},
		{"officer publishes result", http.MethodPost, "/api/v1/results/" + uuid.NewString() + "/publish", officerTok, http.StatusForbidden},
		{"student uploads result", http.MethodPost, "/api/v1/results", studentTok, http.StatusForbidden},
		{"student approves registration", http.MethodPost, "/api/v1/registrations/" + uuid.NewString() + "/approve", studentTok, http.StatusForbidden},
		{"admin uses student self-service", http.MethodGet, "/api/v1/me/profile", adminTok, http.StatusForbidden},
		{"student enrolls student", http.MethodPost, "/api/v1/students", studentTok, http.StatusForbidden},
		{"officer reads report", http.MethodGet, "/api/v1/institutions/" + instID.String() + "/report", officerTok, http.StatusForbidden},
		{"student bulk uploads results", http.MethodPost, "/api/v1/results/bulk-upload", studentTok, http.StatusForbidden},
		{"student reads result statistics", http.MethodGet, "/api/v1/results/statistics", studentTok, http.StatusForbidden},
		{"officer reads result statistics", http.MethodGet, "/api/v1/results/statistics", officerTok, http.StatusForbidden},
		{"admin reads exam statistics", http.MethodGet, "/api/v1/exams/" + examID + "/statistics", adminTok, http.StatusForbidden},
		{"admin reads system analytics", http.MethodGet, "/api/v1/analytics/system-wide", adminTok, http.StatusForbidden},
		{"officer reads system analytics", http.MethodGet, "/api/v1/analytics/system-wide", officerTok, http.StatusForbidden},
		{"websocket without token", http.MethodGet, "/ws/v1/notifications", "", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestAuthMeAndAmbientRoutes(t *testing.T) {
	student := &model.Account{ID: uuid.New(), Role: model.RoleStudent, Email: "esi@example.com", IsActive: true}
	r, auth := newTestRouter(t, accounts{student.ID: student})

	tok, err := auth.IssueToken(student.ID, student.Role, nil, 0)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), string(model.PermissionViewOwnResults))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "oerms_http_requests_total")
}
