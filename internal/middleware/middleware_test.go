package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oerms/oerms-backend/internal/config"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/rbac"
	"github.com/oerms/oerms-backend/internal/repository"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type accountStub map[uuid.UUID]*model.Account

func (s accountStub) FindAccount(_ context.Context, role model.Role, id uuid.UUID) (*model.Account, error) {
	if a, ok := s[id]; ok && a.Role == role {
		cp := *a
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (s accountStub) FindAccountByEmail(context.Context, string) (*model.Account, error) {
	return nil, repository.ErrNotFound
}

func (s accountStub) UpdatePassword(context.Context, model.Role, uuid.UUID, string) error {
	return nil
}

func newAuth(t *testing.T, accounts accountStub) *service.AuthService {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:       "middleware-test-secret-of-32-bytes!!",
		JWTIssuer:       "oerms",
		JWTAccessTTL:    15 * time.Minute,
		JWTRefreshTTL:   time.Hour,
		JWTResetTTL:     time.Hour,
		BcryptCost:      bcrypt.MinCost,
		TokenRevocation: config.RevocationNone,
	}
	auth, err := service.NewAuthService(cfg, rbac.NewRegistry(), accounts, nil, zerolog.Nop())
	require.NoError(t, err)
	return auth
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequireAuthAndGuards(t *testing.T) {
	student := &model.Account{ID: uuid.New(), Role: model.RoleStudent, Email: "ama@example.com", IsActive: true}
	retired := &model.Account{ID: uuid.New(), Role: model.RoleMinistryAdmin, Email: "kofi@example.com", IsActive: false}
	auth := newAuth(t, accountStub{student.ID: student, retired.ID: retired})

	r := gin.New()
	r.Use(response.RequestIDMiddleware())
	api := r.Group("/", RequireAuth(auth))
	api.GET("/me", func(c *gin.Context) {
		response.Success(c, http.StatusOK, GetPrincipal(c))
	})
	api.GET("/results", RequirePermission(auth, model.PermissionViewOwnResults), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	api.POST("/exams", RequirePermission(auth, model.PermissionManageExams), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	api.GET("/reports", RequireAnyPermission(auth, model.PermissionReadAllData, model.PermissionGenerateInstitutionReports), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	api.GET("/ministry", RequireRole(auth, model.RoleMinistryAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	token, err := auth.IssueToken(student.ID, student.Role, nil, 0)
	require.NoError(t, err)
	retiredToken, err := auth.IssueToken(retired.ID, retired.Role, nil, 0)
	require.NoError(t, err)

	cases := []struct {
		name   string
		method string
		target string
		header string
		status int
		code   response.ErrCode
	}{
		{"missing token", http.MethodGet, "/me", "", http.StatusUnauthorized, response.ErrTokenRequired},
		{"malformed header", http.MethodGet, "/me", "Token " + token, http.StatusUnauthorized, response.ErrTokenRequired},
		{"garbage token", http.MethodGet, "/me", "Bearer not.a.jwt", http.StatusUnauthorized, response.ErrTokenInvalid},
		{"inactive account", http.MethodGet, "/me", "Bearer " + retiredToken, http.StatusUnauthorized, response.ErrAccountInactive},
		{"granted permission", http.MethodGet, "/results", "Bearer " + token, http.StatusNoContent, ""},
		{"missing permission", http.MethodPost, "/exams", "Bearer " + token, http.StatusForbidden, response.ErrForbidden},
		{"none of any", http.MethodGet, "/reports", "Bearer " + token, http.StatusForbidden, response.ErrForbidden},
		{"wrong role", http.MethodGet, "/ministry", "bearer " + token, http.StatusForbidden, response.ErrForbidden},
		{"query fallback", http.MethodGet, "/results?token=" + token, "", http.StatusNoContent, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.code != "" {
				body := decode(t, w)
				require.NotNil(t, body.Error)
				assert.Equal(t, tc.code, body.Error.Code)
				assert.NotContains(t, w.Body.String(), "manage_exams")
			}
		})
	}

	t.Run("principal on context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data model.Principal `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, student.ID, body.Data.ID)
		assert.Contains(t, body.Data.Permissions, model.PermissionRegisterForExams)
	})
}

func TestGuardsWithoutPrincipal(t *testing.T) {
	auth := newAuth(t, accountStub{})
	r := gin.New()
	r.GET("/", RequirePermission(auth, model.PermissionReadOwnData), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimit(2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5001").Code)

	w := send("10.0.0.1:5002")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, response.ErrRateLimitExceeded, decode(t, w).Error.Code)

	assert.Equal(t, http.StatusNoContent, send("10.0.0.2:5000").Code)
}

func TestSecureHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecureHeaders(false))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}

func TestBrotli(t *testing.T) {
	large := strings.Repeat("published result ", 200)
	r := gin.New()
	r.Use(Brotli())
	r.GET("/large", func(c *gin.Context) { c.String(http.StatusOK, large) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	t.Run("compresses large bodies", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/large", nil)
		req.Header.Set("Accept-Encoding", "gzip, br;q=1.0")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "br", w.Header().Get("Content-Encoding"))
		plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
		require.NoError(t, err)
		assert.Equal(t, large, string(plain))
	})

	t.Run("passes small bodies through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/small", nil)
		req.Header.Set("Accept-Encoding", "br")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("ignores clients without br", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/large", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, large, w.Body.String())
	})
}
