package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hrms/internal/apperror"
	"hrms/internal/auth"
	"hrms/internal/rbac"
	"hrms/pkg/logger"
	"hrms/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthorizer struct {
	levels map[string]rbac.Level
}

func (s stubAuthorizer) Authorize(_ context.Context, userID uuid.UUID, reqs ...rbac.Requirement) (*rbac.Decision, error) {
	d := &rbac.Decision{UserID: userID, Levels: map[string]rbac.Level{}, Scopes: map[string]rbac.Scope{}}
	for _, r := range reqs {
		level := s.levels[r.Key.String()]
		if !rbac.Satisfies(level, r.Required()) {
			return nil, apperror.Forbidden(r.Key.String(), r.Required().String(), level.String())
		}
		d.Levels[r.Key.String()] = level
		d.Scopes[r.Key.String()] = rbac.Scope{Limited: level == rbac.Limited, UserID: userID}
	}
	return d, nil
}

func newRouter(t *testing.T, levels map[string]rbac.Level) (*gin.Engine, *auth.JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := auth.NewJWTManager("secret", time.Hour)
	guard := NewGuard(stubAuthorizer{levels: levels}, tokens, logger.New(logger.Config{Level: "error"}))

	r := gin.New()
	r.Use(RequestID())
	api := r.Group("/api", guard.Authenticated())
	api.GET("/entries", guard.Require(rbac.RequireLimited(rbac.TimeList)), func(c *gin.Context) {
		d := Decision(c)
		fromCtx, ok := rbac.DecisionFromContext(c.Request.Context())
		require.True(t, ok)
		assert.Same(t, d, fromCtx)
		c.JSON(http.StatusOK, gin.H{"limited": d.Scope(rbac.TimeList).Limited})
	})
	api.POST("/entries/:id/approve", guard.Require(rbac.Require(rbac.TimeApprove)), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, tokens
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGuard(t *testing.T) {
	r, tokens := newRouter(t, map[string]rbac.Level{"time:list": rbac.Limited, "time:approve": rbac.Limited})
	token, _, err := tokens.Issue(uuid.New(), "u@example.com")
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/entries", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
		req.Header.Set("Authorization", "Token "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bearer token with limited grant", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"limited":true}`, w.Body.String())
	})

	t.Run("cookie token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
		req.AddCookie(&http.Cookie{Name: AccessCookie, Value: token})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("insufficient level", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/entries/1/approve", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusForbidden, w.Code)

		body := decode(t, w)
		assert.Equal(t, string(apperror.KindForbidden), body.Code)
		assert.Equal(t, "time:approve", body.Details["key"])
		assert.Equal(t, "AUTHORIZED", body.Details["required"])
		assert.Equal(t, "LIMITED", body.Details["actual"])
	})
}

func TestErrorResponse(t *testing.T) {
	status, body := ErrorResponse(apperror.Conflict("time entry overlaps").With("conflicting_id", "abc"))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", body.Code)
	assert.Equal(t, "abc", body.Details["conflicting_id"])

	status, body = ErrorResponse(errors.New("pq: connection reset"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", body.Error)
}

func TestLoginLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter, err := NewLoginLimiter(2, 16)
	require.NoError(t, err)

	r := gin.New()
	r.POST("/login", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	assert.True(t, limiter.Allow("10.0.0.2"), "addresses are limited independently")
}

func TestCookieOptions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	CookieOptions{Secure: true, AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour}.SetTokenCookies(c, "a", "r")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, AccessCookie, cookies[0].Name)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.True(t, cookies[0].Secure)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteNoneMode, cookies[0].SameSite)
}

func TestRequestLoggerScopesRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "debug", JSON: true, Output: &buf})

	r := gin.New()
	r.Use(RequestID(), RequestLogger(log))
	r.GET("/ping", func(c *gin.Context) {
		logger.FromContextOr(c.Request.Context(), logger.Discard()).Info("inside handler")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	for _, line := range lines {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		assert.Equal(t, "req-123", entry["request_id"])
	}
}
