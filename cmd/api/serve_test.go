package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hrms/internal/config"
	"hrms/internal/metrics"
	"hrms/internal/testutil"
	"hrms/internal/websocket"
	"hrms/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterWiring(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	log := logger.Discard()
	cfg := &config.Config{
		App:    config.AppConfig{Env: "test", Timezone: "UTC"},
		Server: config.ServerConfig{CORSOrigins: []string{"http://localhost:3000"}},
		Auth:   config.AuthConfig{JWTSecret: "s", AccessTokenTTL: time.Hour, RefreshTokenTTL: time.Hour, LoginRatePerMinute: 5},
	}

	hub := websocket.NewHub(log)
	m := metrics.New()
	a := newApp(cfg, db, log, m, hub)
	require.NoError(t, a.roles.SeedDefaultRolesAndPermissions(context.Background()))

	router, err := newRouter(cfg, db, a, hub, m, log)
	require.NoError(t, err)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"OK"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusUnauthorized, get("/api/time-tracking/entries").Code)
	assert.Equal(t, http.StatusUnauthorized, get("/ws").Code)

	w = get("/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "hrms_http_requests_total"))
}
