package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/perspectize-backend/internal/conf"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingService struct{}

func (pingService) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func newTestServer(checks map[string]HealthCheck) *HTTPServer {
	cfg := conf.Default()
	cfg.Server.Mode = gin.TestMode
	return NewHTTPServer(cfg, logger.NewNop(), checks, metrics.New(), pingService{})
}

func serve(s *HTTPServer, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	w := serve(newTestServer(map[string]HealthCheck{"database": ok, "redis": ok}), "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(newTestServer(map[string]HealthCheck{"database": ok, "redis": down}), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Dependencies["database"])
	assert.Equal(t, "connection refused", body.Dependencies["redis"])
}

func TestRoutesAndMetrics(t *testing.T) {
	s := newTestServer(nil)

	w := serve(s, "/api/v1/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(logger.RequestIDHeader))

	w = serve(s, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
}
