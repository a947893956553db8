package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"faculty-sub/backend/config"
	"faculty-sub/backend/internal/api/handler"
	"faculty-sub/backend/internal/api/middleware"
	"faculty-sub/backend/internal/service"
	"faculty-sub/backend/pkg/jwt"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:      "router-test-secret-0123456789",
			AccessTokenTTL: time.Minute,
		},
		RateLimit: config.RateLimitConfig{AuthLimit: 10, AuthWindow: time.Minute},
	}
}

func setupTestEngine(t *testing.T) http.Handler {
	t.Helper()
	cfg := testConfig()
	// Handler 内的 Service 不会被调用：以下请求均在中间件或路由层结束
	h := handler.NewHandler(&service.Service{})
	return Setup(cfg, h, jwt.NewManager(&cfg.Auth), nil, nil,
		middleware.NewHTTPMetrics(prometheus.NewRegistry()), zap.NewNop())
}

func TestSetup_Routes(t *testing.T) {
	r := setupTestEngine(t)

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/api/v1/requests", http.StatusUnauthorized},
		{"GET", "/api/v1/requests/teacher/1", http.StatusUnauthorized},
		{"GET", "/api/v1/requests/accepted/1/calendar.ics", http.StatusUnauthorized},
		{"PUT", "/api/v1/requests/1/accept", http.StatusUnauthorized},
		{"DELETE", "/api/v1/users/1", http.StatusUnauthorized},
		{"GET", "/api/v1/nothing", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			if w.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestSetup_Metrics(t *testing.T) {
	r := setupTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
