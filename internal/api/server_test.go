package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func TestRoutePattern(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/", "/"},
		{"/api", "/api"},
		{"/health", "/health"},
		{"/metrics", "/metrics"},
		{"/ws", "/ws"},
		{"/api/proofread", "/api/proofread"},
		{"/api/proofread-docx", "/api/proofread-docx"},
		{"/api/export", "/api/export"},
		{"/api/download/abc123", "/api/download/{id}"},
		{"/api/documents", "/api/documents"},
		{"/api/documents/stats", "/api/documents/stats"},
		{"/api/documents/abc123", "/api/documents/{id}"},
		{"/api/jobs", "/api/jobs"},
		{"/api/jobs/xyz", "/api/jobs/{id}"},
		{"/api/style-guides", "/api/style-guides"},
		{"/api/style-guides/bundle", "/api/style-guides/bundle"},
		{"/api/style-guides/house-style", "/api/style-guides/{name}"},
		{"/api/style-guides/house-style/html", "/api/style-guides/{name}/html"},
		{"/api/admin/sessions", "/api/admin/sessions"},
		{"/api/admin/sessions/reset", "/api/admin/sessions/reset"},
		{"/favicon.ico", "other"},
		{"/api/unknown", "other"},
	}

	for _, tc := range tests {
		if got := routePattern(tc.path); got != tc.expected {
			t.Errorf("routePattern(%q) = %q, want %q", tc.path, got, tc.expected)
		}
	}
}

func TestHandlerSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, nil)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("expected nosniff, got %s", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("expected DENY, got %s", got)
	}
	csp := w.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "default-src 'self'") {
		t.Errorf("expected CSP with default-src, got %s", csp)
	}
	if !strings.Contains(csp, "connect-src 'self' ws: wss:") {
		t.Errorf("expected CSP to allow websocket connections, got %s", csp)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected permissive CORS by default, got %q", got)
	}
}

func TestHandlerAuthEnforced(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.cfg.Auth = AuthConfig{Enabled: true, APIKey: "integration-key-12345678"}
	handler := srv.Handler()

	// Protected endpoint without a key
	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 without key, got %d", w.Code)
	}

	// Health stays public
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200 for public endpoint, got %d", w.Code)
	}

	// Protected endpoint with the key
	req = httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("X-API-Key", "integration-key-12345678")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200 with key, got %d", w.Code)
	}
}

func TestHandlerRateLimit(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.limiter = NewRateLimiter(RateLimiterConfig{
		RequestsPerMinute: 60,
		BurstSize:         2,
	})
	handler := srv.Handler()

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i+1, w.Code)
		}
		if w.Header().Get("X-RateLimit-Limit") == "" {
			t.Error("expected rate limit headers")
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected status 429 after burst, got %d", w.Code)
	}
}

func TestHandlerMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	handler := srv.Handler()

	// Generate one observed request first
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "redline_jobs_active") {
		t.Error("expected redline gauge in metrics output")
	}
	if !strings.Contains(body, "redline_http_requests_total") {
		t.Error("expected request counter in metrics output")
	}
	if !strings.Contains(body, `path="/health"`) {
		t.Error("expected observed health request in metrics output")
	}
}

func TestHandlerWebSocketUpgrade(t *testing.T) {
	// The upgrade has to survive the whole middleware chain, which wraps
	// the response writer twice.
	srv := newTestServer(t, nil)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial through middleware chain failed: %v", err)
	}
	defer conn.Close()

	waitForClients(t, srv.hub, 1)
}

func TestHandlerNotFoundEnvelope(t *testing.T) {
	srv := newTestServer(t, nil)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
	apiResp := decodeResponse(t, w)
	if apiResp.Error == nil || apiResp.Error.Code != "NOT_FOUND" {
		t.Error("expected NOT_FOUND error envelope")
	}
	if apiResp.Meta == nil || apiResp.Meta.RequestID == "" {
		t.Error("expected request ID from logging middleware")
	}
}
