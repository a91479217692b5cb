package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebUICSPConfig(t *testing.T) {
	cfg := WebUICSPConfig()

	if len(cfg.DefaultSrc) != 1 || cfg.DefaultSrc[0] != "'self'" {
		t.Errorf("DefaultSrc should be ['self'], got %v", cfg.DefaultSrc)
	}

	if len(cfg.FrameAncestors) != 1 || cfg.FrameAncestors[0] != "'none'" {
		t.Errorf("FrameAncestors should be ['none'], got %v", cfg.FrameAncestors)
	}

	// The embedded page uses inline script and styles
	if len(cfg.ScriptSrc) != 2 || cfg.ScriptSrc[1] != "'unsafe-inline'" {
		t.Errorf("ScriptSrc should include 'unsafe-inline', got %v", cfg.ScriptSrc)
	}

	// Progress updates arrive over a websocket
	foundWS := false
	for _, src := range cfg.ConnectSrc {
		if src == "ws:" {
			foundWS = true
		}
	}
	if !foundWS {
		t.Errorf("ConnectSrc should include ws:, got %v", cfg.ConnectSrc)
	}
}

func TestBuildCSPHeader(t *testing.T) {
	tests := []struct {
		name     string
		cfg      CSPConfig
		expected string
	}{
		{
			name: "simple config",
			cfg: CSPConfig{
				DefaultSrc: []string{"'self'"},
				ScriptSrc:  []string{"'self'"},
			},
			expected: "default-src 'self'; script-src 'self'",
		},
		{
			name: "with upgrade-insecure-requests",
			cfg: CSPConfig{
				DefaultSrc:              []string{"'self'"},
				UpgradeInsecureRequests: true,
			},
			expected: "default-src 'self'; upgrade-insecure-requests",
		},
		{
			name: "multiple sources",
			cfg: CSPConfig{
				DefaultSrc: []string{"'self'"},
				ImgSrc:     []string{"'self'", "data:", "https://example.com"},
			},
			expected: "default-src 'self'; img-src 'self' data: https://example.com",
		},
		{
			name: "connect sources for websocket",
			cfg: CSPConfig{
				ConnectSrc: []string{"'self'", "ws:", "wss:"},
			},
			expected: "connect-src 'self' ws: wss:",
		},
		{
			name:     "empty config",
			cfg:      CSPConfig{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.cfg.BuildCSPHeader()
			if result != tt.expected {
				t.Errorf("Expected CSP header:\n%s\nGot:\n%s", tt.expected, result)
			}
		})
	}
}

func TestSecurityHeadersWithCSP(t *testing.T) {
	cfg := WebUICSPConfig()

	handler := SecurityHeadersWithCSP(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	// Check all security headers are present
	headers := []string{
		"X-Content-Type-Options",
		"X-Frame-Options",
		"X-XSS-Protection",
		"Referrer-Policy",
		"Content-Security-Policy",
	}

	for _, header := range headers {
		if w.Header().Get(header) == "" {
			t.Errorf("Expected header '%s' to be set", header)
		}
	}

	// Verify specific values
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("X-Frame-Options should be DENY")
	}

	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("X-Content-Type-Options should be nosniff")
	}
}

func TestSecurityHeadersWithEmptyCSP(t *testing.T) {
	handler := SecurityHeadersWithCSP(CSPConfig{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Header().Get("Content-Security-Policy") != "" {
		t.Error("empty config should not set a CSP header")
	}

	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("other security headers should still be set")
	}
}

func TestValidateContentType(t *testing.T) {
	tests := []struct {
		contentType string
		expected    bool
	}{
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", true},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document; charset=utf-8", true},
		{"APPLICATION/ZIP", true},
		{"application/zip", true},
		{"application/octet-stream", true},
		{"text/html", false},
		{"application/javascript", false},
		{"application/msword", false},
		{"", false},
	}

	for _, tt := range tests {
		result := ValidateContentType(tt.contentType, AllowedUploadContentTypes)
		if result != tt.expected {
			t.Errorf("ValidateContentType(%q) = %v, want %v", tt.contentType, result, tt.expected)
		}
	}
}
