package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serveWithSecurity(cfg SecurityConfig) *httptest.ResponseRecorder {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	rec := httptest.NewRecorder()
	securityHeaders(cfg)(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/menu", nil))
	return rec
}

func TestSecurityHeaders_StaticHeaders(t *testing.T) {
	rec := serveWithSecurity(SecurityConfig{BaseURL: "https://menu.test"})

	want := map[string]string{
		"Referrer-Policy":        "no-referrer",
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	}
	for header, value := range want {
		if got := rec.Header().Get(header); got != value {
			t.Errorf("%s: expected %q, got %q", header, value, got)
		}
	}
}

func TestSecurityHeaders_CSPAllowsStorageMedia(t *testing.T) {
	rec := serveWithSecurity(SecurityConfig{
		BaseURL:         "https://menu.test",
		StorageEndpoint: "https://cdn.example.com",
	})

	csp := rec.Header().Get("Content-Security-Policy")
	for _, directive := range []string{
		"default-src 'none'",
		"media-src 'self' https://cdn.example.com",
		"connect-src 'self' https://cdn.example.com",
		"frame-ancestors 'none'",
	} {
		if !strings.Contains(csp, directive) {
			t.Errorf("CSP missing %q, got: %s", directive, csp)
		}
	}
}

func TestSecurityHeaders_CSPWithoutStorageEndpoint(t *testing.T) {
	rec := serveWithSecurity(SecurityConfig{})

	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "media-src 'self';") {
		t.Errorf("expected self-only media-src, got: %s", csp)
	}
}

func TestSecurityHeaders_HSTSOnlyForHTTPS(t *testing.T) {
	if hsts := serveWithSecurity(SecurityConfig{BaseURL: "https://menu.test"}).Header().Get("Strict-Transport-Security"); hsts == "" {
		t.Error("expected HSTS for https base URL")
	}
	if hsts := serveWithSecurity(SecurityConfig{BaseURL: "http://localhost:8080"}).Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Errorf("expected no HSTS for http base URL, got %q", hsts)
	}
}
