package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func secureProbe(opt SecurityOptions, mutate func(*http.Request)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), SecurityHeaders(opt))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	w := secureProbe(SecurityOptions{}, nil)
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	} {
		if got := w.Header().Get(header); got != want {
			t.Fatalf("%s = %q, want %q", header, got, want)
		}
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS must be off by default")
	}
	if w.Header().Get("Cache-Control") != "" {
		t.Fatalf("no-store must be off by default")
	}
}

func TestSecurityHeaders_NoStoreAndPolicies(t *testing.T) {
	w := secureProbe(SecurityOptions{NoStore: true, EnablePolicy: true}, nil)
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("Cache-Control = %q", w.Header().Get("Cache-Control"))
	}
	if w.Header().Get("Permissions-Policy") == "" {
		t.Fatalf("missing Permissions-Policy")
	}
}

func TestSecurityHeaders_HSTSOnlyOverHTTPS(t *testing.T) {
	opt := SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour}

	w := secureProbe(opt, nil)
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS sent over plain HTTP")
	}

	w = secureProbe(opt, func(r *http.Request) {
		r.Header.Set("X-Forwarded-Proto", "https")
	})
	sts := w.Header().Get("Strict-Transport-Security")
	if !strings.Contains(sts, "max-age=86400") {
		t.Fatalf("STS = %q", sts)
	}
}

func TestSecurityHeaders_ExposesRequestID(t *testing.T) {
	w := secureProbe(SecurityOptions{}, nil)
	if got := w.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, "X-Request-ID") {
		t.Fatalf("Access-Control-Expose-Headers = %q", got)
	}
}
