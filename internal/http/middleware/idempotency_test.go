package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func idemRouter(lookup IdempotencyLookup, authed string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if authed != "" {
		r.Use(func(c *gin.Context) {
			c.Set(ctxKeyUserID, authed)
			c.Next()
		})
	}
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.POST("/book", func(c *gin.Context) {
		key, _ := GetIdempotencyKey(c)
		c.String(http.StatusOK, "key=%s replay=%t bypass=%t", key, IsReplay(c), IsRateBypass(c))
	})
	return r
}

func postBook(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/book", nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyValidator_NoHeaderIsNoop(t *testing.T) {
	w := postBook(idemRouter(nil, ""), "")
	if w.Code != http.StatusOK || w.Body.String() != "key= replay=false bypass=false" {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestIdempotencyValidator_InvalidKeys(t *testing.T) {
	r := idemRouter(nil, "")
	for name, key := range map[string]string{
		"spaces":   "has spaces",
		"slash":    "a/b",
		"too long": strings.Repeat("k", 201),
	} {
		w := postBook(r, key)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", name, w.Code)
		}
		if !strings.Contains(w.Body.String(), "bad_idempotency_key") {
			t.Fatalf("%s: body = %q", name, w.Body.String())
		}
	}
}

func TestIdempotencyValidator_ValidKeyStored(t *testing.T) {
	w := postBook(idemRouter(nil, ""), "retry-abc.123:456~z")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "key=retry-abc.123:456~z") {
		t.Fatalf("body = %q", w.Body.String())
	}
}

func TestIdempotencyValidator_ReplayFlagsSet(t *testing.T) {
	lookup := func(ctx context.Context, patientID, key string, now time.Time) (bool, error) {
		return patientID == "p1" && key == "retry-1", nil
	}

	// Authenticated match: both flags raised.
	w := postBook(idemRouter(lookup, "p1"), "retry-1")
	if w.Body.String() != "key=retry-1 replay=true bypass=true" {
		t.Fatalf("body = %q", w.Body.String())
	}

	// Anonymous request never consults the lookup.
	w = postBook(idemRouter(lookup, ""), "retry-1")
	if w.Body.String() != "key=retry-1 replay=false bypass=false" {
		t.Fatalf("anonymous body = %q", w.Body.String())
	}
}
