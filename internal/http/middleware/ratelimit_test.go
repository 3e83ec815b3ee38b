package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func rateRouter(rl *RateLimiter, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	for _, m := range pre {
		r.Use(m)
	}
	r.Use(rl.Handler())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hit(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_BurstThen429(t *testing.T) {
	// Zero refill with burst 2: exactly two requests pass.
	rl := NewRateLimiter(0, 2, KeyByUserOrIP())
	r := rateRouter(rl)

	for i := 0; i < 2; i++ {
		if w := hit(r, nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}
	w := hit(r, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Fatalf("missing Retry-After")
	}
	if !strings.Contains(w.Body.String(), "rate_limited") {
		t.Fatalf("body = %q", w.Body.String())
	}
}

func TestRateLimiter_BucketsAreIndependent(t *testing.T) {
	rl := NewRateLimiter(0, 1, KeyByUserOrIP())
	setUser := func(id string) gin.HandlerFunc {
		return func(c *gin.Context) {
			if h := c.GetHeader("X-Test-User"); h != "" {
				c.Set(ctxKeyUserID, h)
			}
			c.Next()
		}
	}
	r := rateRouter(rl, setUser(""))

	if w := hit(r, map[string]string{"X-Test-User": "p1"}); w.Code != http.StatusOK {
		t.Fatalf("p1 first: %d", w.Code)
	}
	if w := hit(r, map[string]string{"X-Test-User": "p1"}); w.Code != http.StatusTooManyRequests {
		t.Fatalf("p1 second: %d, want 429", w.Code)
	}
	// A different subject has a fresh bucket.
	if w := hit(r, map[string]string{"X-Test-User": "p2"}); w.Code != http.StatusOK {
		t.Fatalf("p2 first: %d, want 200", w.Code)
	}
}

func TestRateLimiter_ReplayBypass(t *testing.T) {
	rl := NewRateLimiter(0, 1, KeyByUserOrIP())
	markReplay := func(c *gin.Context) {
		c.Set(ctxKeyRateBypass, true)
		c.Next()
	}
	r := rateRouter(rl, markReplay)

	// Replays never consume tokens, so every request passes.
	for i := 0; i < 5; i++ {
		if w := hit(r, nil); w.Code != http.StatusOK {
			t.Fatalf("replay %d: status = %d, want 200", i, w.Code)
		}
	}
}

func TestRateLimiter_BurstCoercedToOne(t *testing.T) {
	rl := NewRateLimiter(0, 0, KeyByUserOrIP())
	r := rateRouter(rl)

	if w := hit(r, nil); w.Code != http.StatusOK {
		t.Fatalf("first: %d, want 200", w.Code)
	}
	if w := hit(r, nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second: %d, want 429", w.Code)
	}
}
