package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrahman/clinic-portal-backend/internal/config"
	"github.com/mrahman/clinic-portal-backend/internal/repo"
)

func testConfig() config.Config {
	return config.Config{
		Port:              "0",
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
		GinMode:           gin.TestMode,
		LogLevel:          "error",
		APIBasePath:       "/api/v1",
		JWTSecret:         "router-test-secret",
		TokenTTL:          15 * time.Minute,
		RateRPS:           1000,
		RateBurst:         1000,
		IdempotencyTTL:    24 * time.Hour,
		OTEL:              config.OTELConfig{ServiceName: "clinic-portal-backend"},
	}
}

func newRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("router_test_%d.db", time.Now().UnixNano()))
	db, err := repo.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	r := gin.New()
	RegisterRoutes(r, db, testConfig())
	return r, db
}

func request(t *testing.T, r *gin.Engine, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	r, _ := newRouter(t)

	w := request(t, r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health: status = %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("health response missing X-Request-ID")
	}

	w = request(t, r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: status = %d", w.Code)
	}
}

func TestRouter_FallbackEnvelopes(t *testing.T) {
	r, _ := newRouter(t)

	w := request(t, r, http.MethodGet, "/nope", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown route: status = %d", w.Code)
	}
	var env struct {
		RequestID string `json:"request_id"`
		Code      string `json:"code"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode 404: %v", err)
	}
	if env.Code != "not_found" || env.RequestID == "" {
		t.Fatalf("envelope = %#v", env)
	}

	w = request(t, r, http.MethodDelete, "/health", "", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("method: status = %d", w.Code)
	}
}

func TestRouter_FullPatientLifecycle(t *testing.T) {
	r, _ := newRouter(t)

	// Register + login.
	w := request(t, r, http.MethodPost, "/api/v1/auth/patients/register", "", gin.H{
		"id": "p1", "name": "Aminul Islam", "email": "aminul@example.com", "password": "hunter22",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status = %d body %s", w.Code, w.Body.String())
	}
	w = request(t, r, http.MethodPost, "/api/v1/auth/patients/login", "", gin.H{
		"email": "aminul@example.com", "password": "hunter22",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status = %d body %s", w.Code, w.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	// Anonymous booking is rejected at the gate.
	w = request(t, r, http.MethodPost, "/api/v1/appointments", "", gin.H{
		"doctor_name": "Dr. X", "date": "2026-09-14",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous booking: status = %d", w.Code)
	}

	// Authenticated booking.
	w = request(t, r, http.MethodPost, "/api/v1/appointments", login.Token, gin.H{
		"doctor_name": "Dr. Fakharuddin Ahmed", "date": "2026-09-14",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("booking: status = %d body %s", w.Code, w.Body.String())
	}
	var created struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode booking: %v", err)
	}

	// A patient token cannot reach the admin surface.
	w = request(t, r, http.MethodPost,
		"/api/v1/admin/appointments/"+created.Token+"/approve", login.Token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("patient on admin route: status = %d, want 403", w.Code)
	}

	// Admin account can.
	w = request(t, r, http.MethodPost, "/api/v1/auth/admins/register", "", gin.H{
		"name": "Front Desk", "email": "desk@clinic.example", "password": "hunter22",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("admin register: status = %d body %s", w.Code, w.Body.String())
	}
	w = request(t, r, http.MethodPost, "/api/v1/auth/admins/login", "", gin.H{
		"email": "desk@clinic.example", "password": "hunter22",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("admin login: status = %d", w.Code)
	}
	var adminLogin struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &adminLogin); err != nil {
		t.Fatalf("decode admin login: %v", err)
	}

	w = request(t, r, http.MethodPost,
		"/api/v1/admin/appointments/"+created.Token+"/approve", adminLogin.Token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("approve: status = %d body %s", w.Code, w.Body.String())
	}

	// The approval notice lands on the patient feed. Notifications are
	// dispatched asynchronously behind the router, so poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for {
		w = request(t, r, http.MethodGet,
			"/api/v1/appointments/"+created.Token+"/notifications", login.Token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("notifications: status = %d body %s", w.Code, w.Body.String())
		}
		var feed struct {
			Notifications []struct {
				Message string `json:"message"`
			} `json:"notifications"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &feed); err != nil {
			t.Fatalf("decode feed: %v", err)
		}
		if len(feed.Notifications) >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("approval notice never arrived: %s", w.Body.String())
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestRouter_SecurityHeadersApplied(t *testing.T) {
	r, _ := newRouter(t)
	w := request(t, r, http.MethodGet, "/health", "", nil)
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("default CORS posture missing")
	}
}
