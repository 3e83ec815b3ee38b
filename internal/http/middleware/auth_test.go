package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mrahman/clinic-portal-backend/internal/services"
)

const testSecret = "test-secret"

func signClaims(t *testing.T, subject string, role services.Role, ttl time.Duration) string {
	t.Helper()
	c := services.Claims{
		Subject: subject,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Second)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return raw
}

func authRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(testSecret))
	chain := append([]gin.HandlerFunc{}, extra...)
	chain = append(chain, func(c *gin.Context) {
		id, _ := UserID(c)
		c.String(http.StatusOK, "id=%s role=%s", id, Role(c))
	})
	r.GET("/probe", chain...)
	return r
}

func getProbe(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate_AnonymousPassesThrough(t *testing.T) {
	w := getProbe(authRouter(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Body.String(); got != "id= role=" {
		t.Fatalf("body = %q", got)
	}
}

func TestAuthenticate_ValidToken(t *testing.T) {
	tok := signClaims(t, "p1", services.RolePatient, time.Minute)
	w := getProbe(authRouter(), "Bearer "+tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != "id=p1 role=patient" {
		t.Fatalf("body = %q", got)
	}
}

func TestAuthenticate_Rejections(t *testing.T) {
	r := authRouter()

	for name, header := range map[string]string{
		"wrong scheme":  "Basic abc123",
		"empty bearer":  "Bearer ",
		"garbage token": "Bearer not-a-jwt",
		"expired":       "Bearer " + signClaims(t, "p1", services.RolePatient, -time.Minute),
	} {
		w := getProbe(r, header)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", name, w.Code)
		}
		if w.Header().Get("WWW-Authenticate") == "" {
			t.Fatalf("%s: missing WWW-Authenticate", name)
		}
	}
}

func TestRequirePatient_GatesByRole(t *testing.T) {
	r := authRouter(RequirePatient())

	if w := getProbe(r, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status = %d, want 401", w.Code)
	}

	admin := signClaims(t, "a1", services.RoleAdmin, time.Minute)
	if w := getProbe(r, "Bearer "+admin); w.Code != http.StatusForbidden {
		t.Fatalf("admin on patient route: status = %d, want 403", w.Code)
	}

	patient := signClaims(t, "p1", services.RolePatient, time.Minute)
	if w := getProbe(r, "Bearer "+patient); w.Code != http.StatusOK {
		t.Fatalf("patient: status = %d, want 200", w.Code)
	}
}

func TestRequireAdmin_GatesByRole(t *testing.T) {
	r := authRouter(RequireAdmin())

	patient := signClaims(t, "p1", services.RolePatient, time.Minute)
	if w := getProbe(r, "Bearer "+patient); w.Code != http.StatusForbidden {
		t.Fatalf("patient on admin route: status = %d, want 403", w.Code)
	}

	admin := signClaims(t, "a1", services.RoleAdmin, time.Minute)
	if w := getProbe(r, "Bearer "+admin); w.Code != http.StatusOK {
		t.Fatalf("admin: status = %d, want 200", w.Code)
	}
}
