package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mrahman/clinic-portal-backend/internal/http/handlers"
	"github.com/mrahman/clinic-portal-backend/internal/services"
)

func TestRegisterAndLoginPatient_HTTP(t *testing.T) {
	r, _ := newEnv(t)

	w := doJSON(t, r, http.MethodPost, "/auth/patients/register", nil, gin.H{
		"id": "patient123", "name": "aminul islam",
		"email": "Aminul@Example.com", "password": "hunter22",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status = %d body %s", w.Code, w.Body.String())
	}
	if bodyStr := w.Body.String(); len(bodyStr) > 0 && jsonHas(t, w.Body.Bytes(), "password_hash") {
		t.Fatalf("password hash leaked in response: %s", bodyStr)
	}

	// Email matching is case-insensitive: registration lowercased it.
	w = doJSON(t, r, http.MethodPost, "/auth/patients/login", nil, gin.H{
		"email": "aminul@example.com", "password": "hunter22",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status = %d body %s", w.Code, w.Body.String())
	}
	var resp handlers.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "patient123" || resp.Token == "" {
		t.Fatalf("login response = %#v", resp)
	}
	claims, err := services.ParseToken(resp.Token, "test-secret")
	if err != nil || claims.Subject != "patient123" || claims.Role != services.RolePatient {
		t.Fatalf("claims = %#v, %v", claims, err)
	}
}

func TestRegisterPatient_HTTPValidation(t *testing.T) {
	r, _ := newEnv(t)

	cases := []gin.H{
		{"name": "A", "email": "a@x.com", "password": "hunter22"},                      // no id
		{"id": "p1", "name": "A", "email": "not-an-email", "password": "hunter22"},     // bad email
		{"id": "p1", "name": "A", "email": "a@x.com", "password": "short"},             // weak password
	}
	for i, body := range cases {
		w := doJSON(t, r, http.MethodPost, "/auth/patients/register", nil, body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("case %d: status = %d, want 400", i, w.Code)
		}
	}
}

func TestRegisterPatient_HTTPDuplicate(t *testing.T) {
	r, _ := newEnv(t)
	body := gin.H{"id": "p1", "name": "A", "email": "a@x.com", "password": "hunter22"}

	if w := doJSON(t, r, http.MethodPost, "/auth/patients/register", nil, body); w.Code != http.StatusCreated {
		t.Fatalf("first register: status = %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/auth/patients/register", nil, body); w.Code != http.StatusConflict {
		t.Fatalf("duplicate register: status = %d, want 409", w.Code)
	}
}

func TestLoginPatient_HTTPBadCredentials(t *testing.T) {
	r, _ := newEnv(t)

	w := doJSON(t, r, http.MethodPost, "/auth/patients/login", nil, gin.H{
		"email": "ghost@example.com", "password": "whatever66",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRegisterAndLoginAdmin_HTTP(t *testing.T) {
	r, _ := newEnv(t)

	w := doJSON(t, r, http.MethodPost, "/auth/admins/register", nil, gin.H{
		"name": "Front Desk", "email": "desk@clinic.example", "password": "hunter22",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status = %d body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/auth/admins/login", nil, gin.H{
		"email": "desk@clinic.example", "password": "hunter22",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status = %d body %s", w.Code, w.Body.String())
	}
	var resp handlers.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := services.ParseToken(resp.Token, "test-secret")
	if err != nil || claims.Role != services.RoleAdmin {
		t.Fatalf("claims = %#v, %v", claims, err)
	}
}

// jsonHas reports whether a top-level key is present in a JSON object.
func jsonHas(t *testing.T, raw []byte, key string) bool {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode object: %v", err)
	}
	_, ok := m[key]
	return ok
}
