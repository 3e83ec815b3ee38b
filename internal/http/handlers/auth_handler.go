// Account HTTP handlers.
//
// This file exposes registration and login endpoints for the two principals:
//   - POST /auth/patients/register
//   - POST /auth/patients/login
//   - POST /auth/admins/register
//   - POST /auth/admins/login
//
// Login responses carry a short-lived bearer token; handlers never return
// password hashes (the domain models exclude them from JSON).
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrahman/clinic-portal-backend/internal/services"
)

//
// DTOs
//

// RegisterPatientRequest is the JSON payload for patient self-registration.
// The id is caller-chosen and becomes the patient's external identifier.
type RegisterPatientRequest struct {
	ID       string `json:"id" binding:"required,min=1,max=64" example:"patient123"`
	Name     string `json:"name" binding:"required,min=1,max=255" example:"aminul islam"`
	Email    string `json:"email" binding:"required,email" example:"aminul@example.com"`
	Password string `json:"password" binding:"required,min=6" example:"s3cret-pw"`
}

// RegisterAdminRequest is the JSON payload for admin registration.
type RegisterAdminRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=255" example:"Front Desk"`
	Email    string `json:"email" binding:"required,email" example:"desk@clinic.example"`
	Password string `json:"password" binding:"required,min=6" example:"s3cret-pw"`
}

// LoginRequest is the JSON payload for both login endpoints.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"aminul@example.com"`
	Password string `json:"password" binding:"required" example:"s3cret-pw"`
}

// LoginResponse carries the issued bearer token and the principal's id.
type LoginResponse struct {
	Token string `json:"token"`
	ID    string `json:"id" example:"patient123"`
}

//
// Patient endpoints
//

// RegisterPatient godoc
// @ID          registerPatient
// @Summary     Register a patient account
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterPatientRequest  true  "Registration payload"
//
// @Success     201  {object}  domain.Patient
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Account already exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/patients/register [post]
func (h *Handlers) RegisterPatient(c *gin.Context) {
	var req RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id, name, email, and password (min 6 chars) are required")
		return
	}

	p, err := h.acctSvc.RegisterPatient(c.Request.Context(),
		strings.TrimSpace(req.ID), strings.TrimSpace(req.Name), normalizeEmail(req.Email), req.Password)
	if err != nil {
		failAccount(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// LoginPatient godoc
// @ID          loginPatient
// @Summary     Log in as a patient
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object}  handlers.LoginResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/patients/login [post]
func (h *Handlers) LoginPatient(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password are required")
		return
	}

	tok, p, err := h.acctSvc.LoginPatient(c.Request.Context(), normalizeEmail(req.Email), req.Password)
	if err != nil {
		failAccount(c, err)
		return
	}
	ok(c, http.StatusOK, LoginResponse{Token: tok, ID: p.ID})
}

//
// Admin endpoints
//

// RegisterAdmin godoc
// @ID          registerAdmin
// @Summary     Register an admin account
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterAdminRequest  true  "Registration payload"
//
// @Success     201  {object}  domain.Admin
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Account already exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/admins/register [post]
func (h *Handlers) RegisterAdmin(c *gin.Context) {
	var req RegisterAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name, email, and password (min 6 chars) are required")
		return
	}

	a, err := h.acctSvc.RegisterAdmin(c.Request.Context(),
		strings.TrimSpace(req.Name), normalizeEmail(req.Email), req.Password)
	if err != nil {
		failAccount(c, err)
		return
	}
	ok(c, http.StatusCreated, a)
}

// LoginAdmin godoc
// @ID          loginAdmin
// @Summary     Log in as an admin
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object}  handlers.LoginResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/admins/login [post]
func (h *Handlers) LoginAdmin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password are required")
		return
	}

	tok, a, err := h.acctSvc.LoginAdmin(c.Request.Context(), normalizeEmail(req.Email), req.Password)
	if err != nil {
		failAccount(c, err)
		return
	}
	ok(c, http.StatusOK, LoginResponse{Token: tok, ID: a.ID})
}

// normalizeEmail lowercases and trims an email address so lookups and the
// unique index agree on one canonical form.
func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// failAccount maps identity-store errors to HTTP responses shared by the
// register and login endpoints.
func failAccount(c *gin.Context, err error) {
	switch err {
	case services.ErrMissingField, services.ErrWeakPassword:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case services.ErrDuplicateAccount:
		fail(c, http.StatusConflict, ErrCodeConflict, "account already exists")
	case services.ErrInvalidCredentials:
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
