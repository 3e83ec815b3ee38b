// Appointment HTTP handlers.
//
// This file exposes REST endpoints for the appointment lifecycle:
//
//	Patient surface:
//	  - POST   /appointments                      (book, idempotent via header)
//	  - GET    /appointments                      (list own, paginated, ETag)
//	  - POST   /appointments/{token}/cancel       (cancel own pending request)
//
//	Admin surface:
//	  - GET    /admin/appointments/pending        (review queue, oldest first)
//	  - GET    /admin/appointments/approved       (day list per doctor/date)
//	  - POST   /admin/appointments/{token}/approve
//	  - POST   /admin/appointments/{token}/reject
//	  - DELETE /admin/appointments/{token}        (soft delete)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses (including conditional
// responses and idempotent replays).
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrahman/clinic-portal-backend/internal/domain"
	"github.com/mrahman/clinic-portal-backend/internal/http/middleware"
	"github.com/mrahman/clinic-portal-backend/internal/repo"
	"github.com/mrahman/clinic-portal-backend/internal/services"
	"github.com/mrahman/clinic-portal-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AppointmentService defines the lifecycle operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context for cancellation and timeouts.
type AppointmentService interface {
	// Create books a pending appointment and returns its external token.
	Create(ctx context.Context, in services.CreateAppointmentInput) (string, error)
	// Approve moves a pending appointment to approved.
	Approve(ctx context.Context, token string) error
	// Reject moves a pending appointment to rejected with a reason.
	Reject(ctx context.Context, token, reason string) error
	// Cancel cancels a pending appointment on behalf of its owner.
	Cancel(ctx context.Context, token, callerPatientID string) error
	// Delete soft-deletes an appointment record.
	Delete(ctx context.Context, token string) error
	// ListPending returns the admin review queue, oldest first.
	ListPending(ctx context.Context) ([]domain.Appointment, error)
	// ListForPatient returns a page of the patient's appointments and total.
	ListForPatient(ctx context.Context, patientID string, page, pageSize int) ([]domain.Appointment, int64, error)
	// ListApproved returns approved appointments for a doctor on a date.
	ListApproved(ctx context.Context, doctorName, date string) ([]domain.Appointment, error)
}

// NotificationService defines read access to the two notification channels.
type NotificationService interface {
	// ListForAppointment returns the patient-channel feed for a token.
	ListForAppointment(ctx context.Context, token string) ([]domain.Notification, error)
	// ListForPatientAdmin returns the admin-channel feed for a patient id.
	ListForPatientAdmin(ctx context.Context, patientID string) ([]domain.AdminNotice, error)
}

// AccountService defines the identity operations consumed by auth handlers.
type AccountService interface {
	RegisterPatient(ctx context.Context, id, name, email, password string) (*domain.Patient, error)
	LoginPatient(ctx context.Context, email, password string) (string, *domain.Patient, error)
	RegisterAdmin(ctx context.Context, name, email, password string) (*domain.Admin, error)
	LoginAdmin(ctx context.Context, email, password string) (string, *domain.Admin, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for appointments, notifications, and
// accounts. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	apptSvc  AppointmentService
	notifSvc NotificationService
	acctSvc  AccountService

	// IdempotencyTTL bounds replay validity for stored booking records.
	IdempotencyTTL time.Duration
}

// New constructs a Handlers instance bound to the given services.
func New(apptSvc AppointmentService, notifSvc NotificationService, acctSvc AccountService) *Handlers {
	return &Handlers{
		apptSvc:        apptSvc,
		notifSvc:       notifSvc,
		acctSvc:        acctSvc,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// patientID extracts the authenticated patient id from the Gin context (set
// by the auth middleware). Falls back to the "X-Patient-ID" header, which
// tests use to bypass token issuance.
func patientID(c *gin.Context) string {
	if id, ok := middleware.UserID(c); ok {
		return id
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-Patient-ID")); h != "" {
			return h
		}
	}
	return ""
}

// db exposes the GORM handle of the concrete service, when available, for
// best-effort transport features (ETag pre-checks, idempotency records).
func (h *Handlers) db() *gorm.DB {
	if svc, ok := h.apptSvc.(*services.AppointmentService); ok {
		return svc.DB
	}
	return nil
}

//
// DTOs
//

// CreateAppointmentRequest is the JSON payload for booking an appointment.
type CreateAppointmentRequest struct {
	// DoctorName selects the practitioner; unlisted names are accepted and
	// fall into the default consultation window.
	DoctorName string `json:"doctor_name" binding:"required,min=1,max=255" example:"Dr. Fakharuddin Ahmed"`
	// Date is the requested visit date, stored as submitted.
	Date string `json:"date" binding:"required,min=1,max=64" example:"2026-09-14"`
	// Phone is a denormalized contact copy for this booking.
	Phone string `json:"phone" example:"+880 1712-345678"`
	// Email is a denormalized contact copy for this booking.
	Email string `json:"email" example:"patient@example.com"`
	// Message is an optional note to the clinic.
	Message string `json:"message" example:"Recurring headache, afternoon preferred"`
}

// CreateAppointmentResponse returns the opaque token that is the sole
// external handle for the new appointment.
type CreateAppointmentResponse struct {
	Token  string `json:"token" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	Status string `json:"status" example:"pending"`
}

// RejectAppointmentRequest carries the admin-supplied rejection reason that
// is embedded verbatim in the patient's notice.
type RejectAppointmentRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"No slots available on the requested date"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListAppointmentsResponse wraps a page of appointments and pagination
// information.
type ListAppointmentsResponse struct {
	Appointments []domain.Appointment `json:"appointments"`
	Pagination   Pagination           `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// tokenParam validates the :token path parameter shape. Appointment tokens
// are UUIDs; anything else is rejected at the edge.
func tokenParam(c *gin.Context) (string, bool) {
	token := c.Param("token")
	if _, err := uuid.Parse(token); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "appointment token must be a UUID")
		return "", false
	}
	return token, true
}

//
// Patient handlers
//

// CreateAppointment godoc
// @ID          createAppointment
// @Summary     Book an appointment
// @Description Creates a pending appointment for the authenticated patient and returns its token.
// @Description Supports idempotency via the Idempotency-Key header (same key → same token).
// @Tags        Appointments
// @Accept      json
// @Produce     json
//
// @Param       Authorization    header  string  true   "Bearer token"
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateAppointmentRequest  true  "Booking payload"
//
// @Success     201  {object}  handlers.CreateAppointmentResponse
// @Success     200  {object}  handlers.CreateAppointmentResponse  "Idempotent replay"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /appointments [post]
func (h *Handlers) CreateAppointment(c *gin.Context) {
	ctx := c.Request.Context()
	pid := patientID(c)
	if pid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "doctor_name and date are required")
		return
	}

	// Idempotency (replay path) – return the previously issued token.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" {
		if db := h.db(); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, pid, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetAppointmentByToken(ctx, db, rec.AppointmentToken); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusOK, CreateAppointmentResponse{Token: prev.Token, Status: prev.Status})
					return
				}
			}
		}
	}

	token, err := h.apptSvc.Create(ctx, services.CreateAppointmentInput{
		PatientID:  pid,
		DoctorName: strings.TrimSpace(req.DoctorName),
		Date:       strings.TrimSpace(req.Date),
		Phone:      strings.TrimSpace(req.Phone),
		Email:      strings.TrimSpace(req.Email),
		Message:    strings.TrimSpace(req.Message),
	})
	if err != nil {
		switch err {
		case services.ErrMissingField:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "doctor_name and date are required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if db := h.db(); db != nil {
			_, _ = repo.CreateIdempotency(ctx, db, pid, idemKey, token, http.StatusCreated, h.IdempotencyTTL)
		}
	}

	ok(c, http.StatusCreated, CreateAppointmentResponse{Token: token, Status: domain.StatusPending})
}

// ListMyAppointments godoc
// @ID          listMyAppointments
// @Summary     List own appointments (paginated)
// @Description Returns a page of the patient's appointments, newest first. Supports weak ETag via If-None-Match.
// @Tags        Appointments
// @Produce     json
//
// @Param       Authorization  header  string  true   "Bearer token"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListAppointmentsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /appointments [get]
func (h *Handlers) ListMyAppointments(c *gin.Context) {
	ctx := c.Request.Context()
	pid := patientID(c)
	if pid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if db := h.db(); db != nil {
		count, maxTS, err := repo.AppointmentsStats(ctx, db, pid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"appointments:%s:%d:%d"`, pid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.apptSvc.ListForPatient(ctx, pid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListAppointmentsResponse{
		Appointments: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// CancelAppointment godoc
// @ID          cancelAppointment
// @Summary     Cancel own appointment
// @Description Cancels a pending appointment owned by the authenticated patient. Cancelling an
// @Description appointment that belongs to another patient succeeds without effect.
// @Tags        Appointments
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       token          path    string  true  "Appointment token (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Appointment not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already decided"
// @Router      /appointments/{token}/cancel [post]
func (h *Handlers) CancelAppointment(c *gin.Context) {
	pid := patientID(c)
	if pid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	token, okTok := tokenParam(c)
	if !okTok {
		return
	}

	if err := h.apptSvc.Cancel(c.Request.Context(), token, pid); err != nil {
		switch err {
		case services.ErrAppointmentNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "appointment not found")
		case services.ErrAlreadyDecided:
			fail(c, http.StatusConflict, ErrCodeConflict, "appointment already decided")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeTransitionFailed, err.Error())
		}
		return
	}
	noContent(c)
}

//
// Admin handlers
//

// ListPendingAppointments godoc
// @ID          listPendingAppointments
// @Summary     List pending appointments
// @Description Returns every appointment awaiting review, oldest first.
// @Tags        Admin
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token (admin)"
//
// @Success     200  {array}   domain.Appointment
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/appointments/pending [get]
func (h *Handlers) ListPendingAppointments(c *gin.Context) {
	items, err := h.apptSvc.ListPending(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// ListApprovedAppointments godoc
// @ID          listApprovedAppointments
// @Summary     List approved appointments for a doctor and date
// @Description Returns the approved day list used by clinical staff.
// @Tags        Admin
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token (admin)"
// @Param       doctor         query   string  true  "Doctor name"  example(Dr. Nafisa Rahman)
// @Param       date           query   string  true  "Visit date"   example(2026-09-14)
//
// @Success     200  {array}   domain.Appointment
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/appointments/approved [get]
func (h *Handlers) ListApprovedAppointments(c *gin.Context) {
	doctor := strings.TrimSpace(c.Query("doctor"))
	date := strings.TrimSpace(c.Query("date"))
	if doctor == "" || date == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "doctor and date query parameters are required")
		return
	}

	items, err := h.apptSvc.ListApproved(c.Request.Context(), doctor, date)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// ApproveAppointment godoc
// @ID          approveAppointment
// @Summary     Approve a pending appointment
// @Description Moves a pending appointment to approved and notifies the patient with the assigned slot.
// @Tags        Admin
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token (admin)"
// @Param       token          path    string  true  "Appointment token (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Appointment not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already decided"
// @Router      /admin/appointments/{token}/approve [post]
func (h *Handlers) ApproveAppointment(c *gin.Context) {
	token, okTok := tokenParam(c)
	if !okTok {
		return
	}
	if err := h.apptSvc.Approve(c.Request.Context(), token); err != nil {
		h.failTransition(c, err)
		return
	}
	noContent(c)
}

// RejectAppointment godoc
// @ID          rejectAppointment
// @Summary     Reject a pending appointment
// @Description Moves a pending appointment to rejected; the reason is embedded in the patient's notice.
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token (admin)"
// @Param       token          path    string  true  "Appointment token (UUID)"  format(uuid)
// @Param       body           body    handlers.RejectAppointmentRequest  true  "Rejection reason"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Appointment not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already decided"
// @Router      /admin/appointments/{token}/reject [post]
func (h *Handlers) RejectAppointment(c *gin.Context) {
	token, okTok := tokenParam(c)
	if !okTok {
		return
	}
	var req RejectAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "reason required (1–500 chars)")
		return
	}

	if err := h.apptSvc.Reject(c.Request.Context(), token, strings.TrimSpace(req.Reason)); err != nil {
		h.failTransition(c, err)
		return
	}
	noContent(c)
}

// DeleteAppointment godoc
// @ID          deleteAppointment
// @Summary     Delete an appointment
// @Description Soft-deletes an appointment record; history is retained in the store.
// @Tags        Admin
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token (admin)"
// @Param       token          path    string  true  "Appointment token (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Appointment not found"
// @Router      /admin/appointments/{token} [delete]
func (h *Handlers) DeleteAppointment(c *gin.Context) {
	token, okTok := tokenParam(c)
	if !okTok {
		return
	}
	if err := h.apptSvc.Delete(c.Request.Context(), token); err != nil {
		switch err {
		case services.ErrAppointmentNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "appointment not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

// failTransition maps lifecycle transition errors to HTTP responses shared
// by the approve and reject endpoints.
func (h *Handlers) failTransition(c *gin.Context, err error) {
	switch err {
	case services.ErrAppointmentNotFound, services.ErrPatientNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "appointment not found")
	case services.ErrAlreadyDecided:
		fail(c, http.StatusConflict, ErrCodeConflict, "appointment already decided")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeTransitionFailed, err.Error())
	}
}
