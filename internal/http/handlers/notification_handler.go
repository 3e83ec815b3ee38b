// Notification HTTP handlers.
//
// This file exposes read access to the two append-only notification
// channels:
//   - GET /appointments/{token}/notifications  (patient channel, by token)
//   - GET /admin/patients/{id}/notices         (admin channel, by patient id)
//
// Both feeds are returned in append order; an unknown key yields an empty
// list, not 404, because an empty feed is a valid channel state.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrahman/clinic-portal-backend/internal/domain"
)

// ListNotificationsResponse wraps the patient-channel feed for a token.
type ListNotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
}

// ListAdminNoticesResponse wraps the admin-channel feed for a patient.
type ListAdminNoticesResponse struct {
	Notices []domain.AdminNotice `json:"notices"`
}

// ListNotifications godoc
// @ID          listNotifications
// @Summary     List notifications for an appointment
// @Description Returns the appointment's notification feed in append order. Unknown tokens yield an empty list.
// @Tags        Notifications
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       token          path    string  true  "Appointment token (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.ListNotificationsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /appointments/{token}/notifications [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	token, okTok := tokenParam(c)
	if !okTok {
		return
	}

	items, err := h.notifSvc.ListForAppointment(c.Request.Context(), token)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if items == nil {
		items = []domain.Notification{}
	}
	ok(c, http.StatusOK, ListNotificationsResponse{Notifications: items})
}

// ListAdminNotices godoc
// @ID          listAdminNotices
// @Summary     List admin notices for a patient
// @Description Returns the admin-channel feed for a patient id in append order.
// @Tags        Admin
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token (admin)"
// @Param       id             path    string  true  "Patient ID"  example(patient123)
//
// @Success     200  {object}  handlers.ListAdminNoticesResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/patients/{id}/notices [get]
func (h *Handlers) ListAdminNotices(c *gin.Context) {
	pid := c.Param("id")
	if pid == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "patient id required")
		return
	}

	items, err := h.notifSvc.ListForPatientAdmin(c.Request.Context(), pid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if items == nil {
		items = []domain.AdminNotice{}
	}
	ok(c, http.StatusOK, ListAdminNoticesResponse{Notices: items})
}
