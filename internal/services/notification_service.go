// Package services – NotificationService
//
// This file implements the read/append facade over the two notification
// channels. Ownership of writes belongs to the AppointmentService; this
// service exists so the HTTP layer can list notices (and so operational
// tooling has a single append entry point) without touching repo functions
// directly.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrahman/clinic-portal-backend/internal/domain"
	"github.com/mrahman/clinic-portal-backend/internal/repo"
)

// Channel identifies one of the two independent notification logs.
type Channel string

const (
	// ChannelPatient is the patient-facing log, keyed by appointment token.
	ChannelPatient Channel = "patient"
	// ChannelAdmin is the admin-facing log, keyed by patient id.
	ChannelAdmin Channel = "admin"
)

// NotificationService lists and appends channel notices.
type NotificationService struct {
	// DB is the database handle used for all notification operations.
	DB *gorm.DB
}

// Append inserts a notice into the given channel for recipientKey. The log
// is append-only; there is no update or delete counterpart.
func (s *NotificationService) Append(ctx context.Context, ch Channel, recipientKey, message string) error {
	switch ch {
	case ChannelAdmin:
		_, err := repo.AppendAdminNotice(ctx, s.DB, recipientKey, message)
		return err
	default:
		_, err := repo.AppendNotification(ctx, s.DB, recipientKey, message)
		return err
	}
}

// ListForAppointment returns the patient-channel notices for an appointment
// token, oldest first.
func (s *NotificationService) ListForAppointment(ctx context.Context, token string) ([]domain.Notification, error) {
	return repo.ListNotifications(ctx, s.DB, token)
}

// ListForPatientAdmin returns the admin-channel notices recorded against a
// patient id, oldest first.
func (s *NotificationService) ListForPatientAdmin(ctx context.Context, patientID string) ([]domain.AdminNotice, error) {
	return repo.ListAdminNotices(ctx, s.DB, patientID)
}
