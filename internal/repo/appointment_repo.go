// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Appointment model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Status-machine rules live in
// services.AppointmentService; this layer only enforces them mechanically
// through conditional update predicates.
//
// Error semantics:
//   - When an appointment is not found, functions return
//     gorm.ErrRecordNotFound (also exported here as ErrNotFound).
//   - Conditional transitions that match zero rows return ErrNoRowsUpdated
//     so the service can distinguish "lost the race / wrong state" from
//     "row missing" and from plain DB failures.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrahman/clinic-portal-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrNoRowsUpdated is returned by conditional transition updates whose
// predicate matched no rows: the appointment is missing, already decided,
// or (for cancellation) owned by a different patient.
var ErrNoRowsUpdated = errors.New("no rows updated")

// CreateAppointment inserts a new pending appointment for patientID and
// returns the persisted row. Both the row id and the external token are
// freshly generated UUIDs; only the token ever leaves this process.
func CreateAppointment(ctx context.Context, db *gorm.DB, patientID, doctorName, date, phone, email, message string) (*domain.Appointment, error) {
	a := &domain.Appointment{
		ID:         uuid.NewString(),
		Token:      uuid.NewString(),
		PatientID:  patientID,
		DoctorName: doctorName,
		Date:       date,
		Phone:      phone,
		Email:      email,
		Message:    message,
		Status:     domain.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// GetAppointmentByToken fetches a single appointment by its external token.
// Returns ErrNotFound if there is no matching row.
func GetAppointmentByToken(ctx context.Context, db *gorm.DB, token string) (*domain.Appointment, error) {
	var a domain.Appointment
	err := db.WithContext(ctx).
		Where("token = ?", token).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// TransitionStatus moves the appointment identified by token out of pending
// into newStatus. The WHERE predicate carries the state check, so two
// concurrent approve/reject attempts race at the database and exactly one
// wins; the loser matches zero rows and gets ErrNoRowsUpdated.
func TransitionStatus(ctx context.Context, db *gorm.DB, token, newStatus string) error {
	res := db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("token = ? AND status = ?", token, domain.StatusPending).
		Update("status", newStatus)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRowsUpdated
	}
	return nil
}

// CancelAppointment sets a pending appointment to cancelled, but only when
// it belongs to patientID. An ownership mismatch matches zero rows and
// cancels nothing; callers decide whether to surface that.
func CancelAppointment(ctx context.Context, db *gorm.DB, token, patientID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("token = ? AND patient_id = ? AND status = ?", token, patientID, domain.StatusPending).
		Update("status", domain.StatusCancelled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRowsUpdated
	}
	return nil
}

// DeleteAppointment soft-deletes the appointment with the given token.
// The row is retained (gorm.DeletedAt) so history is never lost.
func DeleteAppointment(ctx context.Context, db *gorm.DB, token string) error {
	res := db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&domain.Appointment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListPendingAppointments returns every appointment still awaiting review,
// oldest first so the admin queue drains in arrival order.
func ListPendingAppointments(ctx context.Context, db *gorm.DB) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := db.WithContext(ctx).
		Where("status = ?", domain.StatusPending).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// ListAppointmentsForPatient returns all appointments submitted by
// patientID, most recent first.
func ListAppointmentsForPatient(ctx context.Context, db *gorm.DB, patientID string) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CountAppointmentsForPatient returns the total number of appointments
// submitted by patientID. Used for pagination metadata.
func CountAppointmentsForPatient(ctx context.Context, db *gorm.DB, patientID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("patient_id = ?", patientID).
		Count(&total).Error
	return total, err
}

// ListAppointmentsForPatientPage returns a paginated slice of the patient's
// appointments, most recent first. The caller computes offset and limit.
func ListAppointmentsForPatientPage(ctx context.Context, db *gorm.DB, patientID string, offset, limit int) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListApprovedAppointments returns approved appointments filtered by doctor
// and requested date, used by the clinical day-list lookup.
func ListApprovedAppointments(ctx context.Context, db *gorm.DB, doctorName, date string) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := db.WithContext(ctx).
		Where("doctor_name = ? AND date = ? AND status = ?", doctorName, date, domain.StatusApproved).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}
