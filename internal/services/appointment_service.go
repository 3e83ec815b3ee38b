// Package services – AppointmentService
//
// This file implements the AppointmentService, the application-level
// component that owns the appointment lifecycle:
//
//	(none) --create--> pending --approve--> approved
//	                       |
//	                       +--reject------> rejected
//	                       |
//	                       +--cancel------> cancelled   (patient-initiated)
//
// The three decided states are terminal; there is no re-open. The service
// validates inputs, drives conditional status updates through the repo
// layer, composes the notification text for each transition, and fans the
// notices out to the two channels. Concurrency control is the conditional
// update itself: the losing side of a race matches zero rows and surfaces
// as ErrAlreadyDecided, never as a silent success.
//
// Notification appends are composed synchronously inside the operation but
// delivered best-effort: a failed append is logged and never rolls back a
// committed transition (at-least-once, not exactly-once).
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the appointment token and patient id.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mrahman/clinic-portal-backend/internal/domain"
	"github.com/mrahman/clinic-portal-backend/internal/repo"
)

// Fixed consultation windows per practitioner. The table is static and the
// fallback for unlisted doctors is deliberate, carried over from the clinic's
// existing roster behavior.
var doctorSlots = map[string]string{
	"Dr. Fakharuddin Ahmed": "10.00 AM to 12.00 PM",
	"Dr. Nafisa Rahman":     "2.30 PM to 4.00 PM",
}

// defaultSlot is assigned when the appointment's doctor is not in the table.
const defaultSlot = "4.00 PM to 6.00 PM"

// slotFor resolves the consultation window for a doctor, falling back to the
// default window for unrecognized names.
func slotFor(doctorName string) string {
	if slot, ok := doctorSlots[doctorName]; ok {
		return slot
	}
	return defaultSlot
}

// CreateAppointmentInput carries the caller-supplied fields for a booking
// request. Contact details are denormalized copies and are not re-validated
// against the patient record.
type CreateAppointmentInput struct {
	PatientID  string
	DoctorName string
	Date       string
	Phone      string
	Email      string
	Message    string
}

// AppointmentService coordinates appointment persistence, the status state
// machine, and notification fan-out.
type AppointmentService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// AsyncNotify detaches notification appends from the request goroutine.
	// Composition always happens inline; only the insert is deferred.
	// Tests leave this false for deterministic assertions.
	AsyncNotify bool

	// NameLocale selects the casing locale for patient display names in
	// composed messages. Defaults to English when unset.
	NameLocale language.Tag
}

// NewAppointmentService constructs an AppointmentService with defaults.
func NewAppointmentService(db *gorm.DB) *AppointmentService {
	return &AppointmentService{DB: db, NameLocale: language.English}
}

// Create persists a new pending appointment and returns its external token.
//
// Validation is presence-only: patient id, doctor name, and requested date
// must be non-blank. The doctor name is intentionally not checked against
// the slot table and the date is not range-checked.
//
// Fan-out: one patient-channel notice keyed by the new token, and one
// admin-channel notice keyed by the patient id, both best-effort.
func (s *AppointmentService) Create(ctx context.Context, in CreateAppointmentInput) (token string, err error) {
	tr := otel.Tracer("services/AppointmentService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("patient.id", in.PatientID)),
	)
	defer span.End()

	if strings.TrimSpace(in.PatientID) == "" ||
		strings.TrimSpace(in.DoctorName) == "" ||
		strings.TrimSpace(in.Date) == "" {
		return "", ErrMissingField
	}

	a, err := repo.CreateAppointment(ctx, s.DB, in.PatientID, in.DoctorName, in.Date, in.Phone, in.Email, in.Message)
	if err != nil {
		return "", err
	}

	s.dispatch(ctx, "create/patient", func(nctx context.Context) error {
		_, aerr := repo.AppendNotification(nctx, s.DB, a.Token,
			"Your appointment request has been sent successfully.")
		return aerr
	})
	adminMsg := fmt.Sprintf("New appointment request from patient %s for %s on %s.",
		in.PatientID, in.DoctorName, in.Date)
	s.dispatch(ctx, "create/admin", func(nctx context.Context) error {
		_, aerr := repo.AppendAdminNotice(nctx, s.DB, in.PatientID, adminMsg)
		return aerr
	})

	return a.Token, nil
}

// Approve moves a pending appointment to approved and notifies the patient
// with their assigned consultation window.
//
// The patient lookup happens before any state change; a missing patient (or
// appointment) aborts the whole transition, so a status flip without its
// notification cannot occur on the lookup path. A zero-row update after a
// successful lookup means another transition won the race and yields
// ErrAlreadyDecided with no notification appended.
func (s *AppointmentService) Approve(ctx context.Context, token string) error {
	tr := otel.Tracer("services/AppointmentService")
	ctx, span := tr.Start(ctx, "Approve",
		trace.WithAttributes(attribute.String("appointment.token", token)),
	)
	defer span.End()

	a, p, err := s.loadForTransition(ctx, token)
	if err != nil {
		return err
	}

	if err := repo.TransitionStatus(ctx, s.DB, token, domain.StatusApproved); err != nil {
		if errors.Is(err, repo.ErrNoRowsUpdated) {
			return ErrAlreadyDecided
		}
		return err
	}

	msg := fmt.Sprintf("Dear %s, your appointment with %s has been approved. Please visit the clinic from %s.",
		s.displayName(p.Name), a.DoctorName, slotFor(a.DoctorName))
	s.dispatch(ctx, "approve/patient", func(nctx context.Context) error {
		_, aerr := repo.AppendNotification(nctx, s.DB, token, msg)
		return aerr
	})
	return nil
}

// Reject moves a pending appointment to rejected. The caller-supplied
// reason is embedded verbatim in the patient notice; it reaches the store
// only through bound query parameters, never string-built SQL.
func (s *AppointmentService) Reject(ctx context.Context, token, reason string) error {
	tr := otel.Tracer("services/AppointmentService")
	ctx, span := tr.Start(ctx, "Reject",
		trace.WithAttributes(attribute.String("appointment.token", token)),
	)
	defer span.End()

	_, p, err := s.loadForTransition(ctx, token)
	if err != nil {
		return err
	}

	if err := repo.TransitionStatus(ctx, s.DB, token, domain.StatusRejected); err != nil {
		if errors.Is(err, repo.ErrNoRowsUpdated) {
			return ErrAlreadyDecided
		}
		return err
	}

	msg := fmt.Sprintf("Dear %s, your appointment has been rejected. Reason: %s",
		s.displayName(p.Name), reason)
	s.dispatch(ctx, "reject/patient", func(nctx context.Context) error {
		_, aerr := repo.AppendNotification(nctx, s.DB, token, msg)
		return aerr
	})
	return nil
}

// Cancel sets a pending appointment to cancelled on behalf of its owner.
// The update predicate includes the caller's patient id, so a non-owner
// cancels nothing: that case is a silent no-op, preserved deliberately.
// Cancellation generates no notification on either channel.
func (s *AppointmentService) Cancel(ctx context.Context, token, callerPatientID string) error {
	tr := otel.Tracer("services/AppointmentService")
	ctx, span := tr.Start(ctx, "Cancel",
		trace.WithAttributes(
			attribute.String("appointment.token", token),
			attribute.String("patient.id", callerPatientID),
		),
	)
	defer span.End()

	err := repo.CancelAppointment(ctx, s.DB, token, callerPatientID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repo.ErrNoRowsUpdated) {
		return err
	}

	// Zero rows: missing token, foreign owner, or already decided.
	a, gerr := repo.GetAppointmentByToken(ctx, s.DB, token)
	if gerr != nil {
		if errors.Is(gerr, repo.ErrNotFound) {
			return ErrAppointmentNotFound
		}
		return gerr
	}
	if a.PatientID != callerPatientID {
		return nil
	}
	return ErrAlreadyDecided
}

// Delete soft-deletes an appointment (admin operation). The row survives
// with its deletion marker set, so no appointment history is ever purged.
func (s *AppointmentService) Delete(ctx context.Context, token string) error {
	tr := otel.Tracer("services/AppointmentService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("appointment.token", token)),
	)
	defer span.End()

	if err := repo.DeleteAppointment(ctx, s.DB, token); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAppointmentNotFound
		}
		return err
	}
	return nil
}

// ListPending returns every appointment awaiting review, oldest first.
func (s *AppointmentService) ListPending(ctx context.Context) ([]domain.Appointment, error) {
	return repo.ListPendingAppointments(ctx, s.DB)
}

// ListForPatient returns a page of the patient's own appointments and the
// total count. Invalid page/pageSize values fall back to defaults.
func (s *AppointmentService) ListForPatient(ctx context.Context, patientID string, page, pageSize int) ([]domain.Appointment, int64, error) {
	tr := otel.Tracer("services/AppointmentService")
	ctx, span := tr.Start(ctx, "ListForPatient",
		trace.WithAttributes(
			attribute.String("patient.id", patientID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountAppointmentsForPatient(ctx, s.DB, patientID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Appointment{}, 0, nil
	}

	items, err := repo.ListAppointmentsForPatientPage(ctx, s.DB, patientID, offset, pageSize)
	return items, total, err
}

// ListApproved returns approved appointments for a doctor on a given date,
// used by the admin/clinical day-list lookup.
func (s *AppointmentService) ListApproved(ctx context.Context, doctorName, date string) ([]domain.Appointment, error) {
	return repo.ListApprovedAppointments(ctx, s.DB, doctorName, date)
}

// loadForTransition fetches the appointment and its patient for an admin
// transition. Either lookup failing aborts the transition before any state
// change (hard not-found contract for approve/reject).
func (s *AppointmentService) loadForTransition(ctx context.Context, token string) (*domain.Appointment, *domain.Patient, error) {
	a, err := repo.GetAppointmentByToken(ctx, s.DB, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrAppointmentNotFound
		}
		return nil, nil, err
	}
	p, err := repo.GetPatient(ctx, s.DB, a.PatientID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrPatientNotFound
		}
		return nil, nil, err
	}
	return a, p, nil
}

// dispatch runs a notification append either inline or on a detached
// goroutine with its own deadline. Failures are logged and intentionally do
// not affect the caller: the transition has already committed.
func (s *AppointmentService) dispatch(ctx context.Context, event string, fn func(context.Context) error) {
	if s.AsyncNotify {
		go func() {
			nctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := fn(nctx); err != nil {
				log.Error().Err(err).Str("event", event).Msg("notification append failed")
			}
		}()
		return
	}
	if err := fn(ctx); err != nil {
		log.Error().Err(err).Str("event", event).Msg("notification append failed")
	}
}

// displayName normalizes a stored patient name for message composition.
func (s *AppointmentService) displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Patient"
	}
	return cases.Title(s.localeOrDefault(), cases.NoLower).String(name)
}

func (s *AppointmentService) localeOrDefault() language.Tag {
	if s.NameLocale == language.Und {
		return language.English
	}
	return s.NameLocale
}
