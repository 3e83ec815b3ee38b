package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrahman/clinic-portal-backend/internal/domain"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("appt_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func seedAppointment(t *testing.T, db *gorm.DB, a domain.Appointment) domain.Appointment {
	t.Helper()
	if a.ID == "" {
		a.ID = a.Token
	}
	if a.Status == "" {
		a.Status = domain.StatusPending
	}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("seed appointment %s: %v", a.Token, err)
	}
	return a
}

func TestCreateAppointment_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	a, err := CreateAppointment(context.Background(), db, "p1", "Dr. Nafisa Rahman", "2026-09-14", "", "", "")
	if err == nil || a != nil {
		t.Fatalf("expected error creating without table, got a=%v err=%v", a, err)
	}
}

func TestCreateAppointment_Success_SetsTokenAndPending(t *testing.T) {
	db := newRepoDB(t, &domain.Appointment{})

	start := time.Now().UTC().Add(-time.Minute)
	a, err := CreateAppointment(context.Background(), db, "p1", "Dr. Nafisa Rahman", "2026-09-14", "555", "p@x.io", "note")
	if err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}
	if a.ID == "" || a.Token == "" || a.ID == a.Token {
		t.Fatalf("expected distinct generated id and token: %+v", a)
	}
	if a.Status != domain.StatusPending {
		t.Fatalf("new appointment must be pending, got %q", a.Status)
	}
	if a.CreatedAt.Before(start) {
		t.Fatalf("CreatedAt seems unset/really old: %v", a.CreatedAt)
	}

	// round-trip via token, the only external handle
	got, err := GetAppointmentByToken(context.Background(), db, a.Token)
	if err != nil {
		t.Fatalf("GetAppointmentByToken: %v", err)
	}
	if got.PatientID != "p1" || got.DoctorName != "Dr. Nafisa Rahman" || got.Date != "2026-09-14" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestGetAppointmentByToken_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Appointment{})
	if _, err := GetAppointmentByToken(context.Background(), db, "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransitionStatus_PendingToApproved(t *testing.T) {
	db := newRepoDB(t, &domain.Appointment{})
	a := seedAppointment(t, db, domain.Appointment{Token: "tok-1", PatientID: "p1", DoctorName: "Dr. X", Date: "d"})

	if err := TransitionStatus(context.Background(), db, a.Token, domain.StatusApproved); err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}
	got, err := GetAppointmentByToken(context.Background(), db, a.Token)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != domain.StatusApproved {
		t.Fatalf("expected approved, got %q", got.Status)
	}
}

func TestTransitionStatus_ZeroRows_WhenAlreadyDecided(t *testing.T) {
	db := newRepoDB(t, &domain.Appointment{})
	a := seedAppointment(t, db, domain.Appointment{Token: "tok-2", PatientID: "p1", DoctorName: "Dr. X", Date: "d", Status: domain.StatusRejected})

	err := TransitionStatus(context.Background(), db, a.Token, domain.StatusApproved)
	if err != ErrNoRowsUpdated {
		t.Fatalf("expected ErrNoRowsUpdated for decided appointment, got %v", err)
	}
	// The decided status must be untouched.
	got, _ := GetAppointmentByToken(context.Background(), db, a.Token)
	if got.Status != domain.StatusRejected {
		t.Fatalf("status mutated by losing transition: %q", got.Status)
	}
}

func TestTransitionStatus_ZeroRows_WhenMissing(t *testing.T) {
	db := newRepoDB(t, &domain.Appointment{})
	if err := TransitionStatus(context.Background(), db, "ghost", domain.StatusApproved); err != ErrNoRowsUpdated {
		t.Fatalf("expected ErrNoRowsUpdated for missing token, got %v", err)
	}
}

func TestCancelAppointment_OwnerOnly(t *testing.T) {
	db := newRepoDB(t, &domain.Appointment{})
	a := seedAppointment(t, db, domain.Appointment{Token: "tok-3", PatientID: "owner", DoctorName: "Dr. X", Date: "d"})

	// Foreign caller matches zero rows; the row stays pending.
	if err := CancelAppointment(context.Background(), db, a.Token, "intruder"); err != ErrNoRowsUpdated {
		t.Fatalf("expected ErrNoRowsUpdated for foreign caller, got %v", err)
	}
	got, _ := GetAppointmentByToken(context.Background(), db, a.Token)
	if got.Status != domain.StatusPending {
		t.Fatalf("foreign cancel must not change status, got %q", got.Status)
	}

	// Owner succeeds.
	if err := CancelAppointment(context.Background(), db, a.Token, "owner"); err != nil {
		t.Fatalf("owner cancel: %v", err)
	}
	got, _ = GetAppointmentByToken(context.Background(), db, a.Token)
	if got.Status != domain.StatusCancelled {
		t.Fatalf("expected cancelled, got %q", got.Status)
	}
}

func TestDeleteAppointment_SoftDelete(t *testing.T) {
	db := newRepoDB(t, &domain.Appointment{})
	a := seedAppointment(t, db, domain.Appointment{Token: "tok-4", PatientID: "p1", DoctorName: "Dr. X", Date: "d"})

	if err := DeleteAppointment(context.Background(), db, a.Token); err != nil {
		t.Fatalf("DeleteAppointment: %v", err)
	}
	// Invisible through normal queries…
	if _, err := GetAppointmentByToken(context.Background(), db, a.Token); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after soft delete, got %v", err)
	}
	// …but the row itself survives.
	var raw domain.Appointment
	if err := db.Unscoped().Where("token = ?", a.Token).First(&raw).Error; err != nil {
		t.Fatalf("soft-deleted row missing entirely: %v", err)
	}
	if !raw.DeletedAt.Valid {
		t.Fatalf("DeletedAt not set on soft-deleted row")
	}

	// A second delete finds nothing.
	if err := DeleteAppointment(context.Background(), db, a.Token); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on repeated delete, got %v", err)
	}
}

func TestListPendingAppointments_OldestFirst(t *testing.T) {
	db := newRepoDB(t, &domain.Appointment{})

	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	seedAppointment(t, db, domain.Appointment{Token: "b", PatientID: "p1", DoctorName: "Dr. X", Date: "d", CreatedAt: t1.Add(time.Hour)})
	seedAppointment(t, db, domain.Appointment{Token: "a", PatientID: "p1", DoctorName: "Dr. X", Date: "d", CreatedAt: t1})
	seedAppointment(t, db, domain.Appointment{Token: "decided", PatientID: "p1", DoctorName: "Dr. X", Date: "d", Status: domain.StatusApproved, CreatedAt: t1})

	list, err := ListPendingAppointments(context.Background(), db)
	if err != nil {
		t.Fatalf("ListPendingAppointments: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(list))
	}
	if list[0].Token != "a" || list[1].Token != "b" {
		t.Fatalf("queue must drain in arrival order: %#v", list)
	}
}

func TestListAppointmentsForPatientPage_NewestFirst(t *testing.T) {
	db := newRepoDB(t, &domain.Appointment{})

	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		seedAppointment(t, db, domain.Appointment{
			Token: fmt.Sprintf("t%d", i), PatientID: "p1", DoctorName: "Dr. X", Date: "d",
			CreatedAt: t1.Add(time.Duration(i) * time.Hour),
		})
	}
	seedAppointment(t, db, domain.Appointment{Token: "other", PatientID: "p2", DoctorName: "Dr. X", Date: "d", CreatedAt: t1})

	total, err := CountAppointmentsForPatient(context.Background(), db, "p1")
	if err != nil || total != 3 {
		t.Fatalf("CountAppointmentsForPatient = %d, %v", total, err)
	}

	page, err := ListAppointmentsForPatientPage(context.Background(), db, "p1", 0, 2)
	if err != nil {
		t.Fatalf("ListAppointmentsForPatientPage: %v", err)
	}
	if len(page) != 2 || page[0].Token != "t2" || page[1].Token != "t1" {
		t.Fatalf("unexpected first page: %#v", page)
	}

	rest, err := ListAppointmentsForPatientPage(context.Background(), db, "p1", 2, 2)
	if err != nil || len(rest) != 1 || rest[0].Token != "t0" {
		t.Fatalf("unexpected second page: %#v err=%v", rest, err)
	}
}

func TestListApprovedAppointments_FiltersDoctorAndDate(t *testing.T) {
	db := newRepoDB(t, &domain.Appointment{})

	seedAppointment(t, db, domain.Appointment{Token: "hit", PatientID: "p1", DoctorName: "Dr. Nafisa Rahman", Date: "2026-09-14", Status: domain.StatusApproved})
	seedAppointment(t, db, domain.Appointment{Token: "wrong-date", PatientID: "p1", DoctorName: "Dr. Nafisa Rahman", Date: "2026-09-15", Status: domain.StatusApproved})
	seedAppointment(t, db, domain.Appointment{Token: "wrong-doctor", PatientID: "p1", DoctorName: "Dr. X", Date: "2026-09-14", Status: domain.StatusApproved})
	seedAppointment(t, db, domain.Appointment{Token: "still-pending", PatientID: "p1", DoctorName: "Dr. Nafisa Rahman", Date: "2026-09-14"})

	list, err := ListApprovedAppointments(context.Background(), db, "Dr. Nafisa Rahman", "2026-09-14")
	if err != nil {
		t.Fatalf("ListApprovedAppointments: %v", err)
	}
	if len(list) != 1 || list[0].Token != "hit" {
		t.Fatalf("unexpected day list: %#v", list)
	}
}
