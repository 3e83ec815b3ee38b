// Package domain defines the persistence models for the clinic portal:
// patient and admin accounts, appointments, and the two notification
// channels. These types are mapped with GORM and form the core data layer
// of the application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Appointment status values. An appointment is created pending and is moved
// exactly once into one of the three terminal states; terminal states are
// never re-opened.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// Patient represents a registered portal user who can book appointments.
//
// Fields:
//   - ID: external patient identifier chosen at registration (unique).
//   - Name: display name, embedded into notification messages.
//   - Email: login identifier (unique).
//   - PasswordHash: bcrypt hash; the raw password is never stored.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type Patient struct {
	ID           string         `json:"id"    gorm:"type:varchar(64);primaryKey"`
	Name         string         `json:"name"  gorm:"type:varchar(255);not null"`
	Email        string         `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:ux_patient_email"`
	PasswordHash string         `json:"-"     gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"     gorm:"index"`
}

// TableName returns the database table name for Patient.
func (Patient) TableName() string { return "patients" }

// Admin represents a clinic administrator. Admins review pending
// appointments and approve or reject them.
type Admin struct {
	ID           string         `json:"id"    gorm:"type:char(36);primaryKey"`
	Name         string         `json:"name"  gorm:"type:varchar(255);not null"`
	Email        string         `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:ux_admin_email"`
	PasswordHash string         `json:"-"     gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"     gorm:"index"`
}

// TableName returns the database table name for Admin.
func (Admin) TableName() string { return "admins" }

// Appointment represents a booking request moving through the lifecycle
// pending -> approved | rejected | cancelled.
//
// Fields:
//   - ID: internal UUID row id, never exposed to callers.
//   - Token: opaque unique external handle (UUID); the only identifier
//     accepted by transition operations. Unpredictable by construction, so
//     callers cannot enumerate appointments.
//   - PatientID: submitting patient; accepted as given at creation time.
//   - DoctorName: requested practitioner; deliberately not validated against
//     the fixed slot table at creation.
//   - Date: caller-supplied requested date.
//   - Phone / Email / Message: denormalized contact details copied from the
//     request, not re-checked against the patient record.
//   - Status: one of the Status* constants above.
//   - DeletedAt: soft deletion marker; appointment rows are never purged.
type Appointment struct {
	ID         string         `json:"-"           gorm:"type:char(36);primaryKey"`
	Token      string         `json:"token"       gorm:"type:char(36);not null;uniqueIndex:ux_appointment_token"`
	PatientID  string         `json:"patient_id"  gorm:"type:varchar(64);not null;index:idx_patient_appts"`
	DoctorName string         `json:"doctor_name" gorm:"type:varchar(255);not null;index:idx_doctor_date,priority:1"`
	Date       string         `json:"date"        gorm:"type:varchar(32);not null;index:idx_doctor_date,priority:2"`
	Phone      string         `json:"phone"       gorm:"type:varchar(32)"`
	Email      string         `json:"email"       gorm:"type:varchar(255)"`
	Message    string         `json:"message"     gorm:"type:text"`
	Status     string         `json:"status"      gorm:"type:varchar(16);not null;default:'pending';index;check:status IN ('pending','approved','rejected','cancelled')"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for Appointment.
func (Appointment) TableName() string { return "appointments" }

// Notification is one entry in the patient-facing channel. Rows are
// append-only and owned exclusively by the lifecycle manager; there is no
// update or delete operation.
//
// RecipientKey is the appointment token the notice refers to, so a patient
// polls notices per booking without ever seeing internal row ids.
type Notification struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	RecipientKey string    `json:"recipient_key" gorm:"type:char(36);not null;index:idx_notif_recipient"`
	Message      string    `json:"message"       gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }

// AdminNotice is one entry in the admin-facing channel. Keyed by the
// submitting patient's id rather than the appointment token, matching how
// the admin review surface groups work.
type AdminNotice struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	RecipientKey string    `json:"recipient_key" gorm:"type:varchar(64);not null;index:idx_admin_notice_recipient"`
	Message      string    `json:"message"       gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for AdminNotice.
func (AdminNotice) TableName() string { return "admin_notices" }
