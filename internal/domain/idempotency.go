// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency records the result of a previously processed appointment
// creation, keyed by (patient_id, key). It lets clients retry POST
// /appointments safely: a replay returns the originally created appointment
// token without booking a second slot or emitting duplicate notifications.
type Idempotency struct {
	ID               string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	PatientID        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_patient_key,priority:1"`
	Key              string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_patient_key,priority:2"`
	AppointmentToken string    `gorm:"type:TEXT NOT NULL"`
	Status           int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt        time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt        time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
