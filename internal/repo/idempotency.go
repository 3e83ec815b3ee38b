// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Idempotency
// model used to implement safe-retry semantics for appointment creation.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrahman/clinic-portal-backend/internal/domain"
)

// ErrDuplicateKey indicates that an idempotency record already exists for
// the given (patient_id, key) tuple.
var ErrDuplicateKey = errors.New("duplicate idempotency key")

// GetIdempotency returns a non-expired record or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, patientID, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("patient_id = ? AND key = ? AND expires_at > ?", patientID, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, err
}

// CreateIdempotency inserts a record binding the key to the created
// appointment token. Returns ErrDuplicateKey on unique violation.
func CreateIdempotency(ctx context.Context, db *gorm.DB, patientID, key, appointmentToken string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:               uuid.NewString(),
		PatientID:        patientID,
		Key:              key,
		AppointmentToken: appointmentToken,
		Status:           status,
		CreatedAt:        now,
		ExpiresAt:        now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return rec, nil
}
