// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for patient and
// admin accounts (the identity store).
//
// Error semantics:
//   - Missing accounts return gorm.ErrRecordNotFound (ErrNotFound).
//   - Duplicate registrations rely on the unique indexes on id/email and
//     are returned as ErrDuplicate so the service layer can translate them
//     into a stable domain error.
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

// ErrDuplicate indicates a unique-constraint violation on account creation
// (patient id or email already registered).
var ErrDuplicate = errors.New("duplicate")

// CreatePatient inserts a patient account with the given external id.
// Returns ErrDuplicate when the id or email is already taken.
func CreatePatient(ctx context.Context, db *gorm.DB, id, name, email, passwordHash string) (*domain.Patient, error) {
	p := &domain.Patient{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return p, nil
}

// GetPatient fetches a patient by external id, or ErrNotFound.
func GetPatient(ctx context.Context, db *gorm.DB, id string) (*domain.Patient, error) {
	var p domain.Patient
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPatientByEmail fetches a patient by login email, or ErrNotFound.
func GetPatientByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Patient, error) {
	var p domain.Patient
	if err := db.WithContext(ctx).Where("email = ?", email).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateAdmin inserts an admin account with a generated UUID id.
// Returns ErrDuplicate when the email is already registered.
func CreateAdmin(ctx context.Context, db *gorm.DB, name, email, passwordHash string) (*domain.Admin, error) {
	a := &domain.Admin{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return a, nil
}

// GetAdminByEmail fetches an admin by login email, or ErrNotFound.
func GetAdminByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Admin, error) {
	var a domain.Admin
	if err := db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// isUniqueViolation detects unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "constraint failed: unique") ||
		strings.Contains(msg, "duplicate key")
}
