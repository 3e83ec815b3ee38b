// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the two
// append-only notification channels.
//
// The channels are independent tables with different recipient keys:
// notifications (patient channel, keyed by appointment token) and
// admin_notices (admin channel, keyed by patient id). Neither has an update
// or delete operation; consumers poll by listing.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrahman/clinic-portal-backend/internal/domain"
)

// AppendNotification inserts a patient-channel notice keyed by the
// appointment token. On success it returns the persisted row.
func AppendNotification(ctx context.Context, db *gorm.DB, recipientKey, message string) (*domain.Notification, error) {
	n := &domain.Notification{
		ID:           uuid.NewString(),
		RecipientKey: recipientKey,
		Message:      message,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotifications returns the patient-channel notices for recipientKey in
// insertion order (oldest first).
func ListNotifications(ctx context.Context, db *gorm.DB, recipientKey string) ([]domain.Notification, error) {
	var out []domain.Notification
	err := db.WithContext(ctx).
		Where("recipient_key = ?", recipientKey).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

// AppendAdminNotice inserts an admin-channel notice keyed by the submitting
// patient's id.
func AppendAdminNotice(ctx context.Context, db *gorm.DB, recipientKey, message string) (*domain.AdminNotice, error) {
	n := &domain.AdminNotice{
		ID:           uuid.NewString(),
		RecipientKey: recipientKey,
		Message:      message,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

// ListAdminNotices returns the admin-channel notices for recipientKey in
// insertion order (oldest first).
func ListAdminNotices(ctx context.Context, db *gorm.DB, recipientKey string) ([]domain.AdminNotice, error) {
	var out []domain.AdminNotice
	err := db.WithContext(ctx).
		Where("recipient_key = ?", recipientKey).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

// CountNotifications uses a raw COUNT so a missing table surfaces as an
// error rather than a silent zero.
func CountNotifications(ctx context.Context, db *gorm.DB, recipientKey string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM notifications WHERE recipient_key = ?", recipientKey).
		Scan(&total).Error
	return total, err
}
