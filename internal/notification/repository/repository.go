// Package repository provides data access for the notification inbox.
package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/reviewdesk/internal/notification/model"
)

// Repository defines notification storage operations.
type Repository interface {
	// Create stores a notification.
	Create(ctx context.Context, n *model.Notification) error

	// ListForUser returns the newest notifications of a user, at most limit.
	ListForUser(ctx context.Context, userID string, limit int) ([]model.Notification, error)

	// CountUnread returns how many of a user's notifications are unread.
	CountUnread(ctx context.Context, userID string) (int64, error)

	// MarkRead flags one of the user's notifications as read.
	MarkRead(ctx context.Context, userID, id string) (*model.Notification, error)

	// MarkEmailSent records that the notification was mailed.
	MarkEmailSent(ctx context.Context, id string) error

	// GetEnvelope loads a notification with its active recipient and review title.
	GetEnvelope(ctx context.Context, id string) (*model.Envelope, error)

	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) Repository
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new notification repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx, logger: r.logger}
}

// Create stores a notification.
func (r *repository) Create(ctx context.Context, n *model.Notification) error {
	r.logger.Debugw("Create called", "user_id", n.UserID, "type", n.Type)

	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		r.logger.Errorw("Create database error", "user_id", n.UserID, "error", err)
		return err
	}
	return nil
}

// ListForUser returns the newest notifications of a user.
func (r *repository) ListForUser(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	var list []model.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		r.logger.Errorw("ListForUser database error", "user_id", userID, "error", err)
		return nil, err
	}
	return list, nil
}

// CountUnread returns how many of a user's notifications are unread.
func (r *repository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		r.logger.Errorw("CountUnread database error", "user_id", userID, "error", err)
		return 0, err
	}
	return count, nil
}

// MarkRead flags one of the user's notifications as read.
func (r *repository) MarkRead(ctx context.Context, userID, id string) (*model.Notification, error) {
	r.logger.Debugw("MarkRead called", "user_id", userID, "notification_id", id)

	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		r.logger.Errorw("MarkRead database error", "notification_id", id, "error", result.Error)
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, model.ErrNotificationNotFound
	}

	var n model.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkEmailSent records that the notification was mailed.
func (r *repository) MarkEmailSent(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ?", id).
		Update("email_sent", true).Error
	if err != nil {
		r.logger.Errorw("MarkEmailSent database error", "notification_id", id, "error", err)
		return err
	}
	return nil
}

// GetEnvelope loads a notification with its active recipient and review title.
func (r *repository) GetEnvelope(ctx context.Context, id string) (*model.Envelope, error) {
	var env model.Envelope
	err := r.db.WithContext(ctx).
		Table("notifications").
		Select("notifications.*, users.email AS recipient_email, users.name AS recipient_name, " +
			"COALESCE(reviews.title, '') AS review_title").
		Joins("JOIN users ON users.id = notifications.user_id AND users.is_active = ?", true).
		Joins("LEFT JOIN reviews ON reviews.id = notifications.review_id").
		Where("notifications.id = ?", id).
		Take(&env).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotificationNotFound
		}
		r.logger.Errorw("GetEnvelope database error", "notification_id", id, "error", err)
		return nil, err
	}
	return &env, nil
}
