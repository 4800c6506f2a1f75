// Package repository provides session storage.
package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/reviewdesk/internal/access/model"
	userModel "github.com/festy23/reviewdesk/internal/user/model"
)

// Repository defines session storage operations.
type Repository interface {
	// Create stores a session.
	Create(ctx context.Context, session *model.Session) error

	// GetActiveUser returns the active user owning a session unexpired at now.
	GetActiveUser(ctx context.Context, sessionID string, now time.Time) (*userModel.User, error)

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// DeleteExpired removes sessions expired at now and returns how many.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) Repository
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new session repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx, logger: r.logger}
}

// Create stores a session.
func (r *repository) Create(ctx context.Context, session *model.Session) error {
	r.logger.Debugw("Create called", "user_id", session.UserID, "expires_at", session.ExpiresAt)

	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		r.logger.Errorw("Create database error", "user_id", session.UserID, "error", err)
		return err
	}
	return nil
}

// GetActiveUser returns the active user owning a session unexpired at now.
func (r *repository) GetActiveUser(ctx context.Context, sessionID string, now time.Time) (*userModel.User, error) {
	var user userModel.User
	err := r.db.WithContext(ctx).
		Model(&userModel.User{}).
		Joins("JOIN sessions ON sessions.user_id = users.id").
		Where("sessions.id = ? AND sessions.expires_at > ? AND users.is_active = ?", sessionID, now, true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrUnauthenticated
		}
		r.logger.Errorw("GetActiveUser database error", "error", err)
		return nil, err
	}
	return &user, nil
}

// Delete removes a session.
func (r *repository) Delete(ctx context.Context, sessionID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", sessionID).Delete(&model.Session{}).Error; err != nil {
		r.logger.Errorw("Delete database error", "error", err)
		return err
	}
	return nil
}

// DeleteExpired removes sessions expired at now and returns how many.
func (r *repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.Session{})
	if result.Error != nil {
		r.logger.Errorw("DeleteExpired database error", "error", result.Error)
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		r.logger.Infow("DeleteExpired completed", "deleted", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
