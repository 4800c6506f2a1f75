// Package repository provides data access for magic links.
package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/reviewdesk/internal/magiclink/model"
)

// Repository defines magic link storage operations.
type Repository interface {
	// Create stores a new link.
	Create(ctx context.Context, link *model.MagicLink) error

	// Consume marks the link used if it is unused and unexpired at now, and
	// returns it. Only one of any number of concurrent callers succeeds; the
	// rest get ErrInvalidLink, as do callers whose link belongs to an
	// inactive user.
	Consume(ctx context.Context, token string, now time.Time) (*model.MagicLink, error)

	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) Repository
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new magic link repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx, logger: r.logger}
}

// Create stores a new link.
func (r *repository) Create(ctx context.Context, link *model.MagicLink) error {
	r.logger.Debugw("Create called", "user_id", link.UserID, "type", link.Type, "expires_at", link.ExpiresAt)

	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		r.logger.Errorw("Create database error", "user_id", link.UserID, "error", err)
		return err
	}
	return nil
}

// Consume marks the link used and returns it.
func (r *repository) Consume(ctx context.Context, token string, now time.Time) (*model.MagicLink, error) {
	result := r.db.WithContext(ctx).
		Model(&model.MagicLink{}).
		Where("token = ? AND used_at IS NULL AND expires_at > ?", token, now).
		Update("used_at", now)
	if result.Error != nil {
		r.logger.Errorw("Consume update failed", "error", result.Error)
		return nil, result.Error
	}
	if result.RowsAffected != 1 {
		return nil, model.ErrInvalidLink
	}

	var link model.MagicLink
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.id = magic_links.user_id").
		Where("magic_links.token = ? AND users.is_active = ?", token, true).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrInvalidLink
		}
		r.logger.Errorw("Consume select failed", "error", err)
		return nil, err
	}

	r.logger.Debugw("Consume completed", "link_id", link.ID, "user_id", link.UserID)
	return &link, nil
}
