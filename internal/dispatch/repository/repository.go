// Package repository provides storage for outbound email settings.
package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/reviewdesk/internal/dispatch/model"
)

// Repository defines email settings storage operations.
type Repository interface {
	// GetActive returns the active settings or ErrSettingsNotFound.
	GetActive(ctx context.Context) (*model.EmailSettings, error)

	// Save replaces all stored settings with s, marked active.
	Save(ctx context.Context, s *model.EmailSettings) error
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new email settings repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// GetActive returns the active settings.
func (r *repository) GetActive(ctx context.Context) (*model.EmailSettings, error) {
	var s model.EmailSettings
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrSettingsNotFound
		}
		r.logger.Errorw("GetActive database error", "error", err)
		return nil, err
	}
	return &s, nil
}

// Save replaces all stored settings with s.
func (r *repository) Save(ctx context.Context, s *model.EmailSettings) error {
	r.logger.Debugw("Save called", "smtp_host", s.SMTPHost, "smtp_port", s.SMTPPort)

	s.IsActive = true
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.EmailSettings{}).Error; err != nil {
			r.logger.Errorw("Save delete failed", "error", err)
			return err
		}
		if err := tx.Create(s).Error; err != nil {
			r.logger.Errorw("Save insert failed", "error", err)
			return err
		}
		return nil
	})
}
