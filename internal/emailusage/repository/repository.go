// Package repository provides data access for the monthly email usage ledger.
package repository

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/festy23/reviewdesk/internal/emailusage/model"
)

// Repository defines ledger storage operations. Every write is a single
// statement and is safe under concurrent callers, in and across processes.
type Repository interface {
	// Get returns the count for month, creating a zero row if absent.
	Get(ctx context.Context, month string) (int, error)

	// Increment adds one to month's count unless it already reached limit.
	// It returns the count after the call and whether one was added.
	Increment(ctx context.Context, month string, limit int) (int, bool, error)

	// Decrement takes one back from month's count, never going below zero.
	Decrement(ctx context.Context, month string) error
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new ledger repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// Get returns the count for month, creating a zero row if absent.
func (r *repository) Get(ctx context.Context, month string) (int, error) {
	r.logger.Debugw("Get called", "month", month)

	if err := r.ensure(ctx, month); err != nil {
		return 0, err
	}
	return r.count(ctx, month)
}

// Increment adds one to month's count unless it already reached limit. The
// limit check and the update are one conditional UPDATE, so concurrent
// senders can never push the count past limit.
func (r *repository) Increment(ctx context.Context, month string, limit int) (int, bool, error) {
	r.logger.Debugw("Increment called", "month", month, "limit", limit)

	if err := r.ensure(ctx, month); err != nil {
		return 0, false, err
	}

	result := r.db.WithContext(ctx).
		Model(&model.EmailUsage{}).
		Where("month = ? AND count < ?", month, limit).
		Updates(map[string]any{
			"count":      gorm.Expr("count + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		r.logger.Errorw("Increment failed", "month", month, "error", result.Error)
		return 0, false, result.Error
	}

	count, err := r.count(ctx, month)
	if err != nil {
		return 0, false, err
	}

	r.logger.Debugw("Increment completed", "month", month, "count", count, "added", result.RowsAffected == 1)
	return count, result.RowsAffected == 1, nil
}

// Decrement takes one back from month's count, never going below zero.
func (r *repository) Decrement(ctx context.Context, month string) error {
	r.logger.Debugw("Decrement called", "month", month)

	err := r.db.WithContext(ctx).
		Model(&model.EmailUsage{}).
		Where("month = ? AND count > 0", month).
		Updates(map[string]any{
			"count":      gorm.Expr("count - 1"),
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		r.logger.Errorw("Decrement failed", "month", month, "error", err)
		return err
	}
	return nil
}

// ensure inserts a zero row for month unless one exists.
func (r *repository) ensure(ctx context.Context, month string) error {
	now := time.Now().UTC()
	row := model.EmailUsage{Month: month, Count: 0, CreatedAt: now, UpdatedAt: now}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "month"}}, DoNothing: true}).
		Create(&row).Error
	if err != nil {
		r.logger.Errorw("ensure month row failed", "month", month, "error", err)
	}
	return err
}

func (r *repository) count(ctx context.Context, month string) (int, error) {
	var usage model.EmailUsage
	if err := r.db.WithContext(ctx).Where("month = ?", month).First(&usage).Error; err != nil {
		r.logger.Errorw("count select failed", "month", month, "error", err)
		return 0, err
	}
	return usage.Count, nil
}
