// Package repository provides read queries for the member dashboard.
package repository

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/reviewdesk/internal/dashboard/model"
	reviewModel "github.com/festy23/reviewdesk/internal/review/model"
)

// Repository defines dashboard queries.
type Repository interface {
	// AwaitingMe returns sent reviews where the user's verdict is pending.
	AwaitingMe(ctx context.Context, userID string, limit int) ([]reviewModel.ReviewSummary, error)

	// InProgress returns the user's own reviews that are out for review.
	InProgress(ctx context.Context, userID string, limit int) ([]reviewModel.ReviewSummary, error)

	// RecentActivity returns the newest history entries on reviews the user
	// requested or is assigned to.
	RecentActivity(ctx context.Context, userID string, limit int) ([]model.Activity, error)

	// RequestStatistics counts the user's own reviews by status.
	RequestStatistics(ctx context.Context, userID string) (*model.RequestStatistics, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new dashboard repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{
		db:     db,
		logger: logger,
	}
}

const summaryColumns = `
	reviews.*,
	users.name AS requester_name,
	(SELECT COUNT(*) FROM review_assignees ra WHERE ra.review_id = reviews.id AND ra.status = 'approved') AS approved_count,
	(SELECT COUNT(*) FROM review_assignees ra WHERE ra.review_id = reviews.id) AS total_assignees`

// AwaitingMe returns sent reviews where the user's verdict is pending.
func (r *repository) AwaitingMe(ctx context.Context, userID string, limit int) ([]reviewModel.ReviewSummary, error) {
	r.logger.Debugw("AwaitingMe called", "user_id", userID)

	var rows []reviewModel.ReviewSummary
	err := r.db.WithContext(ctx).
		Table("reviews").
		Select(summaryColumns+", mine.status AS assignee_status").
		Joins("JOIN review_assignees mine ON mine.review_id = reviews.id AND mine.user_id = ?", userID).
		Joins("JOIN users ON users.id = reviews.requester_id").
		Where("mine.status = ?", reviewModel.AssigneePending).
		Where("reviews.status <> ?", reviewModel.StatusDraft).
		Order("reviews.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		r.logger.Errorw("AwaitingMe database error", "user_id", userID, "error", err)
		return nil, err
	}
	return rows, nil
}

// InProgress returns the user's own reviews that are out for review.
func (r *repository) InProgress(ctx context.Context, userID string, limit int) ([]reviewModel.ReviewSummary, error) {
	r.logger.Debugw("InProgress called", "user_id", userID)

	var rows []reviewModel.ReviewSummary
	err := r.db.WithContext(ctx).
		Table("reviews").
		Select(summaryColumns).
		Joins("JOIN users ON users.id = reviews.requester_id").
		Where("reviews.requester_id = ?", userID).
		Where("reviews.status IN ?", []reviewModel.Status{
			reviewModel.StatusPending, reviewModel.StatusInReview, reviewModel.StatusShared,
		}).
		Order("reviews.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		r.logger.Errorw("InProgress database error", "user_id", userID, "error", err)
		return nil, err
	}
	return rows, nil
}

// RecentActivity returns the newest history entries on reviews the user
// requested or is assigned to. Guest entries carry the name the guest typed.
func (r *repository) RecentActivity(ctx context.Context, userID string, limit int) ([]model.Activity, error) {
	r.logger.Debugw("RecentActivity called", "user_id", userID)

	var rows []model.Activity
	err := r.db.WithContext(ctx).
		Table("comments").
		Select(`
			comments.id,
			comments.review_id,
			reviews.title AS review_title,
			COALESCE(users.name, comments.guest_name, '') AS author_name,
			comments.action_type,
			comments.content,
			comments.created_at
		`).
		Joins("JOIN reviews ON reviews.id = comments.review_id").
		Joins("LEFT JOIN users ON users.id = comments.user_id").
		Where(`reviews.requester_id = ? OR reviews.id IN (
			SELECT review_id FROM review_assignees WHERE user_id = ?
		)`, userID, userID).
		Order("comments.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		r.logger.Errorw("RecentActivity database error", "user_id", userID, "error", err)
		return nil, err
	}
	return rows, nil
}

// RequestStatistics counts the user's own reviews by status.
func (r *repository) RequestStatistics(ctx context.Context, userID string) (*model.RequestStatistics, error) {
	r.logger.Debugw("RequestStatistics called", "user_id", userID)

	var result struct {
		Total    int64 `gorm:"column:total"`
		Draft    int64 `gorm:"column:draft"`
		Open     int64 `gorm:"column:open_count"`
		Approved int64 `gorm:"column:approved"`
		Rejected int64 `gorm:"column:rejected"`
	}

	err := r.db.WithContext(ctx).
		Table("reviews").
		Select(`
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = 'draft' THEN 1 ELSE 0 END), 0) AS draft,
			COALESCE(SUM(CASE WHEN status IN ('pending', 'in_review', 'shared') THEN 1 ELSE 0 END), 0) AS open_count,
			COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0) AS approved,
			COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0) AS rejected
		`).
		Where("requester_id = ?", userID).
		Scan(&result).Error
	if err != nil {
		r.logger.Errorw("RequestStatistics database error", "user_id", userID, "error", err)
		return nil, err
	}

	return &model.RequestStatistics{
		Total:    int(result.Total),
		Draft:    int(result.Draft),
		Open:     int(result.Open),
		Approved: int(result.Approved),
		Rejected: int(result.Rejected),
	}, nil
}
