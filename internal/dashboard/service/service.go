// Package service assembles the member dashboard.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/dashboard/model"
	"github.com/festy23/reviewdesk/internal/dashboard/repository"
	reviewModel "github.com/festy23/reviewdesk/internal/review/model"
)

// Service defines dashboard operations.
type Service interface {
	// Get returns the dashboard of a member.
	Get(ctx context.Context, userID string) (*model.DashboardResponse, error)
}

type service struct {
	repo   repository.Repository
	logger *zap.SugaredLogger
}

// New creates a new dashboard service instance.
func New(repo repository.Repository, logger *zap.SugaredLogger) Service {
	return &service{
		repo:   repo,
		logger: logger,
	}
}

// Get returns the dashboard of a member.
func (s *service) Get(ctx context.Context, userID string) (*model.DashboardResponse, error) {
	s.logger.Debugw("Get dashboard called", "user_id", userID)

	awaiting, err := s.repo.AwaitingMe(ctx, userID, model.Limit)
	if err != nil {
		return nil, err
	}
	inProgress, err := s.repo.InProgress(ctx, userID, model.Limit)
	if err != nil {
		return nil, err
	}
	activity, err := s.repo.RecentActivity(ctx, userID, model.Limit)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.RequestStatistics(ctx, userID)
	if err != nil {
		return nil, err
	}

	if awaiting == nil {
		awaiting = []reviewModel.ReviewSummary{}
	}
	if inProgress == nil {
		inProgress = []reviewModel.ReviewSummary{}
	}
	if activity == nil {
		activity = []model.Activity{}
	}

	return &model.DashboardResponse{
		AwaitingMe:     awaiting,
		InProgress:     inProgress,
		RecentActivity: activity,
		Statistics:     *stats,
	}, nil
}
