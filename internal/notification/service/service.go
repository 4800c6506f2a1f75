// Package service provides the member notification inbox.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/notification/model"
	"github.com/festy23/reviewdesk/internal/notification/repository"
)

// InboxSize is how many notifications List returns.
const InboxSize = 50

// Service defines inbox operations.
type Service interface {
	// List returns the newest notifications of a member and their unread count.
	List(ctx context.Context, userID string) (*model.ListNotificationsResponse, error)

	// MarkRead flags one notification of the member as read.
	MarkRead(ctx context.Context, userID, id string) (*model.Notification, error)
}

type service struct {
	repo   repository.Repository
	logger *zap.SugaredLogger
}

// New creates a new notification service instance.
func New(repo repository.Repository, logger *zap.SugaredLogger) Service {
	return &service{repo: repo, logger: logger}
}

func (s *service) List(ctx context.Context, userID string) (*model.ListNotificationsResponse, error) {
	list, err := s.repo.ListForUser(ctx, userID, InboxSize)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Notification{}
	}
	return &model.ListNotificationsResponse{Notifications: list, Unread: unread}, nil
}

func (s *service) MarkRead(ctx context.Context, userID, id string) (*model.Notification, error) {
	return s.repo.MarkRead(ctx, userID, id)
}
