// Package service resolves principals and manages login sessions.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/reviewdesk/internal/access/model"
	"github.com/festy23/reviewdesk/internal/access/repository"
	userModel "github.com/festy23/reviewdesk/internal/user/model"
	userService "github.com/festy23/reviewdesk/internal/user/service"
	"github.com/festy23/reviewdesk/pkg/token"
)

// Service defines session and principal operations.
type Service interface {
	// Login verifies credentials and opens a session.
	Login(ctx context.Context, email, password string) (*model.Session, model.Member, error)

	// Setup creates the first admin and opens a session for them.
	Setup(ctx context.Context, req *userModel.CreateMemberRequest) (*model.Session, model.Member, error)

	// Logout ends a session. Unknown ids are ignored.
	Logout(ctx context.Context, sessionID string) error

	// Resolve returns the member behind a session id.
	Resolve(ctx context.Context, sessionID string) (model.Member, error)

	// OpenSession creates a session for userID lasting ttl.
	OpenSession(ctx context.Context, tx *gorm.DB, userID string, ttl time.Duration) (*model.Session, error)

	// PurgeExpired deletes expired sessions.
	PurgeExpired(ctx context.Context) (int64, error)
}

type service struct {
	repo       repository.Repository
	users      userService.Service
	sessionTTL time.Duration
	now        func() time.Time
	logger     *zap.SugaredLogger
}

// Option customizes the service.
type Option func(*service)

func utcNow() time.Time { return time.Now().UTC() }

// WithClock replaces the UTC wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// New creates a new access service. sessionTTL applies to password logins.
func New(
	repo repository.Repository,
	users userService.Service,
	sessionTTL time.Duration,
	logger *zap.SugaredLogger,
	opts ...Option,
) Service {
	s := &service{repo: repo, users: users, sessionTTL: sessionTTL, now: utcNow, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Login(ctx context.Context, email, password string) (*model.Session, model.Member, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, model.Member{}, err
	}

	session, err := s.OpenSession(ctx, nil, user.ID, s.sessionTTL)
	if err != nil {
		return nil, model.Member{}, err
	}

	s.logger.Infow("member logged in", "user_id", user.ID)
	return session, model.MemberFromUser(user), nil
}

func (s *service) Setup(ctx context.Context, req *userModel.CreateMemberRequest) (*model.Session, model.Member, error) {
	user, err := s.users.Setup(ctx, req)
	if err != nil {
		return nil, model.Member{}, err
	}

	session, err := s.OpenSession(ctx, nil, user.ID, s.sessionTTL)
	if err != nil {
		return nil, model.Member{}, err
	}
	return session, model.MemberFromUser(user), nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.repo.Delete(ctx, sessionID)
}

func (s *service) Resolve(ctx context.Context, sessionID string) (model.Member, error) {
	if !token.Valid(sessionID) {
		return model.Member{}, model.ErrUnauthenticated
	}
	user, err := s.repo.GetActiveUser(ctx, sessionID, s.now())
	if err != nil {
		return model.Member{}, err
	}
	return model.MemberFromUser(user), nil
}

// OpenSession creates a session; a non-nil tx makes it part of that transaction.
func (s *service) OpenSession(ctx context.Context, tx *gorm.DB, userID string, ttl time.Duration) (*model.Session, error) {
	id, err := token.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := s.now()
	session := &model.Session{ID: id, UserID: userID, ExpiresAt: now.Add(ttl), CreatedAt: now}

	repo := s.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	if err := repo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Errorw("failed to purge expired sessions", "error", err)
	}
	return n, err
}
