// Package service provides business logic for member accounts.
package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/festy23/reviewdesk/internal/user/model"
	"github.com/festy23/reviewdesk/internal/user/repository"
)

// Service defines the interface for member operations.
type Service interface {
	// Setup creates the first admin. It fails once any user exists.
	Setup(ctx context.Context, req *model.CreateMemberRequest) (*model.User, error)

	// Create adds a member. Authorization happens at the route.
	Create(ctx context.Context, req *model.CreateMemberRequest) (*model.User, error)

	// Authenticate checks an email/password pair against active accounts.
	Authenticate(ctx context.Context, email, password string) (*model.User, error)

	// GetActive returns an active user by id.
	GetActive(ctx context.Context, id string) (*model.User, error)

	// ListActiveByIDs returns the active users among ids.
	ListActiveByIDs(ctx context.Context, ids []string) ([]model.User, error)

	// List returns all members.
	List(ctx context.Context) ([]model.User, error)

	// ToggleActive flips another member's active flag.
	ToggleActive(ctx context.Context, actorID, targetID string) (*model.User, error)

	// UpdateRole changes another member's role.
	UpdateRole(ctx context.Context, actorID, targetID string, role model.Role) (*model.User, error)

	// Delete removes another member who has no review history.
	Delete(ctx context.Context, actorID, targetID string) error
}

type service struct {
	repo       repository.Repository
	bcryptCost int
	logger     *zap.SugaredLogger
}

// Option customizes the service.
type Option func(*service)

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(s *service) { s.bcryptCost = cost }
}

// New creates a new member service instance.
func New(repo repository.Repository, logger *zap.SugaredLogger, opts ...Option) Service {
	s := &service{repo: repo, bcryptCost: bcrypt.DefaultCost, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Setup creates the first admin. It fails once any user exists.
func (s *service) Setup(ctx context.Context, req *model.CreateMemberRequest) (*model.User, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		s.logger.Warnw("Setup rejected, users already exist", "count", count)
		return nil, model.ErrSetupCompleted
	}

	admin := *req
	admin.Role = model.RoleAdmin
	return s.create(ctx, &admin)
}

// Create adds a member.
func (s *service) Create(ctx context.Context, req *model.CreateMemberRequest) (*model.User, error) {
	if req.Role == "" {
		req.Role = model.RoleMember
	}
	return s.create(ctx, req)
}

func (s *service) create(ctx context.Context, req *model.CreateMemberRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if name == "" || !req.Role.Valid() {
		return nil, model.ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, model.ErrInvalidInput
	}
	if len(req.Password) < model.MinPasswordLength {
		return nil, model.ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		s.logger.Errorw("failed to hash password", "error", err)
		return nil, err
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Infow("member created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Authenticate checks an email/password pair against active accounts.
func (s *service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.repo.GetActiveByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debugw("Authenticate password mismatch", "user_id", user.ID)
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetActive returns an active user by id.
func (s *service) GetActive(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

// ListActiveByIDs returns the active users among ids.
func (s *service) ListActiveByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	return s.repo.ListActiveByIDs(ctx, ids)
}

// List returns all members.
func (s *service) List(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

// ToggleActive flips another member's active flag.
func (s *service) ToggleActive(ctx context.Context, actorID, targetID string) (*model.User, error) {
	if actorID == targetID {
		return nil, model.ErrSelfModification
	}
	user, err := s.repo.ToggleActive(ctx, targetID)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("member active flag toggled", "actor_id", actorID, "user_id", targetID, "is_active", user.IsActive)
	return user, nil
}

// UpdateRole changes another member's role.
func (s *service) UpdateRole(ctx context.Context, actorID, targetID string, role model.Role) (*model.User, error) {
	if actorID == targetID {
		return nil, model.ErrSelfModification
	}
	if !role.Valid() {
		return nil, model.ErrInvalidInput
	}
	user, err := s.repo.UpdateRole(ctx, targetID, role)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("member role updated", "actor_id", actorID, "user_id", targetID, "role", role)
	return user, nil
}

// Delete removes another member who has no review history.
func (s *service) Delete(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return model.ErrSelfModification
	}
	if err := s.repo.Delete(ctx, targetID); err != nil {
		return err
	}
	s.logger.Infow("member deleted", "actor_id", actorID, "user_id", targetID)
	return nil
}
