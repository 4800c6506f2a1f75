// Package service issues and resolves single-use magic login links.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	accessModel "github.com/festy23/reviewdesk/internal/access/model"
	"github.com/festy23/reviewdesk/internal/magiclink/model"
	"github.com/festy23/reviewdesk/internal/magiclink/repository"
	"github.com/festy23/reviewdesk/pkg/token"
)

// DefaultTTLDays applies when an IssueRequest leaves TTLDays unset.
const DefaultTTLDays = 7

// Service defines magic link operations.
type Service interface {
	// Issue mints a link and returns its token.
	Issue(ctx context.Context, req model.IssueRequest) (string, error)

	// Resolve consumes a token and opens a member session for its owner.
	Resolve(ctx context.Context, token string) (*model.Resolution, error)

	// URL returns the absolute address a token is mailed as.
	URL(token string, linkType model.LinkType) string
}

// SessionOpener creates member sessions inside a caller's transaction.
type SessionOpener interface {
	OpenSession(ctx context.Context, tx *gorm.DB, userID string, ttl time.Duration) (*accessModel.Session, error)
}

type service struct {
	repo       repository.Repository
	db         *gorm.DB
	sessions   SessionOpener
	baseURL    string
	sessionTTL time.Duration
	now        func() time.Time
	logger     *zap.SugaredLogger
}

// Option customizes the service.
type Option func(*service)

// WithClock replaces the UTC wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// New creates a new magic link service. Sessions opened by Resolve last sessionTTL.
func New(
	repo repository.Repository,
	db *gorm.DB,
	sessions SessionOpener,
	baseURL string,
	sessionTTL time.Duration,
	logger *zap.SugaredLogger,
	opts ...Option,
) Service {
	s := &service{
		repo:       repo,
		db:         db,
		sessions:   sessions,
		baseURL:    baseURL,
		sessionTTL: sessionTTL,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Issue(ctx context.Context, req model.IssueRequest) (string, error) {
	if req.Type == "" {
		req.Type = model.TypeReview
	}
	if !req.Type.Valid() {
		return "", model.ErrInvalidType
	}
	if req.TTLDays <= 0 {
		req.TTLDays = DefaultTTLDays
	}

	tok, err := token.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate magic link token: %w", err)
	}

	now := s.now()
	link := &model.MagicLink{
		UserID:    req.UserID,
		ReviewID:  req.ReviewID,
		Token:     tok,
		Type:      req.Type,
		ExpiresAt: now.AddDate(0, 0, req.TTLDays),
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, link); err != nil {
		return "", err
	}
	return tok, nil
}

func (s *service) Resolve(ctx context.Context, tok string) (*model.Resolution, error) {
	if !token.Valid(tok) {
		return nil, model.ErrInvalidLink
	}

	var res *model.Resolution
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		link, err := s.repo.WithTx(tx).Consume(ctx, tok, s.now())
		if err != nil {
			return err
		}

		session, err := s.sessions.OpenSession(ctx, tx, link.UserID, s.sessionTTL)
		if err != nil {
			return err
		}

		res = &model.Resolution{
			UserID:           link.UserID,
			ReviewID:         link.ReviewID,
			Type:             link.Type,
			SessionID:        session.ID,
			SessionExpiresAt: session.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("magic link resolved", "user_id", res.UserID, "type", res.Type)
	return res, nil
}

func (s *service) URL(tok string, linkType model.LinkType) string {
	if linkType == model.TypeCalendar {
		return s.baseURL + "/calendar/" + tok
	}
	return s.baseURL + "/auth/magic/" + tok
}
