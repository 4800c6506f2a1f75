// Package service exposes the email usage ledger with its monthly limit.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/emailusage/model"
	"github.com/festy23/reviewdesk/internal/emailusage/repository"
)

// Ledger tracks how many emails went out per UTC calendar month.
type Ledger interface {
	// Current returns usage for the current month.
	Current(ctx context.Context) (model.Usage, error)

	// Get returns usage for month ("YYYY-MM").
	Get(ctx context.Context, month string) (model.Usage, error)

	// Reserve takes one email from the current month's quota before a
	// delivery. ok is false when the limit is already reached; usage then
	// reports the unchanged count.
	Reserve(ctx context.Context) (usage model.Usage, ok bool, err error)

	// Release returns a slot taken by Reserve in month after the delivery
	// failed.
	Release(ctx context.Context, month string) error
}

type ledger struct {
	repo   repository.Repository
	limit  int
	now    func() time.Time
	logger *zap.SugaredLogger
}

// Option customizes a Ledger.
type Option func(*ledger)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *ledger) { l.now = now }
}

// New creates a ledger enforcing limit emails per month.
func New(repo repository.Repository, limit int, logger *zap.SugaredLogger, opts ...Option) Ledger {
	l := &ledger{repo: repo, limit: limit, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *ledger) Current(ctx context.Context) (model.Usage, error) {
	return l.Get(ctx, model.MonthOf(l.now()))
}

func (l *ledger) Get(ctx context.Context, month string) (model.Usage, error) {
	if _, err := time.Parse(model.MonthLayout, month); err != nil {
		return model.Usage{}, model.ErrInvalidMonth
	}

	count, err := l.repo.Get(ctx, month)
	if err != nil {
		return model.Usage{}, fmt.Errorf("failed to read email usage: %w", err)
	}
	return l.usage(month, count), nil
}

func (l *ledger) Reserve(ctx context.Context) (model.Usage, bool, error) {
	month := model.MonthOf(l.now())
	count, ok, err := l.repo.Increment(ctx, month, l.limit)
	if err != nil {
		return model.Usage{}, false, fmt.Errorf("failed to increment email usage: %w", err)
	}

	if ok && count == l.limit {
		l.logger.Warnw("monthly email limit reached", "month", month, "limit", l.limit)
	}
	return l.usage(month, count), ok, nil
}

func (l *ledger) Release(ctx context.Context, month string) error {
	if err := l.repo.Decrement(ctx, month); err != nil {
		return fmt.Errorf("failed to release email usage: %w", err)
	}
	return nil
}

func (l *ledger) usage(month string, count int) model.Usage {
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return model.Usage{Month: month, Count: count, Limit: l.limit, Remaining: remaining}
}
