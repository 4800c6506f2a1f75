// Package service implements the quota-gated email dispatcher and the admin
// operations on its SMTP account.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/dispatch/metrics"
	"github.com/festy23/reviewdesk/internal/dispatch/model"
	"github.com/festy23/reviewdesk/internal/dispatch/repository"
	"github.com/festy23/reviewdesk/internal/dispatch/transport"
	emailusageModel "github.com/festy23/reviewdesk/internal/emailusage/model"
	emailusageService "github.com/festy23/reviewdesk/internal/emailusage/service"
	magiclinkModel "github.com/festy23/reviewdesk/internal/magiclink/model"
	notificationModel "github.com/festy23/reviewdesk/internal/notification/model"
)

const activeSettingsKey = "active"

// Service defines dispatcher operations. Send methods never return errors:
// every failure is logged, counted and reported as false.
type Service interface {
	// Send delivers one email unless settings are missing or the monthly
	// quota is used up.
	Send(ctx context.Context, to, subject, text, html string) bool

	// SendForNotification mails a stored notification to its recipient and
	// marks it sent.
	SendForNotification(ctx context.Context, notificationID string, withMagicLink bool) bool

	// Handle consumes a queued message.
	Handle(ctx context.Context, msg model.Message)

	// GetSettings returns the active SMTP account.
	GetSettings(ctx context.Context) (*model.EmailSettings, error)

	// SaveSettings replaces the SMTP account.
	SaveSettings(ctx context.Context, req *model.SaveSettingsRequest) (*model.EmailSettings, error)

	// SendTest mails a fixed test message to to.
	SendTest(ctx context.Context, to string) (bool, error)

	// Usage returns this month's email usage.
	Usage(ctx context.Context) (emailusageModel.Usage, error)
}

// NotificationStore loads notifications for mailing.
type NotificationStore interface {
	GetEnvelope(ctx context.Context, id string) (*notificationModel.Envelope, error)
	MarkEmailSent(ctx context.Context, id string) error
}

// LinkIssuer mints magic links for recipients.
type LinkIssuer interface {
	Issue(ctx context.Context, req magiclinkModel.IssueRequest) (string, error)
	URL(token string, linkType magiclinkModel.LinkType) string
}

// Deps groups the collaborators of the dispatcher.
type Deps struct {
	Settings      repository.Repository
	Ledger        emailusageService.Ledger
	Transport     transport.Transport
	Notifications NotificationStore
	Links         LinkIssuer
	Metrics       *metrics.Metrics
}

// Options holds dispatcher settings.
type Options struct {
	BaseURL          string
	MagicLinkTTLDays int
	SettingsCacheTTL time.Duration
}

type service struct {
	deps   Deps
	opts   Options
	cache  *cache.Cache
	logger *zap.SugaredLogger
}

// New creates a new dispatcher.
func New(deps Deps, opts Options, logger *zap.SugaredLogger) Service {
	s := &service{deps: deps, opts: opts, logger: logger}
	if opts.SettingsCacheTTL > 0 {
		s.cache = cache.New(opts.SettingsCacheTTL, 2*opts.SettingsCacheTTL)
	}
	return s
}

func (s *service) Send(ctx context.Context, to, subject, text, html string) bool {
	settings, err := s.activeSettings(ctx)
	if err != nil {
		if errors.Is(err, model.ErrSettingsNotFound) {
			s.logger.Infow("email skipped, settings not configured", "subject", subject)
			s.deps.Metrics.Observe(metrics.OutcomeNoSettings)
		} else {
			s.logger.Errorw("email skipped, settings lookup failed", "error", err)
			s.deps.Metrics.Observe(metrics.OutcomeFailed)
		}
		return false
	}

	// The quota slot is taken before delivery so that concurrent workers
	// cannot pass the limit together.
	usage, ok, err := s.deps.Ledger.Reserve(ctx)
	if err != nil {
		s.logger.Errorw("email skipped, usage lookup failed", "error", err)
		s.deps.Metrics.Observe(metrics.OutcomeFailed)
		return false
	}
	if !ok {
		s.logger.Warnw("email skipped, monthly limit reached",
			"month", usage.Month, "count", usage.Count, "limit", usage.Limit)
		s.deps.Metrics.Observe(metrics.OutcomeQuotaExceeded)
		return false
	}

	email := model.Email{To: to, Subject: subject, Text: text, HTML: html}
	if err := s.deps.Transport.Deliver(ctx, settings, email); err != nil {
		s.logger.Errorw("email delivery failed", "subject", subject, "error", err)
		if err := s.deps.Ledger.Release(context.WithoutCancel(ctx), usage.Month); err != nil {
			s.logger.Errorw("email failed but usage not released", "month", usage.Month, "error", err)
		}
		s.deps.Metrics.Observe(metrics.OutcomeFailed)
		return false
	}

	s.deps.Metrics.Observe(metrics.OutcomeSent)
	return true
}

func (s *service) SendForNotification(ctx context.Context, notificationID string, withMagicLink bool) bool {
	env, err := s.deps.Notifications.GetEnvelope(ctx, notificationID)
	if err != nil {
		if errors.Is(err, notificationModel.ErrNotificationNotFound) {
			s.logger.Infow("notification email skipped, notification or recipient gone",
				"notification_id", notificationID)
		} else {
			s.logger.Errorw("failed to load notification", "notification_id", notificationID, "error", err)
		}
		return false
	}

	link, singleUse := s.linkFor(ctx, env, withMagicLink)
	text, html, err := renderBodies(bodyData{
		RecipientName: env.RecipientName,
		Message:       env.Message,
		URL:           link,
		SingleUse:     singleUse,
	})
	if err != nil {
		s.logger.Errorw("failed to render notification email", "notification_id", notificationID, "error", err)
		return false
	}

	if !s.Send(ctx, env.RecipientEmail, subjectFor(env.Type, env.ReviewTitle), text, html) {
		return false
	}

	if err := s.deps.Notifications.MarkEmailSent(ctx, notificationID); err != nil {
		s.logger.Errorw("failed to mark notification emailed", "notification_id", notificationID, "error", err)
	}
	return true
}

// linkFor returns the address the email points to. A magic link is minted
// only when asked for; if minting fails the plain review URL is used.
func (s *service) linkFor(ctx context.Context, env *notificationModel.Envelope, withMagicLink bool) (string, bool) {
	plain := s.opts.BaseURL
	if env.ReviewID != nil {
		plain = s.opts.BaseURL + "/reviews/" + *env.ReviewID
	}
	if !withMagicLink || s.deps.Links == nil {
		return plain, false
	}

	tok, err := s.deps.Links.Issue(ctx, magiclinkModel.IssueRequest{
		UserID:   env.UserID,
		ReviewID: env.ReviewID,
		TTLDays:  s.opts.MagicLinkTTLDays,
		Type:     magiclinkModel.TypeReview,
	})
	if err != nil {
		s.logger.Errorw("failed to issue magic link, falling back to plain link",
			"notification_id", env.ID, "error", err)
		return plain, false
	}
	return s.deps.Links.URL(tok, magiclinkModel.TypeReview), true
}

func (s *service) Handle(ctx context.Context, msg model.Message) {
	s.SendForNotification(ctx, msg.NotificationID, msg.WithMagicLink)
}

func (s *service) activeSettings(ctx context.Context) (*model.EmailSettings, error) {
	if s.cache != nil {
		if cached, found := s.cache.Get(activeSettingsKey); found {
			return cached.(*model.EmailSettings), nil
		}
	}

	settings, err := s.deps.Settings.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(activeSettingsKey, settings, cache.DefaultExpiration)
	}
	return settings, nil
}

func (s *service) GetSettings(ctx context.Context) (*model.EmailSettings, error) {
	return s.deps.Settings.GetActive(ctx)
}

func (s *service) SaveSettings(ctx context.Context, req *model.SaveSettingsRequest) (*model.EmailSettings, error) {
	if err := validateSettings(req); err != nil {
		return nil, err
	}

	settings := &model.EmailSettings{
		SMTPHost:     strings.TrimSpace(req.SMTPHost),
		SMTPPort:     req.SMTPPort,
		EmailAddress: strings.TrimSpace(req.EmailAddress),
		AppPassword:  req.AppPassword,
		FromName:     strings.TrimSpace(req.FromName),
	}
	if err := s.deps.Settings.Save(ctx, settings); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Delete(activeSettingsKey)
	}

	s.logger.Infow("email settings saved", "smtp_host", settings.SMTPHost, "smtp_port", settings.SMTPPort)
	return settings, nil
}

func validateSettings(req *model.SaveSettingsRequest) error {
	if strings.TrimSpace(req.SMTPHost) == "" || req.AppPassword == "" {
		return model.ErrInvalidSettings
	}
	if req.SMTPPort <= 0 || req.SMTPPort > 65535 {
		return fmt.Errorf("%w: smtp_port must be between 1 and 65535", model.ErrInvalidSettings)
	}
	if _, err := mail.ParseAddress(req.EmailAddress); err != nil {
		return fmt.Errorf("%w: email_address is not a valid address", model.ErrInvalidSettings)
	}
	return nil
}

func (s *service) SendTest(ctx context.Context, to string) (bool, error) {
	if _, err := mail.ParseAddress(to); err != nil {
		return false, fmt.Errorf("%w: recipient is not a valid address", model.ErrInvalidSettings)
	}

	text := "This is a test message from Review Desk. Your email settings work."
	html := "<p>This is a test message from Review Desk. Your email settings work.</p>"
	return s.Send(ctx, to, "[Review Desk] Test email", text, html), nil
}

func (s *service) Usage(ctx context.Context) (emailusageModel.Usage, error) {
	return s.deps.Ledger.Current(ctx)
}
