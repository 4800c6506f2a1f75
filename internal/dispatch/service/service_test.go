package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/database/dbtest"
	"github.com/festy23/reviewdesk/internal/dispatch/metrics"
	"github.com/festy23/reviewdesk/internal/dispatch/model"
	"github.com/festy23/reviewdesk/internal/dispatch/repository"
	"github.com/festy23/reviewdesk/internal/dispatch/transport"
	emailusageModel "github.com/festy23/reviewdesk/internal/emailusage/model"
	emailusageRepository "github.com/festy23/reviewdesk/internal/emailusage/repository"
	emailusageService "github.com/festy23/reviewdesk/internal/emailusage/service"
	magiclinkModel "github.com/festy23/reviewdesk/internal/magiclink/model"
	notificationModel "github.com/festy23/reviewdesk/internal/notification/model"
)

type mockSettings struct{ mock.Mock }

func (m *mockSettings) GetActive(ctx context.Context) (*model.EmailSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EmailSettings), args.Error(1)
}

func (m *mockSettings) Save(ctx context.Context, s *model.EmailSettings) error {
	return m.Called(ctx, s).Error(0)
}

type mockLedger struct{ mock.Mock }

func (m *mockLedger) Current(ctx context.Context) (emailusageModel.Usage, error) {
	args := m.Called(ctx)
	return args.Get(0).(emailusageModel.Usage), args.Error(1)
}

func (m *mockLedger) Get(ctx context.Context, month string) (emailusageModel.Usage, error) {
	args := m.Called(ctx, month)
	return args.Get(0).(emailusageModel.Usage), args.Error(1)
}

func (m *mockLedger) Reserve(ctx context.Context) (emailusageModel.Usage, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(emailusageModel.Usage), args.Bool(1), args.Error(2)
}

func (m *mockLedger) Release(ctx context.Context, month string) error {
	return m.Called(ctx, month).Error(0)
}

type mockTransport struct{ mock.Mock }

func (m *mockTransport) Deliver(ctx context.Context, settings *model.EmailSettings, email model.Email) error {
	return m.Called(ctx, settings, email).Error(0)
}

type mockNotifications struct{ mock.Mock }

func (m *mockNotifications) GetEnvelope(ctx context.Context, id string) (*notificationModel.Envelope, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notificationModel.Envelope), args.Error(1)
}

func (m *mockNotifications) MarkEmailSent(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockLinks struct{ mock.Mock }

func (m *mockLinks) Issue(ctx context.Context, req magiclinkModel.IssueRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockLinks) URL(token string, linkType magiclinkModel.LinkType) string {
	return "https://desk.example.com/auth/magic/" + token
}

var (
	_ repository.Repository    = (*mockSettings)(nil)
	_ emailusageService.Ledger = (*mockLedger)(nil)
	_ transport.Transport      = (*mockTransport)(nil)
	_ NotificationStore        = (*mockNotifications)(nil)
	_ LinkIssuer               = (*mockLinks)(nil)
)

type fixture struct {
	settings      *mockSettings
	ledger        *mockLedger
	transport     *mockTransport
	notifications *mockNotifications
	links         *mockLinks
	metrics       *metrics.Metrics
	svc           Service
}

func newFixture(cacheTTL time.Duration) *fixture {
	f := &fixture{
		settings:      new(mockSettings),
		ledger:        new(mockLedger),
		transport:     new(mockTransport),
		notifications: new(mockNotifications),
		links:         new(mockLinks),
		metrics:       metrics.NewUnregistered(),
	}
	f.svc = New(Deps{
		Settings:      f.settings,
		Ledger:        f.ledger,
		Transport:     f.transport,
		Notifications: f.notifications,
		Links:         f.links,
		Metrics:       f.metrics,
	}, Options{
		BaseURL:          "https://desk.example.com",
		MagicLinkTTLDays: 7,
		SettingsCacheTTL: cacheTTL,
	}, zap.NewNop().Sugar())
	return f
}

func (f *fixture) outcome(name string) float64 {
	return testutil.ToFloat64(f.metrics.Emails.WithLabelValues(name))
}

var account = &model.EmailSettings{SMTPHost: "smtp.example.com", SMTPPort: 587, EmailAddress: "bot@example.com", AppPassword: "pw"}

func usage(count, limit int) emailusageModel.Usage {
	return emailusageModel.Usage{Month: "2026-05", Count: count, Limit: limit, Remaining: limit - count}
}

func TestService_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("reserves then delivers", func(t *testing.T) {
		f := newFixture(0)
		f.settings.On("GetActive", ctx).Return(account, nil)
		f.ledger.On("Reserve", ctx).Return(usage(11, 3000), true, nil)
		f.transport.On("Deliver", ctx, account, model.Email{To: "a@example.com", Subject: "s", Text: "t", HTML: "h"}).Return(nil)

		assert.True(t, f.svc.Send(ctx, "a@example.com", "s", "t", "h"))
		f.ledger.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
		assert.InDelta(t, 1, f.outcome(metrics.OutcomeSent), 0)
	})

	t.Run("no settings", func(t *testing.T) {
		f := newFixture(0)
		f.settings.On("GetActive", ctx).Return(nil, model.ErrSettingsNotFound)

		assert.False(t, f.svc.Send(ctx, "a@example.com", "s", "t", "h"))
		f.transport.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything)
		f.ledger.AssertNotCalled(t, "Reserve", mock.Anything)
		assert.InDelta(t, 1, f.outcome(metrics.OutcomeNoSettings), 0)
	})

	t.Run("limit reached skips transport", func(t *testing.T) {
		f := newFixture(0)
		f.settings.On("GetActive", ctx).Return(account, nil)
		f.ledger.On("Reserve", ctx).Return(usage(3000, 3000), false, nil)

		assert.False(t, f.svc.Send(ctx, "a@example.com", "s", "t", "h"))
		f.transport.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything)
		f.ledger.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
		assert.InDelta(t, 1, f.outcome(metrics.OutcomeQuotaExceeded), 0)
	})

	t.Run("ledger error skips transport", func(t *testing.T) {
		f := newFixture(0)
		f.settings.On("GetActive", ctx).Return(account, nil)
		f.ledger.On("Reserve", ctx).Return(emailusageModel.Usage{}, false, errors.New("db down"))

		assert.False(t, f.svc.Send(ctx, "a@example.com", "s", "t", "h"))
		f.transport.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything)
		assert.InDelta(t, 1, f.outcome(metrics.OutcomeFailed), 0)
	})

	t.Run("transport failure releases the slot", func(t *testing.T) {
		f := newFixture(0)
		f.settings.On("GetActive", ctx).Return(account, nil)
		f.ledger.On("Reserve", ctx).Return(usage(1, 3000), true, nil)
		f.transport.On("Deliver", ctx, account, mock.Anything).Return(errors.New("535 auth failed"))
		f.ledger.On("Release", mock.Anything, "2026-05").Return(nil)

		assert.False(t, f.svc.Send(ctx, "a@example.com", "s", "t", "h"))
		f.ledger.AssertExpectations(t)
		assert.InDelta(t, 1, f.outcome(metrics.OutcomeFailed), 0)
	})
}

type countingTransport struct {
	delivered atomic.Int32
}

func (c *countingTransport) Deliver(ctx context.Context, settings *model.EmailSettings, email model.Email) error {
	c.delivered.Add(1)
	return nil
}

func TestService_ConcurrentSendsStayWithinLimit(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop().Sugar()
	db := dbtest.New(t)

	settings := new(mockSettings)
	settings.On("GetActive", mock.Anything).Return(account, nil)
	ledger := emailusageService.New(emailusageRepository.New(db, logger), 3, logger)
	sent := &countingTransport{}
	m := metrics.NewUnregistered()

	svc := New(Deps{
		Settings:  settings,
		Ledger:    ledger,
		Transport: sent,
		Metrics:   m,
	}, Options{BaseURL: "https://desk.example.com"}, logger)

	const senders = 8
	var (
		wg        sync.WaitGroup
		delivered atomic.Int32
	)
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if svc.Send(ctx, "a@example.com", "s", "t", "h") {
				delivered.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), delivered.Load())
	assert.Equal(t, int32(3), sent.delivered.Load())

	current, err := ledger.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, current.Count)
	assert.True(t, current.Exhausted())
	assert.InDelta(t, senders-3, testutil.ToFloat64(m.Emails.WithLabelValues(metrics.OutcomeQuotaExceeded)), 0)
}

func TestService_SettingsAreCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(time.Minute)
	f.settings.On("GetActive", ctx).Return(account, nil).Once()
	f.ledger.On("Reserve", ctx).Return(usage(3000, 3000), false, nil)

	f.svc.Send(ctx, "a@example.com", "s", "t", "h")
	f.svc.Send(ctx, "a@example.com", "s", "t", "h")
	f.settings.AssertNumberOfCalls(t, "GetActive", 1)

	f.settings.On("Save", ctx, mock.Anything).Return(nil)
	_, err := f.svc.SaveSettings(ctx, &model.SaveSettingsRequest{
		SMTPHost: "smtp.new.test", SMTPPort: 587, EmailAddress: "bot@new.test", AppPassword: "pw",
	})
	require.NoError(t, err)

	f.settings.On("GetActive", ctx).Return(account, nil).Once()
	f.svc.Send(ctx, "a@example.com", "s", "t", "h")
	f.settings.AssertNumberOfCalls(t, "GetActive", 2)
}

func TestService_SendForNotification(t *testing.T) {
	ctx := context.Background()
	reviewID := "r-42"
	env := &notificationModel.Envelope{
		Notification: notificationModel.Notification{
			ID: "n1", UserID: "u1", ReviewID: &reviewID, Type: notificationModel.TypeReviewRequest, Message: "Please review the deck",
		},
		RecipientEmail: "rev@example.com",
		RecipientName:  "Rev",
		ReviewTitle:    "Q3 deck",
	}

	t.Run("with magic link", func(t *testing.T) {
		f := newFixture(0)
		f.notifications.On("GetEnvelope", ctx, "n1").Return(env, nil)
		f.links.On("Issue", ctx, magiclinkModel.IssueRequest{
			UserID: "u1", ReviewID: &reviewID, TTLDays: 7, Type: magiclinkModel.TypeReview,
		}).Return("tok123", nil)
		f.settings.On("GetActive", ctx).Return(account, nil)
		f.ledger.On("Reserve", ctx).Return(usage(1, 3000), true, nil)
		f.transport.On("Deliver", ctx, account, mock.MatchedBy(func(e model.Email) bool {
			return e.To == "rev@example.com" &&
				e.Subject == "[Review request] Q3 deck" &&
				strings.Contains(e.Text, "Please review the deck") &&
				strings.Contains(e.Text, "https://desk.example.com/auth/magic/tok123") &&
				strings.Contains(e.HTML, "https://desk.example.com/auth/magic/tok123")
		})).Return(nil)
		f.notifications.On("MarkEmailSent", ctx, "n1").Return(nil)

		assert.True(t, f.svc.SendForNotification(ctx, "n1", true))
		f.notifications.AssertExpectations(t)
		f.transport.AssertExpectations(t)
	})

	t.Run("plain link and no mark on failure", func(t *testing.T) {
		f := newFixture(0)
		f.notifications.On("GetEnvelope", ctx, "n1").Return(env, nil)
		f.settings.On("GetActive", ctx).Return(nil, model.ErrSettingsNotFound)

		assert.False(t, f.svc.SendForNotification(ctx, "n1", false))
		f.links.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
		f.notifications.AssertNotCalled(t, "MarkEmailSent", mock.Anything, mock.Anything)
	})

	t.Run("missing notification", func(t *testing.T) {
		f := newFixture(0)
		f.notifications.On("GetEnvelope", ctx, "gone").Return(nil, notificationModel.ErrNotificationNotFound)

		f.svc.Handle(ctx, model.Message{NotificationID: "gone", WithMagicLink: true})
		f.settings.AssertNotCalled(t, "GetActive", mock.Anything)
	})
}

func TestService_SaveSettingsValidation(t *testing.T) {
	f := newFixture(0)
	tests := []model.SaveSettingsRequest{
		{SMTPHost: "", SMTPPort: 587, EmailAddress: "a@b.c", AppPassword: "pw"},
		{SMTPHost: "h", SMTPPort: 70000, EmailAddress: "a@b.c", AppPassword: "pw"},
		{SMTPHost: "h", SMTPPort: 587, EmailAddress: "not-an-address", AppPassword: "pw"},
	}
	for _, req := range tests {
		_, err := f.svc.SaveSettings(context.Background(), &req)
		assert.ErrorIs(t, err, model.ErrInvalidSettings)
	}
	f.settings.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_SendTestRejectsBadAddress(t *testing.T) {
	f := newFixture(0)
	sent, err := f.svc.SendTest(context.Background(), "nope")
	assert.False(t, sent)
	assert.ErrorIs(t, err, model.ErrInvalidSettings)
}
