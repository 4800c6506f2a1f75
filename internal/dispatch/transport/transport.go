// Package transport delivers rendered emails over SMTP.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/dispatch/model"
	"github.com/festy23/reviewdesk/pkg/retry"
)

// DefaultFromName is used when the settings carry no display name.
const DefaultFromName = "Review Desk"

// Transport delivers one email using the given account.
type Transport interface {
	Deliver(ctx context.Context, settings *model.EmailSettings, email model.Email) error
}

// SMTP is a Transport backed by shoutrrr's smtp service.
type SMTP struct {
	timeout time.Duration
	retry   retry.Config
	logger  *zap.SugaredLogger
}

// NewSMTP creates an SMTP transport. Each delivery is bounded by timeout and
// attempted up to attempts times on transient failures.
func NewSMTP(timeout time.Duration, attempts int, logger *zap.SugaredLogger) *SMTP {
	cfg := retry.SMTPConfig(attempts)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warnw("smtp delivery failed, retrying", "attempt", attempt, "delay", delay, "error", err)
	}
	return &SMTP{timeout: timeout, retry: cfg, logger: logger}
}

// Deliver sends email through the account in settings.
func (t *SMTP) Deliver(ctx context.Context, settings *model.EmailSettings, email model.Email) error {
	serviceURL, err := BuildURL(settings, email)
	if err != nil {
		return err
	}

	sender, err := shoutrrr.CreateSender(serviceURL)
	if err != nil {
		return sanitize(err, settings.AppPassword)
	}
	if t.timeout > 0 {
		sender.Timeout = t.timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	body := email.Text
	if email.HTML != "" {
		body = email.HTML
	}

	return retry.Do(ctx, t.retry, func() error {
		params := stypes.Params{}
		params.SetTitle(email.Subject)
		for _, sendErr := range sender.Send(body, &params) {
			if sendErr != nil {
				return sanitize(sendErr, settings.AppPassword)
			}
		}
		return nil
	})
}

// BuildURL returns the shoutrrr smtp service URL for one message.
func BuildURL(settings *model.EmailSettings, email model.Email) (string, error) {
	if settings.SMTPHost == "" || settings.SMTPPort <= 0 || settings.EmailAddress == "" {
		return "", model.ErrInvalidSettings
	}
	if email.To == "" {
		return "", errors.New("recipient address is required")
	}

	fromName := settings.FromName
	if fromName == "" {
		fromName = DefaultFromName
	}

	q := url.Values{}
	q.Set("auth", "Plain")
	q.Set("fromaddress", settings.EmailAddress)
	q.Set("fromname", fromName)
	q.Set("toaddresses", email.To)
	q.Set("subject", email.Subject)
	q.Set("usehtml", strconv.FormatBool(email.HTML != ""))
	if settings.SMTPPort == 465 {
		q.Set("encryption", "ImplicitTLS")
	}

	u := url.URL{
		Scheme:   "smtp",
		User:     url.UserPassword(settings.EmailAddress, settings.AppPassword),
		Host:     net.JoinHostPort(settings.SMTPHost, strconv.Itoa(settings.SMTPPort)),
		Path:     "/",
		RawQuery: q.Encode(),
	}
	return u.String(), nil
}

// sanitize strips the account password from err, which may echo the service URL.
func sanitize(err error, secret string) error {
	msg := err.Error()
	if secret != "" {
		msg = strings.ReplaceAll(msg, secret, "****")
		msg = strings.ReplaceAll(msg, url.QueryEscape(secret), "****")
		msg = strings.ReplaceAll(msg, url.PathEscape(secret), "****")
	}
	return fmt.Errorf("smtp delivery: %s", msg)
}
