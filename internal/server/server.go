// Package server assembles the HTTP application from its modules.
package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accessHandler "github.com/festy23/reviewdesk/internal/access/handler"
	accessMiddleware "github.com/festy23/reviewdesk/internal/access/middleware"
	accessRepository "github.com/festy23/reviewdesk/internal/access/repository"
	accessRouter "github.com/festy23/reviewdesk/internal/access/router"
	accessService "github.com/festy23/reviewdesk/internal/access/service"
	appConfig "github.com/festy23/reviewdesk/internal/config"
	dashboardHandler "github.com/festy23/reviewdesk/internal/dashboard/handler"
	dashboardRepository "github.com/festy23/reviewdesk/internal/dashboard/repository"
	dashboardRouter "github.com/festy23/reviewdesk/internal/dashboard/router"
	dashboardService "github.com/festy23/reviewdesk/internal/dashboard/service"
	dispatchHandler "github.com/festy23/reviewdesk/internal/dispatch/handler"
	"github.com/festy23/reviewdesk/internal/dispatch/metrics"
	"github.com/festy23/reviewdesk/internal/dispatch/queue"
	dispatchRepository "github.com/festy23/reviewdesk/internal/dispatch/repository"
	dispatchRouter "github.com/festy23/reviewdesk/internal/dispatch/router"
	dispatchService "github.com/festy23/reviewdesk/internal/dispatch/service"
	"github.com/festy23/reviewdesk/internal/dispatch/transport"
	emailUsageRepository "github.com/festy23/reviewdesk/internal/emailusage/repository"
	emailUsageService "github.com/festy23/reviewdesk/internal/emailusage/service"
	"github.com/festy23/reviewdesk/internal/health"
	magicLinkHandler "github.com/festy23/reviewdesk/internal/magiclink/handler"
	magicLinkRepository "github.com/festy23/reviewdesk/internal/magiclink/repository"
	magicLinkRouter "github.com/festy23/reviewdesk/internal/magiclink/router"
	magicLinkService "github.com/festy23/reviewdesk/internal/magiclink/service"
	"github.com/festy23/reviewdesk/internal/middleware"
	notificationHandler "github.com/festy23/reviewdesk/internal/notification/handler"
	notificationRepository "github.com/festy23/reviewdesk/internal/notification/repository"
	notificationRouter "github.com/festy23/reviewdesk/internal/notification/router"
	notificationService "github.com/festy23/reviewdesk/internal/notification/service"
	reviewHandler "github.com/festy23/reviewdesk/internal/review/handler"
	reviewModel "github.com/festy23/reviewdesk/internal/review/model"
	reviewRepository "github.com/festy23/reviewdesk/internal/review/repository"
	reviewRouter "github.com/festy23/reviewdesk/internal/review/router"
	reviewService "github.com/festy23/reviewdesk/internal/review/service"
	userHandler "github.com/festy23/reviewdesk/internal/user/handler"
	userRepository "github.com/festy23/reviewdesk/internal/user/repository"
	userRouter "github.com/festy23/reviewdesk/internal/user/router"
	userService "github.com/festy23/reviewdesk/internal/user/service"
)

// Server is the assembled application.
type Server struct {
	Engine *gin.Engine
	// Queue delivers notification emails in the background. It must be shut
	// down after the HTTP listener stops accepting requests.
	Queue *queue.Queue

	sessions accessService.Service
	logger   *zap.SugaredLogger
}

type options struct {
	transport  transport.Transport
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	userOpts   []userService.Option
}

// Option customizes server assembly.
type Option func(*options)

// WithTransport replaces the SMTP transport.
func WithTransport(t transport.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithRegistry registers metrics on reg instead of the default registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registerer = reg
		o.gatherer = reg
	}
}

// WithUserOptions passes options to the member service.
func WithUserOptions(opts ...userService.Option) Option {
	return func(o *options) { o.userOpts = append(o.userOpts, opts...) }
}

// New wires repositories, services and routes on top of db. The returned
// server owns a running dispatch queue.
func New(cfg appConfig.Config, db *gorm.DB, logger *zap.SugaredLogger, opts ...Option) (*Server, error) {
	o := &options{
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.transport == nil {
		o.transport = transport.NewSMTP(cfg.Dispatch.SendTimeout, cfg.Dispatch.RetryAttempts, logger)
	}

	httpMetrics, err := middleware.NewHTTPMetrics(o.registerer)
	if err != nil {
		return nil, err
	}
	dispatchMetrics, err := metrics.New(o.registerer)
	if err != nil {
		return nil, err
	}

	// Repositories
	userRepo := userRepository.New(db, logger)
	sessionRepo := accessRepository.New(db, logger)
	linkRepo := magicLinkRepository.New(db, logger)
	notificationRepo := notificationRepository.New(db, logger)
	settingsRepo := dispatchRepository.New(db, logger)
	usageRepo := emailUsageRepository.New(db, logger)
	reviewRepo := reviewRepository.New(db, logger)
	dashboardRepo := dashboardRepository.New(db, logger)

	// Services
	users := userService.New(userRepo, logger, o.userOpts...)
	sessions := accessService.New(sessionRepo, users, cfg.App.SessionTTL, logger)
	links := magicLinkService.New(linkRepo, db, sessions, cfg.App.BaseURL, cfg.App.MagicSessionTTL, logger)
	ledger := emailUsageService.New(usageRepo, cfg.App.EmailMonthlyLimit, logger)
	dispatcher := dispatchService.New(dispatchService.Deps{
		Settings:      settingsRepo,
		Ledger:        ledger,
		Transport:     o.transport,
		Notifications: notificationRepo,
		Links:         links,
		Metrics:       dispatchMetrics,
	}, dispatchService.Options{
		BaseURL:          cfg.App.BaseURL,
		MagicLinkTTLDays: cfg.App.MagicLinkTTLDays,
		SettingsCacheTTL: cfg.Dispatch.SettingsCacheTTL,
	}, logger)

	q := queue.New(queue.Config{
		Workers:    cfg.Dispatch.Workers,
		BufferSize: cfg.Dispatch.BufferSize,
	}, dispatcher.Handle, dispatchMetrics, logger)

	reviews := reviewService.New(db, reviewService.Deps{
		Reviews:       reviewRepo,
		Notifications: notificationRepo,
		Members:       users,
		Publisher:     q,
	}, reviewService.Options{
		BaseURL:       cfg.App.BaseURL,
		GuestApproval: reviewModel.GuestApprovalPolicy(cfg.App.GuestApprovalPolicy),
	}, logger)
	notifications := notificationService.New(notificationRepo, logger)
	dashboard := dashboardService.New(dashboardRepo, logger)

	// HTTP
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Logger(logger),
		httpMetrics.Middleware(),
	)

	engine.GET("/health", health.New(db, q, logger).Check)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{})))

	api := engine.Group("", accessMiddleware.Authenticate(sessions, logger))
	members := api.Group("", accessMiddleware.RequireMember())
	admins := api.Group("", accessMiddleware.RequireAdmin())

	accessRouter.RegisterRoutes(api, members, accessHandler.New(sessions, cfg.App.CookieSecure, logger))
	magicLinkRouter.RegisterRoutes(api, magicLinkHandler.New(links, cfg.App.CookieSecure, logger))
	userRouter.RegisterRoutes(admins, userHandler.New(users, logger))
	dispatchRouter.RegisterRoutes(admins, dispatchHandler.New(dispatcher, logger))
	notificationRouter.RegisterRoutes(members, notificationHandler.New(notifications, logger))
	dashboardRouter.RegisterRoutes(members, dashboardHandler.New(dashboard, logger))
	reviewRouter.RegisterRoutes(api, members, reviewHandler.New(reviews, logger))

	return &Server{
		Engine:   engine,
		Queue:    q,
		sessions: sessions,
		logger:   logger,
	}, nil
}

// PurgeSessions deletes expired sessions every interval until ctx is done.
func (s *Server) PurgeSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.sessions.PurgeExpired(ctx)
			if err != nil {
				s.logger.Errorw("session purge failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Infow("expired sessions purged", "count", n)
			}
		}
	}
}
