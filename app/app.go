package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Uz11ps/bototelgara/app/controller"
	"github.com/Uz11ps/bototelgara/app/middleware"
	"github.com/Uz11ps/bototelgara/app/router"
	"github.com/Uz11ps/bototelgara/config"
	"github.com/Uz11ps/bototelgara/db"
	"github.com/Uz11ps/bototelgara/order"
	"github.com/Uz11ps/bototelgara/repository"
	"github.com/Uz11ps/bototelgara/service"
)

// cleanupInterval is how often expired sessions and drafts are removed
const cleanupInterval = 10 * time.Minute

// App is the wired gateway: the HTTP handler plus its background pollers
type App struct {
	Handler http.Handler

	pollers  []*service.Poller
	notifier service.OrderNotifier
	logger   *logrus.Logger
}

// Initialize initializes the application
func Initialize(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	backend := service.NewBackendClient(cfg.BackendURL, cfg.BackendTimeout, logger)

	// Sessions live in Postgres when configured, in memory otherwise
	var sessionRepo repository.SessionRepositoryInterface
	if cfg.DatabaseURL != "" {
		if err := db.InitDB(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		sessionRepo = repository.NewSessionRepository(db.DB, logger)
		logger.Info("sessions stored in PostgreSQL")
	} else {
		sessionRepo = repository.NewMemorySessionRepository()
		logger.Warn("DATABASE_URL not set, sessions are kept in memory")
	}

	var notifier service.OrderNotifier = service.NopNotifier{}
	if cfg.RabbitMQURL != "" {
		rabbit, err := service.NewRabbitNotifier(cfg.RabbitMQURL, logger)
		if err != nil {
			return nil, err
		}
		notifier = rabbit
		logger.WithField("exchange", service.OrdersExchange).Info("order events published to RabbitMQ")
	}

	menu := service.NewMenuService(backend, logger)
	if err := menu.Refresh(ctx); err != nil {
		// The poller keeps retrying; guests see an empty menu until then.
		logger.WithError(err).Warn("initial menu load failed")
	}

	sessions := service.NewSessionService(sessionRepo, menu, order.NewAssembler(backend), notifier, cfg.SessionTTL, logger)
	drafts := service.NewCompositionDraftService(backend, backend, menu, cfg.SessionTTL, logger)

	images := service.NewImageService(menu, backend, filepath.Join("cache", "images"), logger)
	if err := images.EnsureCacheDir(); err != nil {
		return nil, err
	}
	pdf := service.NewMenuPDFService(menu, filepath.Join("templates", "menu.html"), cfg.PublicURL, cfg.ChromePath, logger)

	var photoSync service.PhotoSyncServiceInterface
	if cfg.GoogleCredentialsPath != "" {
		driveService, err := service.NewDriveService(ctx, cfg.GoogleCredentialsPath, logger)
		if err != nil {
			return nil, err
		}
		photoSync = service.NewPhotoSyncService(driveService, backend, backend, menu, logger)
	} else {
		logger.Warn("GOOGLE_APPLICATION_CREDENTIALS not set, dish photo sync disabled")
	}

	tokens := middleware.NewSessionTokens(cfg.SessionSecret, cfg.SessionTTL)
	adminAuth := middleware.NewInitDataVerifier(cfg.TelegramBotToken, cfg.AdminAuthMaxAge)
	controllers := &router.Controllers{
		Session:     controller.NewSessionController(sessions, tokens, logger),
		Cart:        controller.NewCartController(sessions, logger),
		Menu:        controller.NewMenuController(menu, images, pdf, logger),
		Composition: controller.NewCompositionController(drafts, logger),
		Admin:       controller.NewAdminController(pdf, photoSync, images, logger),
	}

	return &App{
		Handler: router.NewRouter(controllers, tokens, adminAuth, backend, logger),
		pollers: []*service.Poller{
			menu.Poller(cfg.MenuRefreshInterval),
			sessions.CleanupPoller(cleanupInterval),
			service.NewPoller("draft-cleanup", cleanupInterval, func(ctx context.Context) error {
				_, err := drafts.CleanupExpired(ctx)
				return err
			}, logger),
		},
		notifier: notifier,
		logger:   logger,
	}, nil
}

// Start runs the background pollers until ctx is done. The returned
// function stops them and waits for them to exit.
func (a *App) Start(ctx context.Context) (stop func()) {
	stops := make([]func(), 0, len(a.pollers))
	for _, p := range a.pollers {
		stops = append(stops, p.Start(ctx))
	}
	return func() {
		for _, s := range stops {
			s()
		}
	}
}

// Close releases the message broker and database connections
func (a *App) Close() {
	if err := a.notifier.Close(); err != nil {
		a.logger.WithError(err).Warn("failed to close order notifier")
	}
	if err := db.CloseDB(); err != nil {
		a.logger.WithError(err).Warn("failed to close database")
	}
}
