package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/community-portal-api/internal/config"
	"github.com/noah-isme/community-portal-api/internal/database"
	"github.com/noah-isme/community-portal-api/internal/handler"
	"github.com/noah-isme/community-portal-api/internal/middleware"
	"github.com/noah-isme/community-portal-api/internal/repository"
	"github.com/noah-isme/community-portal-api/internal/router"
	"github.com/noah-isme/community-portal-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis disabled, caches and cross-node relay over redis are off")
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	moderationRepo := repository.NewModerationRepository(db)
	contentRepo := repository.NewContentRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	adRepo := repository.NewAdRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	activityService := service.NewActivityService(activityRepo, validate, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.EventsChannel, natsConn, validate, logger)
	moderationFeed := service.NewModerationFeed(redisClient, cfg.EventsChannel, natsConn, logger)
	summaryService := service.NewModerationSummaryService(moderationRepo, redisClient, cfg.ModerationSummaryTTL, logger)
	contentService := service.NewContentService(contentRepo, redisClient, cfg.ListingCacheTTL, summaryService, validate, logger)
	moderationService := service.NewModerationService(moderationRepo, service.ModerationHooks{
		Activity:      activityService,
		Notifications: notificationService,
		Feed:          moderationFeed,
		Caches:        []service.CacheInvalidator{summaryService, contentService},
	}, cfg.ModerationMaxRetries, logger)
	queryService := service.NewModerationQueryService(moderationRepo, logger)
	commentService := service.NewCommentService(contentRepo, commentRepo, notificationService, validate, logger)
	adService := service.NewAdBookingService(adRepo, activityService, validate, logger)

	consumerCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()
	notificationService.Start(consumerCtx)
	moderationFeed.Start(consumerCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		Health:                 handler.HealthDependencies{DB: db, Redis: redisClient},
		AdminModerationHandler: handler.NewAdminModerationHandler(moderationService, queryService, summaryService, logger),
		ModerationFeedHandler:  handler.NewModerationFeedHandler(moderationFeed, cfg.SSEKeepAlive, logger),
		AdminActivityHandler:   handler.NewAdminActivityHandler(activityService, logger),
		AdHandler:              handler.NewAdHandler(adService, logger),
		ContentHandler:         handler.NewContentHandler(contentService, moderationService, logger),
		CommentHandler:         handler.NewCommentHandler(commentService, logger),
		NotificationHandler:    handler.NewNotificationHandler(notificationService, logger, cfg.SSEKeepAlive),
		JWTMiddleware:          middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopConsumers)
}

func waitForShutdown(app *fiber.App, stopConsumers context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopConsumers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
