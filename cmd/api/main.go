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

	"github.com/noah-isme/gema-forum-api/internal/config"
	"github.com/noah-isme/gema-forum-api/internal/database"
	"github.com/noah-isme/gema-forum-api/internal/handler"
	"github.com/noah-isme/gema-forum-api/internal/middleware"
	"github.com/noah-isme/gema-forum-api/internal/observability"
	"github.com/noah-isme/gema-forum-api/internal/repository"
	"github.com/noah-isme/gema-forum-api/internal/router"
	"github.com/noah-isme/gema-forum-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	redisClient, err := database.ConnectRedis(rootCtx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis disabled; channel cache, trending board and cross-node live replies are off")
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	threadRepo := repository.NewThreadRepository(db)
	replyRepo := repository.NewReplyRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	userRepo := repository.NewUserRepository(db)

	channelService := service.NewChannelService(channelRepo, redisClient, cfg.ChannelsCacheTTL, logger)
	trendingService := service.NewTrendingService(redisClient, cfg.TrendingLimit, logger)
	replyFeed := service.NewReplyFeed(redisClient, natsConn, cfg.RealtimeChannel, logger)
	threadService := service.NewThreadService(threadRepo, channelRepo, userRepo, trendingService, validate, logger)
	replyService := service.NewReplyService(replyRepo, threadRepo, userRepo, replyFeed, cfg.RepliesPageSize, validate, logger)
	seedService := service.NewSeedService(channelRepo, userRepo, channelService, validate, cfg.SeedEnabled, cfg.SeedToken, logger)

	replyFeed.Start(rootCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ThreadHandler:   handler.NewThreadHandler(threadService, logger),
		ReplyHandler:    handler.NewReplyHandler(replyService, logger),
		ChannelHandler:  handler.NewChannelHandler(channelService, logger),
		TrendingHandler: handler.NewTrendingHandler(trendingService, logger),
		LiveHandler:     handler.NewLiveHandler(threadService, replyFeed, logger),
		SeedHandler:     handler.NewSeedHandler(seedService, logger),
		JWTMiddleware:   middleware.JWTOptional(cfg.JWTSecret),
		ReplyLimiter:    middleware.RateLimit("replies", cfg.RepliesPerMinute, time.Minute),
		MetricsHandler:  observability.MetricsHandler(),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("addr", cfg.HTTPAddress()).Str("env", cfg.AppEnv).Msg("forum api started")

	waitForShutdown(app, cancelRoot)
}

func waitForShutdown(app *fiber.App, cancel context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	cancel()

	ctx, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTimeout()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
