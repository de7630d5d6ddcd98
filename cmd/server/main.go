package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/learnhub/api/internal/auth"
	"github.com/learnhub/api/internal/client"
	"github.com/learnhub/api/internal/config"
	"github.com/learnhub/api/internal/events"
	"github.com/learnhub/api/internal/handler"
	"github.com/learnhub/api/internal/middleware"
	"github.com/learnhub/api/internal/repository"
	"github.com/learnhub/api/internal/service"
	ws "github.com/learnhub/api/internal/websocket"
	"github.com/learnhub/api/internal/worker"
	"github.com/learnhub/api/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("redis not available", "error", err)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	// Database
	db, err := repository.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	if cfg.Database.Migrate {
		if err := repository.RunMigrations(ctx, db); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}
	contentRepo := repository.NewContentRepository(db)
	commandRepo := repository.NewCommandRepository(db)
	cleanupRepo := repository.NewCleanupRepository(db)

	// External clients
	storage := newStorageClient(cfg, log)
	transcoder := client.NewTranscoderClient(&cfg.Transcoder)
	if !transcoder.IsConfigured() {
		log.Warn("transcoder not configured, jobs will be mocked")
	}

	// Status fan-out: websocket subscribers and, when enabled, kafka
	hub := ws.NewHub(log)
	go hub.Run(ctx)
	notifiers := service.Notifiers{hub}
	if cfg.Kafka.Enabled() {
		publisher, err := events.NewStatusPublisher(cfg.Kafka.Brokers, cfg.Kafka.StatusTopic, log)
		if err != nil {
			log.Error("failed to create status publisher", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
	}

	// Pipeline
	paths := service.NewPaths(cfg)
	dedup := events.NewRedisDeduper(redisClient, cfg.Pipeline.DedupTTL, log)
	uploadTrigger := service.NewUploadTrigger(contentRepo, transcoder, paths, notifiers, log)
	manualTrigger := service.NewManualTrigger(contentRepo, transcoder, paths, notifiers, log)
	listener := service.NewCompletionListener(contentRepo, paths, dedup, notifiers, log)
	cleanup := service.NewCleanupHandler(storage, cleanupRepo, paths, log)
	contentService := service.NewContentService(contentRepo, storage, cleanup, paths, log)
	commandService := service.NewCommandService(contentRepo, commandRepo, asynqClient, manualTrigger, log)

	dispatcher := events.NewDispatcher(events.Topics{
		Storage:       cfg.Kafka.StorageTopic,
		Records:       cfg.Kafka.RecordTopic,
		Notifications: cfg.Kafka.NotificationTopic,
	}, uploadTrigger, manualTrigger, cleanup, listener, log)

	if cfg.Kafka.Enabled() {
		consumer, err := events.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, []string{
			cfg.Kafka.StorageTopic,
			cfg.Kafka.RecordTopic,
			cfg.Kafka.NotificationTopic,
		})
		if err != nil {
			log.Error("failed to create kafka consumer", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx, dispatcher.Dispatch, log); err != nil {
				log.Error("kafka consumer stopped", "error", err)
			}
		}()
	}

	// Authentication
	var verifier auth.TokenVerifier
	if cfg.Zitadel.Issuer != "" {
		jwks, err := auth.NewJWKSVerifier(ctx, &cfg.Zitadel)
		if err != nil {
			log.Warn("oidc verifier unavailable, legacy tokens only", "error", err)
		} else {
			verifier = jwks
		}
	}
	authn := auth.NewAuthenticator(verifier, cfg.JWT.Secret)

	// Handlers
	validate := validator.New()
	contentHandler := handler.NewContentHandler(contentService, commandService, validate)
	eventsHandler := handler.NewEventsHandler(dispatcher, cfg.Events.PushToken, log)
	authHandler := handler.NewAuthHandler(authn)
	rateLimiter := middleware.NewRateLimiter(redisClient, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    handler.MaxUploadSize + 1024*1024,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/auth/verify", authHandler.Verify)

	// Push deliveries
	pushed := app.Group("/events", eventsHandler.RequireToken())
	pushed.Post("/storage", eventsHandler.Storage)
	pushed.Post("/records", eventsHandler.Records)
	pushed.Post("/notifications", eventsHandler.Notifications)

	// API routes
	authMiddleware := middleware.Authenticate(authn)
	if cfg.Gateway.Enabled {
		authMiddleware = middleware.GatewayAuth()
	}
	api := app.Group("/api", authMiddleware)

	contents := api.Group("/contents")
	contents.Post("/", contentHandler.Create)
	contents.Post("/upload", rateLimiter.UploadLimit(cfg.RateLimit.UploadsPerHour), contentHandler.Upload)
	contents.Get("/:id", contentHandler.Get)
	contents.Delete("/:id", contentHandler.Delete)
	contents.Post("/:id/transcode", rateLimiter.CommandLimit(cfg.RateLimit.CommandsPerHour), contentHandler.Transcode)
	contents.Post("/:id/cancel", rateLimiter.CommandLimit(cfg.RateLimit.CommandsPerHour), contentHandler.Cancel)
	contents.Get("/:id/commands", contentHandler.Commands)
	contents.Get("/:id/source", contentHandler.Source)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if cfg.Gateway.Enabled {
			return c.Next()
		}
		if _, err := authn.Authenticate(c.Query("token")); err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}
		return c.Next()
	})
	app.Get("/ws/contents/:id", websocket.New(func(c *websocket.Conn) {
		hub.HandleConnection(c, c.Params("id"))
	}))

	// Background workers
	go startWorkerServer(ctx, cfg, redisOpt, commandService, cleanup, log)
	go startHealthServer(ctx, cfg.GRPC.Port, log)

	go func() {
		<-ctx.Done()
		log.Info("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("server shutdown error", "error", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	log.Info("server starting", "addr", addr, "env", cfg.Server.Env)
	if err := app.Listen(addr); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// newStorageClient returns nil when no backend is configured. The nil is
// returned as an untyped interface so callers can test it.
func newStorageClient(cfg *config.Config, log *slog.Logger) client.StorageClient {
	switch cfg.Storage.Driver {
	case "minio":
		c, err := client.NewMinioClient(&cfg.Minio)
		if err != nil {
			log.Warn("minio storage unavailable", "error", err)
			return nil
		}
		return c
	case "r2":
		c, err := client.NewR2Client(&cfg.R2)
		if err != nil {
			log.Warn("r2 storage unavailable", "error", err)
			return nil
		}
		return c
	}
	log.Warn("object storage disabled", "driver", cfg.Storage.Driver)
	return nil
}

func startWorkerServer(ctx context.Context, cfg *config.Config, redisOpt asynq.RedisClientOpt, commands *service.CommandService, cleanup *service.CleanupHandler, log *slog.Logger) {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Queues: map[string]int{
			service.QueueTranscode: 6,
			service.QueueCleanup:   1,
		},
		Logger: newAsynqLogger(log),
	})

	commandWorker := worker.NewCommandWorker(commands, log)
	reclaimWorker := worker.NewReclaimWorker(cleanup, cfg.Worker.ReclaimMaxAttempts, log)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeTranscodeCommand, commandWorker.ProcessTask)
	mux.HandleFunc(service.TaskTypeCleanupReclaim, reclaimWorker.ProcessTask)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: newAsynqLogger(log)})
	if _, err := worker.Schedule(scheduler, cfg.Worker.ReclaimInterval); err != nil {
		log.Error("failed to schedule reclaim sweep", "error", err)
	} else if err := scheduler.Start(); err != nil {
		log.Error("asynq scheduler error", "error", err)
	}

	if err := srv.Start(mux); err != nil {
		log.Error("asynq worker error", "error", err)
		return
	}
	<-ctx.Done()
	scheduler.Shutdown()
	srv.Shutdown()
}

func startHealthServer(ctx context.Context, port string, log *slog.Logger) {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		log.Error("grpc health listener failed", "port", port, "error", err)
		return
	}
	srv := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(srv, hs)

	go func() {
		<-ctx.Done()
		hs.Shutdown()
		srv.GracefulStop()
	}()

	log.Info("grpc health server starting", "port", port)
	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		log.Error("grpc health server error", "error", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, code, response.CodeServiceError, message, nil)
}
