package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"saarthi-chat/internal/bootstrap"
	"saarthi-chat/internal/config"
	apihttp "saarthi-chat/internal/http"
	"saarthi-chat/internal/metrics"
	"saarthi-chat/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	fbApp, err := bootstrap.FirebaseApp(ctx, cfg)
	if err != nil {
		logger.Fatal("firebase init", zap.Error(err))
	}

	stores, err := bootstrap.OpenStores(ctx, cfg, fbApp, logger)
	if err != nil {
		logger.Fatal("store connect", zap.Error(err))
	}
	defer stores.Close()

	blobs, closeBlobs, err := bootstrap.ObjectStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage connect", zap.Error(err))
	}
	defer closeBlobs()

	router, objectGen, err := bootstrap.Providers(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("llm providers", zap.Error(err))
	}
	searchTool, err := bootstrap.SearchTool(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("web search", zap.Error(err))
	}

	chatMetrics := metrics.NewChat(prometheus.DefaultRegisterer)

	var (
		tokenStore service.RefreshTokenStore
		limiter    service.RateLimiter
		locker     service.TurnLocker
	)
	if redisClient := bootstrap.Redis(ctx, cfg, logger); redisClient != nil {
		defer redisClient.Close()
		tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		limiter = service.NewRedisRateLimiter(redisClient, time.Minute, cfg.ChatRatePerMinute)
		locker = service.NewRedisTurnLocker(redisClient, 5*time.Minute, logger)
	} else {
		limiter = service.NewMemoryRateLimiter(cfg.ChatRatePerMinute, cfg.ChatRateBurst)
	}

	userSvc := service.NewUserService(logger, stores.Users)
	threadSvc := service.NewThreadService(logger, stores.Threads, blobs)
	completionSvc := service.NewCompletionService(logger, router, searchTool, chatMetrics)
	suggestionSvc := service.NewSuggestionService(logger, objectGen, cfg.SuggestionModel, chatMetrics)
	attachmentSvc := service.NewAttachmentService(logger, blobs, chatMetrics)
	turnSvc := service.NewTurnService(logger, threadSvc, completionSvc, suggestionSvc, userSvc, service.NewTurnTracker(), chatMetrics).
		WithLimiter(limiter).
		WithLocker(locker)

	var (
		verifier service.IdentityVerifier
		jwtSvc   *service.JWTService
	)
	if cfg.UsesFirebaseAuth() {
		authClient, err := fbApp.Auth(ctx)
		if err != nil {
			logger.Fatal("firebase auth", zap.Error(err))
		}
		verifier = service.NewFirebaseVerifier(authClient)
		logger.Info("verifying firebase id tokens", zap.String("project_id", cfg.FirebaseProjectID))
	} else {
		jwtSvc = service.NewJWTServiceWithStore(
			cfg.JWTSecret,
			time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
			time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
			tokenStore,
		)
		if cfg.JWTSecret == "" {
			logger.Warn("jwt secret not configured")
		}
		verifier = jwtSvc
	}

	engine := apihttp.NewRouter(
		logger,
		verifier,
		apihttp.NewUserHandler(logger, userSvc, jwtSvc),
		apihttp.NewChatHandler(logger, completionSvc, suggestionSvc, turnSvc, threadSvc),
		apihttp.NewThreadHandler(logger, threadSvc, cfg.PublicOrigin),
		apihttp.NewAttachmentHandler(logger, attachmentSvc),
		promhttp.Handler(),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("store", cfg.StoreBackend))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
