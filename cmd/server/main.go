package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"coachgest-backend/internal/access"
	"coachgest-backend/internal/api"
	"coachgest-backend/internal/config"
	"coachgest-backend/internal/core"
	"coachgest-backend/internal/crypto"
	"coachgest-backend/internal/db"
	"coachgest-backend/internal/events"
	"coachgest-backend/internal/firebase"
	"coachgest-backend/internal/identity"
	"coachgest-backend/internal/logger"
	"coachgest-backend/internal/middleware"
	"coachgest-backend/internal/stripeconnect"
	"coachgest-backend/pkg/cache"
	"coachgest-backend/pkg/messagequeue"
)

func main() {
	// Load .env file. In production, environment variables should be set directly.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}

	// --- 1. Configuration and logger ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	ctx := context.Background()

	// --- 2. Firebase (Firestore + Auth) ---
	fb, err := firebase.NewClients(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Error initializing Firebase", zap.Error(err))
	}
	defer func() { _ = fb.Close() }()

	idp, err := identity.NewFirebaseProvider(ctx, fb.Auth, cfg.FirebaseWebAPIKey, appLogger)
	if err != nil {
		appLogger.Fatal("Error initializing identity provider", zap.Error(err))
	}

	// --- 3. Redis cache ---
	redisCache, err := cache.NewRedisCache(ctx, cache.NewRedisCacheConfig{
		Address:  cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   cfg.RedisPrefix,
	})
	if err != nil {
		appLogger.Fatal("Error connecting to Redis", zap.Error(err))
	}
	defer func() { _ = redisCache.Close() }()

	// --- 4. Event bus ---
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		mq, err := messagequeue.NewRabbitMQPublisher(messagequeue.RabbitMQConfig{
			URL:      cfg.RabbitMQURL,
			Exchange: cfg.EventsExchange,
		})
		if err != nil {
			appLogger.Fatal("Error connecting to RabbitMQ", zap.Error(err))
		}
		defer func() { _ = mq.Close() }()
		publisher = events.NewBusPublisher(mq, appLogger)
	} else {
		appLogger.Warn("RABBITMQ_URL not set, domain events are discarded")
	}

	// --- 5. Crypto and Stripe Connect client ---
	key, err := cfg.DecodedEncryptionKey()
	if err != nil {
		appLogger.Fatal("Invalid encryption key", zap.Error(err))
	}
	cipher, err := crypto.NewCipher(key)
	if err != nil {
		appLogger.Fatal("Error initializing cipher", zap.Error(err))
	}
	stripeClient := stripeconnect.New(stripeconnect.DefaultConfig(cfg.StripeSecretKey), appLogger)

	// --- 6. Repositories and services ---
	userRepo := db.NewFirestoreUserRepository(fb.Firestore)
	subscriptionRepo := db.NewFirestoreSubscriptionRepository(fb.Firestore)
	transactionRepo := db.NewFirestoreTransactionRepository(fb.Firestore)
	configRepo := db.NewFirestoreConfigRepository(fb.Firestore)

	catalogService := core.NewCatalogService(configRepo, redisCache, cfg.CatalogCacheTTL, appLogger)
	sessionService := core.NewSessionService(idp, userRepo, appLogger)
	authService := core.NewAuthService(idp, userRepo, subscriptionRepo, catalogService, publisher, appLogger)
	subscriptionService := core.NewSubscriptionService(subscriptionRepo, userRepo, transactionRepo, catalogService, publisher, appLogger)
	coachService := core.NewCoachService(userRepo, subscriptionRepo, catalogService, appLogger)
	teamService := core.NewTeamService(idp, userRepo, subscriptionRepo, publisher, appLogger)
	profileService := core.NewProfileService(idp, userRepo, appLogger)
	stripeService := core.NewStripeService(configRepo, redisCache, stripeClient, cipher, publisher, core.StripeServiceConfig{
		ClientOrigin: cfg.ClientOrigin(),
		StateTTL:     cfg.StripeStateTTL,
	}, appLogger)

	navigation, err := access.DefaultNavigation()
	if err != nil {
		appLogger.Fatal("Error loading navigation menus", zap.Error(err))
	}

	// --- 7. HTTP server ---
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(appLogger))
	router.Use(middleware.RequestLogger(appLogger))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORSMiddleware(cfg.ClientOrigin()))
	router.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	api.SetupRoutes(router, api.Handlers{
		Auth:       api.NewAuthHandler(authService, navigation, appLogger),
		Navigation: api.NewNavigationHandler(navigation),
		Admin:      api.NewAdminHandler(coachService, subscriptionService, catalogService, appLogger),
		Stripe:     api.NewStripeHandler(stripeService, appLogger),
		Coach:      api.NewCoachHandler(teamService, subscriptionService, appLogger),
		Profile:    api.NewProfileHandler(profileService, appLogger),
		Member:     api.NewMemberHandler(teamService, appLogger),
	}, middleware.NewAuthMiddleware(sessionService, appLogger), redisCache, appLogger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server starting", zap.String("port", cfg.Port), zap.String("mode", gin.Mode()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	// --- 8. Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exiting")
}
