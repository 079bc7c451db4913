package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"lifeline-backend-go/internal/api"
	"lifeline-backend-go/internal/config"
	"lifeline-backend-go/internal/core"
	"lifeline-backend-go/internal/db"
	"lifeline-backend-go/internal/middleware"
	"lifeline-backend-go/pkg/cache"
	"lifeline-backend-go/pkg/messagequeue"
)

func main() {
	// .env is a local development convenience; in deployed environments the
	// variables come from the platform.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	var zapLogger *zap.Logger
	var err error
	if os.Getenv("GIN_MODE") == "release" {
		zapLogger, err = zap.NewProduction()
	} else {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("Failed to load application configuration", zap.Error(err))
	}
	zapLogger.Info("Application configuration loaded")

	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	if err := db.InitFirebase(initCtx, appConfig); err != nil {
		zapLogger.Fatal("Failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	zapLogger.Info("Firebase Admin SDK (Firestore, Auth, Messaging, Storage) initialized")

	firestoreClient := db.GetFirestoreClient()
	if firestoreClient == nil {
		zapLogger.Fatal("Firestore client is nil after initialization")
	}
	if db.GetFirebaseAuthClient() == nil {
		zapLogger.Fatal("Firebase Auth client is nil after initialization")
	}

	// --- Repositories ---
	userRepo := db.NewFirestoreUserRepository(firestoreClient)
	requestRepo := db.NewFirestoreRequestRepository(firestoreClient)
	requestWatcher := db.NewFirestoreRequestWatcher(firestoreClient)
	alertRepo := db.NewFirestoreAlertRepository(firestoreClient)
	pushSender := db.NewFCMPushSender(db.GetMessagingClient())
	audioStore, err := db.NewGCSAudioStore(db.GetStorageClient(), appConfig.StorageBucket)
	if err != nil {
		zapLogger.Fatal("Failed to initialize audio store", zap.Error(err))
	}
	zapLogger.Info("Repositories initialized")

	// --- Optional infrastructure ---
	var tokenCache cache.Cache
	if appConfig.RedisAddress != "" {
		tokenCache, err = cache.NewRedisCache(initCtx, cache.NewRedisCacheConfig{
			Address:  appConfig.RedisAddress,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		})
		if err != nil {
			zapLogger.Warn("Redis unavailable, continuing without device-token cache", zap.Error(err))
			tokenCache = nil
		} else {
			zapLogger.Info("Redis device-token cache enabled", zap.String("address", appConfig.RedisAddress))
		}
	}

	var publisher messagequeue.Publisher
	if appConfig.AMQPURL != "" {
		publisher, err = messagequeue.NewRabbitMQPublisher(messagequeue.NewRabbitMQPublisherConfig{URL: appConfig.AMQPURL})
		if err != nil {
			zapLogger.Warn("RabbitMQ unavailable, continuing without event publishing", zap.Error(err))
			publisher = nil
		} else {
			defer publisher.Close()
			zapLogger.Info("RabbitMQ event publishing enabled", zap.String("queue", appConfig.AMQPQueueName))
		}
	}

	// --- Services ---
	userService := core.NewUserService(userRepo, tokenCache, zapLogger)
	contactService := core.NewContactService(userRepo)
	notificationService := core.NewNotificationService(userRepo, pushSender, requestWatcher, tokenCache, zapLogger)
	requestService := core.NewRequestService(requestRepo, userRepo, notificationService, publisher, appConfig.AMQPQueueName, zapLogger)
	alertService := core.NewAlertService(alertRepo, requestRepo, userRepo, audioStore, notificationService, publisher, appConfig.AMQPQueueName, zapLogger)
	armingService := core.NewArmingService(alertService, time.Duration(appConfig.AlertCountdownSeconds)*time.Second, zapLogger)
	zapLogger.Info("Core services initialized")

	// --- HTTP engine ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig))
		zapLogger.Info("CORS middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS middleware skipped: CLIENT_URL is not configured")
	}

	api.SetupRoutes(
		router,
		zapLogger,
		userService,
		contactService,
		requestService,
		alertService,
		armingService,
		notificationService,
	)

	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	zapLogger.Info("Starting HTTP server", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("HTTP server shutdown failed", zap.Error(err))
	} else {
		zapLogger.Info("HTTP server stopped gracefully")
	}
}
