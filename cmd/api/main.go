package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"campusaid/internal/adapter/api"
	"campusaid/internal/adapter/api/handler"
	apimiddleware "campusaid/internal/adapter/api/middleware"
	"campusaid/internal/adapter/api/router"
	"campusaid/internal/adapter/repository"
	"campusaid/internal/infrastructure/firebase"
	"campusaid/internal/infrastructure/ratelimit"
	"campusaid/internal/infrastructure/storage"
	"campusaid/internal/infrastructure/websocket"
	"campusaid/internal/usecase"
	"campusaid/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opt option.ClientOption
	if cfg.ServiceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))
	} else {
		if _, err := os.Stat(cfg.ServiceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", cfg.ServiceAccountPath)
		}
		log.Printf("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
		opt = option.WithCredentialsFile(cfg.ServiceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	requestRepo := repository.NewFirestoreHelpRequestRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	limiter := ratelimit.NewRateLimiter(ratelimit.DefaultPolicies(cfg.SendRatePerMinute, cfg.APIRatePerMinute))
	limiter.StartCleanupRoutine(ctx)

	wsManager := websocket.NewManager(cfg.WSPingInterval)
	wsManager.Start(ctx)

	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, limiter)
	helpRequestUseCase := usecase.NewHelpRequestUseCase(requestRepo, chatRepo, userRepo, storageClient, limiter)
	authUseCase := usecase.NewAuthUseCase(userRepo, firebaseAuthClient, wsManager, cfg.AllowedEmailDomain)

	handler.Setup(authUseCase, helpRequestUseCase, chatUseCase)
	handler.SetupHealthHandler()

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient)
	wsHandler := handler.NewWebSocketHandler(wsManager, firebaseAuthClient, chatUseCase, cfg.WSAllowAnyOrigin)

	router.Setup(e, authMiddleware, limiter, wsHandler)

	go func() {
		log.Printf("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
