package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/riftarena/arena-system/brackets"
	"github.com/riftarena/arena-system/config"
	"github.com/riftarena/arena-system/db"
	"github.com/riftarena/arena-system/handlers"
	"github.com/riftarena/arena-system/repositories"
	api "github.com/riftarena/arena-system/routes"
	"github.com/riftarena/arena-system/services"
	"github.com/riftarena/arena-system/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("evidence storage not configured, only external evidence URLs will be accepted")
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	logger.Info("websocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	escrowRepo := repositories.NewPostgresEscrowRepository(dbConn)
	transactionRepo := repositories.NewPostgresTransactionRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	storeRepo := repositories.NewPostgresStoreRepository(dbConn)
	txRunner := repositories.NewSQLTxRunner(dbConn)
	logger.Info("repositories initialized")

	publisher := services.NewHubPublisher(wsHub)

	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey, cfg.TokenTTL, cfg.StartingPoints)
	ledger := services.NewWagerLedger(txRunner, userRepo, escrowRepo, transactionRepo, publisher)
	lobbyService := services.NewLobbyService(txRunner, gameRepo, ledger, publisher)

	// Tournament and bracket services share one lock set so registration
	// and generation serialize on the same tournament.
	tournamentLocks := services.NewEntityLocks()
	generator := brackets.NewSingleElimination()
	tournamentService := services.NewTournamentService(txRunner, tournamentRepo, registrationRepo, matchRepo, tournamentLocks)
	bracketService := services.NewBracketService(txRunner, tournamentRepo, registrationRepo, matchRepo, generator, publisher, tournamentLocks)
	matchService := services.NewMatchService(txRunner, matchRepo, registrationRepo, bracketService, logger)

	storeService := services.NewStoreService(txRunner, storeRepo, ledger, publisher)
	adminService := services.NewAdminService(txRunner, userRepo, gameRepo, ledger, lobbyService, publisher)
	logger.Info("services initialized")

	sweeper := services.NewExpirySweeper(gameRepo, lobbyService, cfg.GameMaxAge, cfg.SweepInterval, logger)
	if err := sweeper.Start(); err != nil {
		logger.Error("failed to start expiry sweeper", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sweeper.Stop(); err != nil {
			logger.Error("failed to stop expiry sweeper", slog.Any("error", err))
		}
	}()

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userRepo, ledger)
	gameHandler := handlers.NewGameHandler(lobbyService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, bracketService)
	matchHandler := handlers.NewMatchHandler(matchService, uploader)
	storeHandler := handlers.NewStoreHandler(storeService)
	adminHandler := handlers.NewAdminHandler(adminService, storeService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authService,
		cfg.CORSAllowedOrigins,
		authHandler,
		userHandler,
		gameHandler,
		tournamentHandler,
		matchHandler,
		storeHandler,
		adminHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
