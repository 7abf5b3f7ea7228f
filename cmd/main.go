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
	"github.com/jonboulle/clockwork"

	"github.com/playverse/playverse-backend/config"
	"github.com/playverse/playverse-backend/db"
	"github.com/playverse/playverse-backend/handlers"
	"github.com/playverse/playverse-backend/live"
	"github.com/playverse/playverse-backend/models"
	"github.com/playverse/playverse-backend/repositories"
	api "github.com/playverse/playverse-backend/routes"
	"github.com/playverse/playverse-backend/services"
	"github.com/playverse/playverse-backend/storage"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
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

	// Инициализация загрузчика файлов (Cloudflare R2)
	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
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

	// Инициализация WebSocket Hub
	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	clock := clockwork.NewRealClock()

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	relationRepo := repositories.NewPostgresRelationRepository(dbConn)
	videoRepo := repositories.NewPostgresVideoRepository(dbConn)
	postRepo := repositories.NewPostgresPostRepository(dbConn)
	commentRepo := repositories.NewPostgresCommentRepository(dbConn)
	profileRepo := repositories.NewPostgresProfileRepository(dbConn)
	logger.Info("repositories initialized")

	// Каскады удаления. Хуки выполняются внутри транзакции удаляющего сервиса
	// в порядке регистрации.
	cleanup := services.NewCleanupRegistry()
	cleanup.Register("video", services.CleanupHook{
		Name: "video_likes",
		Run: func(ctx context.Context, exec repositories.SQLExecutor, videoID int) error {
			return relationRepo.DeleteAllByObject(ctx, exec, models.KindVideoLike, videoID)
		},
	})
	cleanup.Register("video", services.CleanupHook{
		Name: "video_comments",
		Run: func(ctx context.Context, exec repositories.SQLExecutor, videoID int) error {
			return commentRepo.DeleteAllByVideo(ctx, exec, videoID)
		},
	})
	cleanup.Register("tournament", services.CleanupHook{
		Name: "tournament_registrations",
		Run: func(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
			return tournamentRepo.DeleteRegistrations(ctx, exec, tournamentID)
		},
	})
	cleanup.Register("user", services.CleanupHook{
		Name: "user_relations",
		Run: func(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
			if err := relationRepo.DeleteAllBySubject(ctx, exec, userID); err != nil {
				return err
			}
			return relationRepo.DeleteAllByObject(ctx, exec, models.KindFollow, userID)
		},
	})
	cleanup.Register("user", services.CleanupHook{
		Name: "user_comments",
		Run: func(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
			return commentRepo.DeleteAllByOwner(ctx, exec, userID)
		},
	})
	cleanup.Register("user", services.CleanupHook{
		Name: "user_posts",
		Run: func(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
			return postRepo.DeleteAllByOwner(ctx, exec, userID)
		},
	})
	cleanup.Register("user", services.CleanupHook{
		Name: "user_videos",
		Run: func(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
			return videoRepo.DeleteAllByOwner(ctx, exec, userID)
		},
	})
	cleanup.Register("user", services.CleanupHook{
		Name: "user_tournaments",
		Run: func(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
			ids, err := tournamentRepo.ListIDsByOwner(ctx, exec, userID)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if err := tournamentRepo.DeleteRegistrations(ctx, exec, id); err != nil {
					return err
				}
				if err := tournamentRepo.Delete(ctx, exec, id); err != nil {
					return err
				}
			}
			return nil
		},
	})
	cleanup.Register("user", services.CleanupHook{
		Name: "user_tournament_entries",
		Run: func(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
			return tournamentRepo.DetachUser(ctx, exec, userID)
		},
	})
	cleanup.Register("user", services.CleanupHook{
		Name: "user_teams",
		Run: func(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
			return teamRepo.DetachUser(ctx, exec, userID)
		},
	})
	cleanup.Register("user", services.CleanupHook{
		Name: "user_tokens",
		Run: func(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
			return userRepo.DeleteTokens(ctx, exec, userID)
		},
	})

	// Инициализация сервисов
	emailService := services.NewEmailService(services.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	})
	authService := services.NewAuthService(userRepo, emailService, []byte(cfg.JWTSecretKey), 24*time.Hour, cfg.PublicURL, clock, logger)
	userService := services.NewUserService(dbConn, userRepo, uploader, cleanup)
	profileService := services.NewProfileService(userRepo, profileRepo, relationRepo, uploader)
	engagementService := services.NewEngagementService(relationRepo, userRepo, videoRepo, commentRepo, postRepo, uploader)
	teamService := services.NewTeamService(teamRepo, userRepo, uploader)
	gameService := services.NewGameService(gameRepo, uploader)
	tournamentService := services.NewTournamentService(dbConn, tournamentRepo, gameRepo, teamRepo, userRepo, uploader, cleanup, wsHub, clock)
	videoService := services.NewVideoService(dbConn, videoRepo, uploader, cleanup)
	postService := services.NewPostService(postRepo, relationRepo, uploader)
	commentService := services.NewCommentService(commentRepo, videoRepo, relationRepo, uploader)
	logger.Info("services initialized")

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	profileHandler := handlers.NewProfileHandler(profileService)
	engagementHandler := handlers.NewEngagementHandler(engagementService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	teamHandler := handlers.NewTeamHandler(teamService)
	gameHandler := handlers.NewGameHandler(gameService)
	videoHandler := handlers.NewVideoHandler(videoService)
	postHandler := handlers.NewPostHandler(postService)
	commentHandler := handlers.NewCommentHandler(commentService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, tournamentService)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		[]byte(cfg.JWTSecretKey),
		authHandler,
		userHandler,
		profileHandler,
		engagementHandler,
		tournamentHandler,
		teamHandler,
		gameHandler,
		videoHandler,
		postHandler,
		commentHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
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

	// Ожидание сигнала завершения
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
