package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskhub/internal/config"
	"github.com/yukikurage/taskhub/internal/database"
	"github.com/yukikurage/taskhub/internal/logger"
	"github.com/yukikurage/taskhub/internal/mail"
	"github.com/yukikurage/taskhub/internal/middleware"
	"github.com/yukikurage/taskhub/internal/repository"
	"github.com/yukikurage/taskhub/internal/server"
	"github.com/yukikurage/taskhub/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Init(cfg.Log)

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.Fatal("failed to run migrations", "error", err)
	}
	db := database.GetDB()

	store, err := server.NewSessionStore(cfg)
	if err != nil {
		logger.Fatal("failed to create session store", "error", err)
	}

	limiter := middleware.NewRateLimiter(cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	defer limiter.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	timeLogRepo := repository.NewTimeLogRepository(db)

	// AI drafting is optional
	var drafter services.TaskDrafter
	if cfg.OpenAIAPIKey != "" {
		drafter = services.NewAIService(cfg.OpenAIAPIKey)
	} else {
		logger.Info("OPENAI_API_KEY not set, task drafting disabled")
	}

	invites := services.NewInviteTokens(cfg.Invite)

	// Services
	authService := services.NewAuthService(userRepo, projectRepo, invites)
	projectService := services.NewProjectService(projectRepo, taskRepo, userRepo, mail.New(cfg.Mail), invites, services.ProjectOptions{
		BaseURL:      cfg.Server.BaseURL,
		FailSilently: cfg.Mail.FailSilently,
	})
	taskService := services.NewTaskService(taskRepo, projectRepo, commentRepo, timeLogRepo, drafter)
	timerService := services.NewTimerService(taskRepo, projectRepo, timeLogRepo, nil, cfg.Timer.SingleOpenLog)

	r := server.New(server.Deps{
		Config:       cfg,
		DB:           db,
		SessionStore: store,
		RateLimiter:  limiter,
		Auth:         authService,
		Projects:     projectService,
		Tasks:        taskService,
		Timers:       timerService,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("server exited")
}
