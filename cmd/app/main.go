package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-board/internal/auth"
	"github.com/BuzzLyutic/kanban-board/internal/config"
	"github.com/BuzzLyutic/kanban-board/internal/handler"
	"github.com/BuzzLyutic/kanban-board/internal/logging"
	"github.com/BuzzLyutic/kanban-board/internal/repo"
	"github.com/BuzzLyutic/kanban-board/internal/repo/cache"
	"github.com/BuzzLyutic/kanban-board/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:          "app",
		Short:        "Task API server",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cfgPath)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", os.Getenv("KANBAN_CONFIG"), "TOML config file")
	return cmd
}

func run(ctx context.Context, cfgPath string) error {
	// Загрузка конфигурации
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	// Подключаем логгер
	logger, err := logging.New(cfg.LogLevel, false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Подключаем БД
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to Database", zap.Error(err))
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("Failed to ping the Database", zap.Error(err))
		return err
	}
	logger.Info("Successfully connected to the Database!")

	var store repo.TaskStore = repo.NewTaskRepo(pool)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		store = cache.New(store, rdb, cfg.CacheTTL, logger)
		logger.Info("Task cache enabled", zap.Duration("ttl", cfg.CacheTTL))
	}

	var verifier *auth.Verifier
	if cfg.JWTSecret != "" {
		verifier = auth.NewVerifier(cfg.JWTSecret)
	} else {
		logger.Warn("JWT_SECRET is not set, task routes are open")
	}

	taskHandler := handler.NewTaskHandler(service.NewTaskService(store, logger), logger)

	srv := http.Server{ // Создаем сервер
		Addr:         ":" + cfg.Port,
		Handler:      handler.NewRouter(taskHandler, verifier, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	select {
	case err := <-serveErr:
		logger.Error("Server failed", zap.Error(err))
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
		return err
	}
	logger.Info("Server stopped successfully!")
	return nil
}
