package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"snapfeed/internal/config"
	"snapfeed/internal/db"
	"snapfeed/internal/filestore"
	"snapfeed/internal/handler"
	"snapfeed/internal/job"
	"snapfeed/internal/notify"
	"snapfeed/internal/repo"
	"snapfeed/internal/schedule"
	"snapfeed/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "snapfeed",
		Short: "snapfeed backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run snapfeed server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
	)

	userRepo := repo.NewUserRepo(conn)
	postRepo := repo.NewPostRepo(conn)
	uploadRepo := repo.NewUploadRepo(conn)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The change notifier is built exactly once and injected everywhere;
	// the hub must be running before the first request is accepted.
	hub := notify.New(cfg.CORSOrigins)
	go hub.Run(ctx)

	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	uploadService := service.NewUploadService(uploadRepo, store)
	postService := service.NewPostService(postRepo, userRepo, uploadRepo, store, hub, cfg.PageSize)

	scheduler := schedule.NewCronScheduler()
	cleanup := job.NewUploadCleanupJob(uploadService, time.Hour*time.Duration(cfg.Cleanup.UploadTTLHours))
	if err := scheduler.AddJob(cleanup, cfg.Cleanup.Spec); err != nil {
		return fmt.Errorf("schedule cleanup job: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	router := handler.NewRouter(handler.RouterDeps{
		Auth:        handler.NewAuthHandler(authService),
		Posts:       handler.NewPostHandler(postService, uploadService, store),
		Files:       handler.NewFileHandler(store),
		Notifier:    hub,
		JWTSecret:   []byte(cfg.JWTSecret),
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler: router,
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", server.Addr))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
