package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/labelquote/internal/config"
	"github.com/Simplici0/labelquote/internal/db"
	"github.com/Simplici0/labelquote/internal/migrations"
	"github.com/Simplici0/labelquote/internal/observability"
	"github.com/Simplici0/labelquote/internal/quote"
	"github.com/Simplici0/labelquote/internal/seed"
	"github.com/Simplici0/labelquote/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("server exited", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run serves until ctx is cancelled. Every resource it opens is released
// before it returns.
func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := migrations.Up(ctx, database); err != nil {
		return err
	}
	stats, err := seed.Run(ctx, database)
	if err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}
	logger.Info("database ready", zap.String("path", cfg.DBPath), zap.Int("seeded", stats.Inserts))

	if cfg.AdminKey == "" {
		logger.Warn("LABELS_ADMIN_KEY is not set", zap.Bool("writes_open", cfg.IsDev()))
	}

	st := store.New(database)
	srv := &server{
		quotes:   quote.NewService(st, st, cfg.Press.Constraints(), logger),
		store:    st,
		admin:    newAdminGuard(cfg.AdminKey, cfg.IsDev()),
		logger:   logger,
		validate: newValidator(),
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", httpServer.Addr))
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	<-shutdownDone
	return nil
}
