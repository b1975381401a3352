package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pcadash/app"
	"pcadash/internal/config"
	"pcadash/internal/logging"
	"pcadash/internal/metrics"
	"pcadash/internal/session"
	"pcadash/ui"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.Setup(appConfig.Logging, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Results and limits are mandatory; the dashboard does not start without them
	sess, err := session.Load(ctx, appConfig.Paths, logger)
	if err != nil {
		logger.Error("failed to load dashboard inputs", slog.String("error", err.Error()))
		os.Exit(1)
	}

	recorder := metrics.NewRecorder()
	service := app.NewInsightsService(sess, recorder, logger)
	dashboard, err := ui.NewApp(service, recorder, logger)
	if err != nil {
		logger.Error("failed to initialize dashboard", slog.String("error", err.Error()))
		os.Exit(1)
	}

	server := dashboard.Server(appConfig.Server.Port)
	go func() {
		logger.Info("starting dashboard", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("dashboard server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("dashboard shutdown failed", slog.String("error", err.Error()))
	}
	logger.Info("dashboard stopped")
}
