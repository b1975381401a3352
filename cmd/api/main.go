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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"pcadash/adapters/api"
	"pcadash/app"
	"pcadash/internal/config"
	"pcadash/internal/logging"
	"pcadash/internal/metrics"
	"pcadash/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.Setup(appConfig.Logging, os.Stderr)
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := session.Load(ctx, appConfig.Paths, logger)
	if err != nil {
		logger.Error("failed to load inputs", slog.String("error", err.Error()))
		os.Exit(1)
	}

	recorder := metrics.NewRecorder()
	server := api.NewServer(app.NewInsightsService(sess, recorder, logger), recorder, logger).
		HTTPServer(appConfig.Server.APIPort)

	go func() {
		logger.Info("starting API server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("API server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("API shutdown failed", slog.String("error", err.Error()))
	}
}
