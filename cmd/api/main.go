package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/acme/interview-callback/internal/api"
	"github.com/acme/interview-callback/internal/api/handlers"
	"github.com/acme/interview-callback/internal/app"
	"github.com/acme/interview-callback/internal/telemetry"
	"github.com/acme/interview-callback/internal/worker/sweeper"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := flag.String("config", getEnv("CONFIG_FILE", "configs/config.yaml"), "path to configuration file")
	flag.Parse()

	container, err := app.Build(ctx, *configPath)
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}
	defer container.Close(context.Background())

	shutdown, err := telemetry.Setup(ctx, container.Config.Telemetry, container.Config.App.Name+"-api")
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if err := container.EnsureTopics(ctx); err != nil {
		container.Logger.Warn("failed to ensure kafka topics", zap.Error(err))
	}

	go func() {
		if err := sweeper.New(container).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			container.Logger.Error("session sweeper stopped", zap.Error(err))
		}
	}()

	server := api.NewServer(container, handlers.NewHandlerSet(container))

	container.Logger.Info("starting api server",
		zap.String("config", *configPath),
		zap.Int("port", container.Config.HTTP.Port),
		zap.String("provider", container.Config.CallBridge.ProviderName))
	if err := server.Start(ctx); err != nil {
		log.Fatalf("server terminated: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
