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

	"github.com/acme/interview-callback/internal/app"
	"github.com/acme/interview-callback/internal/telemetry"
	attemptworker "github.com/acme/interview-callback/internal/worker/attempt"
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

	shutdown, err := telemetry.Setup(ctx, container.Config.Telemetry, container.Config.App.Name+"-attempt-worker")
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if err := container.EnsureTopics(ctx); err != nil {
		log.Fatalf("failed to ensure kafka topics: %v", err)
	}

	worker := attemptworker.New(container)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("worker terminated: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
