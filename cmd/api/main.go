package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/digitalscyther/ai-cv-creator/artifact"
	"github.com/digitalscyther/ai-cv-creator/render"
	"github.com/digitalscyther/ai-cv-creator/server"
	"github.com/digitalscyther/ai-cv-creator/service"
	"github.com/digitalscyther/ai-cv-creator/store"
)

func main() {
	_ = godotenv.Load()
	setupLogging()

	svc, cleanup, err := buildService()
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	addr := envOr("HOST", "127.0.0.1") + ":" + envOr("PORT", "3000")
	srv := server.New(addr, svc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("server failed", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "err", err)
		}
	}
}

func buildService() (*service.Service, func(), error) {
	cleanup := func() {}

	var conversations store.Store
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pg, err := store.NewPostgresStore(dsn)
		if err != nil {
			return nil, nil, err
		}
		conversations = pg
		cleanup = func() { _ = pg.Close() }
		slog.Info("using postgres conversation store")
	} else {
		conversations = store.NewMemoryStore()
		slog.Warn("DATABASE_URL not set, conversations are not durable")
	}

	var artifacts artifact.Store
	if endpoint := os.Getenv("MINIO_URL"); endpoint != "" {
		s3, err := artifact.NewS3Store(artifact.S3Config{
			Endpoint:  endpoint,
			Region:    os.Getenv("MINIO_REGION"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    envOr("MINIO_BUCKET_NAME", "resumes"),
			UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		})
		if err != nil {
			return nil, nil, err
		}
		artifacts = s3
		slog.Info("using s3 artifact store", "endpoint", endpoint)
	} else {
		artifacts = artifact.NewMemoryStore()
		slog.Warn("MINIO_URL not set, artifacts are not durable")
	}

	provider := service.NewOpenAIProvider(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_BASE_URL"))
	if m := os.Getenv("OPENAI_MODEL"); m != "" {
		provider.Model = m
	}
	if n := envInt("OPENAI_MAX_TOKENS"); n > 0 {
		provider.MaxTokens = n
	}

	renderer := render.NewCommandRenderer(envOr("PDF_PROGRAM", "mdpdf"))

	var opts []service.Option
	if n := envInt("HISTORY_BUDGET"); n > 0 {
		opts = append(opts, service.WithHistoryBudget(n))
	}
	if n := envInt("SPEND_CEILING"); n > 0 {
		opts = append(opts, service.WithSpendCeiling(n))
	}

	return service.New(conversations, artifacts, renderer, provider, opts...), cleanup, nil
}

func setupLogging() {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string) int {
	n, _ := strconv.Atoi(os.Getenv(key))
	return n
}
