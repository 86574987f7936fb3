package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mrsingh-rishi/voice-instructor/config"
	"github.com/mrsingh-rishi/voice-instructor/llm"
	"github.com/mrsingh-rishi/voice-instructor/logging"
	"github.com/mrsingh-rishi/voice-instructor/metrics"
	"github.com/mrsingh-rishi/voice-instructor/pipeline"
	"github.com/mrsingh-rishi/voice-instructor/server"
	"github.com/mrsingh-rishi/voice-instructor/stt"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load(".", "/etc/voice-instructor")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if cfg.OpenAI.APIKey == "" {
		logger.Warn("no API key configured, upstream calls will be rejected")
	}

	// one client shared by both capabilities
	client := llm.NewClient(cfg.OpenAI, nil)

	transcriber, err := stt.NewWhisper(client, cfg.OpenAI.TranscriptionModel,
		stt.WithStagingDir(cfg.Audio.StagingDir),
		stt.WithLanguage(cfg.OpenAI.TranscriptionLanguage),
		stt.WithResponseFormat(cfg.OpenAI.TranscriptionFormat),
	)
	if err != nil {
		logger.Fatal("init transcriber", zap.Error(err))
	}

	instructor, err := llm.NewInstructor(client, cfg.OpenAI.ChatModel)
	if err != nil {
		logger.Fatal("init instructor", zap.Error(err))
	}

	m := metrics.NewMetrics()
	p := pipeline.New(transcriber, instructor,
		pipeline.WithTimeout(cfg.OpenAI.RequestTimeout),
		pipeline.WithBreakers(cfg.Breaker),
		pipeline.WithObserver(m),
		pipeline.WithLogger(logger.Named("pipeline")),
	)

	srv := server.New(cfg.HTTP, p, m, logger.Named("http"))

	logger.Info("starting service",
		zap.String("service", server.ServiceName),
		zap.String("version", server.ServiceVersion),
		zap.String("provider", cfg.OpenAI.Provider),
		zap.String("transcription_model", cfg.OpenAI.TranscriptionModel),
		zap.String("chat_model", cfg.OpenAI.ChatModel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("http server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
