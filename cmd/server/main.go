package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/config"
	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/correct"
	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/media"
	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/minio"
	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/pipeline"
	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/queue"
	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/router"
	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/service"
	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/speech"
	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/storage"
	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/store"
	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/synth"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting audio replacement service...")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := store.New(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")
	if err := store.Migrate(db.DB); err != nil {
		logger.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	minioClient, err := minio.New(cfg.MinIO)
	if err != nil {
		logger.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	storageService := storage.New(minioClient)
	logger.Info("Object storage initialized successfully")

	var notifier pipeline.Notifier = pipeline.NopNotifier{}
	if cfg.RabbitMQ.URL != "" {
		queueConn, err := queue.NewConnection(cfg.RabbitMQ)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer queueConn.Close()
		notifier = queue.NewPublisher(queueConn)
		logger.Info("RabbitMQ connected successfully")
	} else {
		logger.Info("No broker configured, run events disabled")
	}

	mediaTool := media.NewTool(cfg.FFmpeg, logger)
	recognizer := speech.NewClient(cfg.Speech, logger)
	corrector := correct.NewClient(cfg.Correction, logger)
	synthesizer := synth.NewClient(cfg.Synthesis, logger)

	runner := pipeline.New(
		mediaTool, recognizer, corrector, synthesizer,
		store.NewStore(db), storageService, notifier,
		cfg.Timeouts, logger,
	)
	runService := service.NewRunService(store.NewStore(db), storageService, runner, logger)

	r := router.New(runService, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
