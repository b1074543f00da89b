package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"curator/internal/config"
	"curator/internal/core/ai"
	"curator/internal/core/analysis"
	"curator/internal/core/job"
	"curator/internal/core/photos"
	"curator/internal/core/share"
	"curator/internal/logger"
	"curator/internal/platform/gemini"
	rds "curator/internal/platform/redis"
	tasks "curator/internal/platform/tasks"
	"curator/internal/server"
	"curator/internal/worker"
)

func main() {
	cfg := config.Load()
	log.Printf("[curator] starting at %s (env=%s)\n", cfg.HTTPAddr, cfg.AppEnv)

	logr := logger.New("main")

	// Redis client
	redisSvc, err := rds.New(rds.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer redisSvc.Close()

	// Asynq client and server. Concurrency 1 keeps scoring strictly serial
	// across jobs as well, which is what the Gemini quota tolerates.
	taskClient := tasks.New(redisSvc)
	asynqServer := asynq.NewServer(redisSvc.AsynqRedisOpt(), asynq.Config{
		Concurrency: 1,
		Queues:      map[string]int{"default": 1},
	})

	// Gemini vision service
	geminiSvc, err := gemini.NewService(context.Background(), gemini.Config{APIKey: cfg.GeminiAPIKey})
	if err != nil {
		log.Fatalf("failed to initialize Gemini service: %v", err)
	}

	// Core services
	jobSvc := job.NewService(redisSvc, cfg.JobRetention)
	scorer := ai.NewService(geminiSvc, ai.Config{PhotoModel: cfg.PhotoModel, VideoModel: cfg.VideoModel})
	batch := ai.NewBatch(scorer, cfg.PhotoScoreDelay, cfg.VideoScoreDelay)
	photosSvc := photos.NewService(cfg.PhotosAPIBase)
	shareSvc := share.NewService()
	analysisSvc := analysis.NewService(jobSvc, photosSvc, batch, taskClient, cfg.TaskMaxRetries, cfg.JobRetention)

	// Worker mux
	mux := worker.NewMux()
	mux.HandleFunc(tasks.TaskTypeAnalyzeAlbum, analysisSvc.HandleAlbumTask)
	mux.HandleFunc(tasks.TaskTypeAnalyzeScraped, analysisSvc.HandleScrapedTask)
	mux.HandleFunc(tasks.TaskTypeSweepJobs, analysisSvc.HandleSweepTask)

	go func() {
		if err := asynqServer.Start(mux.Mux()); err != nil {
			log.Printf("[worker] stopped: %v\n", err)
		}
	}()

	// Hourly retention sweep
	scheduler := asynq.NewScheduler(redisSvc.AsynqRedisOpt(), nil)
	if _, err := scheduler.Register("@every 1h", asynq.NewTask(tasks.TaskTypeSweepJobs, nil)); err != nil {
		log.Fatalf("failed to register sweep schedule: %v", err)
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			log.Printf("[scheduler] stopped: %v\n", err)
		}
	}()

	// HTTP server
	app := fiber.New(fiber.Config{
		AppName: "Curator Engine",
		JSONEncoder: func(v interface{}) ([]byte, error) {
			var buf bytes.Buffer
			encoder := json.NewEncoder(&buf)
			encoder.SetEscapeHTML(false)
			if err := encoder.Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
	})

	deps := server.Dependencies{
		Analysis: analysis.NewHandler(jobSvc, analysisSvc, cfg.PhotoThreshold, cfg.VideoThreshold),
		Photos:   photos.NewHandler(photosSvc),
		Share:    share.NewHandler(shareSvc),
		Redis:    redisSvc,
	}
	healthHandler := server.RegisterRoutes(app, deps)

	// Mark application as ready after all services are initialized
	go func() {
		time.Sleep(5 * time.Second)
		healthHandler.SetReady()
	}()

	// Graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		logr.LogInfo("Shutting down...")
		scheduler.Shutdown()
		asynqServer.Shutdown()
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Fatalf("server listen: %v", err)
	}
}
