package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/greenfx/greenfx/config"
	"github.com/greenfx/greenfx/internal/adapter/encoder/ffmpeg"
	"github.com/greenfx/greenfx/internal/adapter/storage/jsonfile"
	sqlitestore "github.com/greenfx/greenfx/internal/adapter/storage/sqlite"
	"github.com/greenfx/greenfx/internal/domain"
	"github.com/greenfx/greenfx/internal/infrastructure/logger"
	"github.com/greenfx/greenfx/internal/monitor"
	"github.com/greenfx/greenfx/internal/ratelimit"
	"github.com/greenfx/greenfx/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error.Printf("failed to load config: %v", err)
		os.Exit(1)
	}

	logger.Info.Printf("starting greenfx: %dx%d@%dfps, %d workers, data=%s",
		cfg.VideoWidth, cfg.VideoHeight, cfg.FPS, cfg.Workers, cfg.DataDir)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Error.Printf("failed to create data directory: %v", err)
		os.Exit(1)
	}

	store, err := sqlitestore.NewStore(cfg.DataDir)
	if err != nil {
		logger.Error.Printf("failed to create store: %v", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	history, err := jsonfile.NewHistory(cfg.DataDir)
	if err != nil {
		logger.Error.Printf("failed to open generation history: %v", err)
		os.Exit(1)
	}

	encoder := ffmpeg.NewEncoder(
		cfg.VideoWidth, cfg.VideoHeight, cfg.FPS, cfg.VideoCRF,
		cfg.VideoPreset, cfg.VideoProfile, cfg.VideoLevel, cfg.VideoTune,
		cfg.PixelFormat,
	)
	eventBus := service.NewEventBus()
	scheduler := service.NewScheduler(store, encoder, history, eventBus, cfg)

	mon := monitor.New(cfg.DataDir, cfg.MonitorInterval, cfg.MinFreeDiskBytes,
		func() (int, int) {
			queued, err := store.CountByStatus(domain.JobStatusQueued)
			if err != nil {
				logger.Warn.Printf("failed to count queued jobs: %v", err)
			}
			return queued, scheduler.Active()
		})

	limiter := ratelimit.NewWindowLimiter(cfg.RateLimitPerMinute, time.Minute)
	estimator := service.NewEstimator(history)
	renderSvc := service.NewRenderService(cfg, store, limiter, mon, scheduler, estimator, eventBus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler.Start(ctx)
	go mon.Run(ctx)
	go renderSvc.RunReaper(ctx)

	// Purge anything that expired while the process was down.
	if err := renderSvc.Cleanup(); err != nil {
		logger.Error.Printf("startup cleanup failed: %v", err)
	}

	// Graceful shutdown: stop claiming new jobs, let workers notice the
	// cancelled context and terminalize what they were rendering.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info.Printf("received %s, shutting down", sig)

	cancel()
	time.Sleep(time.Second)
	logger.Info.Printf("shutdown complete")
}
