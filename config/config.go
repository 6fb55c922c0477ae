package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DataDir string

	// Output contract: every artifact is rendered at this geometry
	// regardless of effect type.
	VideoWidth  int
	VideoHeight int
	FPS         int

	// H.264 encoder settings.
	VideoCRF     int
	VideoPreset  string
	VideoProfile string
	VideoLevel   string
	VideoTune    string
	PixelFormat  string

	// Admission limits.
	RateLimitPerMinute int
	QueueDepthLimit    int
	MinFreeDiskBytes   int64

	// Scheduling.
	Workers           int
	JobBaseTimeout    time.Duration
	JobTimeoutPerSec  time.Duration
	RetentionDuration time.Duration
	ReapInterval      time.Duration
	MonitorInterval   time.Duration
}

func Load() (*Config, error) {
	width, err := intEnv("VIDEO_WIDTH", 1920)
	if err != nil {
		return nil, err
	}
	height, err := intEnv("VIDEO_HEIGHT", 1080)
	if err != nil {
		return nil, err
	}
	fps, err := intEnv("TARGET_FPS", 60)
	if err != nil {
		return nil, err
	}
	if fps <= 0 || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid video geometry %dx%d@%d", width, height, fps)
	}

	crf, err := intEnv("VIDEO_CRF", 18)
	if err != nil {
		return nil, err
	}

	rateLimit, err := intEnv("RATE_LIMIT_PER_MINUTE", 10)
	if err != nil {
		return nil, err
	}
	queueLimit, err := intEnv("QUEUE_DEPTH_LIMIT", 16)
	if err != nil {
		return nil, err
	}
	minFreeDiskMB, err := intEnv("MIN_FREE_DISK_MB", 512)
	if err != nil {
		return nil, err
	}
	workers, err := intEnv("MAX_CONCURRENT_JOBS", 2)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		return nil, fmt.Errorf("MAX_CONCURRENT_JOBS must be at least 1")
	}
	retentionHours, err := intEnv("RETENTION_HOURS", 1)
	if err != nil {
		return nil, err
	}

	return &Config{
		DataDir: getEnv("DATA_DIR", "/data"),

		VideoWidth:  width,
		VideoHeight: height,
		FPS:         fps,

		VideoCRF:     crf,
		VideoPreset:  getEnv("VIDEO_PRESET", "medium"),
		VideoProfile: getEnv("VIDEO_PROFILE", "high"),
		VideoLevel:   getEnv("VIDEO_LEVEL", "4.1"),
		VideoTune:    getEnv("VIDEO_TUNE", "film"),
		PixelFormat:  getEnv("VIDEO_PIXEL_FORMAT", "yuv420p"),

		RateLimitPerMinute: rateLimit,
		QueueDepthLimit:    queueLimit,
		MinFreeDiskBytes:   int64(minFreeDiskMB) * 1024 * 1024,

		Workers:           workers,
		JobBaseTimeout:    5 * time.Minute,
		JobTimeoutPerSec:  10 * time.Second,
		RetentionDuration: time.Duration(retentionHours) * time.Hour,
		ReapInterval:      10 * time.Minute,
		MonitorInterval:   10 * time.Second,
	}, nil
}

// JobTimeout returns the wall-clock ceiling for a job rendering the given
// number of requested seconds. A job still running past this is stuck.
func (c *Config) JobTimeout(durationSeconds int) time.Duration {
	return c.JobBaseTimeout + time.Duration(durationSeconds)*c.JobTimeoutPerSec
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
