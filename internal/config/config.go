package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	RedisAddr     string
	RedisPassword string

	GeminiAPIKey string
	PhotoModel   string
	VideoModel   string

	// Pacing between scoring calls. The pro model used for videos has a much
	// tighter per-minute quota than flash.
	PhotoScoreDelay time.Duration
	VideoScoreDelay time.Duration

	PhotoThreshold int
	VideoThreshold int

	PhotosAPIBase string

	JobRetention   time.Duration
	TaskMaxRetries int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func Load() Config {
	cfg := Config{
		AppEnv:        getenv("APP_ENV", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8082"),
		RedisAddr:     getenv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		PhotoModel:   getenv("PHOTO_MODEL", "gemini-1.5-flash"),
		VideoModel:   getenv("VIDEO_MODEL", "gemini-1.5-pro"),

		PhotoScoreDelay: time.Duration(getenvInt("PHOTO_SCORE_DELAY_MS", 100)) * time.Millisecond,
		VideoScoreDelay: time.Duration(getenvInt("VIDEO_SCORE_DELAY_MS", 30000)) * time.Millisecond,

		PhotoThreshold: getenvInt("PHOTO_THRESHOLD", 85),
		VideoThreshold: getenvInt("VIDEO_THRESHOLD", 80),

		PhotosAPIBase: getenv("PHOTOS_API_BASE", "https://photoslibrary.googleapis.com/v1"),

		JobRetention:   time.Duration(getenvInt("JOB_RETENTION_SECONDS", 3600)) * time.Second,
		TaskMaxRetries: getenvInt("TASK_MAX_RETRIES", 3),
	}
	if cfg.RedisAddr == "" {
		panic(fmt.Errorf("REDIS_ADDR is required"))
	}
	return cfg
}
