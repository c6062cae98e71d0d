package main

import (
	"strconv"

	"github.com/rs/zerolog/log"
)

// Config holds the worker's own settings, separate from the shared
// application config carried by the container.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
	SweepCron     string
}

func loadConfig() *Config {
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		redisDB = 0
	}
	concurrency, err := strconv.Atoi(getEnv("WORKER_CONCURRENCY", "10"))
	if err != nil {
		concurrency = 10
	}

	cfg := &Config{
		RedisAddr:     getEnv("REDIS_HOST", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
		Concurrency:   concurrency,
		SweepCron:     getEnv("CONSOLIDATION_SWEEP_CRON", "@every 30m"),
	}

	log.Info().
		Str("redis", cfg.RedisAddr).
		Int("concurrency", cfg.Concurrency).
		Str("sweep_cron", cfg.SweepCron).
		Msg("Worker configuration loaded")

	return cfg
}
