package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// startServices verifies external dependencies before the worker accepts
// tasks, and exposes a liveness endpoint for the orchestrator.
func startServices(cfg *Config) error {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	log.Info().Str("redis", cfg.RedisAddr).Msg("Redis reachable")

	go startHealthCheckServer()
	return nil
}

func startHealthCheckServer() {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"UP","service":"circulation-worker"}`))
	})

	log.Info().Msg("Health endpoint listening on :9999")
	if err := http.ListenAndServe(":9999", mux); err != nil {
		log.Warn().Err(err).Msg("Health endpoint failed")
	}
}
