package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config is the application configuration, populated from environment
// variables.
type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Jobs          JobConfig
	Consolidation ConsolidationConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	ServiceTokenHours int
}

type JobConfig struct {
	Concurrency int
	SweepCron   string // cron spec for the consolidation sweep
}

// ConsolidationConfig holds the tunables of the equivalence and presentation
// engines. Defaults match the values the catalogs were calibrated with;
// change them only with a full recalculation sweep.
type ConsolidationConfig struct {
	EquivalenceLevels    int
	EquivalenceThreshold float64
	GenreCutoff          float64
	MergeThreshold       float64
	PopularityWeight     float64
	RatingWeight         float64
	ClosureCacheTTLHours int
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "circulation-backend"),
			Environment: getEnv("ENV", "development"),
			Port:        getEnv("PORT", "8080"),
			Version:     getEnv("APP_VERSION", "dev"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "circulation"),
			Password: getEnv("DB_PASSWORD", "secret"),
			Database: getEnv("DB_NAME", "circulation_dev"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNECTIONS", 25),
			MinConns: getEnvInt("DB_MIN_CONNECTIONS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			ServiceTokenHours: getEnvInt("JWT_SERVICE_TOKEN_HOURS", 24),
		},
		Jobs: JobConfig{
			Concurrency: getEnvInt("WORKER_CONCURRENCY", 10),
			SweepCron:   getEnv("CONSOLIDATION_SWEEP_CRON", "@every 30m"),
		},
		Consolidation: ConsolidationConfig{
			EquivalenceLevels:    getEnvInt("EQUIVALENCE_LEVELS", 5),
			EquivalenceThreshold: getEnvFloat("EQUIVALENCE_THRESHOLD", 0.5),
			GenreCutoff:          getEnvFloat("GENRE_CUTOFF", 0.15),
			MergeThreshold:       getEnvFloat("MERGE_THRESHOLD", 0.5),
			PopularityWeight:     getEnvFloat("QUALITY_POPULARITY_WEIGHT", 0.3),
			RatingWeight:         getEnvFloat("QUALITY_RATING_WEIGHT", 0.7),
			ClosureCacheTTLHours: getEnvInt("CLOSURE_CACHE_TTL_HOURS", 1),
		},
	}

	if cfg.App.Environment == "production" && cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
