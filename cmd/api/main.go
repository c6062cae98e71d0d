package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"circulation-backend/pkg/logger"
)

func main() {
	// Local development reads a .env file; deployed environments rely on
	// real environment variables.
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using system environment")
	}

	env := getEnv("ENV", "development")
	logger.Init(env)
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	Serve()
}
