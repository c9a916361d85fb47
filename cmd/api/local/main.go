//go:build !lambda
// +build !lambda

package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/susu-finance/susu-api/internal/logger"
	"github.com/susu-finance/susu-api/internal/server"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		// Fine in production, where variables are set directly in the
		// environment.
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	logger.InitLogger()
	defer logger.Sync()

	r := gin.Default()
	server.InitializeHandlers()
	server.InitializeRoutes(r)
	defer server.Shutdown()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	log.Printf("Server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
