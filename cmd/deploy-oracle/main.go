package main

import (
	"log"
	"os"

	"go.uber.org/zap"
)

func main() {
	logger, err := initLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	code := execute(logger)

	// os.Exit skips deferred calls
	_ = logger.Sync()
	os.Exit(code)
}

func initLogger() (*zap.Logger, error) {
	env := os.Getenv("ENV")
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
