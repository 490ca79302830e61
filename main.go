package main

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	episodekit "github.com/temirov/episode-kit/cmd/episode-kit"
)

func main() {
	_ = godotenv.Load()

	logger := zap.Must(zap.NewProduction())

	executionErr := episodekit.Execute()
	if executionErr != nil {
		logger.Error("command execution failed", zap.Error(executionErr))
		_ = logger.Sync()
		os.Exit(1)
	}

	_ = logger.Sync()
}
