// Command trackergen-probe runs the tracker pipeline stages from a terminal
package main

import (
	"os"

	"github.com/joho/godotenv"

	"trackergen/internal/platform/logger"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		logger.Get().Error().Err(err).Msg("probe failed")
		os.Exit(1)
	}
}
