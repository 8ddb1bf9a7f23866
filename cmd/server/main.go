package main

import (
	"log/slog"
	"os"

	"ypg-dashboard/internal/app"
	"ypg-dashboard/internal/logger"
)

func main() {
	// Console logger until the config has been read.
	bootLogger, _ := logger.New(logger.Options{Level: "info"})
	slog.SetDefault(bootLogger)

	application, err := app.New()
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
