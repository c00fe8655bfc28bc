package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/deepsite/internal/infra/config"
	"github.com/matiasleandrokruk/deepsite/internal/infra/logger"
)

// loadConfig reads the --env-file files and the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	files, err := cmd.Flags().GetStringSlice("env-file")
	if err != nil {
		return nil, usageError{err}
	}
	return config.Load(files...)
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logger.New(
		logger.WithLevel(cfg.LogLevel),
		logger.WithFormat(cfg.LogFormat),
		logger.WithWriter(os.Stderr),
	)
}
