package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-flashcards/internal/config"
	"github.com/phrazzld/scry-flashcards/internal/redact"
	"github.com/spf13/pflag"
)

// loadAppConfig parses args into flags and loads the configuration.
func loadAppConfig(flags *pflag.FlagSet, args []string) (*config.Config, error) {
	config.RegisterFlags(flags)
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	cfg, err := config.LoadWithFlags(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"storage_driver", cfg.Storage.Driver)

	if cfg.Storage.DSN != "" {
		slog.Debug("Storage configuration", "dsn", redact.DSN(cfg.Storage.DSN))
	}

	return cfg, nil
}
