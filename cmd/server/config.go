package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/platform/postgres"
	"github.com/spf13/pflag"
)

// registerServerFlags adds the configuration flags plus --migrate to fs and
// returns the migrate value.
func registerServerFlags(fs *pflag.FlagSet) *string {
	config.RegisterFlags(fs)
	return fs.String("migrate", "",
		fmt.Sprintf("run a migration command (%s) and exit", strings.Join(postgres.MigrationCommands, ", ")))
}

// loadAppConfig loads the application configuration from defaults, the
// optional config file, environment variables and flags.
func loadAppConfig(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Log basic configuration details after successful loading
	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"cache_enabled", cfg.Cache.Enabled,
		"sweep_enabled", cfg.Notifications.SweepEnabled)

	return cfg, nil
}
