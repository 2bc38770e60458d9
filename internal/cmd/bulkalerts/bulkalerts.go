// Package bulkalerts parses bulk alerts service flags and launches the service.
package bulkalerts

import (
	"context"
	"flag"

	server "github.com/openjustice/prisonalerts/internal/bulkplan/app"
	entrypoint "github.com/openjustice/prisonalerts/internal/platform/cmd"
)

// Config holds bulk alerts command configuration.
type Config struct {
	Port int `env:"PRISON_ALERTS_BULKALERTS_PORT" envDefault:"8091"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The bulk alerts gRPC server port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the bulk alerts service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceBulkAlerts, func(context.Context) error {
		return server.Run(ctx, cfg.Port)
	})
}
