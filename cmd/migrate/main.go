// Command migrate applies or rolls back the postgres schema.
//
// Usage:
//
//	migrate [up|down|version]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/inkfeed/inkfeed/internal/repository"
)

type migrateConfig struct {
	DatabaseURL string        `env:"DATABASE_URL,required"`
	Timeout     time.Duration `env:"MIGRATE_TIMEOUT" envDefault:"1m"`
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [up|down|version]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	var cfg migrateConfig
	if err := env.Parse(&cfg); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := runCommand(ctx, command, cfg.DatabaseURL, logger); err != nil {
		logger.Error("migration failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, command, databaseURL string, logger *slog.Logger) error {
	switch command {
	case "up":
		if err := repository.Migrate(ctx, databaseURL); err != nil {
			return err
		}
	case "down":
		if err := repository.MigrateDown(ctx, databaseURL); err != nil {
			return err
		}
	case "version":
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}

	version, err := repository.MigrationVersion(ctx, databaseURL)
	if err != nil {
		return err
	}
	logger.Info("schema version", "command", command, "version", version)
	return nil
}
