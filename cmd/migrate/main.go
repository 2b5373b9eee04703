package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/postgres"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/config"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [up|down|version]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(observability.LoggerOptions{
		Service: cfg.OTEL.ServiceName,
		Version: cfg.OTEL.ServiceVersion,
		Command: "migrate",
		Env:     cfg.Logging.Env,
		Level:   cfg.Logging.Level,
	})
	logger := observability.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	migrator, err := pgClient.NewMigrator()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create migrator")
	}

	switch command {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Down()
	case "version":
		version, dirty, verr := migrator.Version()
		if verr == nil {
			fmt.Printf("version %d (dirty=%t)\n", version, dirty)
		}
		err = verr
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("command", command).Msg("migration failed")
	}
}
