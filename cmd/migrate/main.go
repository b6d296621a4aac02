package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/lautarok/yourstack/internal/config"
	"github.com/lautarok/yourstack/internal/logger"
)

// migrate applies the exam catalogue schema to DATABASE_URL.
//
//	migrate up
//	migrate down [all]
//	migrate steps <n>
//	migrate version
//	migrate force <version>
func main() {
	dir := flag.String("path", "migrations", "Path to migration files")
	flag.Parse()

	cfg := config.Load()
	l := logger.Setup(cfg.LogLevel, cfg.LogFormat).With().Str("component", "migrate").Logger()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(2)
	}
	if cfg.DatabaseURL == "" {
		l.Fatal().Msg("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://"+*dir, cfg.DatabaseURL)
	if err != nil {
		l.Fatal().Err(err).Str("path", *dir).Msg("Failed to initialise migrations")
	}
	defer m.Close()

	switch args[0] {
	case "up":
		err = ignoreNoChange(m.Up())
	case "down":
		if len(args) > 1 && args[1] == "all" {
			err = ignoreNoChange(m.Down())
		} else {
			err = ignoreNoChange(m.Steps(-1))
		}
	case "steps":
		n, convErr := intArg(args, "steps")
		if convErr != nil {
			l.Fatal().Err(convErr).Send()
		}
		err = ignoreNoChange(m.Steps(n))
	case "force":
		v, convErr := intArg(args, "force")
		if convErr != nil {
			l.Fatal().Err(convErr).Send()
		}
		err = m.Force(v)
	case "version":
		// reported below
	default:
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		l.Fatal().Err(err).Str("command", args[0]).Msg("Migration failed")
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		l.Info().Str("command", args[0]).Msg("No migrations applied")
	case err != nil:
		l.Fatal().Err(err).Msg("Failed to read schema version")
	default:
		l.Info().Str("command", args[0]).Uint("version", version).Bool("dirty", dirty).Msg("Schema version")
	}
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func intArg(args []string, cmd string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s requires a numeric argument", cmd)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q: %w", cmd, args[1], err)
	}
	return n, nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [flags] <up | down [all] | steps <n> | version | force <version>>")
	flag.PrintDefaults()
}
