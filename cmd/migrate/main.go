package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/records-api/internal/config"
	"github.com/records-api/internal/database"
	"github.com/records-api/pkg/logger"
)

func main() {
	down := flag.Bool("down", false, "roll back the last migration")
	version := flag.Uint("version", 0, "migrate up or down to this version")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-down | -version N]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(cfg.Log.Level)

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	step := database.Up
	switch {
	case *down:
		step = database.Down
	case *version > 0:
		step = database.To(*version)
	}
	if err := db.Migrate(cfg.Server.MigrationsPath, step); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}
