package main

import (
	"context"
	"flag"
	"time"

	"github.com/records-api/internal/config"
	"github.com/records-api/internal/database"
	"github.com/records-api/internal/repository"
	"github.com/records-api/internal/seed"
	"github.com/records-api/pkg/logger"
)

func main() {
	articles := flag.Int("articles", 50000, "number of articles to generate")
	employees := flag.Int("employees", 1000, "number of employees to generate")
	batch := flag.Int("batch", 1000, "records per COPY batch")
	randSeed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
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

	if err := db.Migrate(cfg.Server.MigrationsPath, database.Up); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	seeder := seed.NewSeeder(repository.New(db), seed.NewGenerator(*randSeed), *batch, log)
	ctx := context.Background()

	if *articles > 0 {
		if _, err := seeder.Articles(ctx, *articles); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed articles")
		}
	}
	if *employees > 0 {
		if _, err := seeder.Employees(ctx, *employees); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed employees")
		}
	}
}
