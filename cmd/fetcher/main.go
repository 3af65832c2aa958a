package main

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"resto_scout/internal/adapters/observability"
	"resto_scout/internal/adapters/serp"
	"resto_scout/internal/app"
	"resto_scout/internal/shared"
	mysqlrepo "resto_scout/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.SerpBase).
		Str("query", cfg.Query).
		Int("centers", len(cfg.Centers)).
		Int("workers", cfg.Workers).
		Msg("fetcher starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := serp.New(cfg.SerpBase, cfg.SerpKey, 2)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize search client")
	}

	ing := app.NewIngestionService(client, repo)
	if err := ing.Run(ctx, app.IngestOptions{
		Query:              cfg.Query,
		Centers:            cfg.Centers,
		MaxPages:           cfg.MaxPages,
		MaxPlaces:          cfg.MaxPlaces,
		MaxReviewsPerPlace: cfg.MaxReviewsPerPlace,
		Workers:            cfg.Workers,
	}); err != nil {
		log.Fatal().Err(err).Msg("ingestion failed")
	}
	log.Info().Msg("ingestion completed")
}
