package main

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"resto_scout/internal/adapters/observability"
	redisad "resto_scout/internal/adapters/redis"
	"resto_scout/internal/app"
	"resto_scout/internal/normalize"
	"resto_scout/internal/shared"
	mysqlrepo "resto_scout/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// One anchor per run: every relative review date in this batch resolves
	// against the same instant.
	svc := app.NewCleaningService(repo, normalize.New(time.Now), cache)

	stats, err := svc.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("cleaning failed")
	}
	log.Info().
		Int("clean_places", stats.CleanPlaces).
		Int("clean_reviews", stats.CleanReviews).
		Msg("cleaning completed")
}
