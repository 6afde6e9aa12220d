package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"mboa_homes/internal/adapters/feed"
	"mboa_homes/internal/adapters/observability"
	redisad "mboa_homes/internal/adapters/redis"
	"mboa_homes/internal/app"
	"mboa_homes/internal/shared"
	mysqlrepo "mboa_homes/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.FeedBase).
		Int("workers", cfg.Workers).
		Int("ids", len(cfg.ImportIDs)).
		Msg("importer starting")

	if len(cfg.ImportIDs) == 0 {
		log.Fatal().Msg("IMPORT_IDS is empty, nothing to import")
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := feed.New(cfg.FeedBase, cfg.FeedKey, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize feed client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	ing := app.NewIngestionService(client, repo, cache)
	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, id := range cfg.ImportIDs {
		id := id

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(listingID int64) {
			defer wg.Done()
			defer sem.Release(int64(1))

			if err := ing.IngestListing(ctx, listingID); err != nil {
				log.Warn().Int64("id", listingID).Err(err).Msg("import failed")
				return
			}
			log.Info().Int64("id", listingID).Msg("import ok")
		}(id)
	}

	wg.Wait()
	log.Info().Msg("import completed")
}
