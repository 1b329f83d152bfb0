package main

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"flex_reviews/internal/adapters/hostaway"
	"flex_reviews/internal/adapters/observability"
	"flex_reviews/internal/app"
	"flex_reviews/internal/domain"
	"flex_reviews/internal/shared"
	"flex_reviews/internal/storage/jsonfile"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.ChannelBase).
		Int("workers", cfg.Workers).
		Int("pageSize", cfg.PageSize).
		Msg("importer starting")

	store := jsonfile.New(cfg.PropertiesPath, cfg.ReviewsPath)
	if err := store.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}

	client, err := hostaway.New(cfg.ChannelBase, cfg.ChannelKey, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize channel client")
	}
	reviews := app.NewReviewService(store, nil)

	// 1) fetch pages concurrently, bounded by the worker count
	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var payloads []map[string]any

	for page := 0; page < cfg.MaxPages; page++ {
		offset := page * cfg.PageSize

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			defer sem.Release(1)

			batch, err := client.ListReviews(ctx, cfg.PageSize, offset)
			if err != nil {
				if errors.Is(err, hostaway.ErrNotFound) {
					return // past the last page
				}
				log.Warn().Int("offset", offset).Err(err).Msg("page fetch failed")
				return
			}
			mu.Lock()
			payloads = append(payloads, batch...)
			mu.Unlock()
		}(offset)
	}
	wg.Wait()
	log.Info().Int("fetched", len(payloads)).Msg("channel fetch completed")

	// 2) skip reviews already imported in a previous run
	existing, err := store.ListReviews(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load existing reviews failed")
	}
	seen := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		if r.ExternalReviewID != "" {
			seen[r.ExternalReviewID] = struct{}{}
		}
	}

	// 3) normalize and append through the creation contract
	var imported, skipped, rejected int
	for _, p := range payloads {
		in := app.MapChannelReview(p)
		if in.ExternalReviewID != "" {
			if _, dup := seen[in.ExternalReviewID]; dup {
				skipped++
				continue
			}
		}
		if _, err := reviews.CreateReview(ctx, in); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				rejected++
				log.Warn().Str("externalReviewId", in.ExternalReviewID).Err(err).Msg("payload rejected")
				continue
			}
			log.Fatal().Err(err).Msg("append failed")
		}
		if in.ExternalReviewID != "" {
			seen[in.ExternalReviewID] = struct{}{}
		}
		imported++
	}

	log.Info().
		Int("imported", imported).
		Int("skipped", skipped).
		Int("rejected", rejected).
		Msg("import completed")
}
