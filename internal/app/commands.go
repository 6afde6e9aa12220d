package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mboa_homes/internal/domain"
)

type IngestionService struct {
	feed  domain.FeedClient
	repo  domain.ListingRepository
	cache domain.Cache
}

func NewIngestionService(f domain.FeedClient, r domain.ListingRepository, cache domain.Cache) *IngestionService {
	return &IngestionService{feed: f, repo: r, cache: cache}
}

// IngestListing fetches one listing from the upstream feed and upserts
// it. Known 404/401/403 responses are recorded as misses and stop
// gracefully; anything else bubbles up.
func (s *IngestionService) IngestListing(ctx context.Context, id int64) error {
	p, err := s.feed.GetListing(ctx, id)
	if err != nil {
		low := strings.ToLower(err.Error())

		// 404: listing gone upstream -> record miss, clear caches, stop.
		if errors.Is(err, domain.ErrNotFound) || strings.Contains(low, "not found") {
			_ = s.repo.LogMiss(ctx, id, 404, "not found")
			s.invalidateListing(ctx, id)
			return nil
		}

		// 401/403: unauthorized/forbidden/inactive -> record miss, evict, stop.
		if strings.Contains(low, "403") || strings.Contains(low, "forbidden") ||
			strings.Contains(low, "401") || strings.Contains(low, "unauthorized") {
			_ = s.repo.LogMiss(ctx, id, 403, "inactive")
			s.invalidateListing(ctx, id)
			return nil
		}

		// Anything else is unexpected (network/5xx/JSON/etc.) -> bubble up.
		return err
	}

	l := mapListing(p)
	if l.ID == 0 {
		l.ID = id
	}
	if err := s.repo.UpsertListing(ctx, l); err != nil {
		return fmt.Errorf("upsert listing %d: %w", id, err)
	}

	s.invalidateListing(ctx, id)
	return nil
}

func (s *IngestionService) invalidateListing(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, fmt.Sprintf("listing:%d", id))
	// A changed listing shifts rankings; drop the anonymous variants and
	// let per-user entries age out of their short TTL.
	for _, lim := range []int{10, 6, 20, 50} {
		_ = s.cache.Del(ctx, RecsCacheKey(nil, lim))
	}
}
