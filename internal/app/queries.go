package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mboa_homes/internal/domain"
	"mboa_homes/internal/recommend"
)

// Recommender is what the query layer needs from the scoring engine.
type Recommender interface {
	Recommend(ctx context.Context, userID *int64, limit int) ([]recommend.ScoredListing, error)
}

type QueryService struct {
	repo     domain.ListingRepository
	rec      Recommender
	cache    domain.Cache
	cacheTTL time.Duration
	recsTTL  time.Duration
}

func NewQueryService(r domain.ListingRepository, rec Recommender, c domain.Cache, cacheTTL, recsTTL time.Duration) *QueryService {
	return &QueryService{repo: r, rec: rec, cache: c, cacheTTL: cacheTTL, recsTTL: recsTTL}
}

func (s *QueryService) GetListing(ctx context.Context, id int64) (domain.Listing, error) {
	key := fmt.Sprintf("listing:%d", id)
	var l domain.Listing
	if ok, _ := s.cache.Get(ctx, key, &l); ok {
		return l, nil
	}
	l, err := s.repo.GetListing(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	_ = s.cache.Set(ctx, key, l, int(s.cacheTTL.Seconds()))
	return l, nil
}

func (s *QueryService) SearchListings(ctx context.Context, q domain.ListingsQuery) (domain.ListingsPage, error) {
	return s.repo.SearchListings(ctx, q)
}

// Recommend serves scored recommendations with a short-lived cache per
// (user, limit). Anonymous results share one key since they carry no
// per-user signal.
func (s *QueryService) Recommend(ctx context.Context, userID *int64, limit int) ([]recommend.ScoredListing, error) {
	key := RecsCacheKey(userID, limit)
	var out []recommend.ScoredListing
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	out, err := s.rec.Recommend(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	// copy slice to avoid aliasing the engine's backing array (prevents
	// callers from mutating the cached value)
	cp := make([]recommend.ScoredListing, len(out))
	copy(cp, out)

	// optional size guard
	if b, _ := json.Marshal(cp); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, cp, int(s.recsTTL.Seconds()))
	}
	return cp, nil
}

func RecsCacheKey(userID *int64, limit int) string {
	if userID == nil {
		return fmt.Sprintf("recs:anon:%d", limit)
	}
	return fmt.Sprintf("recs:%d:%d", *userID, limit)
}
