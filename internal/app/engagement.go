package app

import (
	"context"
	"fmt"

	"mboa_homes/internal/domain"
)

// EngagementService owns the write paths behind the browsing UI: view
// events and favorite edges, the raw material of the scoring signals.
type EngagementService struct {
	repo  domain.ListingRepository
	cache domain.Cache
}

func NewEngagementService(r domain.ListingRepository, c domain.Cache) *EngagementService {
	return &EngagementService{repo: r, cache: c}
}

func (s *EngagementService) RecordView(ctx context.Context, v domain.ViewEvent) error {
	if err := s.repo.InsertViewEvent(ctx, v); err != nil {
		return fmt.Errorf("insert view event: %w", err)
	}
	if err := s.repo.IncrementViewCount(ctx, v.PropertyID); err != nil {
		return fmt.Errorf("bump view count: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, fmt.Sprintf("listing:%d", v.PropertyID))
	}
	return nil
}

func (s *EngagementService) AddFavorite(ctx context.Context, userID, propertyID int64) error {
	if err := s.repo.AddFavorite(ctx, userID, propertyID); err != nil {
		return err
	}
	s.invalidateRecs(ctx, &userID)
	return nil
}

func (s *EngagementService) RemoveFavorite(ctx context.Context, userID, propertyID int64) error {
	if err := s.repo.RemoveFavorite(ctx, userID, propertyID); err != nil {
		return err
	}
	s.invalidateRecs(ctx, &userID)
	return nil
}

// invalidate the most common recommendation cache variants
func (s *EngagementService) invalidateRecs(ctx context.Context, userID *int64) {
	if s.cache == nil {
		return
	}
	// The API default is limit=10; clear that first, then the other
	// limits the UI requests.
	for _, lim := range []int{10, 6, 20, 50} {
		_ = s.cache.Del(ctx, RecsCacheKey(userID, lim))
	}
}
