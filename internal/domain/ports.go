package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidCursor = errors.New("invalid cursor")
)

type ListingRepository interface {
	// Write paths
	UpsertListing(ctx context.Context, l Listing) error
	UpsertProfile(ctx context.Context, p UserProfile) error
	InsertViewEvent(ctx context.Context, v ViewEvent) error
	IncrementViewCount(ctx context.Context, propertyID int64) error
	AddFavorite(ctx context.Context, userID, propertyID int64) error
	RemoveFavorite(ctx context.Context, userID, propertyID int64) error
	LogMiss(ctx context.Context, id int64, status int, reason string) error

	// Read paths
	GetListing(ctx context.Context, id int64) (Listing, error)
	SearchListings(ctx context.Context, q ListingsQuery) (ListingsPage, error)
	ListCandidates(ctx context.Context, limit int) ([]Listing, error)
	ListListingsByIDs(ctx context.Context, ids []int64) ([]Listing, error)
	GetProfile(ctx context.Context, userID int64) (UserProfile, error)
	ListFavoriteIDs(ctx context.Context, userID int64) ([]int64, error)
	ListViewEvents(ctx context.Context, userID int64, limit int) ([]ViewEvent, error)
	ListSimilarUserIDs(ctx context.Context, propertyIDs []int64, excludeUserID int64, limit int) ([]int64, error)
	ListFavoritesOfUsers(ctx context.Context, userIDs []int64) ([]FavoriteEdge, error)
}

type FeedClient interface {
	GetListing(ctx context.Context, id int64) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
