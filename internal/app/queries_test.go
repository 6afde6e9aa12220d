package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mboa_homes/internal/app"
	"mboa_homes/internal/domain"
	"mboa_homes/internal/recommend"
)

// ---- fakes ----

type fakeRepo struct {
	listing  domain.Listing
	getErr   error
	getCalls int

	views   []domain.ViewEvent
	favAdds [][2]int64
	favDels [][2]int64
	bumped  []int64
}

func (f *fakeRepo) UpsertListing(ctx context.Context, l domain.Listing) error     { return nil }
func (f *fakeRepo) UpsertProfile(ctx context.Context, p domain.UserProfile) error { return nil }
func (f *fakeRepo) InsertViewEvent(ctx context.Context, v domain.ViewEvent) error {
	f.views = append(f.views, v)
	return nil
}
func (f *fakeRepo) IncrementViewCount(ctx context.Context, propertyID int64) error {
	f.bumped = append(f.bumped, propertyID)
	return nil
}
func (f *fakeRepo) AddFavorite(ctx context.Context, userID, propertyID int64) error {
	f.favAdds = append(f.favAdds, [2]int64{userID, propertyID})
	return nil
}
func (f *fakeRepo) RemoveFavorite(ctx context.Context, userID, propertyID int64) error {
	f.favDels = append(f.favDels, [2]int64{userID, propertyID})
	return nil
}
func (f *fakeRepo) LogMiss(ctx context.Context, id int64, status int, reason string) error {
	return nil
}
func (f *fakeRepo) GetListing(ctx context.Context, id int64) (domain.Listing, error) {
	f.getCalls++
	return f.listing, f.getErr
}
func (f *fakeRepo) SearchListings(ctx context.Context, q domain.ListingsQuery) (domain.ListingsPage, error) {
	return domain.ListingsPage{}, nil
}
func (f *fakeRepo) ListCandidates(ctx context.Context, limit int) ([]domain.Listing, error) {
	return nil, nil
}
func (f *fakeRepo) ListListingsByIDs(ctx context.Context, ids []int64) ([]domain.Listing, error) {
	return nil, nil
}
func (f *fakeRepo) GetProfile(ctx context.Context, userID int64) (domain.UserProfile, error) {
	return domain.UserProfile{}, domain.ErrNotFound
}
func (f *fakeRepo) ListFavoriteIDs(ctx context.Context, userID int64) ([]int64, error) {
	return nil, nil
}
func (f *fakeRepo) ListViewEvents(ctx context.Context, userID int64, limit int) ([]domain.ViewEvent, error) {
	return nil, nil
}
func (f *fakeRepo) ListSimilarUserIDs(ctx context.Context, propertyIDs []int64, excludeUserID int64, limit int) ([]int64, error) {
	return nil, nil
}
func (f *fakeRepo) ListFavoritesOfUsers(ctx context.Context, userIDs []int64) ([]domain.FavoriteEdge, error) {
	return nil, nil
}

type fakeRecommender struct {
	out   []recommend.ScoredListing
	err   error
	calls int
}

func (f *fakeRecommender) Recommend(ctx context.Context, userID *int64, limit int) ([]recommend.ScoredListing, error) {
	f.calls++
	return f.out, f.err
}

type fakeCache struct {
	store map[string]any
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.Listing:
		*d = v.(domain.Listing)
	case *[]recommend.ScoredListing:
		*d = v.([]recommend.ScoredListing)
	}
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

// ---- tests ----

func TestGetListing_CacheMissThenHit(t *testing.T) {
	repo := &fakeRepo{listing: domain.Listing{ID: 42, Title: "Appartement Bonapriso", City: "Douala"}}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, &fakeRecommender{}, cache, 10*time.Minute, time.Minute)

	// Miss (first time, populates cache)
	l, err := q.GetListing(context.Background(), 42)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if l.ID != 42 || l.Title != "Appartement Bonapriso" {
		t.Fatalf("unexpected listing: %+v", l)
	}

	// Mutate repo to ensure second read indeed comes from cache
	repo.listing.Title = "SHOULD NOT SEE THIS"

	l2, err := q.GetListing(context.Background(), 42)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if l2.Title != "Appartement Bonapriso" {
		t.Fatalf("expected cached title, got %s", l2.Title)
	}
	if repo.getCalls != 1 {
		t.Fatalf("repo hit %d times, want 1", repo.getCalls)
	}
}

func TestRecommend_Cache(t *testing.T) {
	rec := &fakeRecommender{out: []recommend.ScoredListing{
		{Listing: domain.Listing{ID: 1, City: "Douala"}, Score: 12, Reasons: []string{"verified"}},
	}}
	cache := &fakeCache{}
	q := app.NewQueryService(&fakeRepo{}, rec, cache, 10*time.Minute, time.Minute)

	user := int64(7)
	out, err := q.Recommend(context.Background(), &user, 10)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 1 || out[0].Listing.ID != 1 {
		t.Fatalf("unexpected recs: %+v", out)
	}

	// Change engine output, call again -> should come from cache
	rec.out = nil
	out2, _ := q.Recommend(context.Background(), &user, 10)
	if len(out2) != 1 {
		t.Fatalf("expected cached recs, got %+v", out2)
	}
	if rec.calls != 1 {
		t.Fatalf("engine hit %d times, want 1", rec.calls)
	}
}

func TestRecommend_CacheKeyedPerUserAndLimit(t *testing.T) {
	rec := &fakeRecommender{}
	cache := &fakeCache{}
	q := app.NewQueryService(&fakeRepo{}, rec, cache, 10*time.Minute, time.Minute)

	a, b := int64(1), int64(2)
	_, _ = q.Recommend(context.Background(), &a, 10)
	_, _ = q.Recommend(context.Background(), &b, 10)
	_, _ = q.Recommend(context.Background(), nil, 10)
	_, _ = q.Recommend(context.Background(), &a, 6)
	if rec.calls != 4 {
		t.Fatalf("engine hit %d times, want 4 distinct cache keys", rec.calls)
	}
}

func TestRecommend_EngineErrorNotCached(t *testing.T) {
	rec := &fakeRecommender{err: errors.New("store down")}
	cache := &fakeCache{}
	q := app.NewQueryService(&fakeRepo{}, rec, cache, 10*time.Minute, time.Minute)

	if _, err := q.Recommend(context.Background(), nil, 10); err == nil {
		t.Fatal("expected error")
	}
	if len(cache.store) != 0 {
		t.Fatalf("error result must not be cached: %v", cache.store)
	}
}

func TestEngagement_RecordViewBumpsAndEvicts(t *testing.T) {
	repo := &fakeRepo{}
	cache := &fakeCache{store: map[string]any{"listing:5": domain.Listing{ID: 5}}}
	e := app.NewEngagementService(repo, cache)

	user := int64(3)
	err := e.RecordView(context.Background(), domain.ViewEvent{PropertyID: 5, UserID: &user, Duration: 30})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(repo.views) != 1 || repo.views[0].PropertyID != 5 {
		t.Fatalf("view not recorded: %+v", repo.views)
	}
	if len(repo.bumped) != 1 || repo.bumped[0] != 5 {
		t.Fatalf("view count not bumped: %+v", repo.bumped)
	}
	if _, still := cache.store["listing:5"]; still {
		t.Fatal("listing cache entry must be evicted")
	}
}

func TestEngagement_FavoriteInvalidatesRecs(t *testing.T) {
	repo := &fakeRepo{}
	cache := &fakeCache{store: map[string]any{"recs:3:10": []recommend.ScoredListing{}}}
	e := app.NewEngagementService(repo, cache)

	if err := e.AddFavorite(context.Background(), 3, 9); err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(repo.favAdds) != 1 {
		t.Fatalf("favorite not stored: %+v", repo.favAdds)
	}
	if _, still := cache.store["recs:3:10"]; still {
		t.Fatal("user recommendation cache must be evicted")
	}

	if err := e.RemoveFavorite(context.Background(), 3, 9); err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(repo.favDels) != 1 {
		t.Fatalf("favorite not removed: %+v", repo.favDels)
	}
}
