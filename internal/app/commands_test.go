package app_test

import (
	"context"
	"errors"
	"testing"

	"mboa_homes/internal/app"
	"mboa_homes/internal/domain"
)

type fakeFeed struct {
	payload map[string]any
	err     error
}

func (f *fakeFeed) GetListing(ctx context.Context, id int64) (map[string]any, error) {
	return f.payload, f.err
}

type recordingRepo struct {
	fakeRepo
	upserts []domain.Listing
	misses  []int
}

func (r *recordingRepo) UpsertListing(ctx context.Context, l domain.Listing) error {
	r.upserts = append(r.upserts, l)
	return nil
}

func (r *recordingRepo) LogMiss(ctx context.Context, id int64, status int, reason string) error {
	r.misses = append(r.misses, status)
	return nil
}

func TestIngestListing_UpsertsAndEvicts(t *testing.T) {
	repo := &recordingRepo{}
	cache := &fakeCache{store: map[string]any{"listing:12": domain.Listing{ID: 12}}}
	ing := app.NewIngestionService(&fakeFeed{payload: map[string]any{
		"id":    float64(12),
		"title": "Chambre moderne Deïdo",
		"city":  "Douala",
		"price": float64(45000),
	}}, repo, cache)

	if err := ing.IngestListing(context.Background(), 12); err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(repo.upserts) != 1 || repo.upserts[0].ID != 12 {
		t.Fatalf("upserts: %+v", repo.upserts)
	}
	if _, still := cache.store["listing:12"]; still {
		t.Fatal("stale listing cache must be evicted")
	}
}

func TestIngestListing_NotFoundIsRecordedNotFatal(t *testing.T) {
	repo := &recordingRepo{}
	ing := app.NewIngestionService(&fakeFeed{err: domain.ErrNotFound}, repo, &fakeCache{})

	if err := ing.IngestListing(context.Background(), 99); err != nil {
		t.Fatalf("404 must not fail ingestion: %v", err)
	}
	if len(repo.misses) != 1 || repo.misses[0] != 404 {
		t.Fatalf("misses: %+v", repo.misses)
	}
	if len(repo.upserts) != 0 {
		t.Fatalf("no upsert expected: %+v", repo.upserts)
	}
}

func TestIngestListing_UnexpectedErrorBubblesUp(t *testing.T) {
	repo := &recordingRepo{}
	ing := app.NewIngestionService(&fakeFeed{err: errors.New("connection reset")}, repo, &fakeCache{})

	if err := ing.IngestListing(context.Background(), 7); err == nil {
		t.Fatal("expected error")
	}
	if len(repo.misses) != 0 {
		t.Fatalf("unexpected miss log: %+v", repo.misses)
	}
}
