// Package recommend ranks candidate listings for a user by combining
// saved preferences, viewing-history patterns and a favorites-overlap
// collaborative signal, then diversifies the top of the ranking so a
// single city or neighborhood cannot dominate the results.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"mboa_homes/internal/adapters/observability"
	"mboa_homes/internal/domain"
)

const (
	candidatePoolSize = 200
	viewEventWindow   = 100 // raw events considered for pattern mining
	ownFavoritesFan   = 10  // own favorites used to find similar users
	similarUsersFan   = 20
)

// Source provides the reads the engine needs. The *sql repo implements
// it; tests use in-memory fakes.
type Source interface {
	ListCandidates(ctx context.Context, limit int) ([]domain.Listing, error)
	GetProfile(ctx context.Context, userID int64) (domain.UserProfile, error)
	ListFavoriteIDs(ctx context.Context, userID int64) ([]int64, error)
	ListViewEvents(ctx context.Context, userID int64, limit int) ([]domain.ViewEvent, error)
	ListListingsByIDs(ctx context.Context, ids []int64) ([]domain.Listing, error)
	ListSimilarUserIDs(ctx context.Context, propertyIDs []int64, excludeUserID int64, limit int) ([]int64, error)
	ListFavoritesOfUsers(ctx context.Context, userIDs []int64) ([]domain.FavoriteEdge, error)
}

type Engine struct {
	src Source
	log zerolog.Logger
	now func() time.Time
}

func NewEngine(src Source, log zerolog.Logger) *Engine {
	return &Engine{src: src, log: log, now: time.Now}
}

// Recommend scores the candidate pool for userID (nil for anonymous
// visitors) and returns up to limit diversified results. Only the
// candidate fetch is fatal; every optional signal degrades to "absent"
// on failure.
func (e *Engine) Recommend(ctx context.Context, userID *int64, limit int) ([]ScoredListing, error) {
	cands, err := e.src.ListCandidates(ctx, candidatePoolSize)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	if len(cands) == 0 {
		return []ScoredListing{}, nil
	}

	var sig *userSignals
	if userID != nil {
		sig = e.loadUserSignals(ctx, *userID)
	}

	scored := scoreAll(cands, sig, e.now())
	return selectDiverse(scored, limit), nil
}

func (e *Engine) loadUserSignals(ctx context.Context, userID int64) *userSignals {
	sig := &userSignals{}

	if p, err := e.src.GetProfile(ctx, userID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			e.log.Warn().Err(err).Int64("user", userID).Msg("profile fetch failed, skipping signal")
			observability.ObserveRecoSkip("profile")
		}
	} else {
		sig.profile = &p
	}

	favs, err := e.src.ListFavoriteIDs(ctx, userID)
	if err != nil {
		e.log.Warn().Err(err).Int64("user", userID).Msg("favorites fetch failed, skipping signal")
		observability.ObserveRecoSkip("favorites")
	} else if len(favs) > 0 {
		sig.favorites = make(map[int64]struct{}, len(favs))
		for _, id := range favs {
			sig.favorites[id] = struct{}{}
		}
		sig.coFavored = e.mineCoFavorites(ctx, userID, favs, sig.favorites)
	}

	sig.pattern = e.mineViewingPattern(ctx, userID)
	return sig
}

func (e *Engine) mineViewingPattern(ctx context.Context, userID int64) *ViewingPattern {
	events, err := e.src.ListViewEvents(ctx, userID, viewEventWindow)
	if err != nil {
		e.log.Warn().Err(err).Int64("user", userID).Msg("view history fetch failed, skipping signal")
		observability.ObserveRecoSkip("views")
		return nil
	}
	if len(events) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(events))
	seen := make(map[int64]struct{}, len(events))
	for _, ev := range events {
		if _, ok := seen[ev.PropertyID]; ok {
			continue
		}
		seen[ev.PropertyID] = struct{}{}
		ids = append(ids, ev.PropertyID)
	}
	viewed, err := e.src.ListListingsByIDs(ctx, ids)
	if err != nil {
		e.log.Warn().Err(err).Int64("user", userID).Msg("viewed listings fetch failed, skipping signal")
		observability.ObserveRecoSkip("views")
		return nil
	}
	byID := make(map[int64]domain.Listing, len(viewed))
	for _, l := range viewed {
		byID[l.ID] = l
	}
	return MinePattern(events, byID)
}

// mineCoFavorites is the 2-hop traversal: own favorites → users sharing
// one → their other favorites, counted per distinct similar user.
func (e *Engine) mineCoFavorites(ctx context.Context, userID int64, favs []int64, own map[int64]struct{}) map[int64]int {
	if len(favs) > ownFavoritesFan {
		favs = favs[:ownFavoritesFan]
	}
	similar, err := e.src.ListSimilarUserIDs(ctx, favs, userID, similarUsersFan)
	if err != nil {
		e.log.Warn().Err(err).Int64("user", userID).Msg("similar users fetch failed, skipping signal")
		observability.ObserveRecoSkip("collaborative")
		return nil
	}
	if len(similar) == 0 {
		return nil
	}
	edges, err := e.src.ListFavoritesOfUsers(ctx, similar)
	if err != nil {
		e.log.Warn().Err(err).Int64("user", userID).Msg("co-favorites fetch failed, skipping signal")
		observability.ObserveRecoSkip("collaborative")
		return nil
	}

	counts := make(map[int64]int)
	perUser := make(map[int64]map[int64]struct{})
	for _, edge := range edges {
		if _, mine := own[edge.PropertyID]; mine {
			continue
		}
		users := perUser[edge.PropertyID]
		if users == nil {
			users = make(map[int64]struct{})
			perUser[edge.PropertyID] = users
		}
		if _, dup := users[edge.UserID]; dup {
			continue
		}
		users[edge.UserID] = struct{}{}
		counts[edge.PropertyID]++
	}
	return counts
}
