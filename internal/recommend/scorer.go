package recommend

import (
	"math"
	"time"

	"mboa_homes/internal/domain"
)

// Channel weights, in strictly decreasing priority. A perfect score on a
// higher channel always outranks a perfect score on any lower one.
const (
	weightProfile      = 30.0
	weightViewing      = 24.0
	weightCollab       = 18.0
	weightLocation     = 10.0
	weightAvailability = 7.0
	weightPopularity   = 5.0
	weightRecency      = 3.0
	weightVerified     = 2.0

	// Flat credit for amenity-rich listings on the anonymous path.
	amenityRichBonus = 2.0

	// Sinks an already-favorited listing below any attainable positive
	// score (max is the sum of all weights, ≈99) without removing it.
	favoritedPenalty = -200.0

	recencyWindowDays = 14
	minCoFavoriters   = 2
)

type ScoredListing struct {
	Listing domain.Listing
	Score   float64
	Reasons []string
}

// userSignals carries everything mined for an authenticated user. Any
// field may be nil/empty when the corresponding fetch failed or returned
// nothing; the scorer then skips that extractor.
type userSignals struct {
	profile   *domain.UserProfile
	pattern   *ViewingPattern
	favorites map[int64]struct{}
	coFavored map[int64]int // candidate id -> distinct similar users favoriting it
}

// score combines all signal channels for one candidate. sig == nil is the
// anonymous path: only verification, popularity, recency and amenity
// richness apply.
func score(l domain.Listing, sig *userSignals, now time.Time) ScoredListing {
	var total float64
	var reasons []string

	if sig != nil {
		if sig.profile != nil {
			match, location, availability, rs := profileSignal(l, sig.profile, now)
			total += weightProfile*match + weightLocation*location + weightAvailability*availability
			reasons = append(reasons, rs...)
		}
		if sig.pattern != nil {
			s, rs := patternSignal(l, sig.pattern)
			total += weightViewing * s
			reasons = append(reasons, rs...)
		}
		if sig.coFavored[l.ID] >= minCoFavoriters {
			total += weightCollab
			reasons = append(reasons, "popular with similar profiles")
		}
	}

	pop := math.Log10(float64(l.ViewCount)+1) / 3
	if pop > 1 {
		pop = 1
	}
	total += weightPopularity * pop
	if l.ViewCount > 100 {
		reasons = append(reasons, "very popular")
	}

	ageDays := now.Sub(l.CreatedAt).Hours() / 24
	if rec := (recencyWindowDays - ageDays) / recencyWindowDays; rec > 0 {
		if rec > 1 {
			rec = 1
		}
		total += weightRecency * rec
	}
	if ageDays < 3 {
		reasons = append(reasons, "new")
	}

	if l.IsVerified {
		total += weightVerified
		reasons = append(reasons, "verified")
	}

	if sig == nil && len(l.Amenities) > 5 {
		total += amenityRichBonus
	}

	if sig != nil {
		if _, ok := sig.favorites[l.ID]; ok {
			total += favoritedPenalty
		}
	}

	if len(reasons) > 3 {
		reasons = reasons[:3]
	}
	return ScoredListing{Listing: l, Score: total, Reasons: reasons}
}

func scoreAll(cands []domain.Listing, sig *userSignals, now time.Time) []ScoredListing {
	out := make([]ScoredListing, 0, len(cands))
	for _, l := range cands {
		out = append(out, score(l, sig, now))
	}
	return out
}
