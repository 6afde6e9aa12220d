package recommend

import (
	"testing"
	"time"

	"mboa_homes/internal/domain"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func pstr(s string) *string { return &s }
func pf(f float64) *float64 { return &f }

// aged returns l with a creation date old enough to earn no recency credit.
func aged(l domain.Listing) domain.Listing {
	l.CreatedAt = now.AddDate(0, -2, 0)
	return l
}

func TestScore_ChannelPriorityOrdering(t *testing.T) {
	// Each case isolates one channel at its maximum on an otherwise
	// creditless listing; scores must strictly decrease down the table.
	cases := []struct {
		name  string
		build func() (domain.Listing, *userSignals)
	}{
		{"profile match", func() (domain.Listing, *userSignals) {
			l := aged(lst(1, "Douala", "apartment", "rent", 80000, "wifi", "parking", "water"))
			return l, &userSignals{profile: &domain.UserProfile{
				BudgetMin:              pf(50000),
				BudgetMax:              pf(100000),
				PreferredPropertyTypes: []string{"apartment"},
				PreferredListingTypes:  []string{"rent"},
				PreferredAmenities:     []string{"wifi", "parking", "water"},
			}}
		}},
		{"viewing pattern", func() (domain.Listing, *userSignals) {
			l := aged(lst(1, "Douala", "apartment", "rent", 80000, "wifi", "parking", "water", "generator", "balcony"))
			l.Neighborhood = pstr("Bonapriso")
			return l, &userSignals{pattern: &ViewingPattern{
				PropertyTypes: map[string]int{"apartment": 2},
				ListingTypes:  map[string]int{"rent": 2},
				Cities:        map[string]int{"douala": 2},
				Neighborhoods: map[string]int{"bonapriso": 2},
				Amenities:     map[string]int{"wifi": 2, "parking": 2, "water": 2, "generator": 2, "balcony": 2},
				PriceMin:      56000,
				PriceMax:      104000,
				Engaged:       2,
			}}
		}},
		{"collaborative", func() (domain.Listing, *userSignals) {
			l := aged(lst(1, "Douala", "apartment", "rent", 80000))
			return l, &userSignals{coFavored: map[int64]int{1: 2}}
		}},
		{"location only", func() (domain.Listing, *userSignals) {
			l := aged(lst(1, "Douala", "apartment", "rent", 80000))
			return l, &userSignals{profile: &domain.UserProfile{City: pstr("douala")}}
		}},
		{"availability only", func() (domain.Listing, *userSignals) {
			l := aged(lst(1, "Douala", "apartment", "rent", 80000))
			return l, &userSignals{profile: &domain.UserProfile{MoveInTimeline: domain.TimelineFlexible}}
		}},
		{"popularity only", func() (domain.Listing, *userSignals) {
			l := aged(lst(1, "Douala", "apartment", "rent", 80000))
			l.ViewCount = 5000
			return l, &userSignals{}
		}},
		{"recency only", func() (domain.Listing, *userSignals) {
			l := lst(1, "Douala", "apartment", "rent", 80000)
			l.CreatedAt = now
			return l, &userSignals{}
		}},
		{"verification only", func() (domain.Listing, *userSignals) {
			l := aged(lst(1, "Douala", "apartment", "rent", 80000))
			l.IsVerified = true
			return l, &userSignals{}
		}},
	}

	prev := 1e9
	prevName := "(start)"
	for _, tc := range cases {
		l, sig := tc.build()
		got := score(l, sig, now).Score
		if got <= 0 {
			t.Fatalf("%s: score = %v, want > 0", tc.name, got)
		}
		if got >= prev {
			t.Fatalf("%s (%v) must rank below %s (%v)", tc.name, got, prevName, prev)
		}
		prev, prevName = got, tc.name
	}
}

func TestScore_FavoritedPenaltySinksBelowAnyNormalScore(t *testing.T) {
	l := aged(lst(7, "Douala", "apartment", "rent", 80000))
	plain := score(l, &userSignals{}, now)
	fav := score(l, &userSignals{favorites: map[int64]struct{}{7: {}}}, now)

	if fav.Score >= plain.Score {
		t.Fatalf("favorited %v must score below plain %v", fav.Score, plain.Score)
	}
	if got := plain.Score - fav.Score; got != -favoritedPenalty {
		t.Fatalf("penalty delta = %v, want %v", got, -favoritedPenalty)
	}
	// Even a maxed-out favorited listing must fall below a zero-credit one.
	maxed := aged(lst(7, "Douala", "apartment", "rent", 80000))
	maxed.IsVerified = true
	maxed.ViewCount = 100000
	maxed.CreatedAt = now
	sig := &userSignals{
		favorites: map[int64]struct{}{7: {}},
		coFavored: map[int64]int{7: 5},
		profile: &domain.UserProfile{
			City:                   pstr("Douala"),
			MoveInTimeline:         domain.TimelineFlexible,
			PreferredPropertyTypes: []string{"apartment"},
			PreferredListingTypes:  []string{"rent"},
			BudgetMin:              pf(50000),
			BudgetMax:              pf(100000),
		},
	}
	if got := score(maxed, sig, now).Score; got >= 0 {
		t.Fatalf("maxed favorited score = %v, want < 0", got)
	}
}

func TestScore_RecencyDecay(t *testing.T) {
	prev := 1e9
	for age := 0; age <= 20; age++ {
		l := lst(1, "Douala", "apartment", "rent", 80000)
		l.CreatedAt = now.Add(-time.Duration(age) * 24 * time.Hour)
		got := score(l, &userSignals{}, now).Score
		if got > prev {
			t.Fatalf("recency must be non-increasing: age %d scored %v > %v", age, got, prev)
		}
		if age >= 14 && got != 0 {
			t.Fatalf("age %dd: score = %v, want 0", age, got)
		}
		prev = got
	}
}

func TestScore_NewAndPopularReasons(t *testing.T) {
	l := lst(1, "Douala", "apartment", "rent", 80000)
	l.CreatedAt = now.Add(-24 * time.Hour)
	l.ViewCount = 101
	l.IsVerified = true
	got := score(l, &userSignals{}, now)
	want := []string{"very popular", "new", "verified"}
	if len(got.Reasons) != len(want) {
		t.Fatalf("reasons = %v, want %v", got.Reasons, want)
	}
	for i := range want {
		if got.Reasons[i] != want[i] {
			t.Fatalf("reasons = %v, want %v", got.Reasons, want)
		}
	}
}

func TestScore_ReasonsTruncatedProfileFirst(t *testing.T) {
	l := aged(lst(1, "Douala", "apartment", "rent", 80000))
	l.Neighborhood = pstr("Bonapriso")
	l.IsVerified = true
	sig := &userSignals{profile: &domain.UserProfile{
		City:                   pstr("Douala"),
		PreferredNeighborhoods: []string{"bonapriso"},
		BudgetMin:              pf(50000),
		BudgetMax:              pf(100000),
	}}
	got := score(l, sig, now)
	want := []string{"in your city", "desired neighborhood", "within budget"}
	if len(got.Reasons) != 3 {
		t.Fatalf("reasons = %v, want 3 entries", got.Reasons)
	}
	for i := range want {
		if got.Reasons[i] != want[i] {
			t.Fatalf("reasons = %v, want %v", got.Reasons, want)
		}
	}
}

func TestScore_NearBudgetExclusiveOfWithinBudget(t *testing.T) {
	l := aged(lst(1, "Douala", "apartment", "rent", 110000))
	sig := &userSignals{profile: &domain.UserProfile{
		BudgetMin: pf(50000),
		BudgetMax: pf(100000),
	}}
	got := score(l, sig, now)
	if len(got.Reasons) != 1 || got.Reasons[0] != "near your budget" {
		t.Fatalf("reasons = %v, want [near your budget]", got.Reasons)
	}
}

func TestScore_BudgetIgnoredForNonMonthlyUnits(t *testing.T) {
	l := aged(lst(1, "Douala", "apartment", "sale", 80000))
	l.PriceUnit = "total"
	sig := &userSignals{profile: &domain.UserProfile{
		BudgetMin: pf(50000),
		BudgetMax: pf(100000),
	}}
	if got := score(l, sig, now); len(got.Reasons) != 0 || got.Score != 0 {
		t.Fatalf("sale price must not earn budget credit: %+v", got)
	}
}

func TestScore_AnonymousPath(t *testing.T) {
	l := lst(1, "Douala", "apartment", "rent", 80000,
		"wifi", "parking", "water", "generator", "balcony", "security")
	l.CreatedAt = now
	l.IsVerified = true
	l.ViewCount = 999

	got := score(l, nil, now)
	// verification + full recency + capped-ish popularity + amenity richness
	wantMin := weightVerified + weightRecency + amenityRichBonus
	if got.Score <= wantMin {
		t.Fatalf("anonymous score = %v, want > %v", got.Score, wantMin)
	}
	if got.Score > weightVerified+weightRecency+weightPopularity+amenityRichBonus {
		t.Fatalf("anonymous score = %v exceeds anonymous channel budget", got.Score)
	}

	// Five or fewer amenities earn no richness bonus.
	few := l
	few.Amenities = few.Amenities[:5]
	if diff := got.Score - score(few, nil, now).Score; diff != amenityRichBonus {
		t.Fatalf("amenity richness bonus = %v, want %v", diff, amenityRichBonus)
	}
}
