package recommend

import (
	"math"
	"sort"
)

// otherBucket groups listings with no neighborhood for cap accounting.
const otherBucket = "other"

// selectDiverse re-ranks scored candidates and returns at most limit of
// them. One pass admits candidates in score order while no city exceeds
// ceil(limit×0.6) admissions and no neighborhood exceeds ceil(limit×0.4);
// while fewer than half the requested results are admitted the caps are
// waived so tight caps cannot stall the selection. A second pass backfills
// from the skipped candidates, still in score order, until limit is
// reached. The result is never re-sorted after backfill.
func selectDiverse(items []ScoredListing, limit int) []ScoredListing {
	if limit <= 0 || len(items) == 0 {
		return []ScoredListing{}
	}

	sorted := make([]ScoredListing, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	cityCap := int(math.Ceil(float64(limit) * 0.6))
	hoodCap := int(math.Ceil(float64(limit) * 0.4))

	cityCount := make(map[string]int)
	hoodCount := make(map[string]int)
	picked := make([]ScoredListing, 0, limit)
	var skipped []ScoredListing

	for _, it := range sorted {
		if len(picked) == limit {
			break
		}
		city := normCity(it.Listing.City)
		hood := otherBucket
		if it.Listing.Neighborhood != nil && *it.Listing.Neighborhood != "" {
			hood = normCity(*it.Listing.Neighborhood)
		}

		underCaps := cityCount[city] < cityCap && hoodCount[hood] < hoodCap
		if underCaps || len(picked) < limit/2 {
			picked = append(picked, it)
			cityCount[city]++
			hoodCount[hood]++
			continue
		}
		skipped = append(skipped, it)
	}

	for _, it := range skipped {
		if len(picked) == limit {
			break
		}
		picked = append(picked, it)
	}
	return picked
}
