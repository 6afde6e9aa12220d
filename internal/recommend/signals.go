package recommend

import (
	"fmt"
	"strings"
	"time"

	"mboa_homes/internal/domain"
)

func normCity(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}

// fuzzyNeighborhood matches when either string contains the other,
// case-insensitive. "Bonapriso" matches "bonapriso centre" and vice versa.
func fuzzyNeighborhood(a, b string) bool {
	a, b = normCity(a), normCity(b)
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// profileSignal scores one candidate against saved preferences.
// It yields three independent channels: preference match, location and
// availability, each in [0,1], plus the reasons it can justify.
func profileSignal(l domain.Listing, p *domain.UserProfile, now time.Time) (match, location, availability float64, reasons []string) {
	if containsFold(p.PreferredPropertyTypes, l.PropertyType) {
		match += 0.30
	}
	if containsFold(p.PreferredListingTypes, l.ListingType) {
		match += 0.20
	}

	// Location: city first, then fuzzy neighborhood. Reasons lead the list
	// because location is what users scan for.
	if p.City != nil && normCity(*p.City) == normCity(l.City) {
		location += 0.8
		reasons = append(reasons, "in your city")
	}
	if l.Neighborhood != nil {
		for _, n := range p.PreferredNeighborhoods {
			if fuzzyNeighborhood(*l.Neighborhood, n) {
				location += 0.8
				reasons = append(reasons, "desired neighborhood")
				break
			}
		}
	}
	if location > 1 {
		location = 1
	}

	// Budget only compares monthly rates against the monthly budget.
	if l.MonthlyPrice() && p.BudgetMin != nil && p.BudgetMax != nil {
		switch {
		case l.Price >= *p.BudgetMin && l.Price <= *p.BudgetMax:
			match += 0.35
			reasons = append(reasons, "within budget")
		case l.Price >= *p.BudgetMin*0.85 && l.Price <= *p.BudgetMax*1.15:
			match += 0.15
			reasons = append(reasons, "near your budget")
		}
	}

	if len(p.PreferredAmenities) > 0 {
		matched := 0
		for _, a := range p.PreferredAmenities {
			if containsFold(l.Amenities, a) {
				matched++
			}
		}
		match += 0.15 * float64(matched) / float64(len(p.PreferredAmenities))
		if matched >= 3 {
			reasons = append(reasons, fmt.Sprintf("%d desired amenities", matched))
		}
	}

	if days, ok := daysUntilAvailable(l, now); ok && timelineAccepts(p.MoveInTimeline, days) {
		availability = 1
		if days <= 7 {
			reasons = append(reasons, "available immediately")
		}
	}
	return match, location, availability, reasons
}

// daysUntilAvailable treats a missing available_from as available now.
func daysUntilAvailable(l domain.Listing, now time.Time) (int, bool) {
	if l.AvailableFrom == nil {
		return 0, true
	}
	d := int(l.AvailableFrom.Sub(now).Hours() / 24)
	if d < 0 {
		d = 0
	}
	return d, true
}

func timelineAccepts(timeline string, days int) bool {
	switch timeline {
	case domain.TimelineImmediate:
		return days <= 7
	case domain.TimelineWithinMonth:
		return days <= 30
	case domain.TimelineWithin3M:
		return days <= 90
	case domain.TimelineFlexible:
		return true
	}
	return false
}

// Per-field ceilings keep one dominant habit from saturating the
// viewing-history channel.
const (
	patternTypeCap    = 0.30
	patternListingCap = 0.20
	patternCityCap    = 0.20
	patternHoodCap    = 0.10
	patternPriceCred  = 0.10
	patternAmenityCap = 0.10
)

// patternSignal scores one candidate against the mined viewing pattern,
// returning a value in [0,1].
func patternSignal(l domain.Listing, p *ViewingPattern) (score float64, reasons []string) {
	total := float64(p.Engaged)

	freqCredit := func(freq int, ceiling float64) float64 {
		// Saturates once the value accounts for half the engaged views.
		frac := 2 * float64(freq) / total
		if frac > 1 {
			frac = 1
		}
		return ceiling * frac
	}

	typeFreq := p.PropertyTypes[l.PropertyType]
	score += freqCredit(typeFreq, patternTypeCap)
	score += freqCredit(p.ListingTypes[l.ListingType], patternListingCap)
	score += freqCredit(p.Cities[normCity(l.City)], patternCityCap)
	if l.Neighborhood != nil {
		score += freqCredit(p.Neighborhoods[normCity(*l.Neighborhood)], patternHoodCap)
	}

	if p.InPriceBand(l.Price) {
		score += patternPriceCred
	}

	seen := 0
	for _, a := range l.Amenities {
		if p.Amenities[a] > 0 {
			seen++
		}
	}
	amenity := 0.02 * float64(seen)
	if amenity > patternAmenityCap {
		amenity = patternAmenityCap
	}
	score += amenity

	if typeFreq >= 3 {
		reasons = append(reasons, "viewed type frequently")
	}
	return score, reasons
}
