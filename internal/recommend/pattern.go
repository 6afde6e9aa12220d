package recommend

import (
	"time"

	"mboa_homes/internal/domain"
)

// engagedThreshold is the minimum view duration treated as genuine interest.
const engagedThreshold = 15 * time.Second

// ViewingPattern is the aggregate mined from a user's engaged views.
// Frequencies count engaged views per field value; the price band is
// 0.7×min .. 1.3×max over the prices of engaged listings.
type ViewingPattern struct {
	PropertyTypes map[string]int
	ListingTypes  map[string]int
	Cities        map[string]int
	Neighborhoods map[string]int
	Amenities     map[string]int
	PriceMin      float64
	PriceMax      float64
	AvgDuration   float64 // seconds, engaged views only
	Engaged       int
}

// MinePattern derives a ViewingPattern from raw view events and the
// listings they refer to. Events shorter than the engagement threshold,
// or referring to unknown listings, are ignored. Returns nil when no
// engaged view remains.
func MinePattern(events []domain.ViewEvent, listings map[int64]domain.Listing) *ViewingPattern {
	p := &ViewingPattern{
		PropertyTypes: make(map[string]int),
		ListingTypes:  make(map[string]int),
		Cities:        make(map[string]int),
		Neighborhoods: make(map[string]int),
		Amenities:     make(map[string]int),
	}

	var totalDur float64
	var priceMin, priceMax float64
	for _, ev := range events {
		if time.Duration(ev.Duration)*time.Second <= engagedThreshold {
			continue
		}
		l, ok := listings[ev.PropertyID]
		if !ok {
			continue
		}

		p.Engaged++
		totalDur += float64(ev.Duration)
		p.PropertyTypes[l.PropertyType]++
		p.ListingTypes[l.ListingType]++
		p.Cities[normCity(l.City)]++
		if l.Neighborhood != nil && *l.Neighborhood != "" {
			p.Neighborhoods[normCity(*l.Neighborhood)]++
		}
		for _, a := range l.Amenities {
			p.Amenities[a]++
		}
		if p.Engaged == 1 || l.Price < priceMin {
			priceMin = l.Price
		}
		if l.Price > priceMax {
			priceMax = l.Price
		}
	}

	if p.Engaged == 0 {
		return nil
	}
	p.PriceMin = priceMin * 0.7
	p.PriceMax = priceMax * 1.3
	p.AvgDuration = totalDur / float64(p.Engaged)
	return p
}

// InPriceBand reports whether price falls in the derived band.
func (p *ViewingPattern) InPriceBand(price float64) bool {
	return price >= p.PriceMin && price <= p.PriceMax
}
