package app

import (
	"strconv"
	"strings"
	"time"

	"mboa_homes/internal/domain"
)

/********** alias registry (single source of truth) **********/

// Upstream feeds disagree on field names; each canonical field lists the
// paths we accept, most common first. Dot paths descend into nested maps.
var listingAliases = map[string][]string{
	"title":         {"title", "name", "headline"},
	"city":          {"city", "address.city", "location.city", "town"},
	"neighborhood":  {"neighborhood", "neighbourhood", "quarter", "district", "address.district", "location.area"},
	"price_unit":    {"price_unit", "priceUnit", "rate", "period", "price.period"},
	"property_type": {"property_type", "propertyType", "type", "category"},
	"listing_type":  {"listing_type", "listingType", "offer_type", "offerType", "transaction"},
	"timeline":      {"available_from", "availableFrom", "availability.from", "move_in_date"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, key string) string {
	for _, p := range listingAliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// getFloatFlexible: number from several paths (float64/int/string like "80 000").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(v, " ", ""), ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

func firstIntFlexible(m map[string]any, paths ...string) int {
	if f := getFloatFlexible(m, paths...); f != nil {
		return int(*f)
	}
	return 0
}

func firstInt64Flexible(m map[string]any, paths ...string) int64 {
	if f := getFloatFlexible(m, paths...); f != nil {
		return int64(*f)
	}
	return 0
}

// getBoolFlexible accepts bool, 0/1 numbers and "true"/"1" strings.
func getBoolFlexible(m map[string]any, paths ...string) bool {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case bool:
			return v
		case float64:
			return v != 0
		case int:
			return v != 0
		case string:
			s := strings.ToLower(strings.TrimSpace(v))
			if s != "" {
				return s == "true" || s == "1" || s == "yes"
			}
		}
	}
	return false
}

// firstSliceStrings: accept []any with either strings or {url/src/name}.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		if raw, ok := lookupAny(m, k).([]any); ok {
			out := make([]string, 0, len(raw))
			for _, it := range raw {
				switch t := it.(type) {
				case string:
					if t != "" {
						out = append(out, t)
					}
				case map[string]any:
					if u, ok := t["url"].(string); ok && u != "" {
						out = append(out, u)
						continue
					}
					if u, ok := t["src"].(string); ok && u != "" {
						out = append(out, u)
						continue
					}
					if n, ok := t["name"].(string); ok && n != "" {
						out = append(out, n)
						continue
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

// parseTimeFlexible accepts RFC3339 and bare dates.
func parseTimeFlexible(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

/********** listing mapper **********/

func mapListing(p map[string]any) domain.Listing {
	id := firstInt64Flexible(p, "listing_id", "property_id", "id")

	price := 0.0
	if f := getFloatFlexible(p, "price", "price.amount", "monthly_price", "rent"); f != nil {
		price = *f
	}

	unit := firstNonEmptyAlias(p, "price_unit")
	if unit == "" {
		unit = "month"
	}

	var availableFrom *time.Time
	for _, path := range listingAliases["timeline"] {
		if t := parseTimeFlexible(lookupStr(p, path)); t != nil {
			availableFrom = t
			break
		}
	}

	// Absent flags default to visible; feeds only send them to hide.
	published := true
	for _, k := range []string{"is_published", "published"} {
		if _, ok := p[k]; ok {
			published = getBoolFlexible(p, k)
			break
		}
	}
	available := true
	for _, k := range []string{"is_available", "available"} {
		if _, ok := p[k]; ok {
			available = getBoolFlexible(p, k)
			break
		}
	}

	area := 0.0
	if f := getFloatFlexible(p, "area", "surface", "areaSqM", "size"); f != nil {
		area = *f
	}

	return domain.Listing{
		ID:            id,
		Title:         firstNonEmptyAlias(p, "title"),
		City:          firstNonEmptyAlias(p, "city"),
		Neighborhood:  ptrStr(firstNonEmptyAlias(p, "neighborhood")),
		Price:         price,
		PriceUnit:     strings.ToLower(unit),
		Bedrooms:      firstIntFlexible(p, "bedrooms", "rooms", "bedroom_count"),
		Bathrooms:     firstIntFlexible(p, "bathrooms", "bathroom_count"),
		Area:          area,
		PropertyType:  strings.ToLower(firstNonEmptyAlias(p, "property_type")),
		ListingType:   strings.ToLower(firstNonEmptyAlias(p, "listing_type")),
		Amenities:     firstSliceStrings(p, "amenities", "facilities", "features"),
		Images:        firstSliceStrings(p, "images", "photos", "pictures"),
		IsVerified:    getBoolFlexible(p, "is_verified", "verified", "trusted"),
		IsPublished:   published,
		IsAvailable:   available,
		AvailableFrom: availableFrom,
	}
}
