package domain

import (
	"strings"
	"time"
)

type Listing struct {
	ID            int64
	Title         string
	City          string
	Neighborhood  *string
	Price         float64
	PriceUnit     string // month|year|total
	Bedrooms      int
	Bathrooms     int
	Area          float64 // m²
	PropertyType  string  // apartment|studio|house|room|office
	ListingType   string  // rent|sale|guesthouse
	Amenities     []string
	Images        []string
	IsVerified    bool
	IsPublished   bool
	IsAvailable   bool
	ViewCount     int64
	CreatedAt     time.Time
	AvailableFrom *time.Time
}

// MonthlyPrice reports whether the price denotes a monthly rate,
// the only unit comparable against a user's monthly budget.
func (l Listing) MonthlyPrice() bool {
	switch strings.ToLower(l.PriceUnit) {
	case "month", "monthly", "fcfa/month", "per month":
		return true
	}
	return false
}

// Read models & queries

type ListingsQuery struct {
	City         *string
	PropertyType *string
	ListingType  *string
	MinPrice     *float64
	MaxPrice     *float64
	Limit        int
	Cursor       *string
}

type ListingsPage struct {
	Items      []Listing
	NextCursor *string
}
