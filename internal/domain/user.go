package domain

import "time"

// Move-in timelines as stored on user_profiles.move_in_timeline.
const (
	TimelineImmediate    = "immediate"
	TimelineWithinMonth  = "within_month"
	TimelineWithin3M     = "within_3months"
	TimelineFlexible     = "flexible"
)

type UserProfile struct {
	UserID                 int64
	City                   *string
	BudgetMin              *float64
	BudgetMax              *float64
	PreferredPropertyTypes []string
	PreferredListingTypes  []string
	PreferredNeighborhoods []string
	PreferredAmenities     []string
	MoveInTimeline         string
}

type ViewEvent struct {
	PropertyID int64
	UserID     *int64 // nil for anonymous views
	Duration   int    // seconds
	ViewedAt   time.Time
}

type FavoriteEdge struct {
	UserID     int64
	PropertyID int64
}
