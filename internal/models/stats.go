package models

// TenantStats aggregates local booking counts for one tenant.
type TenantStats struct {
	TenantID          int64 `json:"tenantId"`
	ActiveBookings    int64 `json:"activeBookings"`
	CancelledBookings int64 `json:"cancelledBookings"`
	UpcomingBookings  int64 `json:"upcomingBookings"`
	ActiveHolds       int64 `json:"activeHolds"`
	DistinctGuests    int64 `json:"distinctGuests"`
}

// RoomTypeSummary is the pricing aggregate for one property and stay range.
type RoomTypeSummary struct {
	AverageRates   map[string]float64 `json:"roomTypeRates"`
	AvailableRooms map[string]int     `json:"roomTypeAvailability"`
}

type NightlyRate struct {
	Date string `json:"date"`
	Rate int64  `json:"rate"`
}
