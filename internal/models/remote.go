package models

import "time"

// AvailabilityQuery asks for rooms of one type free on every night of [Start, End).
type AvailabilityQuery struct {
	Start      time.Time
	End        time.Time
	RoomTypeID int64
	PropertyID int64
	RoomCount  int
}

// RemoteBooking is the create-booking mutation input sent to the Inventory Service.
// Money is sent in whole units, truncated.
type RemoteBooking struct {
	CheckIn           time.Time
	CheckOut          time.Time
	AdultCount        int64
	ChildCount        int64
	TotalCost         int64
	AmountDueAtResort int64
	StatusID          int64
	GuestID           int64
	PromotionID       int64
	PropertyID        int64
	AvailabilityID    int64
}
