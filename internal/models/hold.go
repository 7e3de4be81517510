package models

import "time"

// HoldScope is everything in a RoomHold key except the room.
type HoldScope struct {
	TenantID   int64
	PropertyID int64
	RoomTypeID int64
	StartDate  time.Time
	EndDate    time.Time
}

// RoomHold claims one room for [StartDate, EndDate) while a reservation attempt runs.
type RoomHold struct {
	TenantID   int64
	PropertyID int64
	RoomTypeID int64
	RoomID     int64
	StartDate  time.Time
	EndDate    time.Time
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

func (s HoldScope) Hold(roomID int64) RoomHold {
	return RoomHold{
		TenantID:   s.TenantID,
		PropertyID: s.PropertyID,
		RoomTypeID: s.RoomTypeID,
		RoomID:     roomID,
		StartDate:  s.StartDate,
		EndDate:    s.EndDate,
	}
}
