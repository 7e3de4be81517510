package domain

import (
	"context"
	"time"

	"hotelbooking/internal/models"
)

// InventoryService is the remote system of record for rooms, availability and bookings.
type InventoryService interface {
	// ListFreeRoomIDs returns one room id per unbooked night record in range.
	ListFreeRoomIDs(ctx context.Context, start, end time.Time, roomTypeID, propertyID int64) ([]int64, error)
	ListFreeAvailabilityIDs(ctx context.Context, roomID, propertyID int64, start, end time.Time) ([]int64, error)
	CreateGuest(ctx context.Context, name string) (int64, error)
	CreateBooking(ctx context.Context, in models.RemoteBooking) (int64, error)
	// LinkAvailability connects a record to bookingID; bookingID 0 unlinks it.
	LinkAvailability(ctx context.Context, availabilityID, bookingID int64) error
	ResetBookingStatus(ctx context.Context, bookingID, statusID int64) error
	ListBookedAvailabilityIDs(ctx context.Context, bookingID int64) ([]int64, error)
}

type AvailabilityResolver interface {
	Resolve(ctx context.Context, q models.AvailabilityQuery) ([]int64, error)
}

type HoldStore interface {
	InsertHold(ctx context.Context, hold *models.RoomHold) error
	DeleteHold(ctx context.Context, hold models.RoomHold) error
	DeleteExpiredHolds(ctx context.Context, now time.Time) (int64, error)
}

type GuestStore interface {
	GetGuestByEmail(ctx context.Context, email string) (*models.Guest, error)
	UpsertGuest(ctx context.Context, guest *models.Guest) error
	UpdateGuestToken(ctx context.Context, email, token string) error
}

type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	SetBookingActive(ctx context.Context, id int64, active bool) error
	SetBookingOTP(ctx context.Context, id int64, otp string) error
	// ConsumeBookingOTP clears the code only if it equals otp; false means no match.
	ConsumeBookingOTP(ctx context.Context, id int64, otp string) (bool, error)
	ListBookingsByEmail(ctx context.Context, email string) ([]*models.Booking, error)
	CountUpcomingByEmail(ctx context.Context, email string, today time.Time) (int64, error)
	ListBookingsByTenant(ctx context.Context, tenantID int64) ([]*models.Booking, error)
	DeleteBookingsByTenant(ctx context.Context, tenantID int64) (int64, error)
}

type TenantStore interface {
	GetTenant(ctx context.Context, id int64) (*models.Tenant, error)
}

type PromotionStore interface {
	ListActivePromotions(ctx context.Context) ([]models.Promotion, error)
	UpsertPromotion(ctx context.Context, promo *models.Promotion) error
}

type StatsStore interface {
	CountBookings(ctx context.Context, tenantID int64, active bool) (int64, error)
	CountUpcomingBookings(ctx context.Context, tenantID int64, today time.Time) (int64, error)
	CountActiveHolds(ctx context.Context, tenantID int64, now time.Time) (int64, error)
	CountDistinctGuests(ctx context.Context, tenantID int64) (int64, error)
}

// CacheStore holds short-lived derived data and rate-limit counters.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Notifier delivers a notification out of band.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}
