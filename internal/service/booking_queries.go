package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotelbooking/internal/database"
	"hotelbooking/internal/domain"
	"hotelbooking/internal/logging"
	"hotelbooking/internal/models"

	"github.com/rs/zerolog"
)

// BookingQueryService answers read-only questions about local booking mirrors.
type BookingQueryService struct {
	bookings domain.BookingStore
	guests   domain.GuestStore
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewBookingQueryService(bookings domain.BookingStore, guests domain.GuestStore, logger *zerolog.Logger) *BookingQueryService {
	return &BookingQueryService{
		bookings: bookings,
		guests:   guests,
		now:      time.Now,
		logger:   logging.Component(logger, "booking_queries"),
	}
}

func (s *BookingQueryService) Get(ctx context.Context, id int64) (*models.Booking, error) {
	b, err := s.bookings.GetBooking(ctx, id)
	if errors.Is(err, database.ErrBookingNotFound) {
		return nil, domain.NewError(domain.ErrNotFound, fmt.Sprintf("Booking with ID %d not found", id))
	}
	if err != nil {
		return nil, domain.Wrap(domain.ErrUnprocessable, "Entity cannot be processed", err)
	}
	return b, nil
}

// MyBookings lists the guest's bookings, newest stay first.
func (s *BookingQueryService) MyBookings(ctx context.Context, email, token string) ([]models.BookingSummary, error) {
	email = strings.TrimSpace(email)
	if err := checkGuestToken(ctx, s.guests, email, token); err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListBookingsByEmail(ctx, email)
	if err != nil {
		return nil, domain.Wrap(domain.ErrUnprocessable, "Entity cannot be processed", err)
	}
	out := make([]models.BookingSummary, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.Summary())
	}
	return out, nil
}

func (s *BookingQueryService) Review(ctx context.Context, id int64) (*models.BookingReview, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.BookingReview{
		TenantID:     b.TenantID,
		RoomTypeID:   b.RoomTypeID,
		RoomTypeName: b.RoomName,
	}, nil
}

// SuccessfulCount counts the guest's active bookings that start today or later.
func (s *BookingQueryService) SuccessfulCount(ctx context.Context, email, token string) (int64, error) {
	email = strings.TrimSpace(email)
	if err := checkGuestToken(ctx, s.guests, email, token); err != nil {
		return 0, err
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	n, err := s.bookings.CountUpcomingByEmail(ctx, email, today)
	if err != nil {
		return 0, domain.Wrap(domain.ErrUnprocessable, "Entity cannot be processed", err)
	}
	return n, nil
}

// Check succeeds only for a booking that exists and is cancelled.
func (s *BookingQueryService) Check(ctx context.Context, id int64) error {
	b, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if b.Active {
		return domain.NewError(domain.ErrCustom, "Booking is active")
	}
	return nil
}
