package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"hotelbooking/internal/config"
	"hotelbooking/internal/database"
	"hotelbooking/internal/domain"
	"hotelbooking/internal/events"
	"hotelbooking/internal/logging"
	"hotelbooking/internal/metrics"
	"hotelbooking/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpMin   = 100000
	otpRange = 900000
)

// CancellationService reverses committed bookings. Status reset happens before
// unlinking; unlink failures are logged and left for cleanup.
type CancellationService struct {
	inventory domain.InventoryService
	bookings  domain.BookingStore
	guests    domain.GuestStore
	tenants   domain.TenantStore
	throttle  domain.CacheStore
	events    domain.EventPublisher
	cfg       config.BookingConfig
	logger    *zerolog.Logger
}

func NewCancellationService(
	inventory domain.InventoryService,
	bookings domain.BookingStore,
	guests domain.GuestStore,
	tenants domain.TenantStore,
	throttle domain.CacheStore,
	publisher domain.EventPublisher,
	cfg config.BookingConfig,
	logger *zerolog.Logger,
) *CancellationService {
	return &CancellationService{
		inventory: inventory,
		bookings:  bookings,
		guests:    guests,
		tenants:   tenants,
		throttle:  throttle,
		events:    publisher,
		cfg:       cfg,
		logger:    logging.Component(logger, "cancellation"),
	}
}

// CancelAdmin cancels a booking for a trusted caller.
func (s *CancellationService) CancelAdmin(ctx context.Context, bookingID int64) error {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	return s.cancel(ctx, booking)
}

// CancelWithToken cancels a booking on behalf of the guest owning token.
func (s *CancellationService) CancelWithToken(ctx context.Context, bookingID int64, token string) error {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := checkGuestToken(ctx, s.guests, booking.GuestInfo.EmailID, token); err != nil {
		return err
	}
	return s.cancel(ctx, booking)
}

func (s *CancellationService) cancel(ctx context.Context, booking *models.Booking) error {
	if !booking.Active {
		return domain.NewError(domain.ErrCustom, "Booking already cancelled")
	}
	log := s.logger.With().Int64("booking_id", booking.BookingID).Logger()

	if err := s.inventory.ResetBookingStatus(ctx, booking.BookingID, s.cfg.CancelledStatusID); err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)
	if err := s.bookings.SetBookingActive(ctx, booking.BookingID, false); err != nil {
		log.Error().Err(err).Msg("Failed to deactivate booking mirror")
		return domain.Wrap(domain.ErrUnprocessable, "Entity cannot be processed", err)
	}
	booking.Active = false

	s.unlinkAll(ctx, booking.BookingID, &log)
	metrics.IncCancelled()
	log.Info().Msg("Booking cancelled")

	if s.events != nil {
		if err := s.events.PublishJSON(events.EventBookingCancelled, bookingPayload(booking)); err != nil {
			log.Error().Err(err).Msg("publish event error")
		}
	}
	return nil
}

func (s *CancellationService) unlinkAll(ctx context.Context, bookingID int64, log *zerolog.Logger) {
	ids, err := s.inventory.ListBookedAvailabilityIDs(ctx, bookingID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list linked availability records")
		return
	}
	for _, id := range ids {
		if err := s.inventory.LinkAvailability(ctx, id, models.UnlinkedBookingID); err != nil {
			log.Error().Err(err).Int64("availability_id", id).Msg("Failed to unlink availability record")
		}
	}
}

// SendOTP issues a fresh cancellation code for the booking and queues it for
// delivery to email.
func (s *CancellationService) SendOTP(ctx context.Context, bookingID int64, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.NewError(domain.ErrValidation, "emailId is required")
	}
	if s.throttle != nil && s.cfg.OTPSendLimit > 0 {
		allowed, err := s.throttle.CheckRateLimit(ctx, fmt.Sprintf("otp:%d", bookingID), s.cfg.OTPSendLimit, s.cfg.OTPSendWindow)
		if err != nil {
			s.logger.Warn().Err(err).Int64("booking_id", bookingID).Msg("OTP throttle unavailable")
		} else if !allowed {
			return domain.NewError(domain.ErrCustom, "Too many OTP requests")
		}
	}

	if _, err := s.loadBooking(ctx, bookingID); err != nil {
		return err
	}

	otp, err := generateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	if err := s.bookings.SetBookingOTP(ctx, bookingID, otp); err != nil {
		return domain.Wrap(domain.ErrUnprocessable, "Entity cannot be processed", err)
	}

	if s.events != nil {
		payload := events.OTPPayload{BookingID: bookingID, Email: email, OTP: otp}
		if err := s.events.PublishJSON(events.EventOTPIssued, payload); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("Failed to queue OTP")
		}
	}
	s.logger.Info().Int64("booking_id", bookingID).Msg("OTP issued")
	return nil
}

// VerifyOTP consumes a matching code and cancels the booking. A wrong code
// reports false and changes nothing.
func (s *CancellationService) VerifyOTP(ctx context.Context, bookingID int64, otp string) (bool, error) {
	if _, err := s.loadBooking(ctx, bookingID); err != nil {
		return false, err
	}
	ok, err := s.bookings.ConsumeBookingOTP(ctx, bookingID, strings.TrimSpace(otp))
	if err != nil {
		return false, domain.Wrap(domain.ErrUnprocessable, "Entity cannot be processed", err)
	}
	if !ok {
		s.logger.Info().Int64("booking_id", bookingID).Msg("OTP verification failed")
		return false, nil
	}
	if err := s.CancelAdmin(ctx, bookingID); err != nil {
		if errors.Is(err, domain.ErrFetchFailed) {
			// Nothing changed remotely, so the guest may retry with the same code.
			if rerr := s.bookings.SetBookingOTP(context.WithoutCancel(ctx), bookingID, strings.TrimSpace(otp)); rerr != nil {
				s.logger.Error().Err(rerr).Int64("booking_id", bookingID).Msg("Failed to restore OTP")
			}
		}
		return false, err
	}
	return true, nil
}

// DeleteAll cancels remotely and then removes every local booking of a tenant.
func (s *CancellationService) DeleteAll(ctx context.Context, tenantID int64, secret string) (int64, error) {
	tenant, err := s.tenants.GetTenant(ctx, tenantID)
	if errors.Is(err, database.ErrTenantNotFound) {
		return 0, domain.NewError(domain.ErrNotFound, "Tenant not found")
	}
	if err != nil {
		return 0, domain.Wrap(domain.ErrUnprocessable, "Entity cannot be processed", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(tenant.SecretHash), []byte(secret)); err != nil {
		return 0, domain.NewError(domain.ErrUnauthorized, "Unauthorized access")
	}

	bookings, err := s.bookings.ListBookingsByTenant(ctx, tenantID)
	if err != nil {
		return 0, domain.Wrap(domain.ErrUnprocessable, "Entity cannot be processed", err)
	}
	for _, b := range bookings {
		log := s.logger.With().Int64("tenant_id", tenantID).Int64("booking_id", b.BookingID).Logger()
		if err := s.inventory.ResetBookingStatus(ctx, b.BookingID, s.cfg.CancelledStatusID); err != nil {
			log.Error().Err(err).Msg("Failed to reset remote booking status")
		}
		s.unlinkAll(ctx, b.BookingID, &log)
	}

	n, err := s.bookings.DeleteBookingsByTenant(ctx, tenantID)
	if err != nil {
		return 0, domain.Wrap(domain.ErrUnprocessable, "Entity cannot be processed", err)
	}
	s.logger.Warn().Int64("tenant_id", tenantID).Int64("deleted", n).Msg("All tenant bookings deleted")
	return n, nil
}

func (s *CancellationService) loadBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if errors.Is(err, database.ErrBookingNotFound) {
		return nil, domain.NewError(domain.ErrNotFound, fmt.Sprintf("Booking with ID %d not found", bookingID))
	}
	if err != nil {
		return nil, domain.Wrap(domain.ErrUnprocessable, "Entity cannot be processed", err)
	}
	return booking, nil
}

// checkGuestToken matches token against the latest one stored for email.
func checkGuestToken(ctx context.Context, guests domain.GuestStore, email, token string) error {
	if token == "" {
		return domain.NewError(domain.ErrUnauthorized, "Unauthorized access")
	}
	guest, err := guests.GetGuestByEmail(ctx, email)
	if errors.Is(err, database.ErrGuestNotFound) {
		return domain.NewError(domain.ErrNotFound, "Guest not found")
	}
	if err != nil {
		return domain.Wrap(domain.ErrUnprocessable, "Entity cannot be processed", err)
	}
	if subtle.ConstantTimeCompare([]byte(guest.Token), []byte(token)) != 1 {
		return domain.NewError(domain.ErrUnauthorized, "Unauthorized access")
	}
	return nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpRange))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+otpMin), nil
}
