package service

import (
	"context"
	"strings"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/events"
	"hotelbooking/internal/logging"
	"hotelbooking/internal/metrics"
	"hotelbooking/internal/models"

	"github.com/rs/zerolog"
)

// BookingCommitter turns held rooms into one remote booking plus its local mirror.
type BookingCommitter struct {
	inventory       domain.InventoryService
	bookings        domain.BookingStore
	events          domain.EventPublisher
	initialStatusID int64
	logger          *zerolog.Logger
}

func NewBookingCommitter(
	inventory domain.InventoryService,
	bookings domain.BookingStore,
	publisher domain.EventPublisher,
	initialStatusID int64,
	logger *zerolog.Logger,
) *BookingCommitter {
	return &BookingCommitter{
		inventory:       inventory,
		bookings:        bookings,
		events:          publisher,
		initialStatusID: initialStatusID,
		logger:          logging.Component(logger, "booking_committer"),
	}
}

// Commit creates the remote booking anchored on the first availability record
// of the first held room, mirrors it locally, then links every other record.
// Link failures are logged; the booking stands.
func (c *BookingCommitter) Commit(ctx context.Context, heldRoomIDs []int64, req *models.BookingRequest, guestID int64) (int64, error) {
	start, end, err := req.StayDates()
	if err != nil {
		return 0, domain.NewError(domain.ErrValidation, err.Error())
	}

	var availabilityIDs []int64
	for _, roomID := range heldRoomIDs {
		ids, err := c.inventory.ListFreeAvailabilityIDs(ctx, roomID, req.PropertyID, start, end)
		if err != nil {
			return 0, err
		}
		availabilityIDs = append(availabilityIDs, ids...)
	}
	if len(availabilityIDs) == 0 {
		return 0, domain.NewError(domain.ErrFetchFailed, "No availability records found for the held rooms")
	}

	bookingID, err := c.inventory.CreateBooking(ctx, models.RemoteBooking{
		CheckIn:           start,
		CheckOut:          end,
		AdultCount:        req.AdultCount,
		ChildCount:        req.KidCount,
		TotalCost:         int64(req.CostInfo.TotalCost),
		AmountDueAtResort: int64(req.CostInfo.AmountDueAtResort),
		StatusID:          c.initialStatusID,
		GuestID:           guestID,
		PromotionID:       req.PromotionInfo.PromotionID,
		PropertyID:        req.PropertyID,
		AvailabilityID:    availabilityIDs[0],
	})
	if err != nil {
		return 0, err
	}
	// The remote booking exists now; the mirror and links must not be lost
	// to a caller that went away.
	ctx = context.WithoutCancel(ctx)
	log := c.logger.With().Int64("booking_id", bookingID).Int64("guest_id", guestID).Logger()
	log.Info().Int64("availability_id", availabilityIDs[0]).Msg("Remote booking created")

	booking := mirrorOf(bookingID, guestID, start, end, req)
	if err := c.bookings.CreateBooking(ctx, booking); err != nil {
		log.Error().Err(err).Msg("Failed to store booking mirror")
		return 0, domain.Wrap(domain.ErrUnprocessable, "Entity cannot be processed", err)
	}
	metrics.IncCommitted()

	for _, id := range availabilityIDs[1:] {
		if err := c.inventory.LinkAvailability(ctx, id, bookingID); err != nil {
			log.Error().Err(err).Int64("availability_id", id).Msg("Failed to link availability to booking")
		}
	}

	if c.events != nil {
		if err := c.events.PublishJSON(events.EventBookingCreated, bookingPayload(booking)); err != nil {
			log.Error().Err(err).Msg("publish event error")
		}
	}
	return bookingID, nil
}

func mirrorOf(bookingID, guestID int64, start, end time.Time, req *models.BookingRequest) *models.Booking {
	return &models.Booking{
		BookingID:     bookingID,
		Active:        true,
		StartDate:     start,
		EndDate:       end,
		RoomCount:     req.RoomCount,
		AdultCount:    req.AdultCount,
		TeenCount:     req.TeenCount,
		KidCount:      req.KidCount,
		SeniorCount:   req.SeniorCount,
		TenantID:      req.TenantID,
		PropertyID:    req.PropertyID,
		RoomTypeID:    req.RoomTypeID,
		RoomName:      req.RoomName,
		RoomImageURL:  req.RoomImageURL,
		GuestID:       guestID,
		CostInfo:      req.CostInfo,
		PromotionInfo: req.PromotionInfo,
		GuestInfo:     req.GuestInfo,
		BillingInfo:   req.BillingInfo,
		PaymentInfo:   req.PaymentInfo,
	}
}

func bookingPayload(b *models.Booking) events.BookingEventPayload {
	return events.BookingEventPayload{
		BookingID:  b.BookingID,
		TenantID:   b.TenantID,
		PropertyID: b.PropertyID,
		GuestID:    b.GuestID,
		GuestName:  strings.TrimSpace(b.GuestInfo.FirstName + " " + b.GuestInfo.LastName),
		GuestEmail: b.GuestInfo.EmailID,
		RoomName:   b.RoomName,
		RoomCount:  b.RoomCount,
		StartDate:  b.StartDate.Format(models.DateLayout),
		EndDate:    b.EndDate.Format(models.DateLayout),
		TotalCost:  b.CostInfo.TotalCost,
	}
}
