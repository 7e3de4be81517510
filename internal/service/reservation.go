package service

import (
	"context"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/logging"
	"hotelbooking/internal/models"

	"github.com/rs/zerolog"
)

const nonAvailabilityMessage = "Booking failed due to non-availability"

// ReservationService runs the create-booking saga:
// resolve availability, hold rooms, resolve the guest, commit.
// Holds are released on every path.
type ReservationService struct {
	resolver  domain.AvailabilityResolver
	holds     *HoldManager
	guests    *GuestResolver
	committer *BookingCommitter
	logger    *zerolog.Logger
}

func NewReservationService(
	resolver domain.AvailabilityResolver,
	holds *HoldManager,
	guests *GuestResolver,
	committer *BookingCommitter,
	logger *zerolog.Logger,
) *ReservationService {
	return &ReservationService{
		resolver:  resolver,
		holds:     holds,
		guests:    guests,
		committer: committer,
		logger:    logging.Component(logger, "reservation"),
	}
}

func (s *ReservationService) CreateBooking(ctx context.Context, req *models.BookingRequest) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, domain.NewError(domain.ErrValidation, err.Error())
	}
	start, end, _ := req.StayDates()
	scope := models.HoldScope{
		TenantID:   req.TenantID,
		PropertyID: req.PropertyID,
		RoomTypeID: req.RoomTypeID,
		StartDate:  start,
		EndDate:    end,
	}
	count := int(req.RoomCount)

	log := s.logger.With().
		Int64("tenant_id", req.TenantID).
		Int64("property_id", req.PropertyID).
		Int64("room_type_id", req.RoomTypeID).
		Logger()

	var (
		candidates []int64
		held       []int64
		guestID    int64
		bookingID  int64
	)

	saga := NewSaga("create_booking", &log).
		Add(Step{
			Name: "resolve_availability",
			Do: func(ctx context.Context) error {
				var err error
				candidates, err = s.resolver.Resolve(ctx, models.AvailabilityQuery{
					Start:      start,
					End:        end,
					RoomTypeID: req.RoomTypeID,
					PropertyID: req.PropertyID,
					RoomCount:  count,
				})
				if err != nil {
					return err
				}
				if len(candidates) == 0 {
					return domain.NewError(domain.ErrCustom, nonAvailabilityMessage)
				}
				return nil
			},
		}).
		Add(Step{
			Name: "acquire_holds",
			Do: func(ctx context.Context) error {
				var err error
				held, err = s.holds.Acquire(ctx, scope, candidates, count)
				if err != nil {
					return err
				}
				if len(held) < count {
					log.Warn().Int("held", len(held)).Int("wanted", count).Msg("Not enough rooms could be held")
					return domain.NewError(domain.ErrCustom, nonAvailabilityMessage)
				}
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.holds.Release(ctx, scope, held)
			},
			Always: true,
		}).
		Add(Step{
			Name: "resolve_guest",
			Do: func(ctx context.Context) error {
				var err error
				guestID, err = s.guests.Resolve(ctx, req.GuestInfo, req.Token)
				return err
			},
		}).
		Add(Step{
			// No compensation: links that fail after the remote booking exists
			// are left for manual reconciliation.
			Name: "commit_booking",
			Do: func(ctx context.Context) error {
				var err error
				bookingID, err = s.committer.Commit(ctx, held, req, guestID)
				return err
			},
		})

	began := time.Now()
	if err := saga.Run(ctx); err != nil {
		return 0, err
	}
	log.Info().Int64("booking_id", bookingID).Dur("duration", time.Since(began)).Msg("Booking created")
	return bookingID, nil
}

// AvailableRooms exposes the resolver for the room-ids endpoint.
func (s *ReservationService) AvailableRooms(ctx context.Context, search models.RoomSearch) ([]int64, error) {
	start, end, err := models.ParseStay(search.StartDate, search.EndDate)
	if err != nil {
		return nil, domain.NewError(domain.ErrValidation, err.Error())
	}
	return s.resolver.Resolve(ctx, models.AvailabilityQuery{
		Start:      start,
		End:        end,
		RoomTypeID: search.RoomTypeID,
		PropertyID: search.PropertyID,
		RoomCount:  int(search.RoomCount),
	})
}
