package inventory

import (
	"context"
	"slices"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/logging"
	"hotelbooking/internal/models"

	"github.com/rs/zerolog"
)

type roomIDLister interface {
	ListFreeRoomIDs(ctx context.Context, start, end time.Time, roomTypeID, propertyID int64) ([]int64, error)
}

// Resolver finds rooms that are free on every night of a stay.
type Resolver struct {
	rooms  roomIDLister
	logger *zerolog.Logger
}

func NewResolver(rooms roomIDLister, logger *zerolog.Logger) *Resolver {
	return &Resolver{rooms: rooms, logger: logging.Component(logger, "availability")}
}

// Resolve returns the fully available room ids in ascending order, or an
// empty slice when fewer than q.RoomCount rooms qualify.
func (r *Resolver) Resolve(ctx context.Context, q models.AvailabilityQuery) ([]int64, error) {
	if !q.End.After(q.Start) {
		return nil, domain.NewError(domain.ErrValidation, "endDate must be after startDate")
	}
	if q.RoomCount <= 0 {
		return nil, domain.NewError(domain.ErrValidation, "roomCount must be positive")
	}

	records, err := r.rooms.ListFreeRoomIDs(ctx, q.Start, q.End, q.RoomTypeID, q.PropertyID)
	if err != nil {
		return nil, err
	}

	ids := FullyAvailable(records, models.Nights(q.Start, q.End))
	if len(ids) < q.RoomCount {
		r.logger.Info().
			Int64("property_id", q.PropertyID).
			Int64("room_type_id", q.RoomTypeID).
			Int("wanted", q.RoomCount).
			Int("found", len(ids)).
			Msg("Not enough rooms available")
		return []int64{}, nil
	}
	return ids, nil
}

// FullyAvailable keeps room ids that occur exactly nights times, sorted ascending.
func FullyAvailable(nightRecords []int64, nights int) []int64 {
	counts := make(map[int64]int, len(nightRecords))
	for _, id := range nightRecords {
		counts[id]++
	}
	ids := make([]int64, 0, len(counts))
	for id, n := range counts {
		if n == nights {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}
