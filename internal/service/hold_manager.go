package service

import (
	"context"
	"errors"
	"time"

	"hotelbooking/internal/database"
	"hotelbooking/internal/domain"
	"hotelbooking/internal/logging"
	"hotelbooking/internal/metrics"
	"hotelbooking/internal/models"

	"github.com/rs/zerolog"
)

// HoldManager claims rooms for the length of one reservation attempt. The
// primary key on the holds table decides races between concurrent attempts.
type HoldManager struct {
	store  domain.HoldStore
	ttl    time.Duration
	now    func() time.Time
	logger *zerolog.Logger
}

func NewHoldManager(store domain.HoldStore, ttl time.Duration, logger *zerolog.Logger) *HoldManager {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &HoldManager{
		store:  store,
		ttl:    ttl,
		now:    time.Now,
		logger: logging.Component(logger, "hold_manager"),
	}
}

// Acquire walks candidates in order and returns the rooms it managed to hold,
// stopping at count. A room someone else holds is skipped.
func (m *HoldManager) Acquire(ctx context.Context, scope models.HoldScope, candidates []int64, count int) ([]int64, error) {
	held := make([]int64, 0, count)
	expiresAt := m.now().Add(m.ttl)

	for _, roomID := range candidates {
		if len(held) >= count {
			break
		}
		if err := ctx.Err(); err != nil {
			return held, err
		}

		hold := scope.Hold(roomID)
		hold.ExpiresAt = expiresAt
		err := m.store.InsertHold(ctx, &hold)
		switch {
		case err == nil:
			metrics.IncHold("acquired")
			held = append(held, roomID)
			m.logger.Debug().Int64("tenant_id", scope.TenantID).Int64("room_id", roomID).Msg("Hold acquired")
		case errors.Is(err, database.ErrHoldConflict):
			metrics.IncHold("conflict")
			m.logger.Warn().
				Int64("tenant_id", scope.TenantID).
				Int64("property_id", scope.PropertyID).
				Int64("room_type_id", scope.RoomTypeID).
				Int64("room_id", roomID).
				Msg("Room already held, trying next candidate")
		default:
			metrics.IncHold("error")
			m.logger.Error().Err(err).Int64("room_id", roomID).Msg("Hold insert failed, trying next candidate")
		}
	}
	return held, nil
}

// Release deletes the holds on roomIDs. Every room is attempted; the first
// failure is returned.
func (m *HoldManager) Release(ctx context.Context, scope models.HoldScope, roomIDs []int64) error {
	var firstErr error
	for _, roomID := range roomIDs {
		if err := m.store.DeleteHold(ctx, scope.Hold(roomID)); err != nil {
			m.logger.Error().Err(err).Int64("room_id", roomID).Msg("Hold release failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		m.logger.Debug().Int64("room_id", roomID).Msg("Hold released")
	}
	return firstErr
}
