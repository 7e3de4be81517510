package service

import (
	"context"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/logging"
	"hotelbooking/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// StatsService gathers tenant counters concurrently on a bounded pool.
type StatsService struct {
	store   domain.StatsStore
	workers int
	now     func() time.Time
	logger  *zerolog.Logger
}

func NewStatsService(store domain.StatsStore, workers int, logger *zerolog.Logger) *StatsService {
	if workers <= 0 {
		workers = 2
	}
	return &StatsService{store: store, workers: workers, now: time.Now, logger: logging.Component(logger, "stats")}
}

func (s *StatsService) TenantStats(ctx context.Context, tenantID int64) (*models.TenantStats, error) {
	stats := &models.TenantStats{TenantID: tenantID}
	now := s.now()
	today := now.UTC().Truncate(24 * time.Hour)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	// each task writes only its own field
	g.Go(func() (err error) {
		stats.ActiveBookings, err = s.store.CountBookings(gctx, tenantID, true)
		return err
	})
	g.Go(func() (err error) {
		stats.CancelledBookings, err = s.store.CountBookings(gctx, tenantID, false)
		return err
	})
	g.Go(func() (err error) {
		stats.ActiveHolds, err = s.store.CountActiveHolds(gctx, tenantID, now)
		return err
	})
	g.Go(func() (err error) {
		stats.UpcomingBookings, err = s.store.CountUpcomingBookings(gctx, tenantID, today)
		return err
	})
	g.Go(func() (err error) {
		stats.DistinctGuests, err = s.store.CountDistinctGuests(gctx, tenantID)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Int64("tenant_id", tenantID).Msg("Failed to collect stats")
		return nil, domain.Wrap(domain.ErrUnprocessable, "Entity cannot be processed", err)
	}
	return stats, nil
}
