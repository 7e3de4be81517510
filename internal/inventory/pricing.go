package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/logging"
	"hotelbooking/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type rateSource interface {
	ListRoomRates(ctx context.Context, start, end time.Time, propertyID int64) ([]RoomRate, error)
	ListRoomAvailabilities(ctx context.Context, start, end time.Time, propertyID int64) ([]RoomAvailability, error)
	ListRoomTypeRates(ctx context.Context, start, end time.Time, roomTypeID, propertyID int64) ([]RoomRate, error)
}

// Pricing builds rate and availability aggregates for the search pages.
type Pricing struct {
	source   rateSource
	cache    domain.CacheStore
	cacheTTL time.Duration
	workers  int
	logger   *zerolog.Logger
}

func NewPricing(source rateSource, cache domain.CacheStore, cacheTTL time.Duration, workers int, logger *zerolog.Logger) *Pricing {
	if workers <= 0 {
		workers = 2
	}
	return &Pricing{
		source:   source,
		cache:    cache,
		cacheTTL: cacheTTL,
		workers:  workers,
		logger:   logging.Component(logger, "pricing"),
	}
}

// RoomTypeSummary fetches rates and availabilities in parallel and reduces them
// to an average nightly rate and a fully-available room count per room type.
func (p *Pricing) RoomTypeSummary(ctx context.Context, start, end time.Time, propertyID int64) (*models.RoomTypeSummary, error) {
	key := fmt.Sprintf("pricing:%d:%s:%s", propertyID, start.Format(models.DateLayout), end.Format(models.DateLayout))
	var cached models.RoomTypeSummary
	if p.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	var (
		rates  []RoomRate
		nights []RoomAvailability
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	g.Go(func() error {
		var err error
		rates, err = p.source.ListRoomRates(gctx, start, end, propertyID)
		return err
	})
	g.Go(func() error {
		var err error
		nights, err = p.source.ListRoomAvailabilities(gctx, start, end, propertyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, asFetchFailed(err)
	}

	summary := &models.RoomTypeSummary{
		AverageRates:   AverageRates(rates),
		AvailableRooms: AvailableRoomsByType(nights, models.Nights(start, end)),
	}
	p.writeCache(ctx, key, summary)
	return summary, nil
}

// NightlyRates returns one room type's rates in date order.
func (p *Pricing) NightlyRates(ctx context.Context, start, end time.Time, roomTypeID, propertyID int64) ([]models.NightlyRate, error) {
	key := fmt.Sprintf("rates:%d:%d:%s:%s", propertyID, roomTypeID, start.Format(models.DateLayout), end.Format(models.DateLayout))
	var cached []models.NightlyRate
	if p.readCache(ctx, key, &cached) {
		return cached, nil
	}

	rates, err := p.source.ListRoomTypeRates(ctx, start, end, roomTypeID, propertyID)
	if err != nil {
		return nil, asFetchFailed(err)
	}
	out := make([]models.NightlyRate, 0, len(rates))
	for _, r := range rates {
		out = append(out, models.NightlyRate{Date: r.Date, Rate: int64(r.Rate)})
	}
	p.writeCache(ctx, key, out)
	return out, nil
}

func (p *Pricing) readCache(ctx context.Context, key string, out any) bool {
	if p.cache == nil || p.cacheTTL <= 0 {
		return false
	}
	raw, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("Pricing cache read failed")
		return false
	}
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (p *Pricing) writeCache(ctx context.Context, key string, val any) {
	if p.cache == nil || p.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, key, data, p.cacheTTL); err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("Pricing cache write failed")
	}
}

func asFetchFailed(err error) error {
	if domain.KindOf(err) == domain.ErrFetchFailed {
		return err
	}
	return domain.Wrap(domain.ErrFetchFailed, "Failed to fetch room rates and availabilities", err)
}

// AverageRates averages the nightly rates of each room type.
func AverageRates(rates []RoomRate) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range rates {
		sums[r.RoomTypeName] += r.Rate
		counts[r.RoomTypeName]++
	}
	out := make(map[string]float64, len(sums))
	for name, sum := range sums {
		out[name] = sum / float64(counts[name])
	}
	return out
}

// AvailableRoomsByType counts distinct rooms free on all nights, per room type.
func AvailableRoomsByType(records []RoomAvailability, nights int) map[string]int {
	perRoom := make(map[int64]int)
	typeOf := make(map[int64]string)
	for _, r := range records {
		perRoom[r.RoomID]++
		typeOf[r.RoomID] = r.RoomTypeName
	}
	out := make(map[string]int)
	for id, n := range perRoom {
		if n == nights {
			out[typeOf[id]]++
		}
	}
	return out
}
