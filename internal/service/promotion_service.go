package service

import (
	"context"
	"strings"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/logging"
	"hotelbooking/internal/models"

	"github.com/rs/zerolog"
)

type PromotionService struct {
	store  domain.PromotionStore
	logger *zerolog.Logger
}

func NewPromotionService(store domain.PromotionStore, logger *zerolog.Logger) *PromotionService {
	return &PromotionService{store: store, logger: logging.Component(logger, "promotions")}
}

func (s *PromotionService) List(ctx context.Context) ([]models.Promotion, error) {
	promos, err := s.store.ListActivePromotions(ctx)
	if err != nil {
		return nil, domain.Wrap(domain.ErrUnprocessable, "Entity cannot be processed", err)
	}
	return promos, nil
}

// Add creates or replaces the promotion with the same title.
func (s *PromotionService) Add(ctx context.Context, promo models.Promotion) (*models.Promotion, error) {
	promo.Title = strings.TrimSpace(promo.Title)
	if promo.Title == "" {
		return nil, domain.NewError(domain.ErrValidation, "title is required")
	}
	if promo.PriceFactor <= 0 {
		return nil, domain.NewError(domain.ErrValidation, "priceFactor must be positive")
	}
	if err := s.store.UpsertPromotion(ctx, &promo); err != nil {
		return nil, domain.Wrap(domain.ErrUnprocessable, "Entity cannot be processed", err)
	}
	s.logger.Info().Str("title", promo.Title).Msg("Promotion saved")
	return &promo, nil
}
