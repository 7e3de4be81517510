package database

import (
	"context"
	"fmt"
	"time"

	"hotelbooking/internal/models"
)

func (db *DB) ListActivePromotions(ctx context.Context) ([]models.Promotion, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT title, description, price_factor, active FROM promotions WHERE active = 1 ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}
	defer rows.Close()

	promos := []models.Promotion{}
	for rows.Next() {
		var p models.Promotion
		if err := rows.Scan(&p.Title, &p.Description, &p.PriceFactor, &p.Active); err != nil {
			return nil, fmt.Errorf("failed to scan promotion: %w", err)
		}
		promos = append(promos, p)
	}
	return promos, rows.Err()
}

func (db *DB) UpsertPromotion(ctx context.Context, promo *models.Promotion) error {
	now := time.Now()
	query := `INSERT INTO promotions (title, description, price_factor, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(title) DO UPDATE SET
				description = excluded.description,
				price_factor = excluded.price_factor,
				active = excluded.active,
				updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query, promo.Title, promo.Description, promo.PriceFactor, promo.Active, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert promotion: %w", err)
	}
	return nil
}
