package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hotelbooking/internal/models"
)

func (db *DB) GetGuestByEmail(ctx context.Context, email string) (*models.Guest, error) {
	query := `SELECT guest_id, email, token, has_subscribed, created_at, updated_at FROM guests WHERE email = ?`
	var g models.Guest
	err := db.QueryRowContext(ctx, query, email).Scan(
		&g.GuestID, &g.EmailID, &g.Token, &g.HasSubscribed, &g.CreatedAt, &g.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGuestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guest: %w", err)
	}
	return &g, nil
}

// UpsertGuest inserts the guest or, when the email is already known, refreshes
// its token and subscription flag. The stored guest id is never replaced.
func (db *DB) UpsertGuest(ctx context.Context, guest *models.Guest) error {
	now := time.Now()
	query := `INSERT INTO guests (guest_id, email, token, has_subscribed, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(email) DO UPDATE SET
				token = excluded.token,
				has_subscribed = excluded.has_subscribed,
				updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query,
		guest.GuestID, guest.EmailID, guest.Token, guest.HasSubscribed, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert guest: %w", err)
	}
	guest.UpdatedAt = now
	return nil
}

func (db *DB) UpdateGuestToken(ctx context.Context, email, token string) error {
	res, err := db.ExecContext(ctx, `UPDATE guests SET token = ?, updated_at = ? WHERE email = ?`,
		token, time.Now(), email)
	if err != nil {
		return fmt.Errorf("failed to update guest token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update guest token: %w", err)
	}
	if n == 0 {
		return ErrGuestNotFound
	}
	return nil
}
