package database

import (
	"context"
	"fmt"
	"time"

	"hotelbooking/internal/models"
)

const holdKeyWhere = `tenant_id = ? AND property_id = ? AND room_type_id = ? AND room_id = ? AND start_date = ? AND end_date = ?`

func holdKeyArgs(h models.RoomHold) []interface{} {
	return []interface{}{
		h.TenantID, h.PropertyID, h.RoomTypeID, h.RoomID,
		h.StartDate.Format(models.DateLayout), h.EndDate.Format(models.DateLayout),
	}
}

// InsertHold claims the room for the hold's range. A live hold on the same key
// makes the insert fail with ErrHoldConflict; an expired one is replaced.
func (db *DB) InsertHold(ctx context.Context, hold *models.RoomHold) error {
	now := time.Now().UTC()
	if hold.CreatedAt.IsZero() {
		hold.CreatedAt = now
	}

	purge := `DELETE FROM room_holds WHERE ` + holdKeyWhere + ` AND expires_at <= ?`
	if _, err := db.ExecContext(ctx, purge, append(holdKeyArgs(*hold), now.UnixMilli())...); err != nil {
		return fmt.Errorf("failed to purge expired hold: %w", err)
	}

	query := `INSERT INTO room_holds (
				tenant_id, property_id, room_type_id, room_id, start_date, end_date, expires_at, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	args := append(holdKeyArgs(*hold), hold.ExpiresAt.UnixMilli(), hold.CreatedAt)
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		if isConstraintViolation(err) {
			return ErrHoldConflict
		}
		return fmt.Errorf("failed to insert hold: %w", err)
	}
	return nil
}

// DeleteHold removes the hold if present. Missing rows are not an error.
func (db *DB) DeleteHold(ctx context.Context, hold models.RoomHold) error {
	query := `DELETE FROM room_holds WHERE ` + holdKeyWhere
	if _, err := db.ExecContext(ctx, query, holdKeyArgs(hold)...); err != nil {
		return fmt.Errorf("failed to delete hold: %w", err)
	}
	return nil
}

func (db *DB) DeleteExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM room_holds WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired holds: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count expired holds: %w", err)
	}
	return n, nil
}

func (db *DB) GetHold(ctx context.Context, key models.RoomHold) (*models.RoomHold, error) {
	query := `SELECT expires_at, created_at FROM room_holds WHERE ` + holdKeyWhere
	var expiresAt int64
	hold := key
	if err := db.QueryRowContext(ctx, query, holdKeyArgs(key)...).Scan(&expiresAt, &hold.CreatedAt); err != nil {
		return nil, err
	}
	hold.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	return &hold, nil
}

func (db *DB) CountActiveHolds(ctx context.Context, tenantID int64, now time.Time) (int64, error) {
	var n int64
	query := `SELECT COUNT(*) FROM room_holds WHERE tenant_id = ? AND expires_at > ?`
	if err := db.QueryRowContext(ctx, query, tenantID, now.UnixMilli()).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count holds: %w", err)
	}
	return n, nil
}
