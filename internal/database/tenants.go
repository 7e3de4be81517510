package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hotelbooking/internal/models"
)

func (db *DB) GetTenant(ctx context.Context, id int64) (*models.Tenant, error) {
	var t models.Tenant
	err := db.QueryRowContext(ctx, `SELECT id, name, secret_hash, created_at FROM tenants WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.SecretHash, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &t, nil
}

// UpsertTenant stores a tenant with an already-hashed secret.
func (db *DB) UpsertTenant(ctx context.Context, t *models.Tenant) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	query := `INSERT INTO tenants (id, name, secret_hash, created_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, secret_hash = excluded.secret_hash`
	if _, err := db.ExecContext(ctx, query, t.ID, t.Name, t.SecretHash, t.CreatedAt); err != nil {
		return fmt.Errorf("failed to upsert tenant: %w", err)
	}
	return nil
}
