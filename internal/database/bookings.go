package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hotelbooking/internal/models"
)

const bookingColumns = `booking_id, active, otp, start_date, end_date, room_count, adult_count, teen_count,
	kid_count, senior_count, tenant_id, property_id, room_type_id, room_name, room_image_url, guest_id,
	cost_info, promotion_info, guest_info, billing_info, payment_info, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// CreateBooking writes the local mirror. BookingID is the remote-assigned id.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	snapshots, err := marshalSnapshots(booking)
	if err != nil {
		return err
	}

	query := `INSERT INTO bookings (` + bookingColumns + `, guest_email)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err = db.ExecContext(ctx, query,
		booking.BookingID,
		booking.Active,
		booking.OTP,
		booking.StartDate.Format(models.DateLayout),
		booking.EndDate.Format(models.DateLayout),
		booking.RoomCount,
		booking.AdultCount,
		booking.TeenCount,
		booking.KidCount,
		booking.SeniorCount,
		booking.TenantID,
		booking.PropertyID,
		booking.RoomTypeID,
		booking.RoomName,
		booking.RoomImageURL,
		booking.GuestID,
		snapshots[0], snapshots[1], snapshots[2], snapshots[3], snapshots[4],
		now,
		now,
		booking.GuestInfo.EmailID,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func marshalSnapshots(b *models.Booking) ([5]string, error) {
	var out [5]string
	for i, v := range []interface{}{b.CostInfo, b.PromotionInfo, b.GuestInfo, b.BillingInfo, b.PaymentInfo} {
		raw, err := json.Marshal(v)
		if err != nil {
			return out, fmt.Errorf("failed to encode booking snapshot: %w", err)
		}
		out[i] = string(raw)
	}
	return out, nil
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b                  models.Booking
		start, end         string
		imageURL           sql.NullString
		cost, promo, guest string
		billing, payment   string
	)
	err := row.Scan(
		&b.BookingID, &b.Active, &b.OTP, &start, &end, &b.RoomCount, &b.AdultCount, &b.TeenCount,
		&b.KidCount, &b.SeniorCount, &b.TenantID, &b.PropertyID, &b.RoomTypeID, &b.RoomName, &imageURL, &b.GuestID,
		&cost, &promo, &guest, &billing, &payment, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.RoomImageURL = imageURL.String

	if b.StartDate, err = time.Parse(models.DateLayout, start); err != nil {
		return nil, fmt.Errorf("failed to parse start_date: %w", err)
	}
	if b.EndDate, err = time.Parse(models.DateLayout, end); err != nil {
		return nil, fmt.Errorf("failed to parse end_date: %w", err)
	}

	for _, s := range []struct {
		raw string
		dst interface{}
	}{
		{cost, &b.CostInfo}, {promo, &b.PromotionInfo}, {guest, &b.GuestInfo},
		{billing, &b.BillingInfo}, {payment, &b.PaymentInfo},
	} {
		if err := json.Unmarshal([]byte(s.raw), s.dst); err != nil {
			return nil, fmt.Errorf("failed to decode booking snapshot: %w", err)
		}
	}
	return &b, nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = ?`
	b, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

func (db *DB) updateBooking(ctx context.Context, id int64, set string, args ...interface{}) error {
	query := `UPDATE bookings SET ` + set + `, updated_at = ? WHERE booking_id = ?`
	res, err := db.ExecContext(ctx, query, append(args, time.Now(), id)...)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (db *DB) SetBookingActive(ctx context.Context, id int64, active bool) error {
	return db.updateBooking(ctx, id, `active = ?`, active)
}

func (db *DB) SetBookingOTP(ctx context.Context, id int64, otp string) error {
	return db.updateBooking(ctx, id, `otp = ?`, otp)
}

// ConsumeBookingOTP clears the stored code in the same statement that
// compares it, so two verifies with the right code cannot both succeed.
func (db *DB) ConsumeBookingOTP(ctx context.Context, id int64, otp string) (bool, error) {
	if otp == "" {
		return false, nil
	}
	query := `UPDATE bookings SET otp = '', updated_at = ? WHERE booking_id = ? AND otp = ? AND otp != ''`
	res, err := db.ExecContext(ctx, query, time.Now(), id, otp)
	if err != nil {
		return false, fmt.Errorf("failed to consume otp: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to consume otp: %w", err)
	}
	return n == 1, nil
}

func (db *DB) ListBookingsByEmail(ctx context.Context, email string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE guest_email = ? ORDER BY start_date DESC, booking_id DESC`
	return db.queryBookings(ctx, query, email)
}

// CountUpcomingByEmail counts active bookings starting today or later.
func (db *DB) CountUpcomingByEmail(ctx context.Context, email string, today time.Time) (int64, error) {
	var n int64
	query := `SELECT COUNT(*) FROM bookings WHERE guest_email = ? AND active = 1 AND start_date >= ?`
	if err := db.QueryRowContext(ctx, query, email, today.Format(models.DateLayout)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return n, nil
}

func (db *DB) ListBookingsByTenant(ctx context.Context, tenantID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE tenant_id = ? ORDER BY booking_id`
	return db.queryBookings(ctx, query, tenantID)
}

func (db *DB) DeleteBookingsByTenant(ctx context.Context, tenantID int64) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE tenant_id = ?`, tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete bookings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete bookings: %w", err)
	}
	return n, nil
}

func (db *DB) CountBookings(ctx context.Context, tenantID int64, active bool) (int64, error) {
	var n int64
	query := `SELECT COUNT(*) FROM bookings WHERE tenant_id = ? AND active = ?`
	if err := db.QueryRowContext(ctx, query, tenantID, active).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return n, nil
}

func (db *DB) CountUpcomingBookings(ctx context.Context, tenantID int64, today time.Time) (int64, error) {
	var n int64
	query := `SELECT COUNT(*) FROM bookings WHERE tenant_id = ? AND active = 1 AND start_date >= ?`
	if err := db.QueryRowContext(ctx, query, tenantID, today.Format(models.DateLayout)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count upcoming bookings: %w", err)
	}
	return n, nil
}

func (db *DB) CountDistinctGuests(ctx context.Context, tenantID int64) (int64, error) {
	var n int64
	query := `SELECT COUNT(DISTINCT guest_email) FROM bookings WHERE tenant_id = ?`
	if err := db.QueryRowContext(ctx, query, tenantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count guests: %w", err)
	}
	return n, nil
}
