package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hotelbooking/internal/models"
)

// RoomAvailability is one free room-night.
type RoomAvailability struct {
	Date         string
	RoomID       int64
	RoomTypeName string
}

// RoomRate is the nightly rate of a room type on one date.
type RoomRate struct {
	Date         string
	Rate         float64
	RoomTypeName string
}

func remoteDate(t time.Time) string {
	return t.Format(models.DateLayout) + "T00:00:00.000Z"
}

// calendarDate trims a remote timestamp to YYYY-MM-DD.
func calendarDate(s string) string {
	if len(s) >= len(models.DateLayout) {
		return s[:len(models.DateLayout)]
	}
	return s
}

// graphQLString renders s as a GraphQL string literal. JSON string escapes
// are a subset of the GraphQL ones.
func graphQLString(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

func (c *Client) ListFreeRoomIDs(ctx context.Context, start, end time.Time, roomTypeID, propertyID int64) ([]int64, error) {
	var rows []struct {
		RoomID int64 `json:"room_id"`
	}
	q := fmt.Sprintf(queryFreeRoomIDs, remoteDate(start), remoteDate(end), roomTypeID, propertyID, models.MaxRoomIDsPerQuery)
	if err := c.Do(ctx, opListRoomAvailabilities, q, &rows); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.RoomID)
	}
	return ids, nil
}

func (c *Client) listAvailabilityIDs(ctx context.Context, q string) ([]int64, error) {
	var rows []struct {
		AvailabilityID int64 `json:"availability_id"`
	}
	if err := c.Do(ctx, opListRoomAvailabilities, q, &rows); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.AvailabilityID)
	}
	return ids, nil
}

// ListFreeAvailabilityIDs returns the unbooked night records of one room in [start, end).
func (c *Client) ListFreeAvailabilityIDs(ctx context.Context, roomID, propertyID int64, start, end time.Time) ([]int64, error) {
	return c.listAvailabilityIDs(ctx,
		fmt.Sprintf(queryFreeAvailabilityIDs, remoteDate(start), remoteDate(end), propertyID, roomID))
}

func (c *Client) ListBookedAvailabilityIDs(ctx context.Context, bookingID int64) ([]int64, error) {
	return c.listAvailabilityIDs(ctx, fmt.Sprintf(queryBookedAvailabilityIDs, bookingID))
}

// CreateGuest registers a guest by display name only.
func (c *Client) CreateGuest(ctx context.Context, name string) (int64, error) {
	var out struct {
		GuestID int64 `json:"guest_id"`
	}
	if err := c.Do(ctx, opCreateGuest, fmt.Sprintf(mutationCreateGuest, graphQLString(name)), &out); err != nil {
		return 0, err
	}
	return out.GuestID, nil
}

func (c *Client) CreateBooking(ctx context.Context, in models.RemoteBooking) (int64, error) {
	var q string
	if in.PromotionID == models.NoPromotionID {
		q = fmt.Sprintf(mutationCreateBookingNoPromotion,
			remoteDate(in.CheckIn), remoteDate(in.CheckOut), in.AdultCount, in.ChildCount,
			in.TotalCost, in.AmountDueAtResort, in.StatusID, in.GuestID, in.PropertyID, in.AvailabilityID)
	} else {
		q = fmt.Sprintf(mutationCreateBooking,
			remoteDate(in.CheckIn), remoteDate(in.CheckOut), in.AdultCount, in.ChildCount,
			in.TotalCost, in.AmountDueAtResort, in.StatusID, in.GuestID, in.PromotionID, in.PropertyID, in.AvailabilityID)
	}

	var out struct {
		BookingID int64 `json:"booking_id"`
	}
	if err := c.Do(ctx, opCreateBooking, q, &out); err != nil {
		return 0, err
	}
	return out.BookingID, nil
}

// LinkAvailability points a night record at bookingID. Zero unlinks it.
func (c *Client) LinkAvailability(ctx context.Context, availabilityID, bookingID int64) error {
	return c.Do(ctx, opUpdateRoomAvailability,
		fmt.Sprintf(mutationLinkAvailability, availabilityID, bookingID, bookingID), nil)
}

func (c *Client) ResetBookingStatus(ctx context.Context, bookingID, statusID int64) error {
	return c.Do(ctx, opUpdateBooking,
		fmt.Sprintf(mutationUpdateBookingStatus, bookingID, statusID, statusID), nil)
}

func (c *Client) ListRoomAvailabilities(ctx context.Context, start, end time.Time, propertyID int64) ([]RoomAvailability, error) {
	var rows []struct {
		Date string `json:"date"`
		Room struct {
			RoomID   int64 `json:"room_id"`
			RoomType struct {
				Name string `json:"room_type_name"`
			} `json:"room_type"`
		} `json:"room"`
	}
	q := fmt.Sprintf(queryRoomAvailabilities, propertyID, remoteDate(start), remoteDate(end), models.MaxAvailabilityRecords)
	if err := c.Do(ctx, opListRoomAvailabilities, q, &rows); err != nil {
		return nil, err
	}
	out := make([]RoomAvailability, 0, len(rows))
	for _, r := range rows {
		out = append(out, RoomAvailability{
			Date:         calendarDate(r.Date),
			RoomID:       r.Room.RoomID,
			RoomTypeName: r.Room.RoomType.Name,
		})
	}
	return out, nil
}

type rateRow struct {
	RoomRate struct {
		Rate float64 `json:"basic_nightly_rate"`
		Date string  `json:"date"`
	} `json:"room_rate"`
	RoomType struct {
		Name string `json:"room_type_name"`
	} `json:"room_type"`
}

func (c *Client) listRates(ctx context.Context, q string) ([]RoomRate, error) {
	var rows []rateRow
	if err := c.Do(ctx, opListRoomRates, q, &rows); err != nil {
		return nil, err
	}
	out := make([]RoomRate, 0, len(rows))
	for _, r := range rows {
		out = append(out, RoomRate{
			Date:         calendarDate(r.RoomRate.Date),
			Rate:         r.RoomRate.Rate,
			RoomTypeName: r.RoomType.Name,
		})
	}
	return out, nil
}

func (c *Client) ListRoomRates(ctx context.Context, start, end time.Time, propertyID int64) ([]RoomRate, error) {
	return c.listRates(ctx,
		fmt.Sprintf(queryRoomRates, propertyID, remoteDate(start), remoteDate(end), models.MaxAvailabilityRecords))
}

// ListRoomTypeRates returns rates of one room type ordered by date.
func (c *Client) ListRoomTypeRates(ctx context.Context, start, end time.Time, roomTypeID, propertyID int64) ([]RoomRate, error) {
	return c.listRates(ctx,
		fmt.Sprintf(queryRoomTypeRates, remoteDate(start), remoteDate(end), roomTypeID, propertyID))
}
