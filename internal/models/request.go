package models

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

var tenDigits = regexp.MustCompile(`^\d{10}$`)

// BookingRequest is the create-booking payload.
type BookingRequest struct {
	StartDate     string        `json:"startDate"`
	EndDate       string        `json:"endDate"`
	RoomCount     int64         `json:"roomCount"`
	AdultCount    int64         `json:"adultCount"`
	TeenCount     int64         `json:"teenCount"`
	KidCount      int64         `json:"kidCount"`
	SeniorCount   int64         `json:"seniorCount"`
	Token         string        `json:"token"`
	TenantID      int64         `json:"tenantId"`
	PropertyID    int64         `json:"propertyId"`
	RoomTypeID    int64         `json:"roomTypeId"`
	RoomName      string        `json:"roomName"`
	RoomImageURL  string        `json:"roomImageUrl"`
	CostInfo      CostInfo      `json:"costInfo"`
	PromotionInfo PromotionInfo `json:"promotionInfo"`
	GuestInfo     GuestInfo     `json:"guestInfo"`
	BillingInfo   BillingInfo   `json:"billingInfo"`
	PaymentInfo   PaymentInfo   `json:"paymentInfo"`
}

// StayDates parses the stay range. End is exclusive and must be after start.
func (r *BookingRequest) StayDates() (time.Time, time.Time, error) {
	return ParseStay(r.StartDate, r.EndDate)
}

// Validate checks the fields a reservation attempt cannot proceed without.
func (r *BookingRequest) Validate() error {
	if _, _, err := r.StayDates(); err != nil {
		return err
	}
	if r.RoomCount <= 0 {
		return errors.New("roomCount must be positive")
	}
	if r.AdultCount <= 0 {
		return errors.New("adultCount must be positive")
	}
	if r.TeenCount < 0 || r.KidCount < 0 || r.SeniorCount < 0 {
		return errors.New("occupancy counts must not be negative")
	}
	if r.TenantID <= 0 || r.PropertyID <= 0 || r.RoomTypeID <= 0 {
		return errors.New("tenantId, propertyId and roomTypeId are required")
	}
	if strings.TrimSpace(r.RoomName) == "" {
		return errors.New("roomName is required")
	}
	if r.PromotionInfo.PromotionID < 0 {
		return errors.New("promotionId must not be negative")
	}
	if err := r.GuestInfo.Validate(); err != nil {
		return fmt.Errorf("guestInfo: %w", err)
	}
	if err := r.BillingInfo.Validate(); err != nil {
		return fmt.Errorf("billingInfo: %w", err)
	}
	return r.PaymentInfo.Validate()
}

func (g GuestInfo) Validate() error {
	if strings.TrimSpace(g.FirstName) == "" {
		return errors.New("firstName is required")
	}
	if !tenDigits.MatchString(g.Phone) {
		return errors.New("phone must be 10 digits")
	}
	return validateEmail(g.EmailID)
}

func (b BillingInfo) Validate() error {
	if strings.TrimSpace(b.FirstName) == "" || strings.TrimSpace(b.Address1) == "" ||
		strings.TrimSpace(b.City) == "" || strings.TrimSpace(b.Zipcode) == "" ||
		strings.TrimSpace(b.State) == "" || strings.TrimSpace(b.Country) == "" {
		return errors.New("name and address fields are required")
	}
	if !tenDigits.MatchString(b.Phone) {
		return errors.New("phone must be 10 digits")
	}
	return validateEmail(b.EmailID)
}

func (p PaymentInfo) Validate() error {
	n := len(p.CardNumber)
	if n < 15 || n > 16 || strings.Trim(p.CardNumber, "0123456789") != "" {
		return errors.New("paymentInfo: cardNumber must be 15 or 16 digits")
	}
	if p.ExpiryMonth == "" || p.ExpiryYear == "" {
		return errors.New("paymentInfo: expiry is required")
	}
	return nil
}

func validateEmail(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("emailId is required")
	}
	if _, err := mail.ParseAddress(addr); err != nil {
		return fmt.Errorf("emailId is invalid: %w", err)
	}
	return nil
}

// ParseStay parses a [start, end) calendar range.
func ParseStay(start, end string) (time.Time, time.Time, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid startDate %q; expected YYYY-MM-DD", start)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid endDate %q; expected YYYY-MM-DD", end)
	}
	if !e.After(s) {
		return time.Time{}, time.Time{}, errors.New("endDate must be after startDate")
	}
	return s, e, nil
}

// Nights is the number of nights in [start, end).
func Nights(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

// RoomSearch is the payload for the room-ids and pricing endpoints.
type RoomSearch struct {
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	RoomTypeID int64  `json:"roomTypeId"`
	PropertyID int64  `json:"propertyId"`
	RoomCount  int64  `json:"roomCount"`
}

type OTPRequest struct {
	BookingID int64  `json:"bookingId"`
	EmailID   string `json:"emailId"`
}

type VerifyOTPRequest struct {
	BookingID int64  `json:"bookingId"`
	OTP       string `json:"otp"`
}

type GuestTokenUpdate struct {
	EmailID string `json:"emailId"`
	Token   string `json:"token"`
}
