package models

import "time"

// DateLayout is the calendar-date format used for stay dates everywhere.
const DateLayout = "2006-01-02"

type CostInfo struct {
	TotalCost         float64 `json:"totalCost"`
	AmountDueAtResort float64 `json:"amountDueAtResort"`
	NightlyRate       float64 `json:"nightlyRate"`
	Taxes             float64 `json:"taxes"`
	VAT               float64 `json:"vat"`
}

type PromotionInfo struct {
	PromotionID          int64   `json:"promotionId"`
	PromotionTitle       string  `json:"promotionTitle"`
	PriceFactor          float64 `json:"priceFactor"`
	PromotionDescription string  `json:"promotionDescription"`
}

type GuestInfo struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Phone         string `json:"phone"`
	EmailID       string `json:"emailId"`
	HasSubscribed bool   `json:"hasSubscribed"`
}

type BillingInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	Zipcode   string `json:"zipcode"`
	State     string `json:"state"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
	EmailID   string `json:"emailId"`
}

// PaymentInfo is stored as captured; nothing is charged.
type PaymentInfo struct {
	CardNumber  string `json:"cardNumber"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
}

// Booking is the local mirror of a booking committed to the Inventory Service.
// Snapshots are captured at booking time and never refreshed from remote.
type Booking struct {
	BookingID    int64     `json:"bookingId"`
	Active       bool      `json:"active"`
	OTP          string    `json:"-"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	RoomCount    int64     `json:"roomCount"`
	AdultCount   int64     `json:"adultCount"`
	TeenCount    int64     `json:"teenCount"`
	KidCount     int64     `json:"kidCount"`
	SeniorCount  int64     `json:"seniorCount"`
	TenantID     int64     `json:"tenantId"`
	PropertyID   int64     `json:"propertyId"`
	RoomTypeID   int64     `json:"roomTypeId"`
	RoomName     string    `json:"roomName"`
	RoomImageURL string    `json:"roomImageUrl"`
	GuestID      int64     `json:"guestId"`

	CostInfo      CostInfo      `json:"costInfo"`
	PromotionInfo PromotionInfo `json:"promotionInfo"`
	GuestInfo     GuestInfo     `json:"guestInfo"`
	BillingInfo   BillingInfo   `json:"billingInfo"`
	PaymentInfo   PaymentInfo   `json:"paymentInfo"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingSummary is the compact row returned by the my-bookings listing.
type BookingSummary struct {
	BookingID int64     `json:"bookingId"`
	Active    bool      `json:"active"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	RoomCount int64     `json:"roomCount"`
	RoomName  string    `json:"roomName"`
}

type BookingReview struct {
	TenantID     int64  `json:"tenantId"`
	RoomTypeID   int64  `json:"roomTypeId"`
	RoomTypeName string `json:"roomTypeName"`
}

// Summary projects the booking onto its listing row.
func (b *Booking) Summary() BookingSummary {
	return BookingSummary{
		BookingID: b.BookingID,
		Active:    b.Active,
		StartDate: b.StartDate,
		EndDate:   b.EndDate,
		RoomCount: b.RoomCount,
		RoomName:  b.RoomName,
	}
}
