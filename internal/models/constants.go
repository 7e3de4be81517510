package models

const (
	TaskStatusPending   = "pending"
	TaskStatusRetry     = "retry"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

const (
	NotificationOTP              = "otp"
	NotificationBookingConfirmed = "booking_confirmed"
	NotificationBookingCancelled = "booking_cancelled"
)

const (
	// OTPSubject is the subject line of the cancellation code email.
	OTPSubject = "Your One-Time Password (OTP) for booking cancellation"

	// NoPromotionID marks a booking created without a remote promotion.
	NoPromotionID = 0

	// UnlinkedBookingID is the booking id written to a free availability record.
	UnlinkedBookingID = 0

	// MaxRoomIDsPerQuery and MaxAvailabilityRecords mirror the page sizes
	// requested from the Inventory Service.
	MaxRoomIDsPerQuery     = 1000
	MaxAvailabilityRecords = 3000
)
