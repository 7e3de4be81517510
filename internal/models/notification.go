package models

import "time"

// NotificationTask is an outbox row for a notification awaiting delivery.
type NotificationTask struct {
	ID          int64      `json:"id"`
	Kind        string     `json:"kind"`
	BookingID   int64      `json:"booking_id"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at"`
}

// Notification is the message handed to the delivery channel.
type Notification struct {
	Kind      string            `json:"kind"`
	BookingID int64             `json:"booking_id"`
	Recipient string            `json:"recipient"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
}
