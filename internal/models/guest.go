package models

import "time"

// Guest is keyed by the remote guest id and indexed by email.
// Token is overwritten on every booking and profile update.
type Guest struct {
	GuestID       int64     `json:"guestId"`
	EmailID       string    `json:"emailId"`
	Token         string    `json:"-"`
	HasSubscribed bool      `json:"hasSubscribed"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Tenant struct {
	ID         int64     `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	SecretHash string    `json:"-" yaml:"-"`
	CreatedAt  time.Time `json:"createdAt" yaml:"-"`
}

type Promotion struct {
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description" yaml:"description"`
	PriceFactor float64 `json:"priceFactor" yaml:"price_factor"`
	Active      bool    `json:"active" yaml:"active"`
}
