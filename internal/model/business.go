package model

import "time"

// Business is a tenant.  Almost every other row carries its id.
type Business struct {
	ID             uint64    `db:"id" json:"id"`                           // businesses.id
	Name           string    `db:"name" json:"name"`                       // businesses.name
	CurrencyCode   string    `db:"currency_code" json:"currency_code"`     // businesses.currency_code
	CurrencySymbol string    `db:"currency_symbol" json:"currency_symbol"` // businesses.currency_symbol
	AddressLine1   *string   `db:"address_line1" json:"address_line1"`     // businesses.address_line1
	AddressLine2   *string   `db:"address_line2" json:"address_line2"`     // businesses.address_line2
	City           *string   `db:"city" json:"city"`                       // businesses.city
	Postcode       *string   `db:"postcode" json:"postcode"`               // businesses.postcode
	Country        *string   `db:"country" json:"country"`                 // businesses.country
	Phone          *string   `db:"phone" json:"phone"`                     // businesses.phone
	OwnerID        *uint64   `db:"owner_id" json:"owner_id"`               // businesses.owner_id (nullable)
	CreatedAt      time.Time `db:"created_at" json:"created_at"`           // businesses.created_at
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`           // businesses.updated_at
}
