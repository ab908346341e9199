package model

import "time"

// BackMarketCredentials holds a business's sealed marketplace API key pair.
type BackMarketCredentials struct {
	ID         uint64    `db:"id"`          // backmarket_credentials.id
	BusinessID uint64    `db:"business_id"` // backmarket_credentials.business_id
	APIKey     string    `db:"api_key"`     // backmarket_credentials.api_key (sealed)
	APISecret  string    `db:"api_secret"`  // backmarket_credentials.api_secret (sealed)
	UpdatedBy  *uint64   `db:"updated_by"`  // backmarket_credentials.updated_by
	UpdatedAt  time.Time `db:"updated_at"`  // backmarket_credentials.updated_at
}

// MaskedCredentials is the only shape credentials leave the server in.
type MaskedCredentials struct {
	BusinessID uint64    `json:"business_id"`
	APIKey     string    `json:"api_key"`
	APISecret  string    `json:"api_secret"`
	UpdatedBy  *uint64   `json:"updated_by"`
	UpdatedAt  time.Time `json:"updated_at"`
}
