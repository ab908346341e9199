package config

import (
	"fmt"
	"time"
)

// ShipStationConfig holds the label API credentials.  They are checked when
// the first label is requested, not at startup.
type ShipStationConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

func LoadShipStationConfig() ShipStationConfig {
	return ShipStationConfig{
		BaseURL:   envStr("SHIPSTATION_BASE_URL", "https://ssapi.shipstation.com"),
		APIKey:    envStr("SHIPSTATION_API_KEY", ""),
		APISecret: envStr("SHIPSTATION_API_SECRET", ""),
		Timeout:   envDur("SHIPSTATION_TIMEOUT", 30*time.Second),
	}
}

// Validate reports ErrNotConfigured when either half of the key pair is empty.
func (c ShipStationConfig) Validate() error {
	if c.APIKey == "" || c.APISecret == "" {
		return fmt.Errorf("shipstation: SHIPSTATION_API_KEY/SHIPSTATION_API_SECRET: %w", ErrNotConfigured)
	}
	return nil
}

// BackMarketConfig only carries the endpoint; the per-business API key and
// secret are stored sealed in the database.
type BackMarketConfig struct {
	BaseURL string
	Timeout time.Duration
}

func LoadBackMarketConfig() BackMarketConfig {
	return BackMarketConfig{
		BaseURL: envStr("BACKMARKET_BASE_URL", "https://www.backmarket.fr"),
		Timeout: envDur("BACKMARKET_TIMEOUT", 20*time.Second),
	}
}
