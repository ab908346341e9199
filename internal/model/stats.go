package model

import "github.com/shopspring/decimal"

// StatsSummary holds the headline figures for a business over a window.
type StatsSummary struct {
	TotalReturns    int64           `db:"total_returns" json:"total_returns"`
	TotalRefunded   decimal.Decimal `db:"total_refunded" json:"total_refunded"`
	AverageRefund   decimal.Decimal `db:"average_refund" json:"average_refund"`
	RefundedReturns int64           `db:"refunded_returns" json:"refunded_returns"`
	Within30Yes     int64           `db:"within_30_yes" json:"within_30_days_yes"`
	Within30No      int64           `db:"within_30_no" json:"within_30_days_no"`
	Within30Unknown int64           `db:"within_30_unknown" json:"within_30_days_unknown"`
}

// Bucket is one row of a group-by breakdown.  Percent is of the window's
// total returns.
type Bucket struct {
	Label   string  `db:"label" json:"label"`
	Count   int64   `db:"n" json:"count"`
	Percent float64 `db:"-" json:"percent"`
}

// SKUCount ranks SKUs by number of returns.
type SKUCount struct {
	SKU      string          `db:"sku" json:"sku"`
	Count    int64           `db:"n" json:"count"`
	Refunded decimal.Decimal `db:"refunded" json:"refunded"`
}

// TrendPoint is one day or ISO week of the trend series.
type TrendPoint struct {
	Period   string          `db:"period" json:"period"`
	Count    int64           `db:"n" json:"count"`
	Refunded decimal.Decimal `db:"refunded" json:"refunded"`
}
