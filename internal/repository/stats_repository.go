package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/returns-desk/internal/model"
)

// StatsRepo aggregates a business's sheets.  It owns no state; every call
// is a fresh query.
type StatsRepo struct{ db *sqlx.DB }

func NewStatsRepo(db *sqlx.DB) *StatsRepo { return &StatsRepo{db: db} }

// A sheet's reporting date is when it was received, falling back to when
// it was entered.
const statsDate = "COALESCE(date_received, DATE(created_at))"

const statsWhere = " FROM sheets WHERE business_id = ? AND " + statsDate + " >= ?"

// Breakdown columns callers may group by.
var breakdownColumns = map[string]bool{
	"resolution":  true,
	"return_type": true,
	"platform":    true,
	"issue":       true,
	"blocked_by":  true,
	"status":      true,
}

// TrendGranularity selects the bucket size of Trend.
type TrendGranularity int

const (
	TrendDay TrendGranularity = iota
	TrendWeek
)

func (r *StatsRepo) Summary(ctx context.Context, businessID uint64, since time.Time) (*model.StatsSummary, error) {
	var s model.StatsSummary
	q := `SELECT COUNT(*) AS total_returns,
		COALESCE(SUM(refund_amount), 0) AS total_refunded,
		COALESCE(AVG(refund_amount), 0) AS average_refund,
		COUNT(refund_amount) AS refunded_returns,
		COALESCE(SUM(return_within_30_days = 'Yes'), 0) AS within_30_yes,
		COALESCE(SUM(return_within_30_days = 'No'), 0) AS within_30_no,
		COALESCE(SUM(return_within_30_days = ''), 0) AS within_30_unknown` + statsWhere
	if err := r.db.GetContext(ctx, &s, q, businessID, since); err != nil {
		return nil, err
	}
	// AVG over DECIMAL(10,2) carries extra scale.
	s.AverageRefund = s.AverageRefund.Round(2)
	return &s, nil
}

// Breakdown counts rows per distinct value of column, largest first.
// Empty values are reported as "Unspecified".
func (r *StatsRepo) Breakdown(ctx context.Context, businessID uint64, since time.Time, column string) ([]model.Bucket, error) {
	if !breakdownColumns[column] {
		return nil, fmt.Errorf("stats: unsupported breakdown column %q", column)
	}
	q := "SELECT COALESCE(NULLIF(" + column + ", ''), 'Unspecified') AS label, COUNT(*) AS n" + statsWhere +
		" GROUP BY label ORDER BY n DESC, label"
	out := []model.Bucket{}
	err := r.db.SelectContext(ctx, &out, q, businessID, since)
	return out, err
}

// TopSKUs returns the limit most returned SKUs.
func (r *StatsRepo) TopSKUs(ctx context.Context, businessID uint64, since time.Time, limit int) ([]model.SKUCount, error) {
	q := "SELECT sku, COUNT(*) AS n, COALESCE(SUM(refund_amount), 0) AS refunded" + statsWhere +
		" AND sku IS NOT NULL AND sku <> '' GROUP BY sku ORDER BY n DESC, sku LIMIT ?"
	out := []model.SKUCount{}
	err := r.db.SelectContext(ctx, &out, q, businessID, since, limit)
	return out, err
}

// Trend buckets returns per day (YYYY-MM-DD) or ISO week (YYYY-Www),
// oldest first.  Empty buckets are omitted.
func (r *StatsRepo) Trend(ctx context.Context, businessID uint64, since time.Time, g TrendGranularity) ([]model.TrendPoint, error) {
	format := "%Y-%m-%d"
	if g == TrendWeek {
		format = "%x-W%v"
	}
	q := "SELECT DATE_FORMAT(" + statsDate + ", '" + format + "') AS period, COUNT(*) AS n," +
		" COALESCE(SUM(refund_amount), 0) AS refunded" + statsWhere + " GROUP BY period ORDER BY period"
	out := []model.TrendPoint{}
	err := r.db.SelectContext(ctx, &out, q, businessID, since)
	return out, err
}
