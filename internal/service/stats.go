package service

import (
	"context"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/repository"
)

type StatsStore interface {
	Summary(ctx context.Context, businessID uint64, since time.Time) (*model.StatsSummary, error)
	Breakdown(ctx context.Context, businessID uint64, since time.Time, column string) ([]model.Bucket, error)
	TopSKUs(ctx context.Context, businessID uint64, since time.Time, limit int) ([]model.SKUCount, error)
	Trend(ctx context.Context, businessID uint64, since time.Time, g repository.TrendGranularity) ([]model.TrendPoint, error)
}

// DefaultRange applies when the request names none.
const DefaultRange = "1m"

const topSKULimit = 10

// StatsRange is a resolved range token.
type StatsRange struct {
	Token string                      `json:"range"`
	Since time.Time                   `json:"since"`
	Trend repository.TrendGranularity `json:"-"`
}

// ParseRange resolves 1d, 1w, 1m, 3m or 1y relative to now.  1d is the
// trailing 24 hours; longer windows start at midnight UTC of the first
// included day.
func ParseRange(token string, now time.Time) (StatsRange, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		token = DefaultRange
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	r := StatsRange{Token: token, Trend: repository.TrendDay}
	switch token {
	case "1d":
		r.Since = now.UTC().AddDate(0, 0, -1)
	case "1w":
		r.Since = today.AddDate(0, 0, -7)
	case "1m":
		r.Since = today.AddDate(0, -1, 0)
	case "3m":
		r.Since = today.AddDate(0, -3, 0)
		r.Trend = repository.TrendWeek
	case "1y":
		r.Since = today.AddDate(-1, 0, 0)
		r.Trend = repository.TrendWeek
	default:
		return StatsRange{}, Validation("range must be one of 1d, 1w, 1m, 3m, 1y")
	}
	return r, nil
}

type BasicStats struct {
	Range        StatsRange          `json:"range"`
	Summary      *model.StatsSummary `json:"summary"`
	ByResolution []model.Bucket      `json:"by_resolution"`
	ByReturnType []model.Bucket      `json:"by_return_type"`
	ByPlatform   []model.Bucket      `json:"by_platform"`
}

type AdvancedStats struct {
	Range     StatsRange         `json:"range"`
	Total     int64              `json:"total_returns"`
	ByIssue   []model.Bucket     `json:"by_issue"`
	ByBlocked []model.Bucket     `json:"by_blocked_by"`
	ByStatus  []model.Bucket     `json:"by_status"`
	TopSKUs   []model.SKUCount   `json:"top_skus"`
	Trend     []model.TrendPoint `json:"trend"`
}

type StatsService struct {
	repo StatsStore
	now  func() time.Time
}

func NewStatsService(repo StatsStore) *StatsService {
	return &StatsService{repo: repo, now: time.Now}
}

// Basic computes the dashboard headline figures.  The independent queries
// run concurrently.
func (s *StatsService) Basic(ctx context.Context, p rbac.Principal, businessID uint64, token string) (*BasicStats, error) {
	if err := scope(p, businessID); err != nil {
		return nil, err
	}
	r, err := ParseRange(token, s.now().UTC())
	if err != nil {
		return nil, err
	}
	out := &BasicStats{Range: r}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Summary, err = s.repo.Summary(gctx, businessID, r.Since)
		return err
	})
	s.breakdown(gctx, g, businessID, r.Since, "resolution", &out.ByResolution)
	s.breakdown(gctx, g, businessID, r.Since, "return_type", &out.ByReturnType)
	s.breakdown(gctx, g, businessID, r.Since, "platform", &out.ByPlatform)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	total := out.Summary.TotalReturns
	withPercent(out.ByResolution, total)
	withPercent(out.ByReturnType, total)
	withPercent(out.ByPlatform, total)
	return out, nil
}

func (s *StatsService) Advanced(ctx context.Context, p rbac.Principal, businessID uint64, token string) (*AdvancedStats, error) {
	if err := scope(p, businessID); err != nil {
		return nil, err
	}
	r, err := ParseRange(token, s.now().UTC())
	if err != nil {
		return nil, err
	}
	out := &AdvancedStats{Range: r}
	var summary *model.StatsSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		summary, err = s.repo.Summary(gctx, businessID, r.Since)
		return err
	})
	s.breakdown(gctx, g, businessID, r.Since, "issue", &out.ByIssue)
	s.breakdown(gctx, g, businessID, r.Since, "blocked_by", &out.ByBlocked)
	s.breakdown(gctx, g, businessID, r.Since, "status", &out.ByStatus)
	g.Go(func() (err error) {
		out.TopSKUs, err = s.repo.TopSKUs(gctx, businessID, r.Since, topSKULimit)
		return err
	})
	g.Go(func() (err error) {
		out.Trend, err = s.repo.Trend(gctx, businessID, r.Since, r.Trend)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.Total = summary.TotalReturns
	withPercent(out.ByIssue, out.Total)
	withPercent(out.ByBlocked, out.Total)
	withPercent(out.ByStatus, out.Total)
	return out, nil
}

func (s *StatsService) breakdown(ctx context.Context, g *errgroup.Group, businessID uint64, since time.Time, column string, dst *[]model.Bucket) {
	g.Go(func() (err error) {
		*dst, err = s.repo.Breakdown(ctx, businessID, since, column)
		return err
	})
}

// withPercent fills Percent rounded to two decimals.
func withPercent(buckets []model.Bucket, total int64) {
	for i := range buckets {
		if total == 0 {
			buckets[i].Percent = 0
			continue
		}
		buckets[i].Percent = math.Round(float64(buckets[i].Count)*10000/float64(total)) / 100
	}
}
