package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/returns-desk/internal/model"
)

// EnquiryRepo stores enquiries and their message threads.
type EnquiryRepo struct{ db *sqlx.DB }

func NewEnquiryRepo(db *sqlx.DB) *EnquiryRepo { return &EnquiryRepo{db: db} }

const enquirySelect = `SELECT e.id, e.business_id, COALESCE(b.name, '') AS business_name, e.order_number,
	e.platform, e.description, e.status, e.created_by, COALESCE(u.username, '') AS created_by_username,
	e.created_at, e.updated_at
	FROM enquiries e
	LEFT JOIN businesses b ON b.id = e.business_id
	LEFT JOIN users u ON u.id = e.created_by`

const messageSelect = `SELECT m.id, m.enquiry_id, m.message, m.attachments, m.created_by,
	COALESCE(u.username, '') AS author_username, COALESCE(u.role_id, 0) AS author_role_id, m.created_at
	FROM enquiry_messages m
	LEFT JOIN users u ON u.id = m.created_by`

// Status buckets accepted by EnquiryQuery.Status besides a concrete status.
const (
	BucketActive   = "active"
	BucketResolved = "resolved"
)

// EnquiryQuery filters the enquiry list.  BusinessID nil means every
// business.  Priority is the status sorted first.
type EnquiryQuery struct {
	BusinessID *uint64
	Search     string
	From       *time.Time
	To         *time.Time
	Platform   string
	Status     string
	Priority   model.EnquiryStatus
	Page       int
	PageSize   int
}

// EnquiryPage is one page of enquiries plus counts over the whole filtered
// set.  Status counts ignore the status filter and platform counts ignore
// the platform filter, so a dashboard can show every tab's size at once.
type EnquiryPage struct {
	Items          []model.Enquiry  `json:"items"`
	Total          int64            `json:"total"`
	StatusCounts   map[string]int64 `json:"status_counts"`
	PlatformCounts map[string]int64 `json:"platform_counts"`
}

// FindByOrder returns the enquiry for (businessID, orderNumber).
func (r *EnquiryRepo) FindByOrder(ctx context.Context, businessID uint64, orderNumber string) (*model.Enquiry, error) {
	var e model.Enquiry
	err := r.db.GetContext(ctx, &e, enquirySelect+" WHERE e.business_id = ? AND e.order_number = ? LIMIT 1", businessID, orderNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Create inserts e together with its first message.  A duplicate
// (business, order number) is ErrConflict.
func (r *EnquiryRepo) Create(ctx context.Context, e *model.Enquiry, first *model.EnquiryMessage) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO enquiries (business_id, order_number, platform, description, status, created_by) VALUES (?, ?, ?, ?, ?, ?)",
		e.BusinessID, e.OrderNumber, e.Platform, e.Description, e.Status, e.CreatedBy)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if first != nil {
		first.EnquiryID = uint64(id)
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO enquiry_messages (enquiry_id, message, attachments, created_by) VALUES (?, ?, ?, ?)",
			first.EnquiryID, first.Message, first.Attachments, first.CreatedBy); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*e = *created
	return nil
}

func (r *EnquiryRepo) GetByID(ctx context.Context, id uint64) (*model.Enquiry, error) {
	var e model.Enquiry
	if err := r.db.GetContext(ctx, &e, enquirySelect+" WHERE e.id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Messages returns the conversation in creation order.
func (r *EnquiryRepo) Messages(ctx context.Context, enquiryID uint64) ([]model.EnquiryMessage, error) {
	out := []model.EnquiryMessage{}
	err := r.db.SelectContext(ctx, &out, messageSelect+" WHERE m.enquiry_id = ? ORDER BY m.created_at, m.id", enquiryID)
	return out, err
}

// AddMessage appends m and moves the enquiry to status in one transaction.
func (r *EnquiryRepo) AddMessage(ctx context.Context, m *model.EnquiryMessage, status model.EnquiryStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE enquiries SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", status, m.EnquiryID)
	if err != nil {
		return err
	}
	// MySQL reports 0 affected rows when nothing changed, so existence is
	// checked separately.
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := tx.GetContext(ctx, &one, "SELECT 1 FROM enquiries WHERE id = ?", m.EnquiryID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
	}
	ins, err := tx.ExecContext(ctx,
		"INSERT INTO enquiry_messages (enquiry_id, message, attachments, created_by) VALUES (?, ?, ?, ?)",
		m.EnquiryID, m.Message, m.Attachments, m.CreatedBy)
	if err != nil {
		return err
	}
	id, err := ins.LastInsertId()
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	var saved model.EnquiryMessage
	if err := r.db.GetContext(ctx, &saved, messageSelect+" WHERE m.id = ?", id); err != nil {
		return err
	}
	*m = saved
	return nil
}

// UpdateStatus sets the status directly.
func (r *EnquiryRepo) UpdateStatus(ctx context.Context, id uint64, status model.EnquiryStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE enquiries SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// List applies q and returns a page plus the facet counts.
func (r *EnquiryRepo) List(ctx context.Context, q EnquiryQuery) (*EnquiryPage, error) {
	base, baseArgs := enquiryBaseFilter(q)
	statusCond, statusArgs := enquiryStatusFilter(q.Status)
	platformCond, platformArgs := enquiryPlatformFilter(q.Platform)

	full := joinConds(base, statusCond, platformCond)
	fullArgs := concatArgs(baseArgs, statusArgs, platformArgs)

	page := &EnquiryPage{
		Items:          []model.Enquiry{},
		StatusCounts:   map[string]int64{},
		PlatformCounts: map[string]int64{},
	}
	if err := r.db.GetContext(ctx, &page.Total, "SELECT COUNT(*) FROM enquiries e"+full, fullArgs...); err != nil {
		return nil, err
	}

	order := " ORDER BY CASE WHEN e.status = ? THEN 0 WHEN e.status = ? THEN 2 ELSE 1 END, e.updated_at DESC, e.id DESC"
	dataArgs := concatArgs(fullArgs, []any{q.Priority, model.StatusResolved, q.PageSize, (q.Page - 1) * q.PageSize})
	if err := r.db.SelectContext(ctx, &page.Items, enquirySelect+full+order+" LIMIT ? OFFSET ?", dataArgs...); err != nil {
		return nil, err
	}

	type facet struct {
		Key string `db:"k"`
		N   int64  `db:"n"`
	}
	var byStatus []facet
	if err := r.db.SelectContext(ctx, &byStatus,
		"SELECT e.status AS k, COUNT(*) AS n FROM enquiries e"+joinConds(base, platformCond)+" GROUP BY e.status",
		concatArgs(baseArgs, platformArgs)...); err != nil {
		return nil, err
	}
	for _, f := range byStatus {
		page.StatusCounts[f.Key] = f.N
	}
	var byPlatform []facet
	if err := r.db.SelectContext(ctx, &byPlatform,
		"SELECT e.platform AS k, COUNT(*) AS n FROM enquiries e"+joinConds(base, statusCond)+" GROUP BY e.platform",
		concatArgs(baseArgs, statusArgs)...); err != nil {
		return nil, err
	}
	for _, f := range byPlatform {
		page.PlatformCounts[f.Key] = f.N
	}
	return page, nil
}

func enquiryBaseFilter(q EnquiryQuery) (string, []any) {
	var conds []string
	var args []any
	if q.BusinessID != nil {
		conds = append(conds, "e.business_id = ?")
		args = append(args, *q.BusinessID)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		conds = append(conds, "LOWER(e.order_number) LIKE ?")
		args = append(args, containsPattern(s))
	}
	if q.From != nil {
		conds = append(conds, "e.created_at >= ?")
		args = append(args, *q.From)
	}
	if q.To != nil {
		conds = append(conds, "e.created_at < ?")
		args = append(args, *q.To)
	}
	return strings.Join(conds, " AND "), args
}

func enquiryStatusFilter(status string) (string, []any) {
	switch strings.TrimSpace(status) {
	case "", "all":
		return "", nil
	case BucketActive:
		return "e.status <> ?", []any{model.StatusResolved}
	case BucketResolved:
		return "e.status = ?", []any{model.StatusResolved}
	default:
		return "e.status = ?", []any{status}
	}
}

func enquiryPlatformFilter(platform string) (string, []any) {
	p := strings.ToLower(strings.TrimSpace(platform))
	if p == "" || p == "all" {
		return "", nil
	}
	return "e.platform = ?", []any{p}
}

func joinConds(conds ...string) string {
	var parts []string
	for _, c := range conds {
		if c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

func concatArgs(groups ...[]any) []any {
	var out []any
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
