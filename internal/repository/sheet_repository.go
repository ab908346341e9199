package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/returns-desk/internal/model"
)

// SheetRepo persists return records.  Every read and write that takes a
// business id filters on it, so a caller can never touch another tenant's
// row by guessing ids.
type SheetRepo struct{ db *sqlx.DB }

func NewSheetRepo(db *sqlx.DB) *SheetRepo { return &SheetRepo{db: db} }

// Dates are formatted in SQL so they round-trip as YYYY-MM-DD strings.
const sheetColumns = `id, business_id,
	DATE_FORMAT(date_received, '%Y-%m-%d') AS date_received,
	DATE_FORMAT(order_date, '%Y-%m-%d') AS order_date,
	order_no, customer_name, imei, sku, customer_comment, return_type, blocked_by,
	cs_comment, resolution, refund_amount, return_tracking_no, issue, status,
	manager_notes, additional_notes, platform, return_within_30_days, created_at, updated_at`

// SheetQuery filters and paginates a business's sheets.
type SheetQuery struct {
	BusinessID uint64
	Search     string
	Page       int
	PageSize   int
}

// Create inserts s and reloads it.
func (r *SheetRepo) Create(ctx context.Context, s *model.Sheet) error {
	res, err := r.db.NamedExecContext(ctx, `INSERT INTO sheets
		(business_id, date_received, order_date, order_no, customer_name, imei, sku, customer_comment,
		 return_type, blocked_by, cs_comment, resolution, refund_amount, return_tracking_no, issue, status,
		 manager_notes, additional_notes, platform, return_within_30_days)
		VALUES
		(:business_id, :date_received, :order_date, :order_no, :customer_name, :imei, :sku, :customer_comment,
		 :return_type, :blocked_by, :cs_comment, :resolution, :refund_amount, :return_tracking_no, :issue, :status,
		 :manager_notes, :additional_notes, :platform, :return_within_30_days)`, s)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByIDAndBusiness(ctx, uint64(id), s.BusinessID)
	if err != nil {
		return err
	}
	*s = *created
	return nil
}

// GetByID fetches a sheet regardless of business; callers enforce scope.
func (r *SheetRepo) GetByID(ctx context.Context, id uint64) (*model.Sheet, error) {
	var s model.Sheet
	if err := r.db.GetContext(ctx, &s, "SELECT "+sheetColumns+" FROM sheets WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetByIDAndBusiness fetches a sheet only if it belongs to businessID.
func (r *SheetRepo) GetByIDAndBusiness(ctx context.Context, id, businessID uint64) (*model.Sheet, error) {
	var s model.Sheet
	err := r.db.GetContext(ctx, &s, "SELECT "+sheetColumns+" FROM sheets WHERE id = ? AND business_id = ?", id, businessID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns one page of a business's sheets, newest received first, and
// the unpaginated total.
func (r *SheetRepo) List(ctx context.Context, q SheetQuery) ([]model.Sheet, int64, error) {
	where := []string{"business_id = ?"}
	args := []any{q.BusinessID}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := containsPattern(s)
		where = append(where, `(LOWER(order_no) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(imei) LIKE ?
			OR LOWER(sku) LIKE ? OR LOWER(return_tracking_no) LIKE ?)`)
		args = append(args, like, like, like, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM sheets WHERE "+cond, args...); err != nil {
		return nil, 0, err
	}

	out := []model.Sheet{}
	dataSQL := "SELECT " + sheetColumns + " FROM sheets WHERE " + cond +
		" ORDER BY date_received IS NULL, date_received DESC, id DESC LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)
	if err := r.db.SelectContext(ctx, &out, dataSQL, argsData...); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Mutator edits the locked row in place and returns the columns it changed.
type Mutator func(s *model.Sheet) ([]string, error)

// UpdateWith locks the row identified by (id, businessID), lets mutate
// merge the caller's changes into it, and writes back only the columns the
// mutator reported.  Concurrent partial updates therefore never overwrite
// each other's untouched fields.  ErrNotFound when no row matches.
func (r *SheetRepo) UpdateWith(ctx context.Context, id, businessID uint64, mutate Mutator) (*model.Sheet, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var s model.Sheet
	err = tx.GetContext(ctx, &s, "SELECT "+sheetColumns+" FROM sheets WHERE id = ? AND business_id = ? FOR UPDATE", id, businessID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	cols, err := mutate(&s)
	if err != nil {
		return nil, err
	}
	if len(cols) > 0 {
		sets := make([]string, 0, len(cols))
		args := make([]any, 0, len(cols)+2)
		for _, c := range cols {
			v, err := sheetColumnValue(&s, c)
			if err != nil {
				return nil, err
			}
			sets = append(sets, c+" = ?")
			args = append(args, v)
		}
		args = append(args, id, businessID)
		q := "UPDATE sheets SET " + strings.Join(sets, ", ") + ", updated_at = CURRENT_TIMESTAMP WHERE id = ? AND business_id = ?"
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return r.GetByIDAndBusiness(ctx, id, businessID)
}

// Delete removes the sheet if it belongs to businessID and reports how many
// rows went away (0 is not an error).
func (r *SheetRepo) Delete(ctx context.Context, id, businessID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sheets WHERE id = ? AND business_id = ?", id, businessID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// sheetColumnValue maps an updatable column to its value on s.  Unknown
// columns are rejected so a typo can never become SQL.
func sheetColumnValue(s *model.Sheet, col string) (any, error) {
	switch col {
	case "date_received":
		return s.DateReceived, nil
	case "order_date":
		return s.OrderDate, nil
	case "order_no":
		return s.OrderNo, nil
	case "customer_name":
		return s.CustomerName, nil
	case "imei":
		return s.IMEI, nil
	case "sku":
		return s.SKU, nil
	case "customer_comment":
		return s.CustomerComment, nil
	case "return_type":
		return s.ReturnType, nil
	case "blocked_by":
		return s.BlockedBy, nil
	case "cs_comment":
		return s.CSComment, nil
	case "resolution":
		return s.Resolution, nil
	case "refund_amount":
		return s.RefundAmount, nil
	case "return_tracking_no":
		return s.ReturnTrackingNo, nil
	case "issue":
		return s.Issue, nil
	case "status":
		return s.Status, nil
	case "manager_notes":
		return s.ManagerNotes, nil
	case "additional_notes":
		return s.AdditionalNotes, nil
	case "platform":
		return s.Platform, nil
	case "return_within_30_days":
		return s.ReturnWithin30Days, nil
	}
	return nil, fmt.Errorf("sheet: unknown column %q", col)
}
