package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/returns-desk/internal/model"
)

// LabelRepo records generated shipping labels.  Rows are inserted pending
// and settled exactly once.
type LabelRepo struct{ db *sqlx.DB }

func NewLabelRepo(db *sqlx.DB) *LabelRepo { return &LabelRepo{db: db} }

const labelColumns = `id, sheet_id, business_id, correlation_id, status, order_id, shipment_id,
	label_data, tracking_number, error, created_by, created_at, updated_at`

func (r *LabelRepo) CreatePending(ctx context.Context, l *model.ShipStationLabel) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO shipstation_labels (sheet_id, business_id, correlation_id, status, created_by) VALUES (?, ?, ?, ?, ?)",
		l.SheetID, l.BusinessID, l.CorrelationID, model.LabelPending, l.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return r.db.GetContext(ctx, l, "SELECT "+labelColumns+" FROM shipstation_labels WHERE id = ?", id)
}

// MarkCreated settles a pending row with the carrier's identifiers.
func (r *LabelRepo) MarkCreated(ctx context.Context, l *model.ShipStationLabel) error {
	res, err := r.db.ExecContext(ctx, `UPDATE shipstation_labels
		SET status = ?, order_id = ?, shipment_id = ?, label_data = ?, tracking_number = ?, error = NULL
		WHERE id = ? AND status = ?`,
		model.LabelCreated, l.OrderID, l.ShipmentID, l.LabelData, l.TrackingNumber, l.ID, model.LabelPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	l.Status = model.LabelCreated
	return nil
}

// MarkFailed settles a pending row with the failure reason.  OrderID is
// kept when the order was created before the label call failed.
func (r *LabelRepo) MarkFailed(ctx context.Context, id uint64, orderID *int64, reason string) error {
	reason = truncateRunes(reason, 512)
	res, err := r.db.ExecContext(ctx,
		"UPDATE shipstation_labels SET status = ?, order_id = ?, error = ? WHERE id = ? AND status = ?",
		model.LabelFailed, orderID, reason, id, model.LabelPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBySheet returns a sheet's labels newest first.
func (r *LabelRepo) ListBySheet(ctx context.Context, sheetID, businessID uint64) ([]model.ShipStationLabel, error) {
	out := []model.ShipStationLabel{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT "+labelColumns+" FROM shipstation_labels WHERE sheet_id = ? AND business_id = ? ORDER BY created_at DESC, id DESC",
		sheetID, businessID)
	return out, err
}

// ExpirePending fails rows still pending after olderThan, which only
// happens when the process died between the carrier call and settling.
func (r *LabelRepo) ExpirePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE shipstation_labels SET status = ?, error = ? WHERE status = ? AND created_at < ?",
		model.LabelFailed, "abandoned while pending", model.LabelPending, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
