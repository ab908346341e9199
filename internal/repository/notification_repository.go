package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/returns-desk/internal/model"
)

type NotificationRepo struct{ db *sqlx.DB }

func NewNotificationRepo(db *sqlx.DB) *NotificationRepo { return &NotificationRepo{db: db} }

const notificationColumns = `id, type, audience, enquiry_id, order_number, business_id, user_id,
	message, is_read, created_at`

// NotificationScope restricts reads and read-marking.  All is set for the
// operations role; otherwise rows must match the business or the user.
type NotificationScope struct {
	All        bool
	BusinessID *uint64
	UserID     uint64
}

func (s NotificationScope) where() (string, []any) {
	if s.All {
		return "1 = 1", nil
	}
	if s.BusinessID != nil {
		return "(business_id = ? OR user_id = ?)", []any{*s.BusinessID, s.UserID}
	}
	return "user_id = ?", []any{s.UserID}
}

// Create inserts n and fills in id and created_at.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (type, audience, enquiry_id, order_number, business_id, user_id, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.Type, n.Audience, n.EnquiryID, n.OrderNumber, n.BusinessID, n.UserID, n.Message)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return r.db.GetContext(ctx, n, "SELECT "+notificationColumns+" FROM notifications WHERE id = ?", id)
}

// List returns the newest notifications visible in scope.  A non-nil since
// keeps only rows strictly newer than it.
func (r *NotificationRepo) List(ctx context.Context, scope NotificationScope, since *time.Time, limit int) ([]model.Notification, error) {
	cond, args := scope.where()
	if since != nil {
		cond += " AND created_at > ?"
		args = append(args, *since)
	}
	args = append(args, limit)
	out := []model.Notification{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT "+notificationColumns+" FROM notifications WHERE "+cond+" ORDER BY created_at DESC, id DESC LIMIT ?", args...)
	return out, err
}

// CountUnread counts unread rows in scope.
func (r *NotificationRepo) CountUnread(ctx context.Context, scope NotificationScope) (int64, error) {
	cond, args := scope.where()
	var n int64
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM notifications WHERE is_read = 0 AND "+cond, args...)
	return n, err
}

// MarkRead flags one notification.  A row outside scope is ErrNotFound.
func (r *NotificationRepo) MarkRead(ctx context.Context, id uint64, scope NotificationScope) error {
	cond, args := scope.where()
	var exists int
	if err := r.db.GetContext(ctx, &exists,
		"SELECT COUNT(*) FROM notifications WHERE id = ? AND "+cond, append([]any{id}, args...)...); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}
	_, err := r.db.ExecContext(ctx, "UPDATE notifications SET is_read = 1 WHERE id = ?", id)
	return err
}

// MarkAllRead flags every unread notification in scope and returns how many
// changed.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, scope NotificationScope) (int64, error) {
	cond, args := scope.where()
	res, err := r.db.ExecContext(ctx, "UPDATE notifications SET is_read = 1 WHERE is_read = 0 AND "+cond, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PruneRead deletes read notifications older than the cutoff.
func (r *NotificationRepo) PruneRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM notifications WHERE is_read = 1 AND created_at < ?",
		time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
