package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/returns-desk/internal/model"
)

type AttachmentRepo struct{ db *sqlx.DB }

func NewAttachmentRepo(db *sqlx.DB) *AttachmentRepo { return &AttachmentRepo{db: db} }

const attachmentColumns = `id, sheet_id, business_id, file_name, original_name, file_size, mime_type,
	remote_path, uploaded_by, created_at`

func (r *AttachmentRepo) Create(ctx context.Context, a *model.Attachment) error {
	res, err := r.db.NamedExecContext(ctx, `INSERT INTO attachments
		(sheet_id, business_id, file_name, original_name, file_size, mime_type, remote_path, uploaded_by)
		VALUES (:sheet_id, :business_id, :file_name, :original_name, :file_size, :mime_type, :remote_path, :uploaded_by)`, a)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*a = *created
	return nil
}

func (r *AttachmentRepo) GetByID(ctx context.Context, id uint64) (*model.Attachment, error) {
	var a model.Attachment
	if err := r.db.GetContext(ctx, &a, "SELECT "+attachmentColumns+" FROM attachments WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListBySheet returns a sheet's attachments oldest first.
func (r *AttachmentRepo) ListBySheet(ctx context.Context, sheetID, businessID uint64) ([]model.Attachment, error) {
	out := []model.Attachment{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT "+attachmentColumns+" FROM attachments WHERE sheet_id = ? AND business_id = ? ORDER BY created_at, id",
		sheetID, businessID)
	return out, err
}

func (r *AttachmentRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM attachments WHERE id = ?", id)
	return err
}
