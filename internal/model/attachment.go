package model

import "time"

// Attachment is a file stored remotely for a sheet.  The row and the remote
// file are created together on upload and removed together on delete.
type Attachment struct {
	ID           uint64    `db:"id" json:"id"`
	SheetID      uint64    `db:"sheet_id" json:"sheet_id"`
	BusinessID   uint64    `db:"business_id" json:"business_id"`
	FileName     string    `db:"file_name" json:"file_name"`
	OriginalName string    `db:"original_name" json:"original_name"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	MimeType     string    `db:"mime_type" json:"mime_type"`
	RemotePath   string    `db:"remote_path" json:"-"`
	UploadedBy   *uint64   `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
