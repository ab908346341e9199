package service

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/storage"
)

type AttachmentStore interface {
	Create(ctx context.Context, a *model.Attachment) error
	GetByID(ctx context.Context, id uint64) (*model.Attachment, error)
	ListBySheet(ctx context.Context, sheetID, businessID uint64) ([]model.Attachment, error)
	Delete(ctx context.Context, id uint64) error
}

type AttachmentUploadResult struct {
	Uploaded []model.Attachment `json:"uploaded"`
	Failed   []FileError        `json:"failed"`
}

// AttachmentService stores sheet files remotely and tracks them in the
// database.  Row and file are created and removed together, best effort.
type AttachmentService struct {
	sheets   sheetGetter
	repo     AttachmentStore
	blobs    storage.BlobStore
	maxBytes int64
	log      echo.Logger
}

func NewAttachmentService(sheets sheetGetter, repo AttachmentStore, blobs storage.BlobStore, maxBytes int64, logger echo.Logger) *AttachmentService {
	return &AttachmentService{sheets: sheets, repo: repo, blobs: blobs, maxBytes: maxBytes, log: logger}
}

// Upload stores each file independently.  The call fails only when no
// file was given or the sheet is not visible; per-file failures are
// reported in the result.
func (s *AttachmentService) Upload(ctx context.Context, p rbac.Principal, sheetID uint64, files []Upload) (*AttachmentUploadResult, error) {
	if len(files) == 0 {
		return nil, Missing("files")
	}
	sh, err := loadSheet(ctx, s.sheets, p, sheetID)
	if err != nil {
		return nil, err
	}
	out := &AttachmentUploadResult{Uploaded: []model.Attachment{}, Failed: []FileError{}}
	uploader := p.UserID
	for _, f := range files {
		original := cleanOriginalName(f.Name)
		data, mime, err := readUpload(f, s.maxBytes)
		if err != nil {
			out.Failed = append(out.Failed, FileError{Name: original, Error: err.Error()})
			continue
		}
		name := storedName(original)
		remote := path.Join("sheets", fmt.Sprint(sh.ID), name)
		if err := s.blobs.Put(ctx, remote, data); err != nil {
			s.log.Errorf("sheet %d: store %s: %v", sh.ID, original, err)
			out.Failed = append(out.Failed, FileError{Name: original, Error: "storage unavailable"})
			continue
		}
		a := &model.Attachment{
			SheetID: sh.ID, BusinessID: sh.BusinessID, FileName: name, OriginalName: original,
			FileSize: int64(len(data)), MimeType: mime, RemotePath: remote, UploadedBy: &uploader,
		}
		if err := s.repo.Create(ctx, a); err != nil {
			s.log.Errorf("sheet %d: record %s: %v", sh.ID, original, err)
			if derr := s.blobs.Delete(ctx, remote); derr != nil {
				s.log.Warnf("sheet %d: orphaned %s: %v", sh.ID, remote, derr)
			}
			out.Failed = append(out.Failed, FileError{Name: original, Error: "could not record file"})
			continue
		}
		out.Uploaded = append(out.Uploaded, *a)
	}
	return out, nil
}

func (s *AttachmentService) ListBySheet(ctx context.Context, p rbac.Principal, sheetID uint64) ([]model.Attachment, error) {
	sh, err := loadSheet(ctx, s.sheets, p, sheetID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListBySheet(ctx, sh.ID, sh.BusinessID)
}

func (s *AttachmentService) load(ctx context.Context, p rbac.Principal, id uint64) (*model.Attachment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "attachment")
	}
	if rbac.AssertBusinessScope(p, a.BusinessID) != nil {
		return nil, NotFound("attachment")
	}
	return a, nil
}

// Open returns the attachment row and its bytes.
func (s *AttachmentService) Open(ctx context.Context, p rbac.Principal, id uint64) (*model.Attachment, []byte, error) {
	a, err := s.load(ctx, p, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.blobs.Get(ctx, a.RemotePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, nil, NotFound("attachment file")
		}
		return nil, nil, Upstream("attachment storage unavailable", err)
	}
	return a, data, nil
}

// Delete removes the remote file and then the row.  A file already gone
// from storage does not stop the row from being removed.
func (s *AttachmentService) Delete(ctx context.Context, p rbac.Principal, id uint64) error {
	a, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, a.RemotePath); err != nil && !errors.Is(err, storage.ErrNotExist) {
		s.log.Warnf("attachment %d: remove %s: %v", a.ID, a.RemotePath, err)
	}
	return s.repo.Delete(ctx, a.ID)
}
