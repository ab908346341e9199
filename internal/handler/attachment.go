package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/service"
)

type AttachmentAPI interface {
	Upload(ctx context.Context, p rbac.Principal, sheetID uint64, files []service.Upload) (*service.AttachmentUploadResult, error)
	ListBySheet(ctx context.Context, p rbac.Principal, sheetID uint64) ([]model.Attachment, error)
	Open(ctx context.Context, p rbac.Principal, id uint64) (*model.Attachment, []byte, error)
	Delete(ctx context.Context, p rbac.Principal, id uint64) error
}

type AttachmentHandler struct {
	Attachments AttachmentAPI
}

func NewAttachmentHandler(a AttachmentAPI) *AttachmentHandler {
	return &AttachmentHandler{Attachments: a}
}

// Upload handles POST /api/attachments/upload/:sheetId with one or more
// "files" parts.
func (h *AttachmentHandler) Upload(c echo.Context) error {
	sheetID, err := paramID(c, "sheetId")
	if err != nil {
		return respondError(c, err)
	}
	files, err := uploads(c, "files")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.Attachments.Upload(c.Request().Context(), principal(c), sheetID, files)
	if err != nil {
		return respondError(c, err)
	}
	status := http.StatusCreated
	if len(out.Uploaded) == 0 {
		status = http.StatusOK
	}
	return c.JSON(status, out)
}

func (h *AttachmentHandler) List(c echo.Context) error {
	sheetID, err := paramID(c, "sheetId")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.Attachments.ListBySheet(c.Request().Context(), principal(c), sheetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Download sends the file as an attachment; View sends it inline.
func (h *AttachmentHandler) Download(c echo.Context) error { return h.send(c, "attachment") }

func (h *AttachmentHandler) View(c echo.Context) error { return h.send(c, "inline") }

func (h *AttachmentHandler) send(c echo.Context, disposition string) error {
	id, err := paramID(c, "attachmentId")
	if err != nil {
		return respondError(c, err)
	}
	a, data, err := h.Attachments.Open(c.Request().Context(), principal(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return sendFile(c, disposition, a.OriginalName, a.MimeType, data)
}

func (h *AttachmentHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "attachmentId")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Attachments.Delete(c.Request().Context(), principal(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
