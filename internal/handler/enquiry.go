package handler

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/repository"
	"github.com/iliyamo/returns-desk/internal/service"
)

type EnquiryAPI interface {
	Create(ctx context.Context, p rbac.Principal, in service.NewEnquiryInput) (*model.Enquiry, error)
	Get(ctx context.Context, p rbac.Principal, id uint64) (*model.EnquiryDetail, error)
	List(ctx context.Context, p rbac.Principal, in service.ListEnquiriesInput) (*repository.EnquiryPage, error)
	Reply(ctx context.Context, p rbac.Principal, id uint64, in service.ReplyInput) (*service.ReplyResult, error)
	UpdateStatus(ctx context.Context, p rbac.Principal, id uint64, status string) (*model.Enquiry, error)
	UploadFiles(ctx context.Context, p rbac.Principal, id uint64, files []service.Upload) (*service.UploadedFiles, error)
	OpenAttachment(ctx context.Context, p rbac.Principal, id uint64, fileName string) (*service.StoredFile, error)
}

type EnquiryHandler struct {
	Enquiries EnquiryAPI
}

func NewEnquiryHandler(e EnquiryAPI) *EnquiryHandler {
	return &EnquiryHandler{Enquiries: e}
}

// List handles GET /api/enquiries.  SuperAdmin may narrow to one business
// with business_id; everyone else is pinned to their own.
func (h *EnquiryHandler) List(c echo.Context) error {
	in := service.ListEnquiriesInput{
		Search:   c.QueryParam("search"),
		From:     c.QueryParam("from"),
		To:       c.QueryParam("to"),
		Platform: c.QueryParam("platform"),
		Status:   c.QueryParam("status"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 0),
	}
	if v := c.QueryParam("business_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return respondError(c, service.Validation("invalid business_id"))
		}
		in.BusinessID = &id
	}
	page, err := h.Enquiries.List(c.Request().Context(), principal(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Create handles POST /api/enquiries.  A duplicate answers 409 with the
// existing enquiry's id.
func (h *EnquiryHandler) Create(c echo.Context) error {
	var in service.NewEnquiryInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	e, err := h.Enquiries.Create(c.Request().Context(), principal(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *EnquiryHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	d, err := h.Enquiries.Get(c.Request().Context(), principal(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

type replyReq struct {
	Message     string                    `json:"message"`
	Attachments []model.MessageAttachment `json:"attachments"`
}

// Reply handles POST /api/enquiries/:id/messages.  JSON bodies may
// reference files uploaded earlier; multipart bodies carry a message
// field plus files, and per-file failures come back in "failed".
func (h *EnquiryHandler) Reply(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in service.ReplyInput
	if isMultipart(c) {
		files, err := uploads(c, "files")
		if err != nil {
			return respondError(c, err)
		}
		in.Message = c.FormValue("message")
		in.Files = files
		if raw := c.FormValue("attachments"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &in.Attachments); err != nil {
				return respondError(c, service.Validation("attachments must be a JSON array"))
			}
		}
	} else {
		var req replyReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		in.Message, in.Attachments = req.Message, req.Attachments
	}
	res, err := h.Enquiries.Reply(c.Request().Context(), principal(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// UpdateStatus handles PUT /api/enquiries/:id/status.
func (h *EnquiryHandler) UpdateStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	e, err := h.Enquiries.UpdateStatus(c.Request().Context(), principal(c), id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

// Upload handles POST /api/enquiries/:id/attachments and returns the
// metadata to reference in a later reply.
func (h *EnquiryHandler) Upload(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	files, err := uploads(c, "files")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.Enquiries.UploadFiles(c.Request().Context(), principal(c), id, files)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// Download handles GET /api/enquiries/:id/attachments/:filename.
func (h *EnquiryHandler) Download(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	f, err := h.Enquiries.OpenAttachment(c.Request().Context(), principal(c), id, c.Param("filename"))
	if err != nil {
		return respondError(c, err)
	}
	return sendFile(c, "attachment", f.Name, f.MimeType, f.Data)
}

// sendFile writes data with a Content-Disposition naming the original
// file.  disposition is "attachment" or "inline".
func sendFile(c echo.Context, disposition, name, contentType string, data []byte) error {
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType(disposition, map[string]string{"filename": name}))
	c.Response().Header().Set("X-Content-Type-Options", "nosniff")
	return c.Blob(http.StatusOK, contentType, data)
}
