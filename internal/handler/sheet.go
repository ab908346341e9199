package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/service"
)

type SheetAPI interface {
	List(ctx context.Context, p rbac.Principal, businessID uint64, page, pageSize int, search string) (*service.SheetPage, error)
	Create(ctx context.Context, p rbac.Principal, businessID uint64, in model.SheetPatch) (*model.Sheet, error)
	Update(ctx context.Context, p rbac.Principal, businessID, id uint64, in model.SheetPatch) (*model.Sheet, error)
	Delete(ctx context.Context, p rbac.Principal, businessID, id uint64) error
}

// SheetHandler serves /api/sheets/:businessId.  Update and delete carry
// the record id in the body.
type SheetHandler struct {
	Sheets SheetAPI
}

func NewSheetHandler(s SheetAPI) *SheetHandler {
	return &SheetHandler{Sheets: s}
}

type sheetUpdateReq struct {
	ID uint64 `json:"id"`
	model.SheetPatch
}

func (h *SheetHandler) List(c echo.Context) error {
	businessID, err := paramID(c, "businessId")
	if err != nil {
		return respondError(c, err)
	}
	page, err := h.Sheets.List(c.Request().Context(), principal(c), businessID,
		queryInt(c, "page", 1), queryInt(c, "page_size", 0), c.QueryParam("search"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *SheetHandler) Create(c echo.Context) error {
	businessID, err := paramID(c, "businessId")
	if err != nil {
		return respondError(c, err)
	}
	var in model.SheetPatch
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	s, err := h.Sheets.Create(c.Request().Context(), principal(c), businessID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *SheetHandler) Update(c echo.Context) error {
	businessID, err := paramID(c, "businessId")
	if err != nil {
		return respondError(c, err)
	}
	var req sheetUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ID == 0 {
		return respondError(c, service.Missing("id"))
	}
	s, err := h.Sheets.Update(c.Request().Context(), principal(c), businessID, req.ID, req.SheetPatch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Delete answers 200 whether or not a row matched.
func (h *SheetHandler) Delete(c echo.Context) error {
	businessID, err := paramID(c, "businessId")
	if err != nil {
		return respondError(c, err)
	}
	var req struct {
		ID uint64 `json:"id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ID == 0 {
		return respondError(c, service.Missing("id"))
	}
	if err := h.Sheets.Delete(c.Request().Context(), principal(c), businessID, req.ID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": req.ID})
}
