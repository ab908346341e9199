package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/service"
)

type LabelAPI interface {
	Create(ctx context.Context, p rbac.Principal, sheetID uint64, in service.LabelInput) (*model.ShipStationLabel, error)
	ListBySheet(ctx context.Context, p rbac.Principal, sheetID uint64) ([]model.ShipStationLabel, error)
}

type LabelHandler struct {
	Labels LabelAPI
}

func NewLabelHandler(l LabelAPI) *LabelHandler {
	return &LabelHandler{Labels: l}
}

// Create handles POST /api/labels/:sheetId.
func (h *LabelHandler) Create(c echo.Context) error {
	sheetID, err := paramID(c, "sheetId")
	if err != nil {
		return respondError(c, err)
	}
	var in service.LabelInput
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	l, err := h.Labels.Create(c.Request().Context(), principal(c), sheetID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *LabelHandler) List(c echo.Context) error {
	sheetID, err := paramID(c, "sheetId")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.Labels.ListBySheet(c.Request().Context(), principal(c), sheetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
