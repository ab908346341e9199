package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/service"
)

type BusinessAPI interface {
	List(ctx context.Context, p rbac.Principal) ([]model.Business, error)
	Get(ctx context.Context, p rbac.Principal, id uint64) (*model.Business, error)
	Create(ctx context.Context, p rbac.Principal, in service.BusinessInput) (*model.Business, error)
}

type BusinessHandler struct {
	Businesses BusinessAPI
}

func NewBusinessHandler(b BusinessAPI) *BusinessHandler {
	return &BusinessHandler{Businesses: b}
}

func (h *BusinessHandler) List(c echo.Context) error {
	out, err := h.Businesses.List(c.Request().Context(), principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BusinessHandler) Get(c echo.Context) error {
	id, err := paramID(c, "businessId")
	if err != nil {
		return respondError(c, err)
	}
	b, err := h.Businesses.Get(c.Request().Context(), principal(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BusinessHandler) Create(c echo.Context) error {
	var in service.BusinessInput
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	b, err := h.Businesses.Create(c.Request().Context(), principal(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}
