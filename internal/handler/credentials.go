package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/service"
)

type CredentialsAPI interface {
	Get(ctx context.Context, p rbac.Principal, businessID uint64) (*model.MaskedCredentials, error)
	Put(ctx context.Context, p rbac.Principal, businessID uint64, in service.CredentialsInput) (*model.MaskedCredentials, error)
	Delete(ctx context.Context, p rbac.Principal, businessID uint64) error
	LookupOrder(ctx context.Context, p rbac.Principal, businessID uint64, orderID string) (json.RawMessage, error)
}

// CredentialsHandler serves /api/businesses/:businessId/backmarket.
type CredentialsHandler struct {
	Credentials CredentialsAPI
}

func NewCredentialsHandler(s CredentialsAPI) *CredentialsHandler {
	return &CredentialsHandler{Credentials: s}
}

func (h *CredentialsHandler) Get(c echo.Context) error {
	businessID, err := paramID(c, "businessId")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.Credentials.Get(c.Request().Context(), principal(c), businessID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CredentialsHandler) Put(c echo.Context) error {
	businessID, err := paramID(c, "businessId")
	if err != nil {
		return respondError(c, err)
	}
	var in service.CredentialsInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	out, err := h.Credentials.Put(c.Request().Context(), principal(c), businessID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CredentialsHandler) Delete(c echo.Context) error {
	businessID, err := paramID(c, "businessId")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Credentials.Delete(c.Request().Context(), principal(c), businessID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LookupOrder proxies GET /api/businesses/:businessId/backmarket/orders/:orderId.
func (h *CredentialsHandler) LookupOrder(c echo.Context) error {
	businessID, err := paramID(c, "businessId")
	if err != nil {
		return respondError(c, err)
	}
	raw, err := h.Credentials.LookupOrder(c.Request().Context(), principal(c), businessID, c.Param("orderId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}
