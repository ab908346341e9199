package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/service"
)

type StatsAPI interface {
	Basic(ctx context.Context, p rbac.Principal, businessID uint64, token string) (*service.BasicStats, error)
	Advanced(ctx context.Context, p rbac.Principal, businessID uint64, token string) (*service.AdvancedStats, error)
}

type StatsHandler struct {
	Stats StatsAPI
}

func NewStatsHandler(s StatsAPI) *StatsHandler {
	return &StatsHandler{Stats: s}
}

type statsReq struct {
	Range string `json:"range"`
}

// rangeToken reads {range} from the body; an empty body means the default.
func rangeToken(c echo.Context) (string, error) {
	var req statsReq
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return "", service.Validation("invalid request body")
		}
	}
	return req.Range, nil
}

// Basic handles POST /api/stats/:businessId.
func (h *StatsHandler) Basic(c echo.Context) error {
	businessID, err := paramID(c, "businessId")
	if err != nil {
		return respondError(c, err)
	}
	token, err := rangeToken(c)
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.Stats.Basic(c.Request().Context(), principal(c), businessID, token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Advanced handles POST /api/stats/:businessId/advanced.
func (h *StatsHandler) Advanced(c echo.Context) error {
	businessID, err := paramID(c, "businessId")
	if err != nil {
		return respondError(c, err)
	}
	token, err := rangeToken(c)
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.Stats.Advanced(c.Request().Context(), principal(c), businessID, token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
