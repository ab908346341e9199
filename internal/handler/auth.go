package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/service"
)

// AuthAPI is the part of service.AuthService the auth endpoints use.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	Me(ctx context.Context, p rbac.Principal) (*service.UserView, error)
	CreateUser(ctx context.Context, p rbac.Principal, in service.NewUserInput) (*service.UserView, error)
	ListUsers(ctx context.Context, p rbac.Principal) ([]service.UserView, error)
}

type AuthHandler struct {
	Auth AuthAPI
}

func NewAuthHandler(a AuthAPI) *AuthHandler {
	return &AuthHandler{Auth: a}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.  The username is matched exactly;
// only surrounding whitespace is dropped.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	res, err := h.Auth.Login(c.Request().Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c echo.Context) error {
	u, err := h.Auth.Me(c.Request().Context(), principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// CreateUser handles POST /api/users.
func (h *AuthHandler) CreateUser(c echo.Context) error {
	var in service.NewUserInput
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	u, err := h.Auth.CreateUser(c.Request().Context(), principal(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

// ListUsers handles GET /api/users.
func (h *AuthHandler) ListUsers(c echo.Context) error {
	users, err := h.Auth.ListUsers(c.Request().Context(), principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}
