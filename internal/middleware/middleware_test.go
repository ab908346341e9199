package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/returns-desk/internal/config"
	"github.com/iliyamo/returns-desk/internal/rbac"
)

type authFunc func(ctx context.Context, raw string) (rbac.Principal, error)

func (f authFunc) Authenticate(ctx context.Context, raw string) (rbac.Principal, error) {
	return f(ctx, raw)
}

func biz(id uint64) *uint64 { return &id }

var acmeAdmin = rbac.Principal{UserID: 7, Role: rbac.BusinessAdmin, Username: "admin", BusinessID: biz(5)}

func fixedAuth(p rbac.Principal) Authenticator {
	return authFunc(func(_ context.Context, raw string) (rbac.Principal, error) {
		if raw != "good" {
			return rbac.Principal{}, errors.New("bad token")
		}
		return p, nil
	})
}

func serve(e *echo.Echo, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		p, ok := Principal(c)
		require.True(t, ok)
		return c.String(http.StatusOK, p.Username)
	}, JWTAuth(fixedAuth(acmeAdmin)))

	rec := serve(e, http.MethodGet, "/me", "good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", rec.Body.String())

	for _, tok := range []string{"", "bad"} {
		rec = serve(e, http.MethodGet, "/me", tok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
	}

	// the query token only counts on stream routes
	rec = serve(e, http.MethodGet, "/me?access_token=good", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthQueryTokenOnlyOnStreamRoutes(t *testing.T) {
	e := echo.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	auth := JWTAuth(fixedAuth(acmeAdmin), "/api/notifications/stream")
	e.GET("/api/notifications/stream", ok, auth)
	e.GET("/api/attachments/download/:attachmentId", ok, auth)
	e.POST("/api/notifications/stream", ok, auth)

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/notifications/stream?access_token=good", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/api/notifications/stream?access_token=bad", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/api/attachments/download/9?access_token=good", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodPost, "/api/notifications/stream?access_token=good", "").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/attachments/download/9", "good").Code)
}

func TestBusinessScope(t *testing.T) {
	e := echo.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/sheets/:businessId", ok, JWTAuth(fixedAuth(acmeAdmin)), BusinessScope("businessId"))

	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/sheets/5", "good").Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/sheets/6", "good").Code)
	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodGet, "/sheets/abc", "good").Code)

	super := echo.New()
	super.GET("/sheets/:businessId", ok, JWTAuth(fixedAuth(rbac.Principal{UserID: 1, Role: rbac.SuperAdmin})), BusinessScope("businessId"))
	assert.Equal(t, http.StatusNoContent, serve(super, http.MethodGet, "/sheets/6", "good").Code)
}

func TestRequirePermission(t *testing.T) {
	enf, err := rbac.NewEnforcer()
	require.NoError(t, err)
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

	e := echo.New()
	clerk := rbac.Principal{UserID: 9, Role: rbac.User, BusinessID: biz(5)}
	e.GET("/credentials", ok, JWTAuth(fixedAuth(clerk)), RequirePermission(enf, rbac.ObjCredentials, rbac.ActRead))
	e.GET("/sheets", ok, JWTAuth(fixedAuth(clerk)), RequirePermission(enf, rbac.ObjSheets, rbac.ActRead))
	e.GET("/ops", ok, JWTAuth(fixedAuth(clerk)), RequireRole(rbac.SuperAdmin))

	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/credentials", "good").Code)
	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/sheets", "good").Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/ops", "good").Code)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/sheets/5", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/sheets/:businessId")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user"}
	assert.Equal(t, "rl:ip:10.0.0.1:user:anon", buildRateKey(cfg, c))

	SetPrincipal(c, acmeAdmin)
	cfg.KeyStrategy = "user_route"
	assert.Equal(t, "rl:user:7:route:GET /api/sheets/:businessId", buildRateKey(cfg, c))

	cfg.KeyStrategy = "bogus"
	assert.Equal(t, "rl:ip:10.0.0.1:user:7:route:GET /api/sheets/:businessId", buildRateKey(cfg, c))
}

func TestTokenBucketDisabledWithoutRedis(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil))
	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/x", "").Code)
}
