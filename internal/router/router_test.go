package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/returns-desk/internal/handler"
	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/service"
)

// tokenAuth maps fixed bearer tokens to principals.
type tokenAuth map[string]rbac.Principal

func (a tokenAuth) Authenticate(_ context.Context, raw string) (rbac.Principal, error) {
	if p, ok := a[raw]; ok {
		return p, nil
	}
	return rbac.Principal{}, service.ErrUnauthorized
}

type sheetsStub struct{ calls int }

func (s *sheetsStub) List(_ context.Context, _ rbac.Principal, businessID uint64, _, _ int, _ string) (*service.SheetPage, error) {
	s.calls++
	return &service.SheetPage{Items: []model.Sheet{{ID: 1, BusinessID: businessID}}}, nil
}

func (s *sheetsStub) Create(context.Context, rbac.Principal, uint64, model.SheetPatch) (*model.Sheet, error) {
	s.calls++
	return &model.Sheet{ID: 2}, nil
}

func (s *sheetsStub) Update(context.Context, rbac.Principal, uint64, uint64, model.SheetPatch) (*model.Sheet, error) {
	return nil, errors.New("not used")
}

func (s *sheetsStub) Delete(context.Context, rbac.Principal, uint64, uint64) error { return nil }

type businessesStub struct{}

func (businessesStub) List(context.Context, rbac.Principal) ([]model.Business, error) {
	return []model.Business{}, nil
}

func (businessesStub) Get(_ context.Context, _ rbac.Principal, id uint64) (*model.Business, error) {
	return &model.Business{ID: id}, nil
}

func (businessesStub) Create(context.Context, rbac.Principal, service.BusinessInput) (*model.Business, error) {
	return &model.Business{ID: 3}, nil
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func biz(id uint64) *uint64 { return &id }

func newServer(t *testing.T) (*echo.Echo, *sheetsStub) {
	t.Helper()
	enf, err := rbac.NewEnforcer()
	require.NoError(t, err)

	sheets := &sheetsStub{}
	e := echo.New()
	e.Validator = handler.NewValidator()
	Register(e, Handlers{
		Auth:          handler.NewAuthHandler(nil),
		Businesses:    handler.NewBusinessHandler(businessesStub{}),
		Sheets:        handler.NewSheetHandler(sheets),
		Enquiries:     handler.NewEnquiryHandler(nil),
		Notifications: handler.NewNotificationHandler(nil, nil),
		Stats:         handler.NewStatsHandler(nil),
		Credentials:   handler.NewCredentialsHandler(nil),
		Attachments:   handler.NewAttachmentHandler(nil),
		Labels:        handler.NewLabelHandler(nil),
	}, Deps{
		Auth: tokenAuth{
			"admin": {UserID: 1, Role: rbac.SuperAdmin, Username: "root"},
			"clerk": {UserID: 105, Role: rbac.User, Username: "clerk", BusinessID: biz(5)},
		},
		Enforcer: enf,
		DB:       pinger{},
	})
	return e, sheets
}

func call(e *echo.Echo, method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutesArePublic(t *testing.T) {
	e, _ := newServer(t)
	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/readyz", "", "").Code)
}

func TestAPIRequiresToken(t *testing.T) {
	e, sheets := newServer(t)

	rec := call(e, http.MethodGet, "/api/sheets/5", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())

	rec = call(e, http.MethodGet, "/api/sheets/5", "forged", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, sheets.calls)
}

func TestBusinessPathScope(t *testing.T) {
	e, sheets := newServer(t)

	rec := call(e, http.MethodGet, "/api/sheets/5", "clerk", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(e, http.MethodGet, "/api/sheets/6", "clerk", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = call(e, http.MethodPost, "/api/sheets/6", "clerk", `{"order_no":"X"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 1, sheets.calls)

	rec = call(e, http.MethodGet, "/api/sheets/6", "admin", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"business_id":6`)
}

func TestPermissionsPerRole(t *testing.T) {
	e, _ := newServer(t)

	// Users may not manage other users, touch BackMarket credentials or
	// create businesses.
	assert.Equal(t, http.StatusForbidden, call(e, http.MethodGet, "/api/users", "clerk", "").Code)
	assert.Equal(t, http.StatusForbidden, call(e, http.MethodGet, "/api/businesses/5/backmarket/credentials", "clerk", "").Code)
	assert.Equal(t, http.StatusForbidden, call(e, http.MethodPost, "/api/businesses", "clerk", `{"name":"Acme"}`).Code)

	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/api/businesses/5", "clerk", "").Code)
	assert.Equal(t, http.StatusForbidden, call(e, http.MethodGet, "/api/businesses/6", "clerk", "").Code)
}

func TestUnknownRouteIs404(t *testing.T) {
	e, _ := newServer(t)
	assert.Equal(t, http.StatusNotFound, call(e, http.MethodGet, "/api/nope", "clerk", "").Code)
}

func TestQueryTokenOnlyOpensTheStream(t *testing.T) {
	e, _ := newServer(t)

	// authenticated, then 503 because live notifications are off
	rec := call(e, http.MethodGet, StreamRoute+"?access_token=clerk", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = call(e, http.MethodGet, "/api/attachments/download/9?access_token=clerk", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = call(e, http.MethodGet, "/api/sheets/5?access_token=clerk", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
