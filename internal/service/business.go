package service

import (
	"context"
	"strings"

	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/rbac"
)

type BusinessStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Business, error)
	List(ctx context.Context, id *uint64) ([]model.Business, error)
}

// BusinessCreator is implemented by stores that can add tenants.
type BusinessCreator interface {
	Create(ctx context.Context, b *model.Business) error
}

// BusinessInput is the body of a business creation request.  The address
// is what return labels are shipped to.
type BusinessInput struct {
	Name           string  `json:"name" validate:"required,max=255"`
	CurrencyCode   string  `json:"currency_code" validate:"omitempty,len=3"`
	CurrencySymbol string  `json:"currency_symbol" validate:"omitempty,max=8"`
	AddressLine1   *string `json:"address_line1"`
	AddressLine2   *string `json:"address_line2"`
	City           *string `json:"city"`
	Postcode       *string `json:"postcode"`
	Country        *string `json:"country" validate:"omitempty,len=2"`
	Phone          *string `json:"phone"`
}

type BusinessService struct {
	repo BusinessStore
}

func NewBusinessService(repo BusinessStore) *BusinessService {
	return &BusinessService{repo: repo}
}

// List returns every business for SuperAdmin and the caller's own
// otherwise.
func (s *BusinessService) List(ctx context.Context, p rbac.Principal) ([]model.Business, error) {
	if !p.IsSuperAdmin() && p.BusinessID == nil {
		return []model.Business{}, nil
	}
	return s.repo.List(ctx, rbac.ScopeFilter(p))
}

func (s *BusinessService) Get(ctx context.Context, p rbac.Principal, id uint64) (*model.Business, error) {
	if err := scope(p, id); err != nil {
		return nil, err
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "business")
	}
	return b, nil
}

// Create adds a tenant.  Only SuperAdmin may.
func (s *BusinessService) Create(ctx context.Context, p rbac.Principal, in BusinessInput) (*model.Business, error) {
	if !p.IsSuperAdmin() {
		return nil, ErrForbidden
	}
	creator, ok := s.repo.(BusinessCreator)
	if !ok {
		return nil, Upstream("business store is read-only", nil)
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, Missing("name")
	}
	b := &model.Business{
		Name:           in.Name,
		CurrencyCode:   strings.ToUpper(orDefault(in.CurrencyCode, "GBP")),
		CurrencySymbol: orDefault(in.CurrencySymbol, "£"),
		AddressLine1:   in.AddressLine1,
		AddressLine2:   in.AddressLine2,
		City:           in.City,
		Postcode:       in.Postcode,
		Country:        in.Country,
		Phone:          in.Phone,
	}
	if err := creator.Create(ctx, b); err != nil {
		if KindOf(err) == KindConflict {
			return nil, &Error{Kind: KindConflict, Message: "business name already taken"}
		}
		return nil, err
	}
	return b, nil
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
