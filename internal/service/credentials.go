package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/backmarket"
	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/repository"
	"github.com/iliyamo/returns-desk/internal/utils"
)

type CredentialsStore interface {
	Get(ctx context.Context, businessID uint64) (*model.BackMarketCredentials, error)
	Upsert(ctx context.Context, c *model.BackMarketCredentials) error
	Delete(ctx context.Context, businessID uint64) error
}

// Cipher seals secrets before they reach the database.
type Cipher interface {
	SealString(plaintext string) (string, error)
	OpenString(sealed string) (string, error)
}

// OrderLookup fetches a marketplace order with a business's credentials.
type OrderLookup interface {
	GetOrder(ctx context.Context, apiKey, apiSecret, orderID string) (json.RawMessage, error)
}

type CredentialsInput struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

// CredentialsService manages a business's BackMarket key pair.  Plaintext
// only exists in memory between open and use; responses are masked.
type CredentialsService struct {
	repo   CredentialsStore
	cipher Cipher
	orders OrderLookup
	log    echo.Logger
}

func NewCredentialsService(repo CredentialsStore, cipher Cipher, orders OrderLookup, logger echo.Logger) *CredentialsService {
	return &CredentialsService{repo: repo, cipher: cipher, orders: orders, log: logger}
}

func (s *CredentialsService) Get(ctx context.Context, p rbac.Principal, businessID uint64) (*model.MaskedCredentials, error) {
	if err := scope(p, businessID); err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, businessID)
	if err != nil {
		return nil, notFoundAs(err, "credentials")
	}
	return s.mask(c)
}

// Put replaces the pair; both halves are required.
func (s *CredentialsService) Put(ctx context.Context, p rbac.Principal, businessID uint64, in CredentialsInput) (*model.MaskedCredentials, error) {
	if err := scope(p, businessID); err != nil {
		return nil, err
	}
	in.APIKey = strings.TrimSpace(in.APIKey)
	in.APISecret = strings.TrimSpace(in.APISecret)
	var missing []string
	if in.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if in.APISecret == "" {
		missing = append(missing, "api_secret")
	}
	if len(missing) > 0 {
		return nil, Missing(missing...)
	}
	key, err := s.cipher.SealString(in.APIKey)
	if err != nil {
		return nil, err
	}
	secret, err := s.cipher.SealString(in.APISecret)
	if err != nil {
		return nil, err
	}
	updater := p.UserID
	c := &model.BackMarketCredentials{BusinessID: businessID, APIKey: key, APISecret: secret, UpdatedBy: &updater}
	if err := s.repo.Upsert(ctx, c); err != nil {
		return nil, err
	}
	return &model.MaskedCredentials{
		BusinessID: businessID,
		APIKey:     utils.MaskSecret(in.APIKey),
		APISecret:  utils.MaskSecret(in.APISecret),
		UpdatedBy:  c.UpdatedBy,
		UpdatedAt:  c.UpdatedAt,
	}, nil
}

func (s *CredentialsService) Delete(ctx context.Context, p rbac.Principal, businessID uint64) error {
	if err := scope(p, businessID); err != nil {
		return err
	}
	return notFoundAs(s.repo.Delete(ctx, businessID), "credentials")
}

// LookupOrder proxies one BackMarket order lookup using the business's
// stored credentials.
func (s *CredentialsService) LookupOrder(ctx context.Context, p rbac.Principal, businessID uint64, orderID string) (json.RawMessage, error) {
	if err := scope(p, businessID); err != nil {
		return nil, err
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, Missing("order_id")
	}
	c, err := s.repo.Get(ctx, businessID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, Validation("no BackMarket credentials configured for this business")
		}
		return nil, err
	}
	key, err := s.cipher.OpenString(c.APIKey)
	if err != nil {
		return nil, Upstream("stored credentials cannot be decrypted", err)
	}
	secret, err := s.cipher.OpenString(c.APISecret)
	if err != nil {
		return nil, Upstream("stored credentials cannot be decrypted", err)
	}
	raw, err := s.orders.GetOrder(ctx, key, secret, orderID)
	if err != nil {
		if errors.Is(err, backmarket.ErrOrderNotFound) {
			return nil, NotFound("order")
		}
		s.log.Errorf("backmarket lookup business=%d order=%s: %v", businessID, orderID, err)
		return nil, Upstream("BackMarket order lookup failed", err)
	}
	return raw, nil
}

func (s *CredentialsService) mask(c *model.BackMarketCredentials) (*model.MaskedCredentials, error) {
	key, err := s.cipher.OpenString(c.APIKey)
	if err != nil {
		return nil, Upstream("stored credentials cannot be decrypted", err)
	}
	secret, err := s.cipher.OpenString(c.APISecret)
	if err != nil {
		return nil, Upstream("stored credentials cannot be decrypted", err)
	}
	return &model.MaskedCredentials{
		BusinessID: c.BusinessID,
		APIKey:     utils.MaskSecret(key),
		APISecret:  utils.MaskSecret(secret),
		UpdatedBy:  c.UpdatedBy,
		UpdatedAt:  c.UpdatedAt,
	}, nil
}
