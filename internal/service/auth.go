package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/repository"
	"github.com/iliyamo/returns-desk/internal/utils"
)

// UserStore is the part of the users repository auth needs.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	ListByBusiness(ctx context.Context, businessID *uint64) ([]model.User, error)
}

// RoleView is how a role appears in responses.
type RoleView struct {
	ID   uint8  `json:"id"`
	Name string `json:"name"`
}

// UserView is a user without the password hash.
type UserView struct {
	ID         uint64   `json:"id"`
	Username   string   `json:"username"`
	BusinessID *uint64  `json:"business_id"`
	Role       RoleView `json:"role"`
}

func NewUserView(u *model.User) UserView {
	r := rbac.Role(u.RoleID)
	return UserView{ID: u.ID, Username: u.Username, BusinessID: u.BusinessID, Role: RoleView{ID: u.RoleID, Name: r.Name()}}
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserView  `json:"user"`
}

// NewUserInput is the body of a user creation request.
type NewUserInput struct {
	Username   string  `json:"username" validate:"required,min=3,max=128"`
	Password   string  `json:"password" validate:"required,min=8,max=72"`
	RoleID     uint8   `json:"role_id" validate:"required"`
	BusinessID *uint64 `json:"business_id"`
}

type AuthService struct {
	users      UserStore
	businesses BusinessStore
	secret     string
	ttl        time.Duration
	cost       int
}

func NewAuthService(users UserStore, businesses BusinessStore, secret string, ttl time.Duration, bcryptCost int) *AuthService {
	return &AuthService{users: users, businesses: businesses, secret: secret, ttl: ttl, cost: bcryptCost}
}

// Login never says which half of the credentials was wrong.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		var missing []string
		if username == "" {
			missing = append(missing, "username")
		}
		if password == "" {
			missing = append(missing, "password")
		}
		return nil, Missing(missing...)
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.BurnPasswordCheck(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	tok, err := utils.NewAccessToken(s.secret, u.ID, rbac.Role(u.RoleID), u.Username, s.ttl)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: tok.Token, ExpiresAt: tok.Exp, User: NewUserView(u)}, nil
}

// Authenticate verifies a bearer token and resolves the caller from the
// users table, so role and business changes apply without re-login.  Every
// failure is ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (rbac.Principal, error) {
	claims, err := utils.ParseAccessToken(s.secret, raw)
	if err != nil {
		return rbac.Principal{}, ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return rbac.Principal{}, ErrUnauthorized
		}
		return rbac.Principal{}, err
	}
	role := rbac.Role(u.RoleID)
	if !role.Valid() {
		return rbac.Principal{}, ErrUnauthorized
	}
	return rbac.Principal{UserID: u.ID, Role: role, Username: u.Username, BusinessID: u.BusinessID}, nil
}

func (s *AuthService) Me(ctx context.Context, p rbac.Principal) (*UserView, error) {
	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, notFoundAs(err, "user")
	}
	v := NewUserView(u)
	return &v, nil
}

// CreateUser lets a SuperAdmin create anyone and a BusinessAdmin create
// non-super users inside their own business.
func (s *AuthService) CreateUser(ctx context.Context, p rbac.Principal, in NewUserInput) (*UserView, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return nil, Missing("username", "password")
	}
	role := rbac.Role(in.RoleID)
	if !role.Valid() {
		return nil, Validation("role_id must be 1, 2 or 3")
	}
	if !p.IsSuperAdmin() {
		if p.Role != rbac.BusinessAdmin || role == rbac.SuperAdmin {
			return nil, ErrForbidden
		}
		if in.BusinessID == nil {
			in.BusinessID = p.BusinessID
		}
		if err := scope(p, derefID(in.BusinessID)); err != nil {
			return nil, err
		}
	}
	if role == rbac.SuperAdmin {
		in.BusinessID = nil
	} else {
		if in.BusinessID == nil {
			return nil, Missing("business_id")
		}
		if _, err := s.businesses.GetByID(ctx, *in.BusinessID); err != nil {
			return nil, notFoundAs(err, "business")
		}
	}
	hash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return nil, Validation("password must be at most 72 bytes")
		}
		return nil, err
	}
	u := &model.User{Username: in.Username, PasswordHash: hash, RoleID: uint8(role), BusinessID: in.BusinessID}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, &Error{Kind: KindConflict, Message: "username already taken"}
		}
		return nil, err
	}
	v := NewUserView(u)
	return &v, nil
}

// ListUsers returns every user for SuperAdmin and the caller's business
// otherwise.
func (s *AuthService) ListUsers(ctx context.Context, p rbac.Principal) ([]UserView, error) {
	if !p.IsSuperAdmin() && p.BusinessID == nil {
		return []UserView{}, nil
	}
	users, err := s.users.ListByBusiness(ctx, rbac.ScopeFilter(p))
	if err != nil {
		return nil, err
	}
	out := make([]UserView, 0, len(users))
	for i := range users {
		out = append(out, NewUserView(&users[i]))
	}
	return out, nil
}

func derefID(p *uint64) uint64 {
	if p == nil {
		return 0
	}
	return *p
}
