package utils // package utils provides helper functions for token creation, hashing and sealing

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

	"github.com/iliyamo/returns-desk/internal/rbac"
)

// ErrInvalidToken is the single error surfaced for every token failure:
// malformed, expired, wrong algorithm or bad signature all look the same to
// the caller.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Claims is the normalized view of a verified token.
type Claims struct {
	ID       uint64    `json:"id"`
	RoleID   rbac.Role `json:"role_id"`
	Username string    `json:"username"`
}

type tokenClaims struct {
	RoleID   uint8  `json:"role_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The subject is
// the decimal user id; role_id and username ride along as private claims.
func NewAccessToken(secret string, userID uint64, role rbac.Role, username string, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := tokenClaims{
		RoleID:   uint8(role),
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature, algorithm and expiry and returns the
// normalized claims.  Any failure yields ErrInvalidToken.
func ParseAccessToken(secret, raw string) (Claims, error) {
	var tc tokenClaims
	tok, err := jwt.ParseWithClaims(raw, &tc, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	id, err := strconv.ParseUint(tc.Subject, 10, 64)
	if err != nil || id == 0 {
		return Claims{}, ErrInvalidToken
	}
	role := rbac.Role(tc.RoleID)
	if !role.Valid() {
		return Claims{}, ErrInvalidToken
	}
	return Claims{ID: id, RoleID: role, Username: tc.Username}, nil
}
