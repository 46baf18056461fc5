package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rogpool/pool-service-api/models"
)

// TokenTTL is how long an issued token stays valid. It does not slide.
const TokenTTL = 24 * time.Hour

// Claims is the signed token payload
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity is what a verified token asserts
type Identity struct {
	Username string
	Role     models.Role
}

// TokenService issues and verifies HS256 identity tokens
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a token service. A nil clock means time.Now.
func NewTokenService(secret string, now func() time.Time) *TokenService {
	if now == nil {
		now = time.Now
	}
	return &TokenService{secret: []byte(secret), now: now}
}

// Issue signs a token for the given user
func (s *TokenService) Issue(username string, role models.Role) (string, error) {
	issued := s.now()
	// exp has one-second precision; round up so the token never lapses early
	expires := issued.Add(TokenTTL)
	if whole := expires.Truncate(time.Second); whole.Before(expires) {
		expires = whole.Add(time.Second)
	}
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry. Any failure is ErrUnauthorized.
func (s *TokenService) Verify(token string) (*Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, newError(ErrUnauthorized, "INVALID_TOKEN", "Could not validate credentials")
	}
	if claims.Subject == "" {
		return nil, newError(ErrUnauthorized, "INVALID_TOKEN", "Could not validate credentials")
	}

	return &Identity{Username: claims.Subject, Role: claims.Role}, nil
}
