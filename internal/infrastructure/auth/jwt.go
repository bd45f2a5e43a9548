// Package auth validates the bearer tokens issued by the identity service.
// The engine never logs anyone in; it only reads who the caller is and
// which role they hold.
package auth

import (
	"errors"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role is the caller's role in the complex
type Role string

const (
	RoleResident Role = "resident"
	RoleAdmin    Role = "admin"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleResident || r == RoleAdmin
}

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// Claims are the custom claims of an access token. Subject carries the
// resident id.
type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

// ResidentID parses the subject
func (c *Claims) ResidentID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// JWTService signs and validates HS256 access tokens
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	now        func() time.Time
}

// NewJWTService creates a JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		expiration: cfg.AccessTokenExpiration,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}
}

// GenerateAccessToken signs a token for residentID. The identity service
// owns issuance in production; duesctl and tests use this.
func (s *JWTService) GenerateAccessToken(residentID uuid.UUID, role Role) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.expiration)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   residentID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken checks signature, issuer and lifetime, and that the
// subject is a resident id with a known role.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if _, err := claims.ResidentID(); err != nil || !claims.Role.IsValid() {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
