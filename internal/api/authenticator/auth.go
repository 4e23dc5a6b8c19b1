package authenticator

import (
	"errors"
	"fmt"
	"time"

	"github.com/curaious/tasky/internal/config"
	"github.com/curaious/tasky/internal/services/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "tasky"

var ErrInvalidToken = errors.New("invalid access token")

// UserClaims are carried by every access token
type UserClaims struct {
	UserID uuid.UUID     `json:"uid"`
	Email  string        `json:"email"`
	Name   string        `json:"name"`
	Role   user.UserRole `json:"role"`
	jwt.RegisteredClaims
}

func (c *UserClaims) Principal() user.Principal {
	return user.Principal{ID: c.UserID, Role: c.Role}
}

// Authenticator issues and verifies HS256 access tokens
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(conf *config.Config) (*Authenticator, error) {
	if conf.JWT_SECRET == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	ttl := conf.JWT_TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Authenticator{secret: []byte(conf.JWT_SECRET), ttl: ttl, now: time.Now}, nil
}

func (a *Authenticator) TTL() time.Duration {
	return a.ttl
}

func (a *Authenticator) GenerateToken(u *user.User) (string, error) {
	now := a.now()
	claims := &UserClaims{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken checks the signature and expiry of token and returns its claims
func (a *Authenticator) VerifyAccessToken(token string) (*UserClaims, error) {
	claims := &UserClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID == uuid.Nil || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
