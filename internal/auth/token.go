// Package auth issues and verifies the HS256 bearer tokens used by the API.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Kind string

const (
	Access  Kind = "access"
	Refresh Kind = "refresh"
)

const DefaultRefreshThreshold = 10 * time.Minute

var (
	ErrMalformed    = errors.New("malformed token")
	ErrExpired      = errors.New("token expired")
	ErrBadSignature = errors.New("invalid token signature")
	ErrUnsupported  = errors.New("unsupported token")
)

// Principal is the authenticated identity carried by a token.
type Principal struct {
	UserID   int64
	Username string
	Role     string
}

type Claims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"user_id"`
	Role      string `json:"role"`
	TokenType Kind   `json:"token_type"`
}

func (c *Claims) Principal() Principal {
	return Principal{UserID: c.UserID, Username: c.Subject, Role: c.Role}
}

type Codec interface {
	Issue(p Principal, kind Kind) (string, error)
	Verify(token string) (*Claims, error)
	Remaining(token string) (time.Duration, error)
	IsNearExpiry(token string, threshold time.Duration) bool
	TTL(kind Kind) time.Duration
}

type Option func(*codec)

func WithClock(now func() time.Time) Option {
	return func(c *codec) { c.now = now }
}

func WithIssuer(iss string) Option {
	return func(c *codec) { c.issuer = iss }
}

type codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

func NewCodec(secret string, accessTTL, refreshTTL time.Duration, opts ...Option) (Codec, error) {
	if secret == "" {
		return nil, errors.New("auth: secret is empty")
	}
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	c := &codec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *codec) TTL(kind Kind) time.Duration {
	if kind == Refresh {
		return c.refreshTTL
	}
	return c.accessTTL
}

func (c *codec) Issue(p Principal, kind Kind) (string, error) {
	if p.Username == "" {
		return "", errors.New("auth: principal has no username")
	}
	if kind != Access && kind != Refresh {
		return "", ErrUnsupported
	}
	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Username,
			Issuer:    c.issuer,
			ID:        strconv.FormatInt(now.UnixNano(), 36),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.TTL(kind))),
		},
		UserID:    p.UserID,
		Role:      p.Role,
		TokenType: kind,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks the signature first and expiry second.
func (c *codec) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMalformed
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if alg := t.Method.Alg(); alg != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("%w: signing method %s", jwt.ErrTokenUnverifiable, alg)
		}
		return c.secret, nil
	},
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, classify(err)
	}
	if claims.Subject == "" {
		return nil, ErrMalformed
	}
	if claims.TokenType != Access && claims.TokenType != Refresh {
		return nil, ErrUnsupported
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrBadSignature
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrUnsupported
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformed
	}
}

func (c *codec) Remaining(token string) (time.Duration, error) {
	claims, err := c.Verify(token)
	if err != nil {
		return 0, err
	}
	return claims.ExpiresAt.Time.Sub(c.now()), nil
}

// IsNearExpiry reports whether a valid token has less than threshold left.
// Invalid tokens report false.
func (c *codec) IsNearExpiry(token string, threshold time.Duration) bool {
	if threshold <= 0 {
		threshold = DefaultRefreshThreshold
	}
	left, err := c.Remaining(token)
	if err != nil {
		return false
	}
	return left < threshold
}
