// Package tokens issues and verifies the signed bearer tokens that carry an
// account's identity.
//
// Tokens are HS256 JWTs with the claims sub (account email), role, iat, exp
// and a random jti. Verification only checks signature and structure; expiry
// is a separate question answered by IsExpired, so callers can tell a forged
// token apart from one that simply ran out.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrMalformedToken = errors.New("malformed token")

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Email() string { return c.Subject }

func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Codec)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func NewCodec(secret []byte, ttl time.Duration, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("tokens: empty signing secret")
	}
	if ttl <= 0 {
		return nil, errors.New("tokens: token lifetime must be positive")
	}
	c := &Codec{secret: secret, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Codec) TTL() time.Duration { return c.ttl }

func (c *Codec) Now() time.Time { return c.now() }

func (c *Codec) Issue(email, role string) (string, error) {
	if email == "" || role == "" {
		return "", errors.New("tokens: subject and role are required")
	}

	now := c.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("tokens: sign: %w", err)
	}
	return signed, nil
}

// Verify checks signature and structure only. A correctly signed token past
// its exp still verifies.
func (c *Codec) Verify(raw string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if !tkn.Valid {
		return nil, ErrMalformedToken
	}

	switch {
	case claims.Subject == "":
		return nil, fmt.Errorf("%w: missing sub", ErrMalformedToken)
	case claims.Role == "":
		return nil, fmt.Errorf("%w: missing role", ErrMalformedToken)
	case claims.IssuedAt == nil:
		return nil, fmt.Errorf("%w: missing iat", ErrMalformedToken)
	case claims.ExpiresAt == nil:
		return nil, fmt.Errorf("%w: missing exp", ErrMalformedToken)
	}

	return &claims, nil
}

// IsExpired reports whether the token's exp has been reached. Tokens that
// fail verification count as expired.
func (c *Codec) IsExpired(raw string) bool {
	claims, err := c.Verify(raw)
	if err != nil {
		return true
	}
	return c.ClaimsExpired(claims)
}

func (c *Codec) ClaimsExpired(claims *Claims) bool {
	return !c.now().Before(claims.ExpiresAtTime())
}

func (c *Codec) ExtractEmail(raw string) (string, error) {
	claims, err := c.Verify(raw)
	if err != nil {
		return "", err
	}
	return claims.Email(), nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, errors.New("unexpected sign method")
	}
	return c.secret, nil
}
