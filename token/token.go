// Package token is the single codec for the bearer tokens that carry
// identity between the tripgate services. Every enforcement point (identity
// profile, gateway, destination guard) verifies through this package so the
// failure taxonomy cannot drift between them.
package token

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Verification failure kinds. Callers are required to keep these distinct
// end-to-end; only the destination guard deliberately collapses them.
var (
	// ErrMissing means no token was presented at all.
	ErrMissing = errors.New("token missing")
	// ErrMalformed means the token could not be decoded or its signature
	// did not verify.
	ErrMalformed = errors.New("token malformed")
	// ErrExpired means the signature verified but the token is past its
	// expiry.
	ErrExpired = errors.New("token expired")
)

// Claims is the self-contained claim set embedded in every access token.
// Role is fixed at issuance and not re-read from the credential store on
// later requests.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Codec signs and verifies access tokens with a shared symmetric secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Sign mints an HS256 token binding the subject's email and role with the
// codec's lifetime.
func (c *Codec) Sign(email, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify decodes tokenStr and checks signature and expiry. The returned
// error is ErrExpired for an otherwise valid but stale token and
// ErrMalformed for everything else.
func (c *Codec) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrMissing
	}
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrMalformed
	}
	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}

// FromHeader extracts the bearer token from an Authorization header value.
// An absent header or one without the Bearer scheme yields ErrMissing.
func FromHeader(authorization string) (string, error) {
	if !strings.HasPrefix(authorization, "Bearer ") {
		return "", ErrMissing
	}
	tokenStr := strings.TrimPrefix(authorization, "Bearer ")
	if tokenStr == "" {
		return "", ErrMissing
	}
	return tokenStr, nil
}
