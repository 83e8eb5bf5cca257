// Package utils provides token issuance/verification and password hashing
// used by the auth endpoints and middleware.
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature, wrong
// signing method, malformed structure, or expiry. Callers must not surface
// the distinction to the end user beyond a generic "unauthorized".
var ErrInvalidToken = errors.New("invalid token")

// Claims is the claim set embedded in every access token. The role claim is
// the authoritative copy of the account's role for the lifetime of the token;
// any client-side cache must be reconciled against it.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewAccessToken builds and signs an HS256 access token for an account.
// It returns the serialized token together with its expiry time.
func NewAccessToken(secret, username, role string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseAccessToken verifies the signature and expiry of raw and returns its
// claims. Verification is a pure function of the secret and the input; no
// state is consulted.
func ParseAccessToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
