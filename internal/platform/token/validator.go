// Package token validates the bearer tokens issued by the upstream identity
// provider. The registration core treats the result as a trust decision; it
// never inspects tokens itself.
package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vemurivi/CareerShotApi/internal/platform/middleware"
)

// Validator checks HMAC-signed JWTs against a shared signing key.
type Validator struct {
	signingKey []byte
}

// NewValidator constructs a Validator. The signing key must be non-empty.
func NewValidator(signingKey string) (*Validator, error) {
	if signingKey == "" {
		return nil, errors.New("signing key is required")
	}
	return &Validator{signingKey: []byte(signingKey)}, nil
}

// ValidateToken parses and verifies a token, returning its claims.
func (v *Validator) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return nil, errors.New("token missing subject")
	}

	return &middleware.JWTClaims{Subject: subject}, nil
}
