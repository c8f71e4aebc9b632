// Package signedtoken issues short-lived HMAC-signed tokens used as OAuth
// state values.
package signedtoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prereview/prereview/internal/platform/id"
)

const issuer = "prereview"

// ErrInvalid reports a token that is malformed, expired, or meant for another use.
var ErrInvalid = errors.New("invalid signed token")

type claims struct {
	Value string `json:"val,omitempty"`
	jwt.RegisteredClaims
}

// Signer signs and verifies tokens with a shared secret.
type Signer struct {
	key []byte
	now func() time.Time
}

// NewSigner returns a signer for secret.
func NewSigner(secret string) (*Signer, error) {
	secret = strings.TrimSpace(secret)
	if len(secret) < 16 {
		return nil, errors.New("secret must be at least 16 characters")
	}
	return &Signer{key: []byte(secret), now: time.Now}, nil
}

// Sign returns a token carrying value for purpose, valid for ttl.
func (s *Signer) Sign(purpose, value string, ttl time.Duration) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Value: value,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{purpose},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        id.NewUUID().String(),
		},
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks token against purpose and returns the carried value.
func (s *Signer) Verify(token, purpose string) (string, error) {
	var parsed claims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &parsed, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(purpose),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return parsed.Value, nil
}
