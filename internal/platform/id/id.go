// Package id generates identifiers for PREreview records.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var tokenEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewUUID returns a random (version 4) UUID.
func NewUUID() uuid.UUID {
	return uuid.New()
}

// NewToken returns an opaque 26-character lowercase base32 token backed by a
// random UUID. Tokens are used for session ids and email verification links.
func NewToken() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return strings.ToLower(tokenEncoding.EncodeToString(value[:])), nil
}

// ParseUUID parses a canonical UUID string.
func ParseUUID(raw string) (uuid.UUID, bool) {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, false
	}
	return parsed, true
}
