// Package orcid handles ORCID iDs, ORCID OAuth log-in and public record
// lookups.
package orcid

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidID reports a malformed ORCID iD or a failed checksum.
var ErrInvalidID = errors.New("invalid orcid id")

var idPattern = regexp.MustCompile(`^\d{4}-\d{4}-\d{4}-\d{3}[\dX]$`)

// ID is a canonical ORCID iD such as 0000-0002-1825-0097.
type ID string

// ParseID accepts a bare ORCID iD or its https://orcid.org/ form.
func ParseID(raw string) (ID, error) {
	value := strings.TrimSpace(raw)
	for _, prefix := range []string{"https://orcid.org/", "http://orcid.org/", "orcid.org/"} {
		if len(value) > len(prefix) && strings.EqualFold(value[:len(prefix)], prefix) {
			value = value[len(prefix):]
			break
		}
	}
	value = strings.ToUpper(value)
	if !idPattern.MatchString(value) {
		return "", ErrInvalidID
	}
	if !validChecksum(strings.ReplaceAll(value, "-", "")) {
		return "", ErrInvalidID
	}
	return ID(value), nil
}

// IsValid reports whether raw parses as an ORCID iD.
func IsValid(raw string) bool {
	_, err := ParseID(raw)
	return err == nil
}

func (id ID) String() string {
	return string(id)
}

// URL returns the ORCID record URL for id.
func (id ID) URL() string {
	return "https://orcid.org/" + string(id)
}

// validChecksum applies ISO 7064 11,2 to the 16 digit form.
func validChecksum(digits string) bool {
	total := 0
	for _, r := range digits[:15] {
		total = (total + int(r-'0')) * 2
	}
	remainder := total % 11
	result := (12 - remainder) % 11
	want := byte('0' + result)
	if result == 10 {
		want = 'X'
	}
	return digits[15] == want
}
