package id

import (
	"strings"
	"testing"
)

func TestNewTokenFormat(t *testing.T) {
	t.Parallel()

	token, err := NewToken()
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if len(token) != 26 {
		t.Fatalf("expected 26-character token, got %d", len(token))
	}
	for _, r := range token {
		if (r < 'a' || r > 'z') && (r < '2' || r > '7') {
			t.Fatalf("unexpected character %q in token", r)
		}
	}
	decoded, err := tokenEncoding.DecodeString(strings.ToUpper(token))
	if err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if len(decoded) != 16 {
		t.Fatalf("expected 16 decoded bytes, got %d", len(decoded))
	}
	if decoded[6]>>4 != 4 {
		t.Fatalf("expected version 4, got %d", decoded[6]>>4)
	}
}

func TestNewTokenIsUnique(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for range 100 {
		token, err := NewToken()
		if err != nil {
			t.Fatalf("new token: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token %q", token)
		}
		seen[token] = true
	}
}

func TestParseUUID(t *testing.T) {
	t.Parallel()

	want := NewUUID()
	got, ok := ParseUUID(" " + want.String() + " ")
	if !ok || got != want {
		t.Fatalf("ParseUUID() = %v, %t, want %v", got, ok, want)
	}
	if _, ok := ParseUUID("not-a-uuid"); ok {
		t.Fatal("expected invalid uuid to fail")
	}
}
