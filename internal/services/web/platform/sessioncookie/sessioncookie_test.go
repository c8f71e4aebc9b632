package sessioncookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prereview/prereview/internal/services/web/platform/requestmeta"
)

func TestWriteThenRead(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "https://prereview.test/orcid", nil)
	Write(rec, req, " session-1 ", time.Hour, requestmeta.SchemePolicy{})

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}
	cookie := cookies[0]
	if cookie.Value != "session-1" {
		t.Fatalf("Value = %q, want %q", cookie.Value, "session-1")
	}
	if cookie.MaxAge != 3600 {
		t.Fatalf("MaxAge = %d, want 3600", cookie.MaxAge)
	}
	if !cookie.Secure || !cookie.HttpOnly {
		t.Fatalf("Secure/HttpOnly = %v/%v, want true/true", cookie.Secure, cookie.HttpOnly)
	}

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookie)
	got, ok := Read(next)
	if !ok || got != "session-1" {
		t.Fatalf("Read() = %q, %v, want %q, true", got, ok, "session-1")
	}
}

func TestReadMissingOrBlank(t *testing.T) {
	t.Parallel()

	if _, ok := Read(httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Fatalf("Read(no cookie) ok = true, want false")
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: Name, Value: "  "})
	if _, ok := Read(req); ok {
		t.Fatalf("Read(blank) ok = true, want false")
	}
	if _, ok := Read(nil); ok {
		t.Fatalf("Read(nil) ok = true, want false")
	}
}

func TestClearExpiresCookie(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Clear(rec, httptest.NewRequest(http.MethodPost, "/log-out", nil), requestmeta.SchemePolicy{})
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("cookies = %+v, want one expired cookie", cookies)
	}
}
