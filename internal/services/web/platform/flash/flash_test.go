package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prereview/prereview/internal/services/web/platform/requestmeta"
)

func TestWriteAndReadAndClear(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Write(rec, httptest.NewRequest(http.MethodGet, "/", nil), Success(LoggedIn), requestmeta.SchemePolicy{})
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	clearRec := httptest.NewRecorder()
	notice, ok := ReadAndClear(clearRec, req, requestmeta.SchemePolicy{})
	if !ok {
		t.Fatalf("ReadAndClear() ok = false, want true")
	}
	if notice != (Notice{Kind: KindSuccess, Key: LoggedIn}) {
		t.Fatalf("notice = %+v, want success %q", notice, LoggedIn)
	}
	cleared := clearRec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Fatalf("cleared cookies = %+v, want one expired cookie", cleared)
	}
}

func TestWriteSkipsInvalidNotice(t *testing.T) {
	t.Parallel()

	for _, notice := range []Notice{{Kind: KindInfo}, {Kind: "loud", Key: LoggedOut}} {
		rec := httptest.NewRecorder()
		Write(rec, httptest.NewRequest(http.MethodGet, "/", nil), notice, requestmeta.SchemePolicy{})
		if got := len(rec.Result().Cookies()); got != 0 {
			t.Fatalf("Write(%+v) cookies = %d, want 0", notice, got)
		}
	}
}

func TestReadAndClearRejectsGarbage(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-base64!"})
	if _, ok := ReadAndClear(httptest.NewRecorder(), req, requestmeta.SchemePolicy{}); ok {
		t.Fatalf("ReadAndClear(garbage) ok = true, want false")
	}
	if _, ok := ReadAndClear(nil, httptest.NewRequest(http.MethodGet, "/", nil), requestmeta.SchemePolicy{}); ok {
		t.Fatalf("ReadAndClear(no cookie) ok = true, want false")
	}
}
