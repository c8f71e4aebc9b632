package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prereview/prereview/internal/platform/logging"
	"github.com/prereview/prereview/internal/platform/requestctx"
	"github.com/prereview/prereview/internal/services/web/platform/flash"
	"github.com/prereview/prereview/internal/services/web/templates"
)

func testWriter() Writer {
	return Writer{Origin: "https://prereview.example", Logger: logging.Discard()}
}

func TestWritePage(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/clubs", nil)
	testWriter().Write(rec, req, Page{
		Title:       "Clubs",
		Status:      http.StatusOK,
		Main:        templates.ProblemPage(templates.ProblemPageNotFound),
		Nav:         templates.NavClubs,
		Canonical:   "/clubs",
		AllowRobots: true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Fatalf("Content-Type = %q, want html", got)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `<link rel="canonical" href="https://prereview.example/clubs">`) {
		t.Fatalf("body missing canonical link: %q", body)
	}
	if strings.Contains(body, `name="robots"`) {
		t.Fatalf("body has robots noindex, want none")
	}
	if !strings.Contains(body, "<footer") {
		t.Fatalf("body missing footer")
	}
}

func TestWriteStreamlinePageOmitsFooter(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/write-a-prereview", nil)
	testWriter().Write(rec, req, StreamlinePage{Title: "Write", Status: http.StatusBadRequest, Main: templates.ProblemPage(templates.ProblemNotSupported)})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<footer") {
		t.Fatalf("streamline page rendered a footer")
	}
	if !strings.Contains(body, `name="robots"`) {
		t.Fatalf("streamline page missing noindex")
	}
}

func TestWriteSignedInPageIsPrivate(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(requestctx.WithUser(req.Context(), requestctx.User{ORCID: "0000-0002-1825-0097", Name: "Josiah Carberry"}))
	testWriter().Write(rec, req, Page{Title: "Home", Main: templates.ProblemPage(templates.ProblemPageNotFound)})
	if got := rec.Header().Get("Cache-Control"); got != "no-store, private" {
		t.Fatalf("Cache-Control = %q, want no-store, private", got)
	}
	if !strings.Contains(rec.Body.String(), "Josiah Carberry") {
		t.Fatalf("body missing signed-in user name")
	}
}

func TestWriteRedirects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		resp         Response
		wantStatus   int
		wantLocation string
		wantFlash    bool
	}{
		{name: "redirect defaults to see other", resp: Redirect{Location: "/reviews"}, wantStatus: http.StatusSeeOther, wantLocation: "/reviews"},
		{name: "permanent redirect", resp: Redirect{Location: "/clubs", Status: http.StatusMovedPermanently}, wantStatus: http.StatusMovedPermanently, wantLocation: "/clubs"},
		{name: "flash message", resp: FlashMessage{Location: "/my-details", Notice: flash.Success(flash.ContactEmailVerified)}, wantStatus: http.StatusSeeOther, wantLocation: "/my-details", wantFlash: true},
		{name: "log in", resp: LogIn{Location: "/my-details"}, wantStatus: http.StatusFound, wantLocation: "/log-in?return=%2Fmy-details"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			testWriter().Write(rec, httptest.NewRequest(http.MethodPost, "/", nil), tc.resp)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if got := rec.Header().Get("Location"); got != tc.wantLocation {
				t.Fatalf("Location = %q, want %q", got, tc.wantLocation)
			}
			hasFlash := false
			for _, cookie := range rec.Result().Cookies() {
				if cookie.Name == flash.CookieName {
					hasFlash = true
				}
			}
			if hasFlash != tc.wantFlash {
				t.Fatalf("flash cookie = %v, want %v", hasFlash, tc.wantFlash)
			}
		})
	}
}

func TestWritePageShowsFlashOnce(t *testing.T) {
	t.Parallel()

	first := httptest.NewRecorder()
	testWriter().Write(first, httptest.NewRequest(http.MethodGet, "/", nil), FlashMessage{Location: "/", Notice: flash.Success(flash.LoggedIn)})
	cookie := first.Result().Cookies()[0]

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	testWriter().Write(rec, req, Page{Title: "Home", Main: templates.ProblemPage(templates.ProblemPageNotFound)})
	if !strings.Contains(rec.Body.String(), `class="notification success"`) {
		t.Fatalf("body missing flash notification")
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == flash.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("flash cookie was not cleared")
	}
}

func TestHandleMapsErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var mapped error
	wr := testWriter()
	wr.Errors = func(r *http.Request, err error) Response {
		mapped = err
		return Redirect{Location: "/oops"}
	}
	rec := httptest.NewRecorder()
	wr.Handle(func(*http.Request) (Response, error) { return nil, boom }).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !errors.Is(mapped, boom) {
		t.Fatalf("mapped error = %v, want %v", mapped, boom)
	}
	if got := rec.Header().Get("Location"); got != "/oops" {
		t.Fatalf("Location = %q, want /oops", got)
	}
}

func TestHandleWithoutMapperIsUnavailable(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	testWriter().Handle(func(*http.Request) (Response, error) { return nil, errors.New("boom") }).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
