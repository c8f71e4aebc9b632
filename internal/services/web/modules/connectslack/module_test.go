package connectslack

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/platform/requestctx"
	"github.com/prereview/prereview/internal/services/web/app"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/platform/signedtoken"
	"github.com/prereview/prereview/internal/services/web/storage"
	"github.com/prereview/prereview/internal/slack"
)

var (
	josiah   = requestctx.User{ORCID: "0000-0002-1825-0097", Name: "Josiah Carberry"}
	stranger = requestctx.User{ORCID: "0000-0002-6982-4660", Name: "Someone Else"}
)

type fixture struct {
	handler http.Handler
	slack   *fakeSlack
	store   *memoryStore
	signer  *signedtoken.Signer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	signer, err := signedtoken.NewSigner("0123456789abcdef-test")
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}
	f := &fixture{
		slack:  &fakeSlack{},
		store:  &memoryStore{users: map[orcid.ID]storage.SlackUser{}},
		signer: signer,
	}
	handler, err := app.Compose(app.ComposeInput{
		ProtectedModules: []module.Module{New(testBase(), f.slack, f.store, signer)},
	})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	f.handler = handler
	return f
}

func (f *fixture) do(method, target string, user *requestctx.User) *httptest.ResponseRecorder {
	var req *http.Request
	if method == http.MethodPost {
		req = httptest.NewRequest(method, target, strings.NewReader(""))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != nil {
		req = req.WithContext(requestctx.WithUser(req.Context(), *user))
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// startState begins the flow and returns the state Slack would echo back.
func (f *fixture) startState(t *testing.T) string {
	t.Helper()
	rec := f.do(http.MethodPost, "/connect-slack/start", &josiah)
	if rec.Code != http.StatusFound {
		t.Fatalf("start status = %d, want %d", rec.Code, http.StatusFound)
	}
	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	if location.Host != "slack.test" {
		t.Fatalf("Location = %q, want slack authorize URL", location)
	}
	return location.Query().Get("state")
}

func callbackURL(state, code string) string {
	return "/connect-slack/callback?" + url.Values{"state": {state}, "code": {code}}.Encode()
}

func TestConnectAndDisconnect(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if rec := f.do(http.MethodGet, "/connect-slack", &josiah); rec.Code != http.StatusOK {
		t.Fatalf("page status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec := f.do(http.MethodGet, callbackURL(f.startState(t), "abc"), &josiah)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/connect-slack" {
		t.Fatalf("callback = %d %q", rec.Code, rec.Header().Get("Location"))
	}
	linked := f.store.users[josiah.ORCID]
	if linked.UserID != "Uabc" || linked.AccessToken != "xoxp-abc" || linked.Name != "Josiah" {
		t.Fatalf("linked = %+v", linked)
	}
	if len(f.slack.orcidFields) != 1 || f.slack.orcidFields[0] != "https://orcid.org/0000-0002-1825-0097" {
		t.Fatalf("orcid fields = %v", f.slack.orcidFields)
	}

	page := f.do(http.MethodGet, "/connect-slack", &josiah)
	if !strings.Contains(page.Body.String(), `action="/disconnect-slack"`) {
		t.Fatal("connected page does not offer to disconnect")
	}

	rec = f.do(http.MethodPost, "/disconnect-slack", &josiah)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("disconnect status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if _, ok := f.store.users[josiah.ORCID]; ok {
		t.Fatal("slack link was not removed")
	}
}

func TestCallbackFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		setup      func(*fixture)
		target     func(f *fixture, state string) string
		user       *requestctx.User
		wantStatus int
		wantFlash  bool
	}{
		{
			name:       "bad state",
			target:     func(*fixture, string) string { return callbackURL("forged", "abc") },
			user:       &josiah,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "other user",
			target:     func(_ *fixture, state string) string { return callbackURL(state, "abc") },
			user:       &stranger,
			wantStatus: http.StatusForbidden,
		},
		{
			name: "denied",
			target: func(_ *fixture, state string) string {
				return "/connect-slack/callback?" + url.Values{"state": {state}, "error": {"access_denied"}}.Encode()
			},
			user:       &josiah,
			wantStatus: http.StatusSeeOther,
			wantFlash:  true,
		},
		{
			name:       "exchange fails",
			setup:      func(f *fixture) { f.slack.exchangeErr = fmt.Errorf("%w: status 500", slack.ErrUnavailable) },
			target:     func(_ *fixture, state string) string { return callbackURL(state, "abc") },
			user:       &josiah,
			wantStatus: http.StatusSeeOther,
			wantFlash:  true,
		},
		{
			name:       "profile fails",
			setup:      func(f *fixture) { f.slack.profileErr = slack.ErrUnavailable },
			target:     func(_ *fixture, state string) string { return callbackURL(state, "abc") },
			user:       &josiah,
			wantStatus: http.StatusSeeOther,
			wantFlash:  true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			if tc.setup != nil {
				tc.setup(f)
			}
			rec := f.do(http.MethodGet, tc.target(f, f.startState(t)), tc.user)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if got := rec.Header().Get("Set-Cookie") != ""; got != tc.wantFlash {
				t.Fatalf("flash set = %v, want %v", got, tc.wantFlash)
			}
			if len(f.store.users) != 0 {
				t.Fatalf("users = %+v, want none linked", f.store.users)
			}
		})
	}
}

func TestConnectSlackRequiresLogIn(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(http.MethodGet, "/connect-slack", nil)
	if rec.Code != http.StatusFound || !strings.HasPrefix(rec.Header().Get("Location"), "/log-in") {
		t.Fatalf("response = %d %q, want log-in redirect", rec.Code, rec.Header().Get("Location"))
	}
}
