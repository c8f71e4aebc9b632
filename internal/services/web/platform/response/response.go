// Package response defines the values page handlers return and writes them
// to the HTTP boundary.
package response

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/prereview/prereview/internal/platform/requestctx"
	"github.com/prereview/prereview/internal/services/web/platform/flash"
	"github.com/prereview/prereview/internal/services/web/platform/httpx"
	"github.com/prereview/prereview/internal/services/web/platform/i18n"
	"github.com/prereview/prereview/internal/services/web/platform/requestmeta"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/templates"
	"github.com/sirupsen/logrus"
)

// Response is one of Page, StreamlinePage, Redirect, FlashMessage or LogIn.
type Response interface {
	isResponse()
}

// Page is a full page with navigation and footer.
type Page struct {
	Title       string
	Status      int
	Main        templ.Component
	Nav         templates.Nav
	Canonical   string
	AllowRobots bool
}

// StreamlinePage is a page inside a flow: no footer and no highlighted nav.
type StreamlinePage struct {
	Title     string
	Status    int
	Main      templ.Component
	Canonical string
}

// Redirect sends the browser elsewhere. A zero Status means 303 See Other.
type Redirect struct {
	Location string
	Status   int
}

// FlashMessage redirects and shows Notice on the next page.
type FlashMessage struct {
	Location string
	Notice   flash.Notice
}

// LogIn sends the browser through log-in and back to Location.
type LogIn struct {
	Location string
}

func (Page) isResponse()           {}
func (StreamlinePage) isResponse() {}
func (Redirect) isResponse()       {}
func (FlashMessage) isResponse()   {}
func (LogIn) isResponse()          {}

// HandlerFunc produces a response for a request. A non-nil error is turned
// into a response by the Writer's error mapper.
type HandlerFunc func(r *http.Request) (Response, error)

// ErrorMapper turns a handler failure into a response.
type ErrorMapper func(r *http.Request, err error) Response

// Writer renders responses.
type Writer struct {
	// Origin is the public scheme and host used for canonical links.
	Origin string
	Policy requestmeta.SchemePolicy
	Errors ErrorMapper
	Logger logrus.FieldLogger
}

// Handle adapts fn into an http.Handler.
func (wr Writer) Handle(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp, err := fn(r)
		if err != nil {
			if wr.Errors == nil {
				wr.logger(r).WithError(err).Error("handler failed")
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			resp = wr.Errors(r, err)
		}
		wr.Write(w, r, resp)
	})
}

// Write sends resp.
func (wr Writer) Write(w http.ResponseWriter, r *http.Request, resp Response) {
	switch resp := resp.(type) {
	case Page:
		wr.writePage(w, r, resp.Title, resp.Status, resp.Main, templates.Chrome{
			Nav:         resp.Nav,
			Canonical:   wr.canonical(resp.Canonical),
			AllowRobots: resp.AllowRobots,
		})
	case StreamlinePage:
		wr.writePage(w, r, resp.Title, resp.Status, resp.Main, templates.Chrome{
			Canonical:  wr.canonical(resp.Canonical),
			Streamline: true,
		})
	case Redirect:
		status := resp.Status
		if status == 0 {
			status = http.StatusSeeOther
		}
		httpx.WriteRedirect(w, r, resp.Location, status)
	case FlashMessage:
		flash.Write(w, r, resp.Notice, wr.Policy)
		httpx.WriteRedirect(w, r, resp.Location, http.StatusSeeOther)
	case LogIn:
		httpx.WriteRedirect(w, r, routepath.LogInReturning(resp.Location), http.StatusFound)
	default:
		wr.logger(r).Errorf("unknown response type %T", resp)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (wr Writer) writePage(w http.ResponseWriter, r *http.Request, title string, status int, main templ.Component, chrome templates.Chrome) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx := httpx.RequestContext(r)
	tag := i18n.TagFrom(ctx)
	chrome.Lang = tag.String()
	chrome.Languages = i18n.LanguageLinks(r, tag)
	user, signedIn := requestctx.UserFrom(ctx)
	if signedIn {
		chrome.User = &templates.SignedInUser{Name: user.Name, ProfileURL: routepath.Profile(user.ORCID)}
	}
	if notice, ok := flash.ReadAndClear(w, r, wr.Policy); ok {
		chrome.Notice = &templates.Notice{Kind: string(notice.Kind), Key: notice.Key}
	}

	var buf bytes.Buffer
	if err := templates.Document(title, chrome, main).Render(ctx, &buf); err != nil {
		wr.logger(r).WithError(err).Error("render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	header := w.Header()
	header.Set("Content-Type", "text/html; charset=utf-8")
	header.Add("Vary", "Cookie")
	if signedIn {
		header.Set("Cache-Control", "no-store, private")
	}
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (wr Writer) canonical(path string) string {
	if path == "" {
		return ""
	}
	return strings.TrimRight(wr.Origin, "/") + path
}

func (wr Writer) logger(r *http.Request) logrus.FieldLogger {
	logger := wr.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithField("request_id", httpx.RequestIDOf(r))
}
