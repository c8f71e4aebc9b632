// Package i18n resolves the request language and builds localizers for pages.
package i18n

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prereview/prereview/internal/platform/i18n/catalog"
	"github.com/prereview/prereview/internal/services/web/platform/httpx"
	"github.com/prereview/prereview/internal/services/web/templates"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the user's language preference.
	LangCookieName = "prereview_lang"
)

var (
	englishUS    = language.MustParse("en-US")
	portugueseBR = language.MustParse("pt-BR")
	supported    = []language.Tag{englishUS, portugueseBR}
	matcher      = language.NewMatcher(supported)
)

func init() {
	catalog.Default()
}

// Supported returns the list of supported language tags.
func Supported() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// Default returns the default language tag.
func Default() language.Tag {
	return englishUS
}

// ParseTag matches raw to a supported tag.
func ParseTag(raw string) (language.Tag, bool) {
	tag, err := language.Parse(strings.TrimSpace(raw))
	if err != nil {
		return language.Tag{}, false
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return language.Tag{}, false
	}
	return supported[index], true
}

// ResolveTag picks the language for r: query parameter, then cookie, then
// Accept-Language. The bool reports whether the choice came from the query
// and should be persisted.
func ResolveTag(r *http.Request) (language.Tag, bool) {
	if r == nil {
		return Default(), false
	}
	if value := r.URL.Query().Get(LangParam); value != "" {
		if tag, ok := ParseTag(value); ok {
			return tag, true
		}
	}
	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := ParseTag(cookie.Value); ok {
			return tag, false
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			_, index, confidence := matcher.Match(tags...)
			if confidence != language.No {
				return supported[index], false
			}
		}
	}
	return Default(), false
}

// SetLanguageCookie persists the selected language on the response.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// Printer returns a message printer for tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// ResolveLocalizer resolves the request language, persisting an explicit
// choice, and returns its printer and tag.
func ResolveLocalizer(w http.ResponseWriter, r *http.Request) (*message.Printer, language.Tag) {
	tag, persist := ResolveTag(r)
	if persist {
		SetLanguageCookie(w, tag)
	}
	return Printer(tag), tag
}

// LanguageLinks lists every supported language with links back to the
// current page.
func LanguageLinks(r *http.Request, active language.Tag) []templates.LanguageLink {
	path := "/"
	rawQuery := ""
	if r != nil && r.URL != nil {
		path = r.URL.Path
		rawQuery = r.URL.RawQuery
	}
	links := make([]templates.LanguageLink, 0, len(supported))
	for _, tag := range supported {
		links = append(links, templates.LanguageLink{
			Tag:    tag.String(),
			Label:  Printer(tag).Sprintf("language.name"),
			URL:    languageURL(path, rawQuery, tag.String()),
			Active: tag == active,
		})
	}
	return links
}

func languageURL(path, rawQuery, tag string) string {
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		query = url.Values{}
	}
	query.Set(LangParam, tag)
	return (&url.URL{Path: path, RawQuery: query.Encode()}).String()
}

type tagKey struct{}

// Middleware resolves the request language once and attaches its localizer
// and tag to the request context.
func Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			printer, tag := ResolveLocalizer(w, r)
			ctx := templates.WithLocalizer(r.Context(), printer)
			ctx = context.WithValue(ctx, tagKey{}, tag)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TagFrom returns the language resolved by Middleware, or the default.
func TagFrom(ctx context.Context) language.Tag {
	if ctx != nil {
		if tag, ok := ctx.Value(tagKey{}).(language.Tag); ok {
			return tag
		}
	}
	return Default()
}
