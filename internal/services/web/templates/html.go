// Package templates renders PREreview pages as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Localizer resolves message keys for the active language.
type Localizer interface {
	Sprintf(key message.Reference, a ...any) string
}

type localizerKey struct{}

var fallbackLocalizer = message.NewPrinter(language.AmericanEnglish)

// WithLocalizer attaches loc to ctx for components rendered under it.
func WithLocalizer(ctx context.Context, loc Localizer) context.Context {
	return context.WithValue(ctx, localizerKey{}, loc)
}

// LocalizerFrom returns the localizer attached to ctx, or an English one.
func LocalizerFrom(ctx context.Context) Localizer {
	if ctx != nil {
		if loc, ok := ctx.Value(localizerKey{}).(Localizer); ok && loc != nil {
			return loc
		}
	}
	return fallbackLocalizer
}

// T localizes key with args.
func T(ctx context.Context, key string, args ...any) string {
	return LocalizerFrom(ctx).Sprintf(key, args...)
}

// html accumulates markup and the first write error.
type html struct {
	w   io.Writer
	ctx context.Context
	err error
}

func component(fn func(h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w, ctx: ctx}
		fn(h)
		return h.err
	})
}

func (h *html) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

// t writes the localized, escaped text for key.
func (h *html) t(key string, args ...any) {
	h.text(T(h.ctx, key, args...))
}

// open writes a start tag; attrs alternate name and value.
func (h *html) open(tag string, attrs ...string) {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i+1] == "" && attrs[i] != "value" && attrs[i] != "alt" {
			continue
		}
		fmt.Fprintf(&b, ` %s="%s"`, attrs[i], templ.EscapeString(attrs[i+1]))
	}
	b.WriteString(">")
	h.raw(b.String())
}

func (h *html) close(tag string) {
	h.raw("</" + tag + ">")
}

// el writes a whole element with escaped text content.
func (h *html) el(tag, content string, attrs ...string) {
	h.open(tag, attrs...)
	h.text(content)
	h.close(tag)
}

// elT writes a whole element with localized content.
func (h *html) elT(tag, key string, attrs ...string) {
	h.el(tag, T(h.ctx, key), attrs...)
}

func (h *html) link(href, content string, attrs ...string) {
	h.el("a", content, append([]string{"href", href}, attrs...)...)
}

func (h *html) render(c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(h.ctx, h.w)
}

func (h *html) date(t time.Time) {
	if t.IsZero() {
		return
	}
	h.el("time", formatDate(h.ctx, t), "datetime", t.UTC().Format("2006-01-02"))
}

func formatDate(ctx context.Context, t time.Time) string {
	// Strings, not ints: the printer would group the year's digits.
	return T(ctx, "date."+strings.ToLower(t.Month().String()), strconv.Itoa(t.Day()), strconv.Itoa(t.Year()))
}

func boolAttr(on bool, name string) string {
	if on {
		return name
	}
	return ""
}
