package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/prereview/prereview/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func localized(locale string) context.Context {
	catalog.Default()
	return WithLocalizer(context.Background(), message.NewPrinter(language.MustParse(locale)))
}

func renderString(t *testing.T, ctx context.Context, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestFormatDateByLocale(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)
	tests := map[string]string{
		"en-US": "March 5, 2024",
		"pt-BR": "5 de março de 2024",
	}
	for locale, want := range tests {
		if got := formatDate(localized(locale), day); got != want {
			t.Fatalf("formatDate(%s) = %q, want %q", locale, got, want)
		}
	}
}

func TestProblemPageLocalizesAndLinksHome(t *testing.T) {
	t.Parallel()

	body := renderString(t, localized("en-US"), ProblemPage(ProblemHavingProblems))
	for _, want := range []string{"<h1>Sorry, we’re having problems</h1>", "Please try again later.", `<a href="/">`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body = %s, missing %q", body, want)
		}
	}

	body = renderString(t, localized("pt-BR"), ProblemPage(ProblemPageNotFound))
	if !strings.Contains(body, "Página não encontrada") {
		t.Fatalf("pt-BR body = %s", body)
	}
}

func TestMessageEscapesArguments(t *testing.T) {
	t.Parallel()

	body := renderString(t, localized("en-US"), Message(MessageView{
		HeadingKey: "connect_slack.connected.heading",
		Paragraphs: []Paragraph{{Key: "connect_slack.connected.explain", Args: []any{"<script>"}}},
		Links:      []LinkButton{{URL: "/my-details", LabelKey: "layout.nav_my_details"}},
	}))
	if strings.Contains(body, "<script>") {
		t.Fatalf("argument was not escaped: %s", body)
	}
	for _, want := range []string{"You are connected as &lt;script&gt;.", `<a href="/my-details" class="button">My details</a>`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body = %s, missing %q", body, want)
		}
	}
}

func TestUnknownKeyFallsBackToKey(t *testing.T) {
	t.Parallel()

	if got := T(context.Background(), "no.such.key"); got != "no.such.key" {
		t.Fatalf("T() = %q, want key", got)
	}
}

func TestProblemTitleKey(t *testing.T) {
	t.Parallel()

	if got := ProblemTitleKey(ProblemInviteDeclined); got != "problem.invite_declined.title" {
		t.Fatalf("ProblemTitleKey() = %q", got)
	}
}
