package catalog

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func TestEmbeddedLocalesShareKeys(t *testing.T) {
	t.Parallel()

	bundle, err := LoadFromFS(embedded)
	if err != nil {
		t.Fatalf("LoadFromFS() error = %v", err)
	}
	if !bundle.HasLocale("pt-BR") {
		t.Fatalf("HasLocale(pt-BR) = false, want true")
	}
	base := bundle.Keys(BaseLocale)
	if len(base) == 0 {
		t.Fatalf("base locale has no keys")
	}
	for _, locale := range bundle.Locales() {
		if got := bundle.Keys(locale); !reflect.DeepEqual(got, base) {
			missing := diff(base, got)
			extra := diff(got, base)
			t.Fatalf("locale %s keys differ from %s: missing %v, extra %v", locale, BaseLocale, missing, extra)
		}
	}
}

func TestDefaultRegistersMessages(t *testing.T) {
	t.Parallel()

	Default()
	if got := message.NewPrinter(language.MustParse("pt-BR")).Sprintf("language.name"); got != "Português" {
		t.Fatalf("pt-BR language.name = %q, want %q", got, "Português")
	}
	if got := message.NewPrinter(language.MustParse("en-US")).Sprintf("language.name"); got != "English" {
		t.Fatalf("en-US language.name = %q, want %q", got, "English")
	}
}

func TestMessageFallsBackToBase(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "locales/en-US/core.yaml"), "locale: \"en-US\"\nnamespace: \"core\"\nmessages:\n  \"a.key\": \"A\"\n  \"b.key\": \"B\"\n")
	mustWriteFile(t, filepath.Join(dir, "locales/pt-BR/core.yaml"), "locale: \"pt-BR\"\nnamespace: \"core\"\nmessages:\n  \"a.key\": \"Á\"\n")
	bundle, err := LoadFromFS(os.DirFS(dir))
	if err != nil {
		t.Fatalf("LoadFromFS() error = %v", err)
	}
	if got, _ := bundle.Message("pt-BR", "a.key"); got != "Á" {
		t.Fatalf("Message(pt-BR, a.key) = %q, want %q", got, "Á")
	}
	if got, ok := bundle.Message("pt-BR", "b.key"); !ok || got != "B" {
		t.Fatalf("Message(pt-BR, b.key) = %q, %v, want B, true", got, ok)
	}
}

func TestLoadFromFSRejects(t *testing.T) {
	t.Parallel()

	tests := map[string]map[string]string{
		"duplicate across namespaces": {
			"locales/en-US/core.yaml":  "locale: \"en-US\"\nnamespace: \"core\"\nmessages:\n  \"a.key\": \"a\"\n",
			"locales/en-US/pages.yaml": "locale: \"en-US\"\nnamespace: \"pages\"\nmessages:\n  \"a.key\": \"b\"\n",
		},
		"locale mismatch": {
			"locales/en-US/core.yaml": "locale: \"pt-BR\"\nnamespace: \"core\"\nmessages:\n  \"a.key\": \"a\"\n",
		},
		"missing base locale": {
			"locales/pt-BR/core.yaml": "locale: \"pt-BR\"\nnamespace: \"core\"\nmessages:\n  \"a.key\": \"a\"\n",
		},
		"unquoted value": {
			"locales/en-US/core.yaml": "locale: \"en-US\"\nnamespace: \"core\"\nmessages:\n  \"a.key\": a\n",
		},
	}
	for name, files := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			for p, content := range files {
				mustWriteFile(t, filepath.Join(dir, p), content)
			}
			if _, err := LoadFromFS(os.DirFS(dir)); err == nil {
				t.Fatalf("LoadFromFS() error = nil, want error")
			}
		})
	}
}

func mustWriteFile(t *testing.T, p, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func diff(a, b []string) []string {
	seen := make(map[string]bool, len(b))
	for _, key := range b {
		seen[key] = true
	}
	var out []string
	for _, key := range a {
		if !seen[key] {
			out = append(out, key)
		}
	}
	return out
}
