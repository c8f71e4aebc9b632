package preprint

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const crossrefWork = `{"status":"ok","message":{
  "type":"posted-content","subtype":"preprint",
  "institution":[{"name":"bioRxiv"}],
  "title":["A <i>study</i> of things"],
  "abstract":"<jats:p>We studied <jats:italic>things</jats:italic>.</jats:p>",
  "author":[{"given":"Josiah","family":"Carberry","ORCID":"http://orcid.org/0000-0002-1825-0097"},{"name":"The Consortium"}],
  "posted":{"date-parts":[[2022,1,14]]},
  "language":"en",
  "resource":{"primary":{"URL":"https://www.biorxiv.org/content/10.1101/2022.01.13.476201v1"}}
}}`

const dataciteDOI = `{"data":{"attributes":{
  "types":{"resourceTypeGeneral":"Preprint"},
  "titles":[{"title":"Quantum stuff"}],
  "creators":[{"name":"Doe, Jane","givenName":"Jane","familyName":"Doe","nameIdentifiers":[{"nameIdentifierScheme":"ORCID","nameIdentifier":"https://orcid.org/0000-0002-1694-233X"}]}],
  "descriptions":[{"descriptionType":"Abstract","description":"Some abstract"}],
  "dates":[{"date":"2021-01-01","dateType":"Submitted"}],
  "publicationYear":2021,
  "url":"https://arxiv.org/abs/2101.00001"
}}}`

func newRegistryServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/works/10.1101/2022.01.13.476201":
			_, _ = w.Write([]byte(crossrefWork))
		case r.URL.Path == "/works/10.31234/article":
			_, _ = w.Write([]byte(`{"message":{"type":"journal-article","title":["x"]}}`))
		case r.URL.Path == "/works/10.31235/broken":
			w.WriteHeader(http.StatusBadGateway)
		case r.URL.Path == "/dois/10.48550/arxiv.2101.00001":
			_, _ = w.Write([]byte(dataciteDOI))
		case strings.HasPrefix(r.URL.Path, "/works/"), strings.HasPrefix(r.URL.Path, "/dois/"):
			http.NotFound(w, r)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestResolverCrossref(t *testing.T) {
	t.Parallel()

	server := newRegistryServer(t)
	resolver := NewResolver(ResolverConfig{CrossrefURL: server.URL, DataCiteURL: server.URL}, server.Client())

	got, err := resolver.Get(context.Background(), ID{Server: ServerBioRxivMedRxiv, DOI: "10.1101/2022.01.13.476201"})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID.Server != ServerBioRxiv {
		t.Fatalf("Server = %q, want %q", got.ID.Server, ServerBioRxiv)
	}
	if got.Title != "A <i>study</i> of things" {
		t.Fatalf("Title = %q", got.Title)
	}
	if got.Abstract != "<p>We studied things.</p>" {
		t.Fatalf("Abstract = %q", got.Abstract)
	}
	if len(got.Authors) != 2 || got.Authors[0].Name != "Josiah Carberry" || got.Authors[0].ORCID != "0000-0002-1825-0097" {
		t.Fatalf("Authors = %+v", got.Authors)
	}
	if want := time.Date(2022, 1, 14, 0, 0, 0, 0, time.UTC); !got.Posted.Equal(want) {
		t.Fatalf("Posted = %v, want %v", got.Posted, want)
	}
	if got.Language != "en" {
		t.Fatalf("Language = %q, want en", got.Language)
	}
}

func TestResolverDataCite(t *testing.T) {
	t.Parallel()

	server := newRegistryServer(t)
	resolver := NewResolver(ResolverConfig{CrossrefURL: server.URL, DataCiteURL: server.URL}, server.Client())

	got, err := resolver.Get(context.Background(), ID{Server: ServerArXiv, DOI: "10.48550/arxiv.2101.00001"})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Quantum stuff" || got.Abstract != "<p>Some abstract</p>" {
		t.Fatalf("preprint = %+v", got)
	}
	if len(got.Authors) != 1 || got.Authors[0].Name != "Jane Doe" || got.Authors[0].ORCID != "0000-0002-1694-233X" {
		t.Fatalf("Authors = %+v", got.Authors)
	}
	if got.Posted.Year() != 2021 {
		t.Fatalf("Posted = %v", got.Posted)
	}
}

func TestResolverErrors(t *testing.T) {
	t.Parallel()

	server := newRegistryServer(t)
	resolver := NewResolver(ResolverConfig{CrossrefURL: server.URL, DataCiteURL: server.URL}, server.Client())

	tests := []struct {
		id   ID
		want error
	}{
		{id: ID{Server: ServerPsyArXiv, DOI: "10.31234/missing"}, want: ErrNotFound},
		{id: ID{Server: ServerPsyArXiv, DOI: "10.31234/article"}, want: ErrNotAPreprint},
		{id: ID{Server: ServerSocArXiv, DOI: "10.31235/broken"}, want: ErrUnavailable},
		{id: ID{}, want: ErrNotFound},
	}
	for _, tc := range tests {
		if _, err := resolver.Get(context.Background(), tc.id); !errors.Is(err, tc.want) {
			t.Fatalf("Get(%q) error = %v, want %v", tc.id.DOI, err, tc.want)
		}
	}
}

type memoryCache struct {
	items map[string]Preprint
	loads int
}

func (m *memoryCache) Load(_ context.Context, doi string) (Preprint, bool, error) {
	m.loads++
	found, ok := m.items[doi]
	return found, ok, nil
}

func (m *memoryCache) Store(_ context.Context, preprint Preprint, _ time.Duration) error {
	m.items[preprint.ID.DOI] = preprint
	return nil
}

type countingGetter struct {
	calls int
}

func (c *countingGetter) Get(_ context.Context, id ID) (Preprint, error) {
	c.calls++
	return Preprint{ID: id, Title: "Cached"}, nil
}

func TestCachingResolver(t *testing.T) {
	t.Parallel()

	next := &countingGetter{}
	cache := &memoryCache{items: map[string]Preprint{}}
	resolver := NewCachingResolver(next, cache, time.Minute, nil)
	id := ID{Server: ServerOSF, DOI: "10.31219/osf.io/abc"}

	for range 3 {
		got, err := resolver.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Title != "Cached" {
			t.Fatalf("Title = %q", got.Title)
		}
	}
	if next.calls != 1 {
		t.Fatalf("upstream calls = %d, want 1", next.calls)
	}
	if cache.loads != 3 {
		t.Fatalf("cache loads = %d, want 3", cache.loads)
	}
}

func TestNewCachingResolverWithoutCache(t *testing.T) {
	t.Parallel()

	next := &countingGetter{}
	if got := NewCachingResolver(next, nil, 0, nil); got != Getter(next) {
		t.Fatal("expected next returned unwrapped")
	}
}
