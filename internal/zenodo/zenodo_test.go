package zenodo

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prereview/prereview/internal/openalex"
)

func recordJSON(serverURL string, id int, community string) string {
	return `{
  "id": ` + itoa(id) + `,
  "doi": "10.5281/zenodo.` + itoa(id) + `",
  "metadata": {
    "title": "PREreview of A study",
    "publication_date": "2024-02-03",
    "language": "eng",
    "license": {"id": "cc-by-4.0"},
    "keywords": ["Structured PREreview"],
    "communities": [{"id": "` + community + `"}],
    "creators": [{"name": "Josiah Carberry", "orcid": "0000-0002-1825-0097"}, {"name": "Orange Panda"}],
    "contributors": [{"name": "Language Club", "type": "ResearchGroup"}],
    "related_identifiers": [{"identifier": "10.1101/2024.01.01.000001", "relation": "reviews", "scheme": "doi", "resource_type": "publication-preprint"}]
  },
  "files": [{"key": "review.html", "links": {"self": "` + serverURL + `/files/` + itoa(id) + `/review.html"}}]
}`
}

func itoa(v int) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestGetRecord(t *testing.T) {
	t.Parallel()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/records/1":
			_, _ = w.Write([]byte(recordJSON(server.URL, 1, "prereview-reviews")))
		case "/api/records/2":
			_, _ = w.Write([]byte(recordJSON(server.URL, 2, "someone-else")))
		case "/files/1/review.html":
			_, _ = w.Write([]byte(`<p onclick="x">Great <b>work</b></p><script>bad()</script>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL}, server.Client())
	got, err := client.GetRecord(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}
	if got.DOI != "10.5281/zenodo.1" || got.PreprintDOI != "10.1101/2024.01.01.000001" {
		t.Fatalf("record = %+v", got)
	}
	if got.Language != "en" || got.License != "CC-BY-4.0" || !got.Structured || got.Club != "language-club" {
		t.Fatalf("record = %+v", got)
	}
	if len(got.Authors) != 2 || got.Authors[0].ORCID != "0000-0002-1825-0097" || got.Authors[1].ORCID != "" {
		t.Fatalf("Authors = %+v", got.Authors)
	}
	if got.Text != "<p>Great <b>work</b></p>" {
		t.Fatalf("Text = %q", got.Text)
	}
	if got.Published.Format("2006-01-02") != "2024-02-03" {
		t.Fatalf("Published = %v", got.Published)
	}

	for _, id := range []int{2, 3} {
		if _, err := client.GetRecord(context.Background(), id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("GetRecord(%d) error = %v, want ErrNotFound", id, err)
		}
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	var server *httptest.Server
	var gotQuery string
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/records/" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query().Get("q")
		if r.URL.Query().Get("communities") != "prereview-reviews" || r.URL.Query().Get("size") != "10" {
			t.Errorf("query = %v", r.URL.Query())
		}
		_, _ = w.Write([]byte(`{"hits":{"total":11,"hits":[` + recordJSON(server.URL, 5, "prereview-reviews") + `,` + recordJSON(server.URL, 6, "other") + `]}}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL}, server.Client())
	results, err := client.Search(context.Background(), Query{Text: "covid", Language: "en", Field: "27", Page: 2})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if results.TotalPages != 2 || results.Page != 2 || len(results.Records) != 1 || results.Records[0].ID != 5 {
		t.Fatalf("results = %+v", results)
	}
	want := `(covid) AND language:eng AND subjects.identifier:"https://openalex.org/fields/27"`
	if gotQuery != want {
		t.Fatalf("q = %q, want %q", gotQuery, want)
	}

	if _, err := client.Search(context.Background(), Query{Page: 3}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Search(page 3) error = %v, want ErrNotFound", err)
	}
}

func TestRecordsForPreprintQuery(t *testing.T) {
	t.Parallel()

	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{"hits":{"total":0,"hits":[]}}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL}, server.Client())
	records, err := client.RecordsForPreprint(context.Background(), "10.1101/ABC")
	if err != nil {
		t.Fatalf("RecordsForPreprint() error = %v", err)
	}
	if len(records) != 0 || gotQuery != `related.identifier:"10.1101/abc"` {
		t.Fatalf("records = %v, q = %q", records, gotQuery)
	}
	if _, err := client.RecordsForClub(context.Background(), "no-such-club"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("RecordsForClub() error = %v, want ErrNotFound", err)
	}
}

func TestSearchUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL}, server.Client())
	if _, err := client.Recent(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Recent() error = %v, want ErrUnavailable", err)
	}
}

type depositRecorder struct {
	mu       sync.Mutex
	calls    []string
	metadata map[string]any
	uploaded string
}

func newDepositServer(t *testing.T, recorder *depositRecorder) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder.mu.Lock()
		defer recorder.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		recorder.calls = append(recorder.calls, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/deposit/depositions":
			_, _ = w.Write([]byte(`{"id":42,"links":{"bucket":"` + server.URL + `/bucket/abc"}}`))
		case r.Method == http.MethodPut && r.URL.Path == "/bucket/abc/review.html":
			body, _ := io.ReadAll(r.Body)
			recorder.uploaded = string(body)
			_, _ = w.Write([]byte(`{}`))
		case r.Method == http.MethodPut && r.URL.Path == "/api/deposit/depositions/42":
			var body struct {
				Metadata map[string]any `json:"metadata"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			recorder.metadata = body.Metadata
			_, _ = w.Write([]byte(`{"id":42}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/deposit/depositions/42/actions/publish":
			_, _ = w.Write([]byte(`{"id":42,"doi":"10.5281/zenodo.42"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/deposit/depositions/42/actions/edit":
			_, _ = w.Write([]byte(`{"id":42,"metadata":{"title":"x","creators":[{"name":"Josiah Carberry"}]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestPublish(t *testing.T) {
	t.Parallel()

	recorder := &depositRecorder{}
	server := newDepositServer(t, recorder)
	client := NewClient(Config{BaseURL: server.URL, Token: "secret"}, server.Client())

	published, err := client.Publish(context.Background(), NewPrereview{
		PreprintDOI:   "10.1101/2024.01.01.000001",
		PreprintTitle: "A <i>study</i>",
		Authors:       []Author{{Name: "Josiah Carberry", ORCID: "0000-0002-1825-0097"}},
		Club:          "language-club",
		Language:      "en",
		Structured:    true,
		Fields:        []openalex.FieldID{"17"},
		Text:          "<p>Nice</p>",
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if published.ID != 42 || published.DOI != "10.5281/zenodo.42" {
		t.Fatalf("Publish() = %+v", published)
	}
	if recorder.uploaded != "<p>Nice</p>" {
		t.Fatalf("uploaded = %q", recorder.uploaded)
	}
	if got := recorder.metadata["title"]; got != "Structured PREreview of A study" {
		t.Fatalf("title = %v", got)
	}
	if got := recorder.metadata["language"]; got != "eng" {
		t.Fatalf("language = %v", got)
	}
	contributors, _ := recorder.metadata["contributors"].([]any)
	if len(contributors) != 1 {
		t.Fatalf("contributors = %v", recorder.metadata["contributors"])
	}
	if want := 4; len(recorder.calls) != want {
		t.Fatalf("calls = %v", recorder.calls)
	}
}

func TestPublishRequiresToken(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"}, nil)
	if _, err := client.Publish(context.Background(), NewPrereview{}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Publish() error = %v, want ErrUnavailable", err)
	}
}

func TestAddAuthor(t *testing.T) {
	t.Parallel()

	recorder := &depositRecorder{}
	server := newDepositServer(t, recorder)
	client := NewClient(Config{BaseURL: server.URL, Token: "secret"}, server.Client())

	if err := client.AddAuthor(context.Background(), 42, Author{Name: "Orange Panda"}); err != nil {
		t.Fatalf("AddAuthor() error = %v", err)
	}
	creators, _ := recorder.metadata["creators"].([]any)
	if len(creators) != 2 {
		t.Fatalf("creators = %v", recorder.metadata["creators"])
	}
	last, _ := creators[1].(map[string]any)
	if last["name"] != "Orange Panda" {
		t.Fatalf("added creator = %v", last)
	}
	if _, has := last["orcid"]; has {
		t.Fatalf("pseudonym creator carries an orcid: %v", last)
	}
	if got := strings.Join(recorder.calls, ","); !strings.HasSuffix(got, "POST /api/deposit/depositions/42/actions/publish") {
		t.Fatalf("calls = %s", got)
	}
}

func TestAllPagesThroughCommunity(t *testing.T) {
	t.Parallel()

	var server *httptest.Server
	var mu sync.Mutex
	var pages []string
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		pages = append(pages, r.URL.Query().Get("page"))
		mu.Unlock()
		if r.URL.Query().Get("size") != "100" {
			t.Errorf("size = %q, want 100", r.URL.Query().Get("size"))
		}
		id := 100
		if r.URL.Query().Get("page") == "2" {
			id = 200
		}
		_, _ = w.Write([]byte(`{"hits":{"total":150,"hits":[` + recordJSON(server.URL, id, "prereview-reviews") + `]}}`))
	}))
	t.Cleanup(server.Close)

	got, err := NewClient(Config{BaseURL: server.URL}, server.Client()).All(context.Background())
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != 100 || got[1].ID != 200 {
		t.Fatalf("All() = %+v, want records 100 and 200", got)
	}
	if strings.Join(pages, ",") != "1,2" {
		t.Fatalf("pages = %v, want 1,2", pages)
	}
}
