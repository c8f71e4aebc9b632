package reviewrequests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prereview/prereview/internal/preprint"
	"github.com/prereview/prereview/internal/reviewrequest"
	"github.com/prereview/prereview/internal/services/web/app"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/zenodo"
)

const feedKey = "sciety-key"

func serve(t *testing.T, m Module, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	handler, err := app.Compose(app.ComposeInput{PublicModules: []module.Module{m}})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// requestState builds n accepted requests, one hour apart, the first in
// Portuguese and the rest in English.
func requestState(n int) reviewrequest.State {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var events []reviewrequest.Event
	for i := range n {
		id := uuid.New()
		language := "en"
		if i == 0 {
			language = "pt"
		}
		events = append(events,
			reviewrequest.ImportedByPrereviewer{
				ReviewRequestID: id,
				PreprintID:      preprint.ID{Server: preprint.ServerBioRxivMedRxiv, DOI: "10.1101/2024.03.01.00000" + string(rune('0'+i))},
				PublishedAt:     start.Add(time.Duration(i) * time.Hour),
			},
			reviewrequest.Categorized{ReviewRequestID: id, Language: language},
		)
	}
	return reviewrequest.Fold(nil, events)
}

func TestListPagesRequests(t *testing.T) {
	t.Parallel()

	m := New(testBase(), fakeRequests{state: requestState(7)}, nil, nil, "")

	rec := serve(t, m, httptest.NewRequest(http.MethodGet, "/review-requests", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "10.1101/2024.03.01.000006") || strings.Contains(body, "10.1101/2024.03.01.000001") {
		t.Fatal("first page should hold the newest five requests")
	}
	if !strings.Contains(body, `rel="next"`) {
		t.Fatal("first page is missing the next link")
	}

	rec = serve(t, m, httptest.NewRequest(http.MethodGet, "/review-requests?page=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("page 2 status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "10.1101/2024.03.01.000000") {
		t.Fatal("page 2 is missing the oldest request")
	}
}

func TestListFiltersByLanguage(t *testing.T) {
	t.Parallel()

	m := New(testBase(), fakeRequests{state: requestState(3)}, nil, nil, "")
	rec := serve(t, m, httptest.NewRequest(http.MethodGet, "/review-requests?language=pt", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "10.1101/2024.03.01.000000") || strings.Contains(body, "10.1101/2024.03.01.000002") {
		t.Fatal("language filter did not narrow the list")
	}
	if !strings.Contains(body, `value="pt" selected="selected"`) {
		t.Fatal("selected language is not marked")
	}
}

func TestListPastLastPageIsNotFound(t *testing.T) {
	t.Parallel()

	m := New(testBase(), fakeRequests{state: requestState(2)}, nil, nil, "")
	for _, target := range []string{"/review-requests?page=2", "/review-requests?page=0", "/review-requests?page=x"} {
		rec := serve(t, m, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s status = %d, want %d", target, rec.Code, http.StatusNotFound)
		}
	}
}

func TestEmptyListIsNotAnError(t *testing.T) {
	t.Parallel()

	m := New(testBase(), fakeRequests{state: reviewrequest.NewState(nil)}, nil, nil, "")
	rec := serve(t, m, httptest.NewRequest(http.MethodGet, "/review-requests", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestFeedsRequireKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		key    string
		header string
		want   int
	}{
		{name: "disabled", header: "Bearer anything", want: http.StatusNotFound},
		{name: "missing", key: feedKey, want: http.StatusForbidden},
		{name: "wrong", key: feedKey, header: "Bearer nope", want: http.StatusForbidden},
		{name: "basic scheme", key: feedKey, header: "Basic " + feedKey, want: http.StatusForbidden},
		{name: "correct", key: feedKey, header: "Bearer " + feedKey, want: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := New(testBase(), fakeRequests{state: requestState(1)}, fakePrereviews{}, nil, tc.key)
			for _, target := range []string{"/requests-data", "/reviews-data"} {
				req := httptest.NewRequest(http.MethodGet, target, nil)
				if tc.header != "" {
					req.Header.Set("Authorization", tc.header)
				}
				rec := serve(t, m, req)
				if rec.Code != tc.want {
					t.Fatalf("%s status = %d, want %d", target, rec.Code, tc.want)
				}
			}
		})
	}
}

func TestRequestsDataFeed(t *testing.T) {
	t.Parallel()

	m := New(testBase(), fakeRequests{state: requestState(2)}, nil, nil, feedKey)
	req := httptest.NewRequest(http.MethodGet, "/requests-data", nil)
	req.Header.Set("Authorization", "Bearer "+feedKey)
	rec := serve(t, m, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var rows []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0]["preprint"] != "10.1101/2024.03.01.000000" || rows[0]["language"] != "pt" {
		t.Fatalf("rows[0] = %v, want the oldest request first", rows[0])
	}
	if server, ok := rows[0]["server"]; ok {
		t.Fatalf("rows[0].server = %v, want it left out when the preprint cannot be resolved", server)
	}
}

func TestRequestsDataFeedResolvesSharedPrefix(t *testing.T) {
	t.Parallel()

	id, err := preprint.ParseRouteSegment(preprint.ID{DOI: "10.1101/2022.01.13.476201"}.RouteSegment())
	if err != nil {
		t.Fatalf("ParseRouteSegment() error = %v", err)
	}
	requestID := uuid.New()
	state := reviewrequest.Fold(nil, []reviewrequest.Event{
		reviewrequest.Received{ReviewRequestID: requestID, PreprintID: id},
		reviewrequest.Accepted{ReviewRequestID: requestID, AcceptedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
	})
	preprints := fakePreprints{id.DOI: preprint.ServerBioRxiv}
	m := New(testBase(), fakeRequests{state: state}, nil, preprints, feedKey)
	req := httptest.NewRequest(http.MethodGet, "/requests-data", nil)
	req.Header.Set("Authorization", "Bearer "+feedKey)
	rec := serve(t, m, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var rows []reviewrequest.FeedRow
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	if len(rows) != 1 || rows[0].Server != preprint.ServerBioRxiv {
		t.Fatalf("rows = %+v, want server %q", rows, preprint.ServerBioRxiv)
	}
}

func TestReviewsDataFeed(t *testing.T) {
	t.Parallel()

	prereviews := fakePrereviews{records: []zenodo.Prereview{{
		ID:          42,
		DOI:         "10.5281/zenodo.42",
		PreprintDOI: "10.1101/2024.01.01.000001",
		Published:   time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC),
		Language:    "en",
		Authors: []zenodo.Author{
			{Name: "Josiah Carberry", ORCID: "0000-0002-1825-0097"},
			{Name: "Orange Panda", ORCID: "not-an-orcid"},
		},
	}}}
	preprints := fakePreprints{"10.1101/2024.01.01.000001": preprint.ServerMedRxiv}
	m := New(testBase(), fakeRequests{}, prereviews, preprints, feedKey)
	req := httptest.NewRequest(http.MethodGet, "/reviews-data", nil)
	req.Header.Set("Authorization", "Bearer "+feedKey)
	rec := serve(t, m, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var rows []reviewRow
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.CreatedAt != "2024-02-03" || row.DOI != "10.5281/zenodo.42" || row.Server != "medrxiv" {
		t.Fatalf("row = %+v", row)
	}
	if len(row.Authors) != 2 || row.Authors[0].ORCID != "0000-0002-1825-0097" || row.Authors[1].ORCID != "" {
		t.Fatalf("authors = %+v, want only the valid ORCID kept", row.Authors)
	}
}

func TestReviewsDataUnavailable(t *testing.T) {
	t.Parallel()

	m := New(testBase(), fakeRequests{}, fakePrereviews{err: zenodo.ErrUnavailable}, nil, feedKey)
	req := httptest.NewRequest(http.MethodGet, "/reviews-data", nil)
	req.Header.Set("Authorization", "Bearer "+feedKey)
	rec := serve(t, m, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestReviewsDataRowServer(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		doi       string
		preprints map[string]preprint.Preprint
		want      string
	}{
		"unresolved shared prefix": {doi: "10.1101/2024.01.01.000001", want: ""},
		"resolved shared prefix": {
			doi: "10.1101/2024.01.01.000001",
			preprints: map[string]preprint.Preprint{
				"10.1101/2024.01.01.000001": {ID: preprint.ID{Server: preprint.ServerBioRxiv, DOI: "10.1101/2024.01.01.000001"}},
			},
			want: "biorxiv",
		},
		"own prefix": {doi: "10.48550/arXiv.2401.00001", want: "arxiv"},
	}
	for name, tc := range tests {
		row := reviewsDataRow(zenodo.Prereview{PreprintDOI: tc.doi}, tc.preprints)
		if row.Server != tc.want {
			t.Fatalf("%s: Server = %q, want %q", name, row.Server, tc.want)
		}
	}
}
