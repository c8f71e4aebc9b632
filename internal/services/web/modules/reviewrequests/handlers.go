package reviewrequests

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/prereview/prereview/internal/openalex"
	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/preprint"
	"github.com/prereview/prereview/internal/reviewrequest"
	"github.com/prereview/prereview/internal/services/web/platform/cards"
	apperrors "github.com/prereview/prereview/internal/services/web/platform/errors"
	"github.com/prereview/prereview/internal/services/web/platform/httpx"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/templates"
	"github.com/prereview/prereview/internal/zenodo"
)

type handlers struct {
	m Module
}

func newHandlers(m Module) handlers {
	return handlers{m: m}
}

func (h handlers) list(r *http.Request) (response.Response, error) {
	ctx := httpx.RequestContext(r)
	query := r.URL.Query()
	page := 1
	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apperrors.E(apperrors.KindNotFound, "invalid page "+raw)
		}
		page = n
	}
	field := query.Get("field")
	if !openalex.IsField(field) {
		field = ""
	}
	state := h.m.requests.Snapshot()
	languages := reviewrequest.Languages(state)
	language := query.Get("language")
	if !slices.Contains(languages, language) {
		language = ""
	}

	result, err := reviewrequest.Search(state, reviewrequest.Filter{Field: openalex.FieldID(field), Language: language}, page)
	if errors.Is(err, reviewrequest.ErrPageNotFound) {
		return nil, apperrors.Wrap(apperrors.KindNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	preprints := cards.Preprints(ctx, h.m.preprints, cards.RequestIDs(result.Records), h.m.base.Log())

	pager := templates.Pager{Page: result.Number, TotalPages: result.TotalPages}
	if result.Number > 1 {
		pager.PrevURL = routepath.WithPage(routepath.ReviewRequests, query, result.Number-1)
	}
	if result.Number < result.TotalPages {
		pager.NextURL = routepath.WithPage(routepath.ReviewRequests, query, result.Number+1)
	}
	return response.Page{
		Title: templates.T(ctx, "requests.title", result.Number),
		Main: templates.ReviewRequests(templates.RequestsView{
			Fields:    cards.FieldOptions(field),
			Languages: cards.LanguageOptions(languages, language),
			Cards:     cards.Requests(result.Records, preprints),
			Pager:     pager,
		}),
		Nav:         templates.NavReviewRequests,
		Canonical:   routepath.WithPage(routepath.ReviewRequests, nil, result.Number),
		AllowRobots: field == "" && language == "",
	}, nil
}

// requireFeedKey only lets through requests bearing the configured key.
func (h handlers) requireFeedKey(next http.Handler) http.Handler {
	notFound := h.m.base.Handle(func(*http.Request) (response.Response, error) {
		return nil, apperrors.E(apperrors.KindNotFound, "data feed is disabled")
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.m.feedKey == "" {
			notFound.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(h.m.feedKey)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="prereview"`)
			_ = httpx.WriteJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h handlers) requestsData(w http.ResponseWriter, r *http.Request) {
	rows := reviewrequest.RequestsData(h.m.requests.Snapshot())
	h.settleServers(r, rows)
	if err := httpx.WriteJSON(w, http.StatusOK, rows); err != nil {
		h.m.base.Log().WithError(err).Warn("write requests data")
	}
}

// settleServers fills in rows left without a server because their DOI prefix
// is shared. Rows whose preprint cannot be resolved stay without one.
func (h handlers) settleServers(r *http.Request, rows []reviewrequest.FeedRow) {
	pending := make(map[int]preprint.ID)
	ids := make([]preprint.ID, 0)
	for i, row := range rows {
		if row.Server != "" {
			continue
		}
		if id, err := preprint.FromDOI(row.Preprint); err == nil && id.Ambiguous() {
			pending[i] = id
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}
	preprints := cards.Preprints(httpx.RequestContext(r), h.m.preprints, ids, h.m.base.Log())
	for i, id := range pending {
		if server := cards.Server(id, preprints); server != preprint.ServerBioRxivMedRxiv {
			rows[i].Server = server
		}
	}
}

// reviewRow is one entry of the reviews-data feed.
type reviewRow struct {
	Preprint  string         `json:"preprint"`
	Server    string         `json:"server,omitempty"`
	CreatedAt string         `json:"createdAt"`
	DOI       string         `json:"doi"`
	Authors   []reviewAuthor `json:"authors"`
	Language  string         `json:"language,omitempty"`
}

type reviewAuthor struct {
	Name  string `json:"name"`
	ORCID string `json:"orcid,omitempty"`
}

func (h handlers) reviewsData(w http.ResponseWriter, r *http.Request) {
	records, err := h.m.prereviews.All(httpx.RequestContext(r))
	if err != nil {
		h.m.base.Log().WithError(err).WithField("request_id", httpx.RequestIDOf(r)).Warn("list prereviews for data feed")
		_ = httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "unavailable"})
		return
	}
	var shared []preprint.ID
	for _, record := range records {
		if id, err := preprint.FromDOI(record.PreprintDOI); err == nil && id.Ambiguous() {
			shared = append(shared, id)
		}
	}
	preprints := cards.Preprints(httpx.RequestContext(r), h.m.preprints, shared, h.m.base.Log())
	rows := make([]reviewRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, reviewsDataRow(record, preprints))
	}
	if err := httpx.WriteJSON(w, http.StatusOK, rows); err != nil {
		h.m.base.Log().WithError(err).Warn("write reviews data")
	}
}

// reviewsDataRow leaves the server out when the DOI prefix is shared and
// preprints cannot settle it.
func reviewsDataRow(record zenodo.Prereview, preprints map[string]preprint.Preprint) reviewRow {
	row := reviewRow{
		Preprint:  record.PreprintDOI,
		CreatedAt: record.Published.UTC().Format(time.DateOnly),
		DOI:       record.DOI,
		Authors:   make([]reviewAuthor, 0, len(record.Authors)),
		Language:  record.Language,
	}
	if id, err := preprint.FromDOI(record.PreprintDOI); err == nil {
		row.Preprint = id.DOI
		if server := cards.Server(id, preprints); server != preprint.ServerBioRxivMedRxiv {
			row.Server = string(server)
		}
	}
	for _, author := range record.Authors {
		entry := reviewAuthor{Name: author.Name}
		if orcid.IsValid(author.ORCID) {
			entry.ORCID = author.ORCID
		}
		row.Authors = append(row.Authors, entry)
	}
	return row
}
